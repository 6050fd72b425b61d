package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileId(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		want     string
	}{
		{"simple", "Alice", "profile-Alice"},
		{"spaces replaced", "Alice Smith", "profile-Alice_Smith"},
		{"multiple spaces", "A B C", "profile-A_B_C"},
		{"unknown bucket", "Unknown", "profile-Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfileId(tt.userName))
		})
	}
}

func TestMessageHasContent(t *testing.T) {
	assert.True(t, (&Message{Content: "hello"}).HasContent())
	assert.False(t, (&Message{Content: ""}).HasContent())
	assert.False(t, (&Message{Content: "   \t\n"}).HasContent())
}
