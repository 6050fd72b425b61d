package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport(t *testing.T) {
	report := &Report{}
	assert.True(t, report.Clean())

	report.Done(3)
	report.Done(2)
	report.Drop("batch 1 (16 messages)", "timeout")

	assert.Equal(t, 5, report.Completed)
	assert.Len(t, report.Skipped, 1)
	assert.Equal(t, "batch 1 (16 messages)", report.Skipped[0].Unit)
	assert.Equal(t, "timeout", report.Skipped[0].Reason)
	assert.False(t, report.Clean())
	assert.Equal(t, "5 completed, 1 skipped", report.Summary())
}
