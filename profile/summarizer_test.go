package profile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pruqanda/pruqanda/ai"
	"github.com/pruqanda/pruqanda/ai/mock"
	"github.com/pruqanda/pruqanda/core"
)

func TestNewSummarizerRequiresChatModel(t *testing.T) {
	_, err := NewSummarizer(nil)
	assert.ErrorIs(t, err, ErrChatModelRequired)
}

func TestSummarizeAllOneProfilePerUser(t *testing.T) {
	chat := mock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (string, error) {
		return "summary", nil
	}

	summarizer, err := NewSummarizer(chat)
	require.NoError(t, err)

	messages := []core.Message{
		{UserName: "Alice", Content: "first"},
		{UserName: "Alice", Content: "second"},
		{UserName: "Bob", Content: "third"},
	}

	profiles, report := summarizer.SummarizeAll(context.Background(), messages)
	require.Len(t, profiles, 2)
	assert.True(t, report.Clean())

	// First-seen order, one call per user.
	assert.Equal(t, "profile-Alice", profiles[0].Id)
	assert.Equal(t, "Alice", profiles[0].UserName)
	assert.Equal(t, "profile-Bob", profiles[1].Id)
	assert.Equal(t, 2, chat.CallCount())

	// Alice's call carries both of her messages.
	requests := chat.Requests()
	assert.Contains(t, requests[0].Prompt, "first\nsecond")
	assert.Contains(t, requests[1].Prompt, "third")
}

func TestSummarizeAllCapsHistory(t *testing.T) {
	chat := mock.NewMockChatModel()
	summarizer, err := NewSummarizer(chat)
	require.NoError(t, err)

	messages := make([]core.Message, 60)
	for i := range messages {
		messages[i] = core.Message{UserName: "Alice", Content: fmt.Sprintf("msg-%02d", i)}
	}

	profiles, report := summarizer.SummarizeAll(context.Background(), messages)
	require.Len(t, profiles, 1)
	assert.True(t, report.Clean())

	prompt := chat.Requests()[0].Prompt
	assert.Contains(t, prompt, "msg-49")
	assert.NotContains(t, prompt, "msg-50")
}

func TestSummarizeAllSkipsFailedUsers(t *testing.T) {
	chat := mock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (string, error) {
		if len(chat.Requests()) == 2 {
			return "", errors.New("model overloaded")
		}
		return "summary", nil
	}

	summarizer, err := NewSummarizer(chat)
	require.NoError(t, err)

	messages := []core.Message{
		{UserName: "Alice", Content: "a"},
		{UserName: "Bob", Content: "b"},
		{UserName: "Carol", Content: "c"},
	}

	profiles, report := summarizer.SummarizeAll(context.Background(), messages)

	// Bob fails and is omitted; the loop continues to Carol.
	require.Len(t, profiles, 2)
	assert.Equal(t, "Alice", profiles[0].UserName)
	assert.Equal(t, "Carol", profiles[1].UserName)

	assert.Equal(t, 2, report.Completed)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "Bob", report.Skipped[0].Unit)
	assert.Contains(t, report.Skipped[0].Reason, "overloaded")
}

func TestSummarizeAllUnknownBucket(t *testing.T) {
	chat := mock.NewMockChatModel()
	summarizer, err := NewSummarizer(chat)
	require.NoError(t, err)

	messages := []core.Message{
		{UserName: "", Content: "anon one"},
		{UserName: "   ", Content: "anon two"},
		{UserName: "Alice", Content: "hello"},
	}

	profiles, report := summarizer.SummarizeAll(context.Background(), messages)
	require.Len(t, profiles, 2)
	assert.True(t, report.Clean())

	assert.Equal(t, "Unknown", profiles[0].UserName)
	assert.Equal(t, "profile-Unknown", profiles[0].Id)
	assert.Contains(t, chat.Requests()[0].Prompt, "anon one\nanon two")
}

func TestSummarizeAllRequestParameters(t *testing.T) {
	chat := mock.NewMockChatModel()
	summarizer, err := NewSummarizer(chat)
	require.NoError(t, err)

	summarizer.SummarizeAll(context.Background(), []core.Message{{UserName: "Alice", Content: "hi"}})

	req := chat.Requests()[0]
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)
	assert.Equal(t, 250, req.MaxTokens)
	assert.NotEmpty(t, req.System)
}

func TestSummarizeAllEmptyInput(t *testing.T) {
	chat := mock.NewMockChatModel()
	summarizer, err := NewSummarizer(chat)
	require.NoError(t, err)

	profiles, report := summarizer.SummarizeAll(context.Background(), nil)
	assert.Empty(t, profiles)
	assert.True(t, report.Clean())
	assert.Equal(t, 0, chat.CallCount())
}

func TestWithMaxMessagesRejectsInvalid(t *testing.T) {
	_, err := NewSummarizer(mock.NewMockChatModel(), WithMaxMessages(0))
	assert.Error(t, err)
}
