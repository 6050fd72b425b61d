package embed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pruqanda/pruqanda/ai/mock"
	"github.com/pruqanda/pruqanda/core"
)

func makeMessages(n int) []core.Message {
	messages := make([]core.Message, n)
	for i := range messages {
		messages[i] = core.Message{
			Id:       fmt.Sprintf("msg-%02d", i),
			UserId:   "u1",
			UserName: "Alice",
			Content:  fmt.Sprintf("content %d", i),
		}
	}
	return messages
}

// fakeWriter records every checkpoint flush.
type fakeWriter struct {
	mu     sync.Mutex
	saves  [][]core.EmbeddedMessage
	failOn int // 1-based call number to fail, 0 means never
}

func (w *fakeWriter) SaveEmbedded(records []core.EmbeddedMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	snapshot := make([]core.EmbeddedMessage, len(records))
	copy(snapshot, records)
	w.saves = append(w.saves, snapshot)
	if w.failOn > 0 && len(w.saves) == w.failOn {
		return errors.New("disk full")
	}
	return nil
}

func (w *fakeWriter) saveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.saves)
}

// fakeTracker filters a fixed set of ids and records marked ones.
type fakeTracker struct {
	mu       sync.Mutex
	done     map[string]bool
	marked   []string
	filterFn func(ctx context.Context, messages []core.Message) ([]core.Message, error)
}

func newFakeTracker(doneIds ...string) *fakeTracker {
	done := make(map[string]bool, len(doneIds))
	for _, id := range doneIds {
		done[id] = true
	}
	return &fakeTracker{done: done}
}

func (t *fakeTracker) MarkEmbedded(ctx context.Context, ids ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marked = append(t.marked, ids...)
	return nil
}

func (t *fakeTracker) FilterPending(ctx context.Context, messages []core.Message) ([]core.Message, error) {
	if t.filterFn != nil {
		return t.filterFn(ctx, messages)
	}
	pending := make([]core.Message, 0, len(messages))
	for _, msg := range messages {
		if !t.done[msg.Id] {
			pending = append(pending, msg)
		}
	}
	return pending, nil
}

func TestNewPipelineRequiresEmbedder(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestRunEmbedsAllMessages(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 8

	pipeline, err := NewPipeline(embedder, WithBatchSize(4))
	require.NoError(t, err)
	defer pipeline.Release()

	messages := makeMessages(10)
	results, report, err := pipeline.Run(context.Background(), messages)
	require.NoError(t, err)

	require.Len(t, results, 10)
	assert.True(t, report.Clean())
	assert.Equal(t, 10, report.Completed)

	// Every input id appears exactly once, each with a vector of the
	// embedder's dimensionality.
	seen := make(map[string]bool)
	for _, rec := range results {
		assert.Len(t, rec.ContentVector, 8)
		assert.False(t, seen[rec.Id], "duplicate id %s", rec.Id)
		seen[rec.Id] = true
	}
	for _, msg := range messages {
		assert.True(t, seen[msg.Id], "missing id %s", msg.Id)
	}
}

func TestRunSkipsBlankContent(t *testing.T) {
	embedder := mock.NewMockEmbedder()

	pipeline, err := NewPipeline(embedder)
	require.NoError(t, err)
	defer pipeline.Release()

	messages := []core.Message{
		{Id: "m1", Content: "hello"},
		{Id: "m2", Content: ""},
		{Id: "m3", Content: "   \n"},
		{Id: "m4", Content: "world"},
	}

	results, report, err := pipeline.Run(context.Background(), messages)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.True(t, report.Clean(), "blank messages are excluded, not failures")
	assert.Equal(t, 2, report.Completed)
}

func TestRunDropsFailedBatchOnly(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		for _, text := range texts {
			if text == "content 3" {
				return nil, errors.New("provider rate limit")
			}
		}
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = []float32{0.1, 0.2}
		}
		return vectors, nil
	}

	pipeline, err := NewPipeline(embedder, WithBatchSize(2), WithPoolSize(1))
	require.NoError(t, err)
	defer pipeline.Release()

	results, report, err := pipeline.Run(context.Background(), makeMessages(10))
	require.NoError(t, err)

	// The batch holding msg-02 and msg-03 is gone, everything else survives.
	assert.Len(t, results, 8)
	assert.Equal(t, 8, report.Completed)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "batch 1 (2 messages)", report.Skipped[0].Unit)
	assert.Contains(t, report.Skipped[0].Reason, "rate limit")
}

func TestRunDropsBatchOnCountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		// Return one vector too few.
		vectors := make([][]float32, len(texts)-1)
		for i := range vectors {
			vectors[i] = []float32{0.5}
		}
		return vectors, nil
	}

	pipeline, err := NewPipeline(embedder, WithBatchSize(4), WithPoolSize(1))
	require.NoError(t, err)
	defer pipeline.Release()

	results, report, err := pipeline.Run(context.Background(), makeMessages(4))
	require.NoError(t, err)

	assert.Empty(t, results)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "embedding count mismatch: sent 4, received 3", report.Skipped[0].Reason)
}

func TestRunCheckpointsAtExactInterval(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	writer := &fakeWriter{}

	pipeline, err := NewPipeline(embedder,
		WithBatchSize(2),
		WithPoolSize(1),
		WithCheckpointInterval(4),
		WithCheckpointWriter(writer),
	)
	require.NoError(t, err)
	defer pipeline.Release()

	results, report, err := pipeline.Run(context.Background(), makeMessages(10))
	require.NoError(t, err)
	require.Len(t, results, 10)
	assert.True(t, report.Clean())

	// Sequential batches of 2 accumulate 2, 4, 6, 8, 10 results. The counter
	// triggers at 4 and again at 8, and the final flush writes everything:
	// three saves, the last holding the full set.
	require.Equal(t, 3, writer.saveCount())
	assert.Len(t, writer.saves[0], 4)
	assert.Len(t, writer.saves[1], 8)
	assert.Len(t, writer.saves[2], 10)
}

func TestRunFlushesOnceWithoutInterval(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	writer := &fakeWriter{}

	pipeline, err := NewPipeline(embedder, WithCheckpointWriter(writer))
	require.NoError(t, err)
	defer pipeline.Release()

	results, _, err := pipeline.Run(context.Background(), makeMessages(5))
	require.NoError(t, err)
	require.Len(t, results, 5)

	// Below the default interval only the final flush runs.
	require.Equal(t, 1, writer.saveCount())
	assert.Len(t, writer.saves[0], 5)
}

func TestRunResumesViaTracker(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	tracker := newFakeTracker("msg-00", "msg-01", "msg-02")

	pipeline, err := NewPipeline(embedder, WithPoolSize(1), WithTracker(tracker))
	require.NoError(t, err)
	defer pipeline.Release()

	results, report, err := pipeline.Run(context.Background(), makeMessages(5))
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.Equal(t, 2, report.Completed)
	assert.ElementsMatch(t, []string{"msg-03", "msg-04"}, tracker.marked)
}

func TestRunFailsWhenTrackerFilterFails(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	tracker := newFakeTracker()
	tracker.filterFn = func(ctx context.Context, messages []core.Message) ([]core.Message, error) {
		return nil, errors.New("db closed")
	}

	pipeline, err := NewPipeline(embedder, WithTracker(tracker))
	require.NoError(t, err)
	defer pipeline.Release()

	_, _, err = pipeline.Run(context.Background(), makeMessages(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter pending messages")
}

func TestRunEmptyInput(t *testing.T) {
	embedder := mock.NewMockEmbedder()

	pipeline, err := NewPipeline(embedder)
	require.NoError(t, err)
	defer pipeline.Release()

	results, report, err := pipeline.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.True(t, report.Clean())
	assert.Equal(t, 0, embedder.CallCount())
}

func TestWithBatchSizeRejectsInvalid(t *testing.T) {
	_, err := NewPipeline(mock.NewMockEmbedder(), WithBatchSize(0))
	assert.Error(t, err)

	_, err = NewPipeline(mock.NewMockEmbedder(), WithCheckpointInterval(0))
	assert.Error(t, err)
}
