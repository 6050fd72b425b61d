package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pruqanda/pruqanda/core"
	"github.com/pruqanda/pruqanda/searchindex"
)

// fakeWriter records uploads and fails for configured ids.
type fakeWriter struct {
	uploaded []searchindex.Document
	failIds  map[string]bool
}

func (w *fakeWriter) Upload(ctx context.Context, doc searchindex.Document) error {
	if w.failIds[doc.Id] {
		return errors.New("service unavailable")
	}
	w.uploaded = append(w.uploaded, doc)
	return nil
}

func TestNewUploaderRequiresWriter(t *testing.T) {
	_, err := NewUploader(nil)
	assert.ErrorIs(t, err, ErrWriterRequired)
}

func TestUploadAll(t *testing.T) {
	writer := &fakeWriter{}
	uploader, err := NewUploader(writer)
	require.NoError(t, err)

	records := []core.EmbeddedMessage{
		{Message: core.Message{Id: "m1", UserName: "Alice", Content: "hello"}, ContentVector: []float32{0.1}},
		{Message: core.Message{Id: "m2", UserName: "Bob", Content: "world"}, ContentVector: []float32{0.2}},
	}

	report := uploader.UploadAll(context.Background(), records)
	assert.True(t, report.Clean())
	assert.Equal(t, 2, report.Completed)

	require.Len(t, writer.uploaded, 2)
	assert.Equal(t, "m1", writer.uploaded[0].Id)
	assert.Equal(t, []float32{0.2}, writer.uploaded[1].ContentVector)
}

func TestUploadAllSkipsFailedDocuments(t *testing.T) {
	writer := &fakeWriter{failIds: map[string]bool{"m2": true}}
	uploader, err := NewUploader(writer)
	require.NoError(t, err)

	records := []core.EmbeddedMessage{
		{Message: core.Message{Id: "m1", Content: "a"}},
		{Message: core.Message{Id: "m2", Content: "b"}},
		{Message: core.Message{Id: "m3", Content: "c"}},
	}

	report := uploader.UploadAll(context.Background(), records)
	assert.Equal(t, 2, report.Completed)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "m2", report.Skipped[0].Unit)
	assert.Contains(t, report.Skipped[0].Reason, "service unavailable")

	// The failure did not halt the loop.
	require.Len(t, writer.uploaded, 2)
	assert.Equal(t, "m3", writer.uploaded[1].Id)
}

func TestUploadAllEmpty(t *testing.T) {
	uploader, err := NewUploader(&fakeWriter{})
	require.NoError(t, err)

	report := uploader.UploadAll(context.Background(), nil)
	assert.True(t, report.Clean())
	assert.Equal(t, "0 completed, 0 skipped", report.Summary())
}
