package index

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pruqanda/pruqanda/core"
	"github.com/pruqanda/pruqanda/searchindex"
)

// ErrWriterRequired is returned when a document writer is not provided.
var ErrWriterRequired = errors.New("document writer required")

// DocumentWriter uploads one document to the search index.
type DocumentWriter interface {
	Upload(ctx context.Context, doc searchindex.Document) error
}

// Uploader pushes embedded messages into the search index one document at a
// time. Per-document failures are logged and skipped; the target store is
// idempotent by id, so the strategy is safe to re-run.
type Uploader struct {
	writer DocumentWriter
	logger *slog.Logger
}

// Option configures an Uploader.
type Option func(*Uploader) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) error {
		if logger == nil {
			logger = slog.Default()
		}
		u.logger = logger
		return nil
	}
}

// NewUploader creates an uploader targeting the given document writer.
func NewUploader(writer DocumentWriter, opts ...Option) (*Uploader, error) {
	if writer == nil {
		return nil, ErrWriterRequired
	}

	u := &Uploader{
		writer: writer,
		logger: slog.Default().With("component", "index"),
	}

	for _, opt := range opts {
		if err := opt(u); err != nil {
			return nil, err
		}
	}

	return u, nil
}

// UploadAll uploads every record, one call per document, and reports the
// outcome. A failing document does not halt the loop.
func (u *Uploader) UploadAll(ctx context.Context, records []core.EmbeddedMessage) *core.Report {
	report := &core.Report{}

	for _, rec := range records {
		doc := searchindex.Document{
			Id:            rec.Id,
			UserId:        rec.UserId,
			UserName:      rec.UserName,
			Timestamp:     rec.Timestamp,
			Content:       rec.Content,
			ContentVector: rec.ContentVector,
		}

		if err := u.writer.Upload(ctx, doc); err != nil {
			u.logger.Error("upload failed", "id", rec.Id, "err", err)
			report.Drop(rec.Id, err.Error())
			continue
		}
		report.Done(1)
	}

	u.logger.Info("upload complete", "report", report.Summary())
	return report
}
