// Copyright 2025 Pruqanda Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pruqanda/pruqanda/ai"
	"github.com/pruqanda/pruqanda/core"
	"github.com/pruqanda/pruqanda/progress"
)

const (
	defaultBatchSize          = 16
	defaultPoolSize           = 5
	defaultCheckpointInterval = 500
)

// CheckpointWriter persists the accumulated result set. The pipeline calls it
// for periodic checkpoints and once more on completion; each call overwrites
// the previous snapshot.
type CheckpointWriter interface {
	SaveEmbedded(records []core.EmbeddedMessage) error
}

// Tracker records completed message ids so an interrupted run can skip
// finished work when restarted.
type Tracker interface {
	MarkEmbedded(ctx context.Context, ids ...string) error
	FilterPending(ctx context.Context, messages []core.Message) ([]core.Message, error)
}

// Pipeline generates embeddings for a message corpus in fixed-size batches
// dispatched to a bounded worker pool. Failed batches are dropped, not
// retried: the pipeline is best-effort and favors maximizing completed work
// over aborting on first error.
type Pipeline struct {
	embedder           ai.Embedder
	writer             CheckpointWriter
	tracker            Tracker
	pool               *ants.Pool
	batchSize          int
	checkpointInterval int
	progressWriter     io.Writer
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets the number of messages per embedding request.
// Default is 16.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent embedding requests.
// Default is 5.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithCheckpointInterval sets how many accumulated results trigger a
// checkpoint flush. Default is 500. The trigger is exact: a flush happens
// whenever at least this many results have accumulated since the last flush.
func WithCheckpointInterval(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("checkpoint interval must be positive, got %d", n)
		}
		p.checkpointInterval = n
		return nil
	}
}

// WithCheckpointWriter sets the destination for periodic and final flushes.
// Without a writer the pipeline only returns results in memory.
func WithCheckpointWriter(w CheckpointWriter) Option {
	return func(p *Pipeline) error {
		p.writer = w
		return nil
	}
}

// WithTracker enables resume support: messages already recorded by the
// tracker are skipped, and completed batches are recorded as they finish.
func WithTracker(t Tracker) Option {
	return func(p *Pipeline) error {
		p.tracker = t
		return nil
	}
}

// WithProgress reports progress to the given writer (typically os.Stderr)
// as batches complete.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progressWriter = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a batch embedding pipeline.
func NewPipeline(embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		embedder:           embedder,
		pool:               pool,
		batchSize:          defaultBatchSize,
		checkpointInterval: defaultCheckpointInterval,
		logger:             slog.Default().With("component", "embed"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Run embeds all messages with content and returns the accumulated records
// with a report of dropped batches. Records lacking non-blank content are
// excluded before batching and are not counted as failures. Output order
// follows batch completion order, not input order; within a batch, input
// order is preserved.
func (p *Pipeline) Run(ctx context.Context, messages []core.Message) ([]core.EmbeddedMessage, *core.Report, error) {
	report := &core.Report{}

	if p.tracker != nil {
		filtered, err := p.tracker.FilterPending(ctx, messages)
		if err != nil {
			return nil, nil, fmt.Errorf("filter pending messages: %w", err)
		}
		if skipped := len(messages) - len(filtered); skipped > 0 {
			p.logger.Info("resuming: skipping already embedded messages", "skipped", skipped)
		}
		messages = filtered
	}

	pending := make([]core.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.HasContent() {
			pending = append(pending, msg)
		}
	}

	batches := partition(pending, p.batchSize)
	p.logger.Info("embedding messages", "messages", len(pending), "batches", len(batches), "batchSize", p.batchSize)

	var tracker *progress.Tracker
	if p.progressWriter != nil {
		tracker = progress.NewTracker(p.progressWriter, len(pending), p.batchSize)
		tracker.Start()
	}

	acc := &accumulator{
		results:  make([]core.EmbeddedMessage, 0, len(pending)),
		report:   report,
		interval: p.checkpointInterval,
		writer:   p.writer,
		logger:   p.logger,
	}

	var wg sync.WaitGroup
	for i, batch := range batches {
		idx, b := i, batch
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			p.processBatch(ctx, idx, b, acc)
			if tracker != nil {
				tracker.Increment(len(b))
			}
		})
		if err != nil {
			wg.Done()
			acc.drop(batchLabel(idx, len(b)), fmt.Sprintf("submit to worker pool: %v", err))
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}

	// Final flush; idempotent with the last periodic checkpoint.
	results := acc.finalFlush()

	p.logger.Info("embedding complete", "report", report.Summary())
	return results, report, nil
}

// processBatch embeds one batch and folds the results into the accumulator.
// Any failure drops the entire batch: its messages never appear in the output.
func (p *Pipeline) processBatch(ctx context.Context, idx int, batch []core.Message, acc *accumulator) {
	label := batchLabel(idx, len(batch))

	texts := make([]string, len(batch))
	for i, msg := range batch {
		texts[i] = msg.Content
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		p.logger.Error("batch failed", "batch", idx, "messages", len(batch), "err", err)
		acc.drop(label, err.Error())
		return
	}

	// The embedding API promises positional correspondence but does not echo
	// per-item keys, so a count mismatch means assignments can't be trusted.
	if len(vectors) != len(batch) {
		p.logger.Error("embedding count mismatch", "batch", idx, "sent", len(batch), "received", len(vectors))
		acc.drop(label, fmt.Sprintf("embedding count mismatch: sent %d, received %d", len(batch), len(vectors)))
		return
	}

	records := make([]core.EmbeddedMessage, len(batch))
	for i, msg := range batch {
		records[i] = core.EmbeddedMessage{Message: msg, ContentVector: vectors[i]}
	}

	acc.add(records)

	if p.tracker != nil {
		ids := make([]string, len(batch))
		for i, msg := range batch {
			ids[i] = msg.Id
		}
		if err := p.tracker.MarkEmbedded(ctx, ids...); err != nil {
			p.logger.Error("failed to record embedded ids", "batch", idx, "err", err)
		}
	}
}

// accumulator collects results from concurrent workers and flushes the full
// set whenever the checkpoint interval has elapsed. Appends and flushes share
// one mutex so serialization never observes a torn result set.
type accumulator struct {
	mu         sync.Mutex
	results    []core.EmbeddedMessage
	report     *core.Report
	sinceFlush int
	interval   int
	writer     CheckpointWriter
	logger     *slog.Logger
}

func (a *accumulator) add(records []core.EmbeddedMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.results = append(a.results, records...)
	a.report.Done(len(records))
	a.sinceFlush += len(records)

	if a.writer != nil && a.sinceFlush >= a.interval {
		if err := a.writer.SaveEmbedded(a.results); err != nil {
			a.logger.Error("checkpoint flush failed", "records", len(a.results), "err", err)
		} else {
			a.logger.Info("checkpoint saved", "records", len(a.results))
		}
		a.sinceFlush = 0
	}
}

func (a *accumulator) drop(unit, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Drop(unit, reason)
}

// finalFlush writes the complete result set once more and returns it.
func (a *accumulator) finalFlush() []core.EmbeddedMessage {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.writer != nil {
		if err := a.writer.SaveEmbedded(a.results); err != nil {
			a.logger.Error("final flush failed", "records", len(a.results), "err", err)
		}
	}
	return a.results
}

func batchLabel(idx, size int) string {
	return fmt.Sprintf("batch %d (%d messages)", idx, size)
}

// partition splits messages into fixed-size batches preserving input order.
func partition(messages []core.Message, size int) [][]core.Message {
	if len(messages) == 0 {
		return nil
	}
	batches := make([][]core.Message, 0, (len(messages)+size-1)/size)
	for start := 0; start < len(messages); start += size {
		end := start + size
		if end > len(messages) {
			end = len(messages)
		}
		batches = append(batches, messages[start:end])
	}
	return batches
}
