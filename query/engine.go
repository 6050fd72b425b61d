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


package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pruqanda/pruqanda/ai"
	"github.com/pruqanda/pruqanda/searchindex"
)

const (
	// EmptyQuestionReply is returned for blank input without touching any
	// remote service.
	EmptyQuestionReply = "Please enter a question so I can search the member messages."

	// ErrorPrefix marks answers that report a failure instead of an answer.
	ErrorPrefix = "ERROR: "

	// Retrieval defaults for the two modes; the direct semantic path uses a
	// narrow fan-in, hybrid casts a much wider net and lets the model sift.
	defaultSemanticTopK = 5
	defaultHybridTopK   = 40

	generationTemperature = 0.2
)

// Retriever fetches documents relevant to a question from the search index.
type Retriever interface {
	Search(ctx context.Context, q searchindex.Query) ([]searchindex.Document, error)
}

// Engine answers natural-language questions by retrieving relevant messages
// and passing them as context to the chat completion service.
//
// Answer never returns an error: every failure mode resolves to a string
// starting with ErrorPrefix, so the engine is safe to call directly from a
// request handler.
type Engine struct {
	retriever Retriever
	chat      ai.ChatModel
	embedder  ai.Embedder
	mode      searchindex.Mode
	topK      int
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithMode selects the retrieval strategy. Default is semantic.
func WithMode(mode searchindex.Mode) Option {
	return func(e *Engine) error {
		if !mode.Valid() {
			return fmt.Errorf("unknown search mode %q", mode)
		}
		e.mode = mode
		return nil
	}
}

// WithTopK overrides the retrieval fan-in. Default is 5 for semantic mode
// and 40 for hybrid.
func WithTopK(k int) Option {
	return func(e *Engine) error {
		if k < 1 {
			return fmt.Errorf("top-k must be positive, got %d", k)
		}
		e.topK = k
		return nil
	}
}

// WithEmbedder supplies the embedder used to vectorize questions.
// Required in hybrid mode, unused otherwise.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(e *Engine) error {
		e.embedder = embedder
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a query engine.
func NewEngine(retriever Retriever, chat ai.ChatModel, opts ...Option) (*Engine, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if chat == nil {
		return nil, ErrChatModelRequired
	}

	e := &Engine{
		retriever: retriever,
		chat:      chat,
		mode:      searchindex.ModeSemantic,
		logger:    slog.Default().With("component", "query"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.mode == searchindex.ModeHybrid && e.embedder == nil {
		return nil, ErrEmbedderRequired
	}

	if e.topK == 0 {
		if e.mode == searchindex.ModeHybrid {
			e.topK = defaultHybridTopK
		} else {
			e.topK = defaultSemanticTopK
		}
	}

	return e, nil
}

// Answer runs the retrieval-then-generate flow for a question.
// The returned string is always suitable for direct display.
func (e *Engine) Answer(ctx context.Context, question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return EmptyQuestionReply
	}

	q := searchindex.Query{
		Text: question,
		Top:  e.topK,
		Mode: e.mode,
	}

	if e.mode == searchindex.ModeHybrid {
		vector, err := e.embedder.EmbedText(ctx, question)
		if err != nil {
			e.logger.Error("failed to embed question", "err", err)
			return ErrorPrefix + "could not embed the question: " + err.Error()
		}
		q.Vector = vector
	}

	docs, err := e.retriever.Search(ctx, q)
	if err != nil {
		e.logger.Error("retrieval failed", "err", err)
		return ErrorPrefix + "retrieval failed: " + err.Error()
	}

	contextBlock := buildContext(docs)
	e.logger.Debug("retrieved context", "documents", len(docs), "contextLength", len(contextBlock))

	answer, err := e.chat.Complete(ctx, ai.CompletionRequest{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf(userPromptTemplate, contextBlock, question),
		Temperature: generationTemperature,
	})
	if err != nil {
		e.logger.Error("generation failed", "err", err)
		return ErrorPrefix + "generation failed: " + err.Error()
	}

	return strings.TrimSpace(answer)
}

// buildContext joins the non-empty document contents with blank lines.
func buildContext(docs []searchindex.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		parts = append(parts, doc.Content)
	}
	return strings.Join(parts, "\n\n")
}
