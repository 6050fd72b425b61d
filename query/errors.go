package query

import "errors"

var (
	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrChatModelRequired is returned when a chat model is not provided.
	ErrChatModelRequired = errors.New("chat model required")

	// ErrEmbedderRequired is returned when hybrid mode is selected without
	// an embedder.
	ErrEmbedderRequired = errors.New("embedder required for hybrid mode")
)
