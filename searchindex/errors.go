package searchindex

import "errors"

var (
	// ErrEndpointRequired is returned when the service endpoint is not provided.
	ErrEndpointRequired = errors.New("search endpoint required")

	// ErrIndexRequired is returned when the index name is not provided.
	ErrIndexRequired = errors.New("search index name required")

	// ErrAPIKeyRequired is returned when the API key is not provided.
	ErrAPIKeyRequired = errors.New("search API key required")
)
