package searchindex

// Mode selects the retrieval strategy used by the search service.
type Mode string

const (
	// ModeSemantic issues a text-only query with semantic ranking.
	ModeSemantic Mode = "semantic"

	// ModeHybrid combines lexical matching with vector similarity.
	// Queries in this mode must carry the question's embedding vector.
	ModeHybrid Mode = "hybrid"
)

// Valid reports whether the mode is one of the supported retrieval strategies.
func (m Mode) Valid() bool {
	return m == ModeSemantic || m == ModeHybrid
}

// Document is the record persisted in the search index. It is a
// schema-constrained mirror of core.EmbeddedMessage; Id must be unique within
// the index and uploads are idempotent per id.
type Document struct {
	Id            string    `json:"id"`
	UserId        string    `json:"user_id,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	Timestamp     string    `json:"timestamp,omitempty"`
	Content       string    `json:"content"`
	ContentVector []float32 `json:"content_vector,omitempty"`
}

// Query describes one retrieval request against the index.
type Query struct {
	// Text is the search text.
	Text string

	// Top is the maximum number of documents to return.
	Top int

	// Mode selects semantic or hybrid retrieval.
	Mode Mode

	// Vector is the embedding of the search text. Required in hybrid mode,
	// ignored otherwise.
	Vector []float32
}
