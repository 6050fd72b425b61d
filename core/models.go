package core

import "strings"

// Message is a single chat message pulled from the upstream messages API.
// The fetcher guarantees a non-empty Id; every other field is passed through
// as received. Timestamp is kept as an opaque string because the upstream
// format is not under our control.
type Message struct {
	Id        string `json:"id"`
	UserId    string `json:"user_id,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Content   string `json:"content"`
}

// HasContent reports whether the message carries non-blank text.
// Messages without content are excluded from embedding.
func (m *Message) HasContent() bool {
	return strings.TrimSpace(m.Content) != ""
}

// EmbeddedMessage is a Message enriched with its embedding vector.
// The vector length is fixed by the embedding model's dimensionality.
type EmbeddedMessage struct {
	Message
	ContentVector []float32 `json:"content_vector"`
}

// UserProfile is an LLM-generated behavioral summary of one user's messages.
// Profiles are regenerated wholesale on each summarizer run.
type UserProfile struct {
	Id       string `json:"id"`
	UserName string `json:"user_name"`
	Content  string `json:"content"`
}

// ProfileId derives the stable profile identifier for a user name.
func ProfileId(userName string) string {
	return "profile-" + strings.ReplaceAll(userName, " ", "_")
}
