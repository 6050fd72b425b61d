package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiVersion = "2023-11-01"

	// vectorField is the index field holding message embeddings.
	vectorField = "content_vector"

	defaultTimeout = 30 * time.Second
)

// Client is an HTTP client for the remote vector search index.
// It covers the two operations the pipeline needs: retrieval queries and
// per-document uploads.
type Client struct {
	endpoint   string
	index      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom HTTP client.
// Default is a client with a 30 second timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a client for one index of the search service.
func NewClient(endpoint, index, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, ErrEndpointRequired
	}
	if strings.TrimSpace(index) == "" {
		return nil, ErrIndexRequired
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrAPIKeyRequired
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		index:      index,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default().With("component", "searchindex"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// searchRequest is the wire format of a retrieval query.
type searchRequest struct {
	Search        string        `json:"search"`
	Top           int           `json:"top"`
	QueryType     string        `json:"queryType,omitempty"`
	VectorQueries []vectorQuery `json:"vectorQueries,omitempty"`
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

// searchResponse is the wire format of a retrieval result set.
type searchResponse struct {
	Value []Document `json:"value"`
}

// Search issues one retrieval request and returns the matched documents.
func (c *Client) Search(ctx context.Context, q Query) ([]Document, error) {
	if q.Top <= 0 {
		return nil, fmt.Errorf("search top must be positive, got %d", q.Top)
	}

	req := searchRequest{
		Search: q.Text,
		Top:    q.Top,
	}
	switch q.Mode {
	case ModeHybrid:
		// Hybrid search runs the lexical query and the vector query together;
		// the service fuses both rankings.
		req.VectorQueries = []vectorQuery{{
			Kind:   "vector",
			Vector: q.Vector,
			Fields: vectorField,
			K:      q.Top,
		}}
	default:
		req.QueryType = "semantic"
	}

	var resp searchResponse
	if err := c.post(ctx, c.docsURL("search"), req, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("search completed", "query", q.Text, "mode", q.Mode, "hits", len(resp.Value))
	return resp.Value, nil
}

// uploadDocument wraps a Document with the index action for the upload API.
type uploadDocument struct {
	Action string `json:"@search.action"`
	Document
}

type uploadRequest struct {
	Value []uploadDocument `json:"value"`
}

// Upload pushes one document into the index. Uploads use merge-or-upload
// semantics, so re-uploading the same id overwrites the prior version.
func (c *Client) Upload(ctx context.Context, doc Document) error {
	if strings.TrimSpace(doc.Id) == "" {
		return fmt.Errorf("document id required")
	}

	req := uploadRequest{
		Value: []uploadDocument{{Action: "mergeOrUpload", Document: doc}},
	}

	return c.post(ctx, c.docsURL("index"), req, nil)
}

// docsURL builds the URL for a docs-level operation on the index.
func (c *Client) docsURL(operation string) string {
	return fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s",
		c.endpoint, url.PathEscape(c.index), operation, apiVersion)
}

// post sends a JSON request and decodes the JSON response into out (if non-nil).
// Non-2xx statuses surface as errors carrying the status code and a truncated
// response body.
func (c *Client) post(ctx context.Context, u string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search service request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("search service returned status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
