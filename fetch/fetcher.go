package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pruqanda/pruqanda/core"
)

// ErrURLRequired is returned when the messages URL is not provided.
var ErrURLRequired = errors.New("messages URL required")

const defaultTimeout = 30 * time.Second

// Fetcher pulls the full message corpus from the upstream messages API.
// This is a full-refresh design: every fetch retrieves everything and the
// caller overwrites any prior snapshot.
type Fetcher struct {
	url        string
	httpClient *http.Client
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher) error

// WithHTTPClient sets a custom HTTP client.
// Default is a client with a 30 second timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *Fetcher) error {
		if httpClient == nil {
			return fmt.Errorf("http client must not be nil")
		}
		f.httpClient = httpClient
		return nil
	}
}

// WithRetry sets the number of attempts and the base backoff delay for
// transient upstream failures. Default is 3 attempts with a 1 second base.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(f *Fetcher) error {
		if attempts < 1 {
			return ErrInvalidMaxAttempts
		}
		f.attempts = attempts
		f.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// NewFetcher creates a fetcher for the given messages URL.
func NewFetcher(url string, opts ...Option) (*Fetcher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrURLRequired
	}

	f := &Fetcher{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
		attempts:   3,
		retryDelay: time.Second,
		logger:     slog.Default().With("component", "fetch"),
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// wireMessage is the upstream record shape. The message text arrives under
// "message"; older exports use "content".
type wireMessage struct {
	Id        string `json:"id"`
	UserId    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Content   string `json:"content"`
}

// envelope is the alternate response shape carrying records under "items".
type envelope struct {
	Items []wireMessage `json:"items"`
}

// Fetch retrieves all messages from the upstream API. Every record lacking a
// non-empty id is assigned a freshly generated UUID, so downstream stages can
// rely on a stable primary key. Ids are not reproducible across runs.
func (f *Fetcher) Fetch(ctx context.Context) ([]core.Message, error) {
	var body []byte
	err := retryWithBackoff(ctx, func() error {
		var opErr error
		body, opErr = f.get(ctx)
		return opErr
	}, f.attempts, f.retryDelay)
	if err != nil {
		return nil, err
	}

	records, err := parseMessages(body)
	if err != nil {
		return nil, err
	}

	messages := make([]core.Message, len(records))
	assigned := 0
	for i, w := range records {
		content := w.Message
		if content == "" {
			content = w.Content
		}

		id := strings.TrimSpace(w.Id)
		if id == "" {
			id = uuid.NewString()
			assigned++
		}

		messages[i] = core.Message{
			Id:        id,
			UserId:    w.UserId,
			UserName:  w.UserName,
			Timestamp: w.Timestamp,
			Content:   content,
		}
	}

	f.logger.Info("fetched messages", "count", len(messages), "assignedIds", assigned)
	return messages, nil
}

func (f *Fetcher) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch failed: status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

// parseMessages accepts either a bare JSON array or an object with an
// "items" field.
func parseMessages(body []byte) ([]wireMessage, error) {
	var records []wireMessage
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}
	return env.Items, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
