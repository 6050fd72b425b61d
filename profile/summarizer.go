package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pruqanda/pruqanda/ai"
	"github.com/pruqanda/pruqanda/core"
	"github.com/pruqanda/pruqanda/progress"
)

// ErrChatModelRequired is returned when a chat model is not provided.
var ErrChatModelRequired = errors.New("chat model required")

const (
	// unknownUser is the bucket for messages without a user name.
	unknownUser = "Unknown"

	// maxMessagesPerUser caps how much history goes into one summary call,
	// for cost and latency control.
	maxMessagesPerUser = 50

	summaryTemperature = 0.3
	summaryMaxTokens   = 250
)

// Summarizer generates per-user behavioral summaries from the raw message
// corpus. Each user gets one chat completion call; failing users are dropped
// from the output, not retried.
type Summarizer struct {
	chat           ai.ChatModel
	maxMessages    int
	progressWriter io.Writer
	logger         *slog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer) error

// WithMaxMessages caps the per-user history sent for summarization.
// Default is 50.
func WithMaxMessages(n int) Option {
	return func(s *Summarizer) error {
		if n < 1 {
			return fmt.Errorf("max messages must be positive, got %d", n)
		}
		s.maxMessages = n
		return nil
	}
}

// WithProgress reports progress to the given writer as users complete.
func WithProgress(w io.Writer) Option {
	return func(s *Summarizer) error {
		s.progressWriter = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSummarizer creates a profile summarizer.
func NewSummarizer(chat ai.ChatModel, opts ...Option) (*Summarizer, error) {
	if chat == nil {
		return nil, ErrChatModelRequired
	}

	s := &Summarizer{
		chat:        chat,
		maxMessages: maxMessagesPerUser,
		logger:      slog.Default().With("component", "profile"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SummarizeAll groups messages by user name and produces one profile per
// distinct user, in first-seen order. Users whose summarization fails are
// reported as skipped and omitted from the output.
func (s *Summarizer) SummarizeAll(ctx context.Context, messages []core.Message) ([]core.UserProfile, *core.Report) {
	order, byUser := groupByUser(messages)
	s.logger.Info("summarizing users", "messages", len(messages), "users", len(order))

	var tracker *progress.Tracker
	if s.progressWriter != nil {
		tracker = progress.NewTracker(s.progressWriter, len(order), 1)
		tracker.Start()
	}

	report := &core.Report{}
	profiles := make([]core.UserProfile, 0, len(order))

	for _, user := range order {
		history := byUser[user]
		if len(history) > s.maxMessages {
			history = history[:s.maxMessages]
		}

		summary, err := s.chat.Complete(ctx, ai.CompletionRequest{
			System:      summarySystemPrompt,
			Prompt:      fmt.Sprintf(summaryPromptTemplate, user, strings.Join(history, "\n")),
			Temperature: summaryTemperature,
			MaxTokens:   summaryMaxTokens,
		})
		if err != nil {
			s.logger.Error("failed to summarize user", "user", user, "err", err)
			report.Drop(user, err.Error())
			if tracker != nil {
				tracker.Increment(1)
			}
			continue
		}

		profiles = append(profiles, core.UserProfile{
			Id:       core.ProfileId(user),
			UserName: user,
			Content:  summary,
		})
		report.Done(1)

		if tracker != nil {
			tracker.Increment(1)
		}
	}

	if tracker != nil {
		tracker.Finish()
	}

	s.logger.Info("summarization complete", "report", report.Summary())
	return profiles, report
}

// groupByUser buckets message contents by user name in first-seen order.
// Messages without a user name fall into the Unknown bucket.
func groupByUser(messages []core.Message) ([]string, map[string][]string) {
	order := make([]string, 0)
	byUser := make(map[string][]string)

	for _, msg := range messages {
		user := msg.UserName
		if strings.TrimSpace(user) == "" {
			user = unknownUser
		}
		if _, seen := byUser[user]; !seen {
			order = append(order, user)
		}
		byUser[user] = append(byUser[user], msg.Content)
	}

	return order, byUser
}
