package mock

import (
	"context"
	"sync"

	"github.com/pruqanda/pruqanda/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It records every request it receives and allows custom behavior injection
// via a function field.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns a canned response.
	CompleteFunc func(ctx context.Context, req ai.CompletionRequest) (string, error)

	mu       sync.Mutex
	requests []ai.CompletionRequest
}

// NewMockChatModel creates a mock chat model with default canned behavior.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete records the request and returns either the injected behavior's
// result or a canned response.
func (m *MockChatModel) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "mock completion", nil
}

// Requests returns a copy of all recorded requests in call order.
func (m *MockChatModel) Requests() []ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of Complete calls recorded.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
