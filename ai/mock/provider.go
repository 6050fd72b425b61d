package mock

import "github.com/pruqanda/pruqanda/ai"

// MockProvider is a test double for ai.Provider bundling the mock services.
type MockProvider struct {
	MockEmbedder  *MockEmbedder
	MockChatModel *MockChatModel
}

// NewMockProvider creates a provider with default mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		MockEmbedder:  NewMockEmbedder(),
		MockChatModel: NewMockChatModel(),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// ChatModel returns the mock chat completion service.
func (p *MockProvider) ChatModel() ai.ChatModel {
	return p.MockChatModel
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}
