package ai

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	// System is the system instruction establishing the assistant's persona.
	System string

	// Prompt is the user message content.
	Prompt string

	// Temperature controls sampling randomness. Low values favor
	// deterministic, grounded answers.
	Temperature float64

	// MaxTokens bounds the generated completion length. Zero means no bound.
	MaxTokens int
}
