package ai

import "context"

// CompletionProvider is the language-model capability consumed by agents.
// Implementations may be slow and may fail; callers bound every call with a
// context deadline.
type CompletionProvider interface {
	Name() string

	// Complete sends a prompt and returns the model's text content.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single prompt exchange.
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string // empty uses the provider default
	Temperature float64
	MaxTokens   int
}

// CompletionResponse carries the model output and token accounting.
type CompletionResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
