package providers

import (
	"context"
	"errors"
	"time"
)

// Annotator turns plain text chunks into text carrying [NAME*]...[*NAME]
// markup. Implementations return exactly one output per input chunk, in
// input order.
type Annotator interface {
	// Name returns the provider identifier (e.g., "openai", "mock").
	Name() string

	// Annotate annotates chunks. An empty input yields an empty output.
	Annotate(ctx context.Context, chunks []string) ([]string, error)
}

// ErrCountMismatch is returned when a provider answers with a different
// number of outputs than chunks it was given.
var ErrCountMismatch = errors.New("annotation output count mismatch")

// Message is one chat message sent to a model.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatResult describes a single model round trip. Annotators hand these to
// an optional observer so calls can be traced.
type ChatResult struct {
	RequestID string `json:"request_id"`
	PromptKey string `json:"prompt_key"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	Content string `json:"content"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	Temperature   *float64      `json:"temperature,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	Attempts      int           `json:"attempts"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// CallObserver receives every model round trip, successful or not.
type CallObserver func(*ChatResult)
