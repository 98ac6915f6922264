// Package llm defines the Provider interface for Large Language Model
// backends.
//
// An LLM provider wraps a remote or local model API and exposes a uniform
// interface for the performance layer to request character turns without
// coupling to any specific SDK. The performer always needs the complete
// response text before it can parse the segment envelope, so the interface is
// completion-only.
//
// Implementors must be safe for concurrent use.
package llm

import (
	"context"

	"github.com/stagecue/stagecue/pkg/types"
)

// Usage holds token accounting information returned by the LLM backend.
// Counts are in the model's native token unit and may differ between
// providers for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the system prompt and
	// input messages. Byte-stable static prompt prefixes keep most of this
	// count cacheable on the provider side.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a turn.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is
	// typically from the "user" role and drives the response.
	Messages []types.Message

	// Temperature controls output randomness in the range [0.0, 2.0].
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means use the
	// provider default.
	MaxTokens int

	// SystemPrompt is the assembled identity prompt injected before the
	// conversation history. Providers that lack a dedicated system field
	// must prepend it as a system-role message.
	SystemPrompt string
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the model's reply — for stagecue, the raw
	// segment envelope to be parsed by the performance layer.
	Content string

	// Usage reports token accounting when the provider supplies it.
	Usage Usage
}

// Provider is the uniform interface over LLM backends.
type Provider interface {
	// Complete performs a full (non-streaming) completion. Implementations
	// must respect context cancellation.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates the token count of the given messages for
	// context-budget tracking.
	CountTokens(messages []types.Message) (int, error)

	// Capabilities returns static metadata about the backing model.
	Capabilities() types.ModelCapabilities
}
