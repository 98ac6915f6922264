// Package types holds the plain data contracts shared across stagecue's
// provider and performance layers.
package types

// Message roles understood by every LLM provider implementation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a conversation history.
type Message struct {
	// Role is one of [RoleSystem], [RoleUser], or [RoleAssistant].
	Role string

	// Content is the text content of the message.
	Content string

	// Name is an optional speaker name (for multi-character scenes).
	Name string
}

// ModelCapabilities describes static metadata about an LLM backend.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one
	// completion.
	MaxOutputTokens int
}
