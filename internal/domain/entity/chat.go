package entity

// PromptMessage is one turn handed to the AI gateway.
type PromptMessage struct {
	Role    string
	Content string
}

// Prompt is a fully assembled AI request: optional system preamble followed by
// an ordered context window and the in-flight user message (last element).
type Prompt struct {
	Provider     string
	Model        string
	APIKey       string
	SystemPrompt string
	Messages     []PromptMessage
}

// Completion is a non-streaming AI reply.
type Completion struct {
	Text       string
	TokensUsed int
}

// StreamChunk is one increment of a streaming AI reply. A chunk with IsEnd set
// terminates the stream; a non-empty Error marks an upstream failure.
type StreamChunk struct {
	Text  string
	IsEnd bool
	Error string
}
