package domain

import (
	"context"

	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// ChatRequest is one inbound chat turn (usecase-level DTO).
type ChatRequest struct {
	WorkflowID   string
	SessionID    string // empty means create a new session for the workflow
	Message      string
	Provider     string
	Model        string
	APIKey       string // per-request key override, optional
	SystemPrompt string
}

// ChatResponse is the completed turn.
type ChatResponse struct {
	Message      string
	SessionID    string
	WorkflowID   string
	Provider     string
	ResponseTime float64 // seconds
}

// AIClient is the AI gateway boundary: produce a completion for an assembled
// prompt, plain or streamed. Failures surface as upstream errors and are not
// retried here.
type AIClient interface {
	// Complete returns the full assistant reply.
	Complete(ctx context.Context, prompt *entity.Prompt) (*entity.Completion, error)

	// StreamCompletion returns a channel of incremental chunks terminated by
	// an explicit IsEnd (or Error) chunk. The channel is closed afterwards.
	StreamCompletion(ctx context.Context, prompt *entity.Prompt) (<-chan entity.StreamChunk, error)
}

// ChatUsecase orchestrates a chat turn: session resolution, message
// persistence around the gateway call, and context-window assembly.
type ChatUsecase interface {
	// Chat runs a full non-streaming turn.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// ChatStreaming runs a streaming turn. The user message is persisted
	// before any chunk is produced; the accumulated assistant text is
	// persisted only if the stream ends naturally.
	ChatStreaming(ctx context.Context, req *ChatRequest) (<-chan entity.StreamChunk, *entity.ChatSession, error)
}
