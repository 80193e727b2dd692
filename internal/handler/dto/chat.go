package dto

// ChatRequest is one chat turn (HTTP).
type ChatRequest struct {
	WorkflowID   string `json:"workflow_id,omitempty"`
	SessionID    string `json:"session_id,omitempty"` // empty starts a new session
	Message      string `json:"message" binding:"required"`
	Provider     string `json:"provider,omitempty"`
	Model        string `json:"model,omitempty"`
	APIKey       string `json:"api_key,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// ChatResponse is the completed turn (HTTP).
type ChatResponse struct {
	Message      string  `json:"message"`
	SessionID    string  `json:"session_id"`
	WorkflowID   string  `json:"workflow_id,omitempty"`
	Provider     string  `json:"provider,omitempty"`
	ResponseTime float64 `json:"response_time"`
}

// ChatStreamEvent is one SSE payload of a streaming turn. The first event
// carries the session ID; the terminal event has Done set.
type ChatStreamEvent struct {
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content,omitempty"`
	Done      bool   `json:"done,omitempty"`
	Error     string `json:"error,omitempty"`
}
