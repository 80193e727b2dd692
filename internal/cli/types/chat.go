package types

// ChatRequest represents one chat turn sent to the server.
type ChatRequest struct {
	WorkflowID string `json:"workflow_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Message    string `json:"message"`
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
}

// ChatStreamEvent is one SSE payload of a streaming turn.
type ChatStreamEvent struct {
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content,omitempty"`
	Done      bool   `json:"done,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Message is one persisted chat message.
type Message struct {
	MessageID string `json:"message_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Provider  string `json:"provider,omitempty"`
}

// Session is one chat session with its transcript.
type Session struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    string    `json:"created_at"`
	LastActivity string    `json:"last_activity"`
	MessageCount int       `json:"message_count"`
	Messages     []Message `json:"messages,omitempty"`
}

// History is a workflow's dialog with its sessions.
type History struct {
	WorkflowID     string    `json:"workflow_id"`
	Sessions       []Session `json:"sessions"`
	TotalSessions  int       `json:"total_sessions"`
	TotalMessages  int       `json:"total_messages"`
	LatestActivity *string   `json:"latest_activity,omitempty"`
}

// CleanupResult reports a retention sweep.
type CleanupResult struct {
	DeletedSessions int `json:"deleted_sessions"`
	MaxAgeHours     int `json:"max_age_hours"`
}
