package entity

import "time"

// Message roles accepted by the store.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// WorkflowDialog anchors the chat history and the last-known definition
// snapshot of one remote workflow. At most one active dialog exists per
// workflow ID; soft-deleted rows stay behind with IsActive=false.
type WorkflowDialog struct {
	ID           string
	WorkflowID   string
	WorkflowName string
	WorkflowData map[string]interface{}
	Metadata     map[string]interface{}
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
	SessionCount int
	MessageCount int
}

// ChatSession is one conversation thread under a workflow dialog.
type ChatSession struct {
	ID           string
	SessionID    string
	DialogID     string
	CreatedAt    time.Time
	LastActivity time.Time
	Metadata     map[string]interface{}
	MessageCount int
	Messages     []*Message
}

// Message is a single turn within a chat session.
type Message struct {
	ID         string
	MessageID  string
	Role       string
	Content    string
	Timestamp  time.Time
	TokensUsed *int
	Provider   string
	Metadata   map[string]interface{}
}

// ChatHistory aggregates a workflow's dialog with its sessions, most recently
// active first, plus rollups over the returned sessions.
type ChatHistory struct {
	WorkflowID     string
	Dialog         *WorkflowDialog
	Sessions       []*ChatSession
	TotalSessions  int
	TotalMessages  int
	LatestActivity *time.Time
}

// WorkflowStats summarizes session/message counts for a workflow.
type WorkflowStats struct {
	WorkflowID     string
	TotalSessions  int
	TotalMessages  int
	LatestActivity *time.Time
}
