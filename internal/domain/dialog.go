package domain

import (
	"context"
	"time"

	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// DefaultSessionMaxAgeHours is the retention window applied when a cleanup
// request does not specify one.
const DefaultSessionMaxAgeHours = 168 // one week

// ============ Usecase-level DTOs ============

// DialogCreate carries the fields for creating a workflow dialog.
type DialogCreate struct {
	WorkflowID   string
	WorkflowName string
	WorkflowData map[string]interface{}
	Metadata     map[string]interface{}
}

// DialogUpdate is a partial update; nil fields are left untouched.
type DialogUpdate struct {
	WorkflowName *string
	WorkflowData map[string]interface{}
	Metadata     map[string]interface{}
}

// MessageCreate carries the fields for appending a message to a session.
type MessageCreate struct {
	Role       string
	Content    string
	TokensUsed *int
	Provider   string
	Metadata   map[string]interface{}
}

// HistoryQuery controls what GetHistory returns.
type HistoryQuery struct {
	IncludeMessages bool
	SessionLimit    int // 0 means no limit
}

// ============ Repository interface ============

// DialogRepository is the sole reader/writer of workflow dialogs, chat
// sessions and messages. All "get" operations return a not-found domain error
// as normal control flow; mutations of a missing target fail the same way
// without writing anything.
type DialogRepository interface {
	// CreateDialog creates a dialog for the workflow ID, or returns the
	// existing active one unchanged. Never produces a second active row.
	CreateDialog(ctx context.Context, create DialogCreate) (*entity.WorkflowDialog, error)

	// GetDialog returns the single active dialog for the workflow ID.
	GetDialog(ctx context.Context, workflowID string) (*entity.WorkflowDialog, error)

	// UpdateDialog applies the non-nil fields and bumps updated_at.
	UpdateDialog(ctx context.Context, workflowID string, update DialogUpdate) (*entity.WorkflowDialog, error)

	// SoftDeleteDialog retires the active dialog. A later CreateDialog for the
	// same workflow ID starts a fresh row; the retired one is never revived.
	SoftDeleteDialog(ctx context.Context, workflowID string) error

	// SaveWorkflowSnapshot stores the latest workflow definition, updating the
	// active dialog or creating one if none exists.
	SaveWorkflowSnapshot(ctx context.Context, workflowID string, data map[string]interface{}, name string) (*entity.WorkflowDialog, error)

	// CreateSession creates a fresh session under the workflow's dialog,
	// creating a bare dialog first when necessary.
	CreateSession(ctx context.Context, workflowID string, metadata map[string]interface{}) (*entity.ChatSession, error)

	// GetSession returns the session with the given session ID.
	GetSession(ctx context.Context, sessionID string) (*entity.ChatSession, error)

	// GetLatestSession returns the workflow's session with the greatest
	// last_activity; ties resolve by internal key so repeated calls agree.
	GetLatestSession(ctx context.Context, workflowID string) (*entity.ChatSession, error)

	// TouchSession sets the session's last_activity to now.
	TouchSession(ctx context.Context, sessionID string) error

	// AppendMessage inserts the message and bumps the parent session's
	// last_activity to the message timestamp in one transaction.
	AppendMessage(ctx context.Context, sessionID string, create MessageCreate) (*entity.Message, error)

	// ListSessionMessages returns the session's messages in chronological
	// order. A positive limit keeps the oldest limit messages. A missing
	// session yields an empty slice, not an error.
	ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*entity.Message, error)

	// GetHistory returns the dialog, its sessions ordered by descending
	// last_activity, and rollups over the returned sessions.
	GetHistory(ctx context.Context, workflowID string, query HistoryQuery) (*entity.ChatHistory, error)

	// GetWorkflowStats returns total session/message counts and the latest
	// activity for the workflow's active dialog.
	GetWorkflowStats(ctx context.Context, workflowID string) (*entity.WorkflowStats, error)

	// CleanupSessions deletes every session whose last_activity is strictly
	// before the cutoff, cascading to messages. Returns the session count.
	CleanupSessions(ctx context.Context, olderThan time.Time) (int, error)
}

// ============ Usecase interface ============

// DialogUsecase validates inputs and coordinates the dialog/session/message
// lifecycle on top of DialogRepository.
type DialogUsecase interface {
	CreateDialog(ctx context.Context, create DialogCreate) (*entity.WorkflowDialog, error)
	GetDialog(ctx context.Context, workflowID string) (*entity.WorkflowDialog, error)
	UpdateDialog(ctx context.Context, workflowID string, update DialogUpdate) (*entity.WorkflowDialog, error)
	DeleteDialog(ctx context.Context, workflowID string) error
	SaveWorkflow(ctx context.Context, workflowID string, data map[string]interface{}, name string) (*entity.WorkflowDialog, error)

	CreateSession(ctx context.Context, workflowID string, metadata map[string]interface{}) (*entity.ChatSession, error)
	GetSession(ctx context.Context, sessionID string, includeMessages bool) (*entity.ChatSession, error)
	GetLatestSession(ctx context.Context, workflowID string, includeMessages bool) (*entity.ChatSession, error)
	TouchSession(ctx context.Context, sessionID string) error

	AppendMessage(ctx context.Context, sessionID string, create MessageCreate) (*entity.Message, error)
	ListMessages(ctx context.Context, sessionID string, limit int) ([]*entity.Message, error)

	GetHistory(ctx context.Context, workflowID string, query HistoryQuery) (*entity.ChatHistory, error)
	GetWorkflowStats(ctx context.Context, workflowID string) (*entity.WorkflowStats, error)
	CleanupOldSessions(ctx context.Context, maxAgeHours int) (int, error)
}
