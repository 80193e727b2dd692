package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

const (
	maxWorkflowIDLength = 255
	maxContentLength    = 10000
)

// dialogUsecase implements domain.DialogUsecase. It validates inputs and
// delegates lifecycle work to the repository; it is the only path by which
// dialogs, sessions and messages are mutated.
type dialogUsecase struct {
	repo   domain.DialogRepository
	logger *slog.Logger
}

// NewDialogUsecase creates a new DialogUsecase instance.
func NewDialogUsecase(repo domain.DialogRepository, logger *slog.Logger) domain.DialogUsecase {
	return &dialogUsecase{
		repo:   repo,
		logger: logger,
	}
}

// CreateDialog validates and creates (or returns) the workflow's dialog.
func (u *dialogUsecase) CreateDialog(ctx context.Context, create domain.DialogCreate) (*entity.WorkflowDialog, error) {
	if err := validateWorkflowID(create.WorkflowID); err != nil {
		return nil, err
	}

	dialog, err := u.repo.CreateDialog(ctx, create)
	if err != nil {
		return nil, err
	}

	u.logger.Info("workflow dialog ready", "workflow_id", create.WorkflowID, "dialog_id", dialog.ID)
	return dialog, nil
}

func (u *dialogUsecase) GetDialog(ctx context.Context, workflowID string) (*entity.WorkflowDialog, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}
	return u.repo.GetDialog(ctx, workflowID)
}

func (u *dialogUsecase) UpdateDialog(ctx context.Context, workflowID string, update domain.DialogUpdate) (*entity.WorkflowDialog, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}

	dialog, err := u.repo.UpdateDialog(ctx, workflowID, update)
	if err != nil {
		return nil, err
	}

	u.logger.Info("workflow dialog updated", "workflow_id", workflowID)
	return dialog, nil
}

func (u *dialogUsecase) DeleteDialog(ctx context.Context, workflowID string) error {
	if err := validateWorkflowID(workflowID); err != nil {
		return err
	}

	if err := u.repo.SoftDeleteDialog(ctx, workflowID); err != nil {
		return err
	}

	u.logger.Info("workflow dialog deleted", "workflow_id", workflowID)
	return nil
}

func (u *dialogUsecase) SaveWorkflow(ctx context.Context, workflowID string, data map[string]interface{}, name string) (*entity.WorkflowDialog, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, domain.NewInvalidInputError("workflow data is required")
	}

	dialog, err := u.repo.SaveWorkflowSnapshot(ctx, workflowID, data, name)
	if err != nil {
		return nil, err
	}

	u.logger.Info("workflow snapshot saved", "workflow_id", workflowID)
	return dialog, nil
}

// CreateSession always creates a fresh session; callers wanting to continue
// an existing conversation resolve it first via GetSession/GetLatestSession.
func (u *dialogUsecase) CreateSession(ctx context.Context, workflowID string, metadata map[string]interface{}) (*entity.ChatSession, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}

	session, err := u.repo.CreateSession(ctx, workflowID, metadata)
	if err != nil {
		return nil, err
	}

	u.logger.Info("chat session created", "workflow_id", workflowID, "session_id", session.SessionID)
	return session, nil
}

func (u *dialogUsecase) GetSession(ctx context.Context, sessionID string, includeMessages bool) (*entity.ChatSession, error) {
	session, err := u.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if includeMessages {
		session.Messages, err = u.repo.ListSessionMessages(ctx, sessionID, 0)
		if err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (u *dialogUsecase) GetLatestSession(ctx context.Context, workflowID string, includeMessages bool) (*entity.ChatSession, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}

	session, err := u.repo.GetLatestSession(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if includeMessages {
		session.Messages, err = u.repo.ListSessionMessages(ctx, session.SessionID, 0)
		if err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (u *dialogUsecase) TouchSession(ctx context.Context, sessionID string) error {
	return u.repo.TouchSession(ctx, sessionID)
}

// AppendMessage validates the message and appends it atomically with the
// session activity bump.
func (u *dialogUsecase) AppendMessage(ctx context.Context, sessionID string, create domain.MessageCreate) (*entity.Message, error) {
	if err := validateMessage(create); err != nil {
		return nil, err
	}

	message, err := u.repo.AppendMessage(ctx, sessionID, create)
	if err != nil {
		return nil, err
	}

	u.logger.Debug("message appended",
		"session_id", sessionID,
		"role", create.Role,
		"message_id", message.MessageID,
	)
	return message, nil
}

func (u *dialogUsecase) ListMessages(ctx context.Context, sessionID string, limit int) ([]*entity.Message, error) {
	if limit < 0 {
		return nil, domain.NewInvalidInputError("limit must not be negative")
	}
	return u.repo.ListSessionMessages(ctx, sessionID, limit)
}

func (u *dialogUsecase) GetHistory(ctx context.Context, workflowID string, query domain.HistoryQuery) (*entity.ChatHistory, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}
	if query.SessionLimit < 0 {
		return nil, domain.NewInvalidInputError("session limit must not be negative")
	}
	return u.repo.GetHistory(ctx, workflowID, query)
}

func (u *dialogUsecase) GetWorkflowStats(ctx context.Context, workflowID string) (*entity.WorkflowStats, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}
	return u.repo.GetWorkflowStats(ctx, workflowID)
}

// CleanupOldSessions removes every session idle for longer than maxAgeHours
// (default one week) together with its messages.
func (u *dialogUsecase) CleanupOldSessions(ctx context.Context, maxAgeHours int) (int, error) {
	if maxAgeHours <= 0 {
		maxAgeHours = domain.DefaultSessionMaxAgeHours
	}

	cutoff := time.Now().UTC().Add(-time.Duration(maxAgeHours) * time.Hour)
	deleted, err := u.repo.CleanupSessions(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		u.logger.Info("cleaned up stale chat sessions", "count", deleted, "max_age_hours", maxAgeHours)
	}
	return deleted, nil
}

// validateWorkflowID checks the external workflow identifier.
func validateWorkflowID(workflowID string) error {
	if workflowID == "" {
		return domain.NewInvalidInputError("workflow id is required")
	}
	if len(workflowID) > maxWorkflowIDLength {
		return domain.NewInvalidInputError(fmt.Sprintf("workflow id too long (max %d characters)", maxWorkflowIDLength))
	}
	return nil
}

// validateMessage checks role and content bounds. Violations are validation
// failures, never silently coerced.
func validateMessage(create domain.MessageCreate) error {
	switch create.Role {
	case entity.RoleUser, entity.RoleAssistant, entity.RoleSystem:
	default:
		return domain.NewInvalidInputError(fmt.Sprintf("invalid role %q, must be user, assistant or system", create.Role))
	}

	if len(create.Content) == 0 {
		return domain.NewInvalidInputError("message content is required")
	}
	if len(create.Content) > maxContentLength {
		return domain.NewInvalidInputError(fmt.Sprintf("message too long (max %d characters)", maxContentLength))
	}
	return nil
}
