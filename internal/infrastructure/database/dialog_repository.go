package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// dialogRepository is the GORM implementation of domain.DialogRepository.
// It owns the workflow_dialogs / chat_sessions / messages tables; nothing
// else in the codebase touches them.
type dialogRepository struct {
	db *gorm.DB
}

// NewDialogRepository creates a new DialogRepository instance.
func NewDialogRepository(db *gorm.DB) domain.DialogRepository {
	return &dialogRepository{db: db}
}

// activeDialog fetches the single active row for a workflow ID.
func (r *dialogRepository) activeDialog(tx *gorm.DB, workflowID string) (*dialogModel, error) {
	var d dialogModel
	err := tx.Where("workflow_id = ? AND is_active = ?", workflowID, true).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("workflow dialog", workflowID)
		}
		return nil, fmt.Errorf("failed to query workflow dialog: %w", err)
	}
	return &d, nil
}

// withCounts decorates a dialog entity with its session/message rollups.
func (r *dialogRepository) withCounts(tx *gorm.DB, d *dialogModel) (*entity.WorkflowDialog, error) {
	result := toDialogEntity(d)

	var sessionCount int64
	if err := tx.Model(&sessionModel{}).Where("dialog_id = ?", d.ID).Count(&sessionCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	var messageCount int64
	err := tx.Model(&messageModel{}).
		Joins("JOIN chat_sessions ON chat_sessions.id = messages.session_id").
		Where("chat_sessions.dialog_id = ?", d.ID).
		Count(&messageCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	result.SessionCount = int(sessionCount)
	result.MessageCount = int(messageCount)
	return result, nil
}

// CreateDialog creates a dialog for the workflow ID, or returns the existing
// active one unchanged (idempotent get-or-create).
func (r *dialogRepository) CreateDialog(ctx context.Context, create domain.DialogCreate) (*entity.WorkflowDialog, error) {
	var out *entity.WorkflowDialog

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.activeDialog(tx, create.WorkflowID)
		if err == nil {
			out, err = r.withCounts(tx, existing)
			return err
		}
		if !domain.IsNotFound(err) {
			return err
		}

		now := time.Now().UTC()
		d := dialogModel{
			ID:           uuid.New(),
			WorkflowID:   create.WorkflowID,
			WorkflowName: create.WorkflowName,
			WorkflowData: create.WorkflowData,
			Metadata:     emptyIfNil(create.Metadata),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&d).Error; err != nil {
			return fmt.Errorf("failed to create workflow dialog: %w", err)
		}

		out = toDialogEntity(&d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetDialog returns the active dialog for the workflow ID.
func (r *dialogRepository) GetDialog(ctx context.Context, workflowID string) (*entity.WorkflowDialog, error) {
	tx := r.db.WithContext(ctx)
	d, err := r.activeDialog(tx, workflowID)
	if err != nil {
		return nil, err
	}
	return r.withCounts(tx, d)
}

// UpdateDialog applies the non-nil fields of the partial update and bumps
// updated_at.
func (r *dialogRepository) UpdateDialog(ctx context.Context, workflowID string, update domain.DialogUpdate) (*entity.WorkflowDialog, error) {
	var out *entity.WorkflowDialog

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := r.activeDialog(tx, workflowID)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{
			"updated_at": time.Now().UTC(),
		}
		if update.WorkflowName != nil {
			fields["workflow_name"] = *update.WorkflowName
		}
		if update.WorkflowData != nil {
			fields["workflow_data"] = toJSONMap(update.WorkflowData)
		}
		if update.Metadata != nil {
			fields["metadata"] = toJSONMap(update.Metadata)
		}

		if err := tx.Model(&dialogModel{}).Where("id = ?", d.ID).Updates(fields).Error; err != nil {
			return fmt.Errorf("failed to update workflow dialog: %w", err)
		}

		if err := tx.Where("id = ?", d.ID).First(d).Error; err != nil {
			return fmt.Errorf("failed to reload workflow dialog: %w", err)
		}
		out, err = r.withCounts(tx, d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SoftDeleteDialog retires the active dialog; the row is kept but excluded
// from every default query from now on.
func (r *dialogRepository) SoftDeleteDialog(ctx context.Context, workflowID string) error {
	res := r.db.WithContext(ctx).Model(&dialogModel{}).
		Where("workflow_id = ? AND is_active = ?", workflowID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to delete workflow dialog: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("workflow dialog", workflowID)
	}
	return nil
}

// SaveWorkflowSnapshot stores the latest workflow definition,
// update-if-exists else create.
func (r *dialogRepository) SaveWorkflowSnapshot(ctx context.Context, workflowID string, data map[string]interface{}, name string) (*entity.WorkflowDialog, error) {
	update := domain.DialogUpdate{WorkflowData: data}
	if name != "" {
		update.WorkflowName = &name
	}

	dialog, err := r.UpdateDialog(ctx, workflowID, update)
	if err == nil {
		return dialog, nil
	}
	if !domain.IsNotFound(err) {
		return nil, err
	}

	return r.CreateDialog(ctx, domain.DialogCreate{
		WorkflowID:   workflowID,
		WorkflowName: name,
		WorkflowData: data,
	})
}

// CreateSession creates a fresh session under the workflow's dialog, creating
// a bare dialog first when necessary. A new session is always created; reuse
// of an existing one is the caller's business via GetSession/GetLatestSession.
func (r *dialogRepository) CreateSession(ctx context.Context, workflowID string, metadata map[string]interface{}) (*entity.ChatSession, error) {
	var out *entity.ChatSession

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := r.activeDialog(tx, workflowID)
		if domain.IsNotFound(err) {
			now := time.Now().UTC()
			d = &dialogModel{
				ID:         uuid.New(),
				WorkflowID: workflowID,
				Metadata:   emptyIfNil(nil),
				IsActive:   true,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(d).Error; err != nil {
				return fmt.Errorf("failed to create workflow dialog: %w", err)
			}
		} else if err != nil {
			return err
		}

		now := time.Now().UTC()
		s := sessionModel{
			ID:           uuid.New(),
			SessionID:    uuid.New().String(),
			DialogID:     d.ID,
			Metadata:     emptyIfNil(metadata),
			CreatedAt:    now,
			LastActivity: now,
		}
		if err := tx.Create(&s).Error; err != nil {
			return fmt.Errorf("failed to create chat session: %w", err)
		}

		out = toSessionEntity(&s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetSession returns the session with the given session ID.
func (r *dialogRepository) GetSession(ctx context.Context, sessionID string) (*entity.ChatSession, error) {
	tx := r.db.WithContext(ctx)

	var s sessionModel
	err := tx.Where("session_id = ?", sessionID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("chat session", sessionID)
		}
		return nil, fmt.Errorf("failed to query chat session: %w", err)
	}

	result := toSessionEntity(&s)
	var count int64
	if err := tx.Model(&messageModel{}).Where("session_id = ?", s.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	result.MessageCount = int(count)
	return result, nil
}

// GetLatestSession returns the workflow's session with the greatest
// last_activity under its active dialog. Ties resolve by internal key so the
// result is stable across calls with no intervening writes.
func (r *dialogRepository) GetLatestSession(ctx context.Context, workflowID string) (*entity.ChatSession, error) {
	var s sessionModel
	err := r.db.WithContext(ctx).
		Joins("JOIN workflow_dialogs ON workflow_dialogs.id = chat_sessions.dialog_id").
		Where("workflow_dialogs.workflow_id = ? AND workflow_dialogs.is_active = ?", workflowID, true).
		Order("chat_sessions.last_activity DESC, chat_sessions.id ASC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("chat session for workflow", workflowID)
		}
		return nil, fmt.Errorf("failed to query latest session: %w", err)
	}
	return r.GetSession(ctx, s.SessionID)
}

// TouchSession sets the session's last_activity to now.
func (r *dialogRepository) TouchSession(ctx context.Context, sessionID string) error {
	res := r.db.WithContext(ctx).Model(&sessionModel{}).
		Where("session_id = ?", sessionID).
		Update("last_activity", time.Now().UTC())
	if res.Error != nil {
		return fmt.Errorf("failed to touch session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("chat session", sessionID)
	}
	return nil
}

// AppendMessage inserts the message and bumps the parent session's
// last_activity to the message timestamp. Both writes happen in one
// transaction; on any failure nothing is visible. The next_seq increment
// locks the session row, serializing concurrent appends to the same session
// so sequence numbers never collide.
func (r *dialogRepository) AppendMessage(ctx context.Context, sessionID string, create domain.MessageCreate) (*entity.Message, error) {
	var out *entity.Message

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		res := tx.Model(&sessionModel{}).
			Where("session_id = ?", sessionID).
			Updates(map[string]interface{}{
				"last_activity": now,
				"next_seq":      gorm.Expr("next_seq + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to bump session activity: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.NewNotFoundError("chat session", sessionID)
		}

		var s sessionModel
		if err := tx.Where("session_id = ?", sessionID).First(&s).Error; err != nil {
			return fmt.Errorf("failed to reload session: %w", err)
		}

		m := messageModel{
			ID:         uuid.New(),
			MessageID:  uuid.New().String(),
			SessionID:  s.ID,
			Role:       create.Role,
			Content:    create.Content,
			Timestamp:  now,
			Seq:        s.NextSeq - 1,
			TokensUsed: create.TokensUsed,
			Provider:   create.Provider,
			Metadata:   emptyIfNil(create.Metadata),
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		out = toMessageEntity(&m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListSessionMessages returns the session's messages in chronological order
// (timestamp, then insertion order). A positive limit keeps the oldest limit
// messages. A missing session yields an empty slice rather than an error.
func (r *dialogRepository) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*entity.Message, error) {
	tx := r.db.WithContext(ctx)

	var s sessionModel
	err := tx.Where("session_id = ?", sessionID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []*entity.Message{}, nil
		}
		return nil, fmt.Errorf("failed to query chat session: %w", err)
	}

	query := tx.Where("session_id = ?", s.ID).Order("timestamp ASC, seq ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []messageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return toMessageEntities(models), nil
}

// GetHistory returns the dialog, its sessions ordered by descending
// last_activity, optionally each session's messages, and rollups over the
// returned sessions. A workflow with no active dialog yields the empty shape.
func (r *dialogRepository) GetHistory(ctx context.Context, workflowID string, query domain.HistoryQuery) (*entity.ChatHistory, error) {
	tx := r.db.WithContext(ctx)

	history := &entity.ChatHistory{
		WorkflowID: workflowID,
		Sessions:   []*entity.ChatSession{},
	}

	d, err := r.activeDialog(tx, workflowID)
	if domain.IsNotFound(err) {
		return history, nil
	}
	if err != nil {
		return nil, err
	}

	history.Dialog, err = r.withCounts(tx, d)
	if err != nil {
		return nil, err
	}

	sq := tx.Where("dialog_id = ?", d.ID).
		Order("last_activity DESC, id ASC")
	if query.SessionLimit > 0 {
		sq = sq.Limit(query.SessionLimit)
	}

	var sessions []sessionModel
	if err := sq.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	for i := range sessions {
		s := toSessionEntity(&sessions[i])

		var count int64
		if err := tx.Model(&messageModel{}).Where("session_id = ?", sessions[i].ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count messages: %w", err)
		}
		s.MessageCount = int(count)

		if query.IncludeMessages {
			var models []messageModel
			err := tx.Where("session_id = ?", sessions[i].ID).
				Order("timestamp ASC, seq ASC").
				Find(&models).Error
			if err != nil {
				return nil, fmt.Errorf("failed to list messages: %w", err)
			}
			s.Messages = toMessageEntities(models)
		}

		history.Sessions = append(history.Sessions, s)
		history.TotalMessages += s.MessageCount
		if history.LatestActivity == nil || s.LastActivity.After(*history.LatestActivity) {
			la := s.LastActivity
			history.LatestActivity = &la
		}
	}
	history.TotalSessions = len(history.Sessions)

	return history, nil
}

// GetWorkflowStats returns total counts and the latest activity for the
// workflow's active dialog; a missing dialog yields zeroes.
func (r *dialogRepository) GetWorkflowStats(ctx context.Context, workflowID string) (*entity.WorkflowStats, error) {
	tx := r.db.WithContext(ctx)

	stats := &entity.WorkflowStats{WorkflowID: workflowID}

	d, err := r.activeDialog(tx, workflowID)
	if domain.IsNotFound(err) {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}

	dialog, err := r.withCounts(tx, d)
	if err != nil {
		return nil, err
	}
	stats.TotalSessions = dialog.SessionCount
	stats.TotalMessages = dialog.MessageCount

	var latest sessionModel
	err = tx.Where("dialog_id = ?", d.ID).
		Order("last_activity DESC, id ASC").
		First(&latest).Error
	if err == nil {
		la := latest.LastActivity
		stats.LatestActivity = &la
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query latest session: %w", err)
	}

	return stats, nil
}

// CleanupSessions deletes every session whose last_activity is strictly
// before the cutoff, cascading to messages, and returns the session count.
// Calling it again with unchanged data removes nothing.
func (r *dialogRepository) CleanupSessions(ctx context.Context, olderThan time.Time) (int, error) {
	var deleted int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		err := tx.Model(&sessionModel{}).
			Where("last_activity < ?", olderThan).
			Pluck("id", &ids).Error
		if err != nil {
			return fmt.Errorf("failed to find stale sessions: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("session_id IN ?", ids).Delete(&messageModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete stale messages: %w", err)
		}
		if err := tx.Where("id IN ?", ids).Delete(&sessionModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete stale sessions: %w", err)
		}

		deleted = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// emptyIfNil keeps metadata columns as {} rather than NULL, matching the
// storage defaults of the extension's previous backend.
func emptyIfNil(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

// toJSONMap wraps a plain map so GORM serializes it as a JSON column value.
func toJSONMap(m map[string]interface{}) datatypes.JSONMap {
	return datatypes.JSONMap(emptyIfNil(m))
}
