package database

import (
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// Infrastructure → domain boundary conversions.

func toDialogEntity(d *dialogModel) *entity.WorkflowDialog {
	if d == nil {
		return nil
	}
	return &entity.WorkflowDialog{
		ID:           d.ID.String(),
		WorkflowID:   d.WorkflowID,
		WorkflowName: d.WorkflowName,
		WorkflowData: d.WorkflowData,
		Metadata:     d.Metadata,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		IsActive:     d.IsActive,
	}
}

func toSessionEntity(s *sessionModel) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		ID:           s.ID.String(),
		SessionID:    s.SessionID,
		DialogID:     s.DialogID.String(),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		Metadata:     s.Metadata,
	}
}

func toMessageEntity(m *messageModel) *entity.Message {
	if m == nil {
		return nil
	}
	return &entity.Message{
		ID:         m.ID.String(),
		MessageID:  m.MessageID,
		Role:       m.Role,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		TokensUsed: m.TokensUsed,
		Provider:   m.Provider,
		Metadata:   m.Metadata,
	}
}

func toMessageEntities(models []messageModel) []*entity.Message {
	result := make([]*entity.Message, len(models))
	for i := range models {
		result[i] = toMessageEntity(&models[i])
	}
	return result
}

func toUserEntity(u *userModel) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		ID:           u.ID.String(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		LastLoginAt:  u.LastLoginAt,
		DeletedAt:    u.DeletedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
