package dto

import (
	"time"

	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// CreateDialogRequest creates (or returns) the workflow's dialog (HTTP).
type CreateDialogRequest struct {
	WorkflowID   string                 `json:"workflow_id" binding:"required"`
	WorkflowName string                 `json:"workflow_name,omitempty"`
	WorkflowData map[string]interface{} `json:"workflow_data,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateDialogRequest is a partial dialog update (HTTP).
type UpdateDialogRequest struct {
	WorkflowName *string                `json:"workflow_name,omitempty"`
	WorkflowData map[string]interface{} `json:"workflow_data,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// SaveWorkflowRequest stores the latest workflow definition snapshot (HTTP).
type SaveWorkflowRequest struct {
	WorkflowData map[string]interface{} `json:"workflow_data" binding:"required"`
	WorkflowName string                 `json:"workflow_name,omitempty"`
}

// CreateSessionRequest opens a new conversation thread (HTTP).
type CreateSessionRequest struct {
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// AppendMessageRequest appends one message to a session (HTTP).
type AppendMessageRequest struct {
	Role       string                 `json:"role" binding:"required"`
	Content    string                 `json:"content" binding:"required"`
	TokensUsed *int                   `json:"tokens_used,omitempty"`
	Provider   string                 `json:"provider,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// CleanupRequest controls the retention sweep (HTTP).
type CleanupRequest struct {
	MaxAgeHours int `json:"max_age_hours,omitempty"` // 0 means the default (168)
}

// DialogResponse is the workflow dialog (HTTP).
type DialogResponse struct {
	ID           string                 `json:"id"`
	WorkflowID   string                 `json:"workflow_id"`
	WorkflowName string                 `json:"workflow_name,omitempty"`
	WorkflowData map[string]interface{} `json:"workflow_data,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	IsActive     bool                   `json:"is_active"`
	SessionCount int                    `json:"session_count"`
	MessageCount int                    `json:"message_count"`
	CreatedAt    string                 `json:"created_at"`
	UpdatedAt    string                 `json:"updated_at"`
}

// SessionResponse is one chat session (HTTP).
type SessionResponse struct {
	ID           string                 `json:"id"`
	SessionID    string                 `json:"session_id"`
	DialogID     string                 `json:"dialog_id"`
	CreatedAt    string                 `json:"created_at"`
	LastActivity string                 `json:"last_activity"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	MessageCount int                    `json:"message_count"`
	Messages     []*MessageResponse     `json:"messages,omitempty"`
}

// MessageResponse is one message (HTTP).
type MessageResponse struct {
	ID         string                 `json:"id"`
	MessageID  string                 `json:"message_id"`
	Role       string                 `json:"role"`
	Content    string                 `json:"content"`
	Timestamp  string                 `json:"timestamp"`
	TokensUsed *int                   `json:"tokens_used,omitempty"`
	Provider   string                 `json:"provider,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// MessageListResponse is a session transcript (HTTP).
type MessageListResponse struct {
	SessionID string             `json:"session_id"`
	Messages  []*MessageResponse `json:"messages"`
	Total     int                `json:"total"`
}

// HistoryResponse is a workflow's dialog with its sessions (HTTP).
type HistoryResponse struct {
	WorkflowID     string             `json:"workflow_id"`
	Dialog         *DialogResponse    `json:"dialog,omitempty"`
	Sessions       []*SessionResponse `json:"sessions"`
	TotalSessions  int                `json:"total_sessions"`
	TotalMessages  int                `json:"total_messages"`
	LatestActivity *string            `json:"latest_activity,omitempty"`
}

// StatsResponse summarizes a workflow's chat activity (HTTP).
type StatsResponse struct {
	WorkflowID     string  `json:"workflow_id"`
	TotalSessions  int     `json:"total_sessions"`
	TotalMessages  int     `json:"total_messages"`
	LatestActivity *string `json:"latest_activity,omitempty"`
}

// CleanupResponse reports the retention sweep result (HTTP).
type CleanupResponse struct {
	DeletedSessions int `json:"deleted_sessions"`
	MaxAgeHours     int `json:"max_age_hours"`
}

// ToDialogResponse converts entity.WorkflowDialog to DialogResponse DTO.
func ToDialogResponse(d *entity.WorkflowDialog) *DialogResponse {
	return &DialogResponse{
		ID:           d.ID,
		WorkflowID:   d.WorkflowID,
		WorkflowName: d.WorkflowName,
		WorkflowData: d.WorkflowData,
		Metadata:     d.Metadata,
		IsActive:     d.IsActive,
		SessionCount: d.SessionCount,
		MessageCount: d.MessageCount,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.Format(time.RFC3339),
	}
}

// ToSessionResponse converts entity.ChatSession to SessionResponse DTO.
func ToSessionResponse(s *entity.ChatSession) *SessionResponse {
	resp := &SessionResponse{
		ID:           s.ID,
		SessionID:    s.SessionID,
		DialogID:     s.DialogID,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		LastActivity: s.LastActivity.Format(time.RFC3339),
		Metadata:     s.Metadata,
		MessageCount: s.MessageCount,
	}
	if len(s.Messages) > 0 {
		resp.Messages = ToMessageResponses(s.Messages)
	}
	return resp
}

// ToMessageResponse converts entity.Message to MessageResponse DTO.
func ToMessageResponse(m *entity.Message) *MessageResponse {
	return &MessageResponse{
		ID:         m.ID,
		MessageID:  m.MessageID,
		Role:       m.Role,
		Content:    m.Content,
		Timestamp:  m.Timestamp.Format(time.RFC3339Nano),
		TokensUsed: m.TokensUsed,
		Provider:   m.Provider,
		Metadata:   m.Metadata,
	}
}

// ToMessageResponses converts a slice of entity.Message to DTOs.
func ToMessageResponses(messages []*entity.Message) []*MessageResponse {
	out := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = ToMessageResponse(m)
	}
	return out
}

// ToHistoryResponse converts entity.ChatHistory to HistoryResponse DTO.
func ToHistoryResponse(h *entity.ChatHistory) *HistoryResponse {
	resp := &HistoryResponse{
		WorkflowID:    h.WorkflowID,
		Sessions:      make([]*SessionResponse, len(h.Sessions)),
		TotalSessions: h.TotalSessions,
		TotalMessages: h.TotalMessages,
	}
	if h.Dialog != nil {
		resp.Dialog = ToDialogResponse(h.Dialog)
	}
	for i, s := range h.Sessions {
		resp.Sessions[i] = ToSessionResponse(s)
	}
	if h.LatestActivity != nil {
		latest := h.LatestActivity.Format(time.RFC3339)
		resp.LatestActivity = &latest
	}
	return resp
}

// ToStatsResponse converts entity.WorkflowStats to StatsResponse DTO.
func ToStatsResponse(s *entity.WorkflowStats) *StatsResponse {
	resp := &StatsResponse{
		WorkflowID:    s.WorkflowID,
		TotalSessions: s.TotalSessions,
		TotalMessages: s.TotalMessages,
	}
	if s.LatestActivity != nil {
		latest := s.LatestActivity.Format(time.RFC3339)
		resp.LatestActivity = &latest
	}
	return resp
}
