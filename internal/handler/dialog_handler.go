package handler

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/handler/dto"
)

// DialogHandler serves workflow dialogs, chat sessions, messages, history and
// retention maintenance.
type DialogHandler struct {
	usecase domain.DialogUsecase
	logger  *slog.Logger
}

// NewDialogHandler creates a new dialog handler.
func NewDialogHandler(usecase domain.DialogUsecase, logger *slog.Logger) *DialogHandler {
	return &DialogHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// CreateDialog creates (or returns) the workflow's dialog.
//
//	@Summary		Create workflow dialog
//	@Description	Creates the dialog for a workflow, or returns the existing active one
//	@Tags			Dialogs
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		dto.CreateDialogRequest	true	"Dialog"
//	@Success		201		{object}	dto.DialogResponse
//	@Router			/workflows [post]
func (h *DialogHandler) CreateDialog(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateDialogRequest
	if err := c.BindAndValidate(&req); err != nil {
		h.logger.Error("invalid request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	dialog, err := h.usecase.CreateDialog(ctx, domain.DialogCreate{
		WorkflowID:   req.WorkflowID,
		WorkflowName: req.WorkflowName,
		WorkflowData: req.WorkflowData,
		Metadata:     req.Metadata,
	})
	if err != nil {
		h.logger.Error("failed to create dialog", "workflow_id", req.WorkflowID, "error", err)
		ErrorResponse(c, err)
		return
	}

	CreatedResponse(c, dto.ToDialogResponse(dialog))
}

// GetDialog returns the workflow's active dialog.
//
//	@Summary		Get workflow dialog
//	@Tags			Dialogs
//	@Produce		json
//	@Security		BearerAuth
//	@Param			workflow_id	path		string	true	"Workflow ID"
//	@Success		200			{object}	dto.DialogResponse
//	@Router			/workflows/{workflow_id} [get]
func (h *DialogHandler) GetDialog(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")

	dialog, err := h.usecase.GetDialog(ctx, workflowID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ToDialogResponse(dialog))
}

// UpdateDialog applies a partial update to the workflow's dialog.
//
//	@Summary		Update workflow dialog
//	@Tags			Dialogs
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			workflow_id	path		string					true	"Workflow ID"
//	@Param			request		body		dto.UpdateDialogRequest	true	"Fields to update"
//	@Success		200			{object}	dto.DialogResponse
//	@Router			/workflows/{workflow_id} [put]
func (h *DialogHandler) UpdateDialog(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")

	var req dto.UpdateDialogRequest
	if err := c.BindJSON(&req); err != nil {
		h.logger.Error("invalid request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	dialog, err := h.usecase.UpdateDialog(ctx, workflowID, domain.DialogUpdate{
		WorkflowName: req.WorkflowName,
		WorkflowData: req.WorkflowData,
		Metadata:     req.Metadata,
	})
	if err != nil {
		h.logger.Error("failed to update dialog", "workflow_id", workflowID, "error", err)
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ToDialogResponse(dialog))
}

// DeleteDialog retires the workflow's active dialog.
//
//	@Summary		Delete workflow dialog
//	@Tags			Dialogs
//	@Security		BearerAuth
//	@Param			workflow_id	path	string	true	"Workflow ID"
//	@Success		204
//	@Router			/workflows/{workflow_id} [delete]
func (h *DialogHandler) DeleteDialog(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")

	if err := h.usecase.DeleteDialog(ctx, workflowID); err != nil {
		h.logger.Error("failed to delete dialog", "workflow_id", workflowID, "error", err)
		ErrorResponse(c, err)
		return
	}

	NoContentResponse(c)
}

// SaveWorkflow stores the latest workflow definition snapshot.
//
//	@Summary		Save workflow snapshot
//	@Description	Upserts the workflow definition into the dialog
//	@Tags			Dialogs
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			workflow_id	path		string					true	"Workflow ID"
//	@Param			request		body		dto.SaveWorkflowRequest	true	"Workflow definition"
//	@Success		200			{object}	dto.DialogResponse
//	@Router			/workflows/{workflow_id}/save [post]
func (h *DialogHandler) SaveWorkflow(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")

	var req dto.SaveWorkflowRequest
	if err := c.BindAndValidate(&req); err != nil {
		h.logger.Error("invalid request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	dialog, err := h.usecase.SaveWorkflow(ctx, workflowID, req.WorkflowData, req.WorkflowName)
	if err != nil {
		h.logger.Error("failed to save workflow", "workflow_id", workflowID, "error", err)
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ToDialogResponse(dialog))
}

// CreateSession opens a new conversation thread for the workflow.
//
//	@Summary		Create chat session
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			workflow_id	path		string					true	"Workflow ID"
//	@Param			request		body		dto.CreateSessionRequest	false	"Session metadata"
//	@Success		201			{object}	dto.SessionResponse
//	@Router			/workflows/{workflow_id}/sessions [post]
func (h *DialogHandler) CreateSession(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")

	var req dto.CreateSessionRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindJSON(&req); err != nil {
			h.logger.Error("invalid request", "error", err)
			ErrorResponse(c, domain.ErrInvalidInput)
			return
		}
	}

	session, err := h.usecase.CreateSession(ctx, workflowID, req.Metadata)
	if err != nil {
		h.logger.Error("failed to create session", "workflow_id", workflowID, "error", err)
		ErrorResponse(c, err)
		return
	}

	CreatedResponse(c, dto.ToSessionResponse(session))
}

// GetSession returns a session, optionally with its transcript.
//
//	@Summary		Get chat session
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			session_id			path		string	true	"Session ID"
//	@Param			include_messages	query		bool	false	"Include the transcript"
//	@Success		200					{object}	dto.SessionResponse
//	@Router			/sessions/{session_id} [get]
func (h *DialogHandler) GetSession(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")
	includeMessages := c.Query("include_messages") == "true"

	session, err := h.usecase.GetSession(ctx, sessionID, includeMessages)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ToSessionResponse(session))
}

// GetLatestSession returns the workflow's most recently active session.
//
//	@Summary		Get latest chat session
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			workflow_id			path		string	true	"Workflow ID"
//	@Param			include_messages	query		bool	false	"Include the transcript"
//	@Success		200					{object}	dto.SessionResponse
//	@Router			/workflows/{workflow_id}/sessions/latest [get]
func (h *DialogHandler) GetLatestSession(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")
	includeMessages := c.Query("include_messages") == "true"

	session, err := h.usecase.GetLatestSession(ctx, workflowID, includeMessages)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ToSessionResponse(session))
}

// TouchSession bumps the session's activity to now.
//
//	@Summary		Touch chat session
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Param			session_id	path	string	true	"Session ID"
//	@Success		204
//	@Router			/sessions/{session_id}/activity [put]
func (h *DialogHandler) TouchSession(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	if err := h.usecase.TouchSession(ctx, sessionID); err != nil {
		ErrorResponse(c, err)
		return
	}

	NoContentResponse(c)
}

// AppendMessage appends one message to a session.
//
//	@Summary		Append message
//	@Description	Inserts the message and bumps the session's activity atomically
//	@Tags			Messages
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			session_id	path		string						true	"Session ID"
//	@Param			request		body		dto.AppendMessageRequest	true	"Message"
//	@Success		201			{object}	dto.MessageResponse
//	@Router			/sessions/{session_id}/messages [post]
func (h *DialogHandler) AppendMessage(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	var req dto.AppendMessageRequest
	if err := c.BindAndValidate(&req); err != nil {
		h.logger.Error("invalid request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	message, err := h.usecase.AppendMessage(ctx, sessionID, domain.MessageCreate{
		Role:       req.Role,
		Content:    req.Content,
		TokensUsed: req.TokensUsed,
		Provider:   req.Provider,
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.logger.Error("failed to append message", "session_id", sessionID, "error", err)
		ErrorResponse(c, err)
		return
	}

	CreatedResponse(c, dto.ToMessageResponse(message))
}

// ListMessages returns the session transcript in chronological order.
//
//	@Summary		List session messages
//	@Description	Oldest first; a positive limit keeps the oldest N messages
//	@Tags			Messages
//	@Produce		json
//	@Security		BearerAuth
//	@Param			session_id	path		string	true	"Session ID"
//	@Param			limit		query		int		false	"Keep the oldest N messages"
//	@Success		200			{object}	dto.MessageListResponse
//	@Router			/sessions/{session_id}/messages [get]
func (h *DialogHandler) ListMessages(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			ErrorResponse(c, domain.NewInvalidInputError("limit must be an integer"))
			return
		}
		limit = parsed
	}

	messages, err := h.usecase.ListMessages(ctx, sessionID, limit)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.MessageListResponse{
		SessionID: sessionID,
		Messages:  dto.ToMessageResponses(messages),
		Total:     len(messages),
	})
}

// GetHistory returns the workflow's dialog and sessions.
//
//	@Summary		Get chat history
//	@Description	Sessions ordered by descending last activity, with rollups
//	@Tags			History
//	@Produce		json
//	@Security		BearerAuth
//	@Param			workflow_id			path		string	true	"Workflow ID"
//	@Param			include_messages	query		bool	false	"Include transcripts"
//	@Param			session_limit		query		int		false	"Keep the most recent N sessions"
//	@Success		200					{object}	dto.HistoryResponse
//	@Router			/workflows/{workflow_id}/history [get]
func (h *DialogHandler) GetHistory(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")

	query := domain.HistoryQuery{
		IncludeMessages: c.Query("include_messages") == "true",
	}
	if raw := c.Query("session_limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			ErrorResponse(c, domain.NewInvalidInputError("session_limit must be an integer"))
			return
		}
		query.SessionLimit = parsed
	}

	history, err := h.usecase.GetHistory(ctx, workflowID, query)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ToHistoryResponse(history))
}

// GetStats summarizes a workflow's chat activity.
//
//	@Summary		Get workflow stats
//	@Tags			History
//	@Produce		json
//	@Security		BearerAuth
//	@Param			workflow_id	path		string	true	"Workflow ID"
//	@Success		200			{object}	dto.StatsResponse
//	@Router			/workflows/{workflow_id}/stats [get]
func (h *DialogHandler) GetStats(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")

	stats, err := h.usecase.GetWorkflowStats(ctx, workflowID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ToStatsResponse(stats))
}

// Cleanup deletes sessions idle for longer than the requested age.
//
//	@Summary		Clean up stale sessions
//	@Description	Deletes sessions idle beyond max_age_hours (default 168) with their messages
//	@Tags			Maintenance
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		dto.CleanupRequest	false	"Retention window"
//	@Success		200		{object}	dto.CleanupResponse
//	@Router			/maintenance/cleanup [post]
func (h *DialogHandler) Cleanup(ctx context.Context, c *app.RequestContext) {
	var req dto.CleanupRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindJSON(&req); err != nil {
			h.logger.Error("invalid request", "error", err)
			ErrorResponse(c, domain.ErrInvalidInput)
			return
		}
	}

	maxAge := req.MaxAgeHours
	if maxAge == 0 {
		if q := c.Query("max_age_hours"); q != "" {
			v, err := strconv.Atoi(q)
			if err != nil {
				ErrorResponse(c, domain.NewInvalidInputError("max_age_hours must be an integer"))
				return
			}
			maxAge = v
		}
	}
	if maxAge < 0 {
		ErrorResponse(c, domain.NewInvalidInputError("max_age_hours must not be negative"))
		return
	}

	deleted, err := h.usecase.CleanupOldSessions(ctx, maxAge)
	if err != nil {
		h.logger.Error("cleanup failed", "error", err)
		ErrorResponse(c, err)
		return
	}

	if maxAge == 0 {
		maxAge = domain.DefaultSessionMaxAgeHours
	}
	SuccessResponse(c, dto.CleanupResponse{
		DeletedSessions: deleted,
		MaxAgeHours:     maxAge,
	})
}
