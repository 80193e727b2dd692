package handler

import (
	"context"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/handler/dto"
)

// WorkflowHandler serves automation-server operations.
type WorkflowHandler struct {
	usecase domain.WorkflowUsecase
	logger  *slog.Logger
}

// NewWorkflowHandler creates a new workflow handler.
func NewWorkflowHandler(usecase domain.WorkflowUsecase, logger *slog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// TestConnection probes the automation server.
//
//	@Summary		Test automation connection
//	@Tags			Automation
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body	dto.TestConnectionRequest	false	"Credentials"
//	@Success		200
//	@Router			/automation/test-connection [post]
func (h *WorkflowHandler) TestConnection(ctx context.Context, c *app.RequestContext) {
	var req dto.TestConnectionRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindJSON(&req); err != nil {
			ErrorResponse(c, domain.ErrInvalidInput)
			return
		}
	}

	if err := h.usecase.TestConnection(ctx, toCredentials(req.AutomationAuth)); err != nil {
		h.logger.Error("automation connection test failed", "error", err)
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, nil)
}

// FetchWorkflow fetches a workflow definition from the automation server.
//
//	@Summary		Fetch workflow definition
//	@Tags			Automation
//	@Produce		json
//	@Security		BearerAuth
//	@Param			workflow_id	path		string	true	"Workflow ID"
//	@Success		200			{object}	dto.WorkflowDefinitionResponse
//	@Router			/automation/workflows/{workflow_id} [get]
func (h *WorkflowHandler) FetchWorkflow(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")

	creds := domain.AutomationCredentials{
		BaseURL: c.Query("base_url"),
		APIKey:  string(c.GetHeader("X-Automation-Key")),
	}

	def, err := h.usecase.FetchWorkflow(ctx, workflowID, creds)
	if err != nil {
		h.logger.Error("failed to fetch workflow", "workflow_id", workflowID, "error", err)
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.WorkflowDefinitionResponse{
		WorkflowID: workflowID,
		Definition: def,
	})
}

// ApplyWorkflow pushes a definition and snapshots it into the dialog.
//
//	@Summary		Apply workflow definition
//	@Description	Updates or creates the workflow remotely, then saves the snapshot
//	@Tags			Automation
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		dto.ApplyWorkflowRequest	true	"Workflow definition"
//	@Success		200		{object}	dto.ApplyWorkflowResponse
//	@Router			/automation/workflows/apply [post]
func (h *WorkflowHandler) ApplyWorkflow(ctx context.Context, c *app.RequestContext) {
	var req dto.ApplyWorkflowRequest
	if err := c.BindAndValidate(&req); err != nil {
		h.logger.Error("invalid request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	workflowID, err := h.usecase.ApplyWorkflow(ctx, req.WorkflowData, req.WorkflowName, toCredentials(req.AutomationAuth))
	if err != nil {
		h.logger.Error("failed to apply workflow", "error", err)
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ApplyWorkflowResponse{WorkflowID: workflowID})
}

// ExecuteWorkflow triggers a remote workflow run.
//
//	@Summary		Execute workflow
//	@Tags			Automation
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			workflow_id	path		string						true	"Workflow ID"
//	@Param			request		body		dto.ExecuteWorkflowRequest	false	"Credentials"
//	@Success		200			{object}	dto.ExecutionResponse
//	@Router			/automation/workflows/{workflow_id}/execute [post]
func (h *WorkflowHandler) ExecuteWorkflow(ctx context.Context, c *app.RequestContext) {
	workflowID := c.Param("workflow_id")

	var req dto.ExecuteWorkflowRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindJSON(&req); err != nil {
			ErrorResponse(c, domain.ErrInvalidInput)
			return
		}
	}

	result, err := h.usecase.ExecuteWorkflow(ctx, workflowID, toCredentials(req.AutomationAuth))
	if err != nil {
		h.logger.Error("failed to execute workflow", "workflow_id", workflowID, "error", err)
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ExecutionResponse{
		ExecutionID: result.ExecutionID,
		Status:      result.Status,
		Raw:         result.Raw,
	})
}

func toCredentials(auth dto.AutomationAuth) domain.AutomationCredentials {
	return domain.AutomationCredentials{
		BaseURL: auth.BaseURL,
		APIKey:  auth.APIKey,
	}
}
