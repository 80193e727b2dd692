package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ekenesbek/8pilot/internal/domain"
)

// workflowUsecase implements domain.WorkflowUsecase. It brokers workflow
// definitions between the automation server and the dialog snapshots.
type workflowUsecase struct {
	automation domain.AutomationClient
	dialogs    domain.DialogUsecase
	logger     *slog.Logger
}

// NewWorkflowUsecase creates a new WorkflowUsecase instance.
func NewWorkflowUsecase(automation domain.AutomationClient, dialogs domain.DialogUsecase, logger *slog.Logger) domain.WorkflowUsecase {
	return &workflowUsecase{
		automation: automation,
		dialogs:    dialogs,
		logger:     logger,
	}
}

func (u *workflowUsecase) TestConnection(ctx context.Context, creds domain.AutomationCredentials) error {
	return u.automation.TestConnection(ctx, creds)
}

func (u *workflowUsecase) FetchWorkflow(ctx context.Context, workflowID string, creds domain.AutomationCredentials) (domain.WorkflowDefinition, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}
	return u.automation.GetWorkflow(ctx, workflowID, creds)
}

// ApplyWorkflow pushes the definition to the automation server and records
// the result as the workflow's dialog snapshot. Definitions carrying an "id"
// are updated in place; the rest are created and adopt the assigned ID.
func (u *workflowUsecase) ApplyWorkflow(ctx context.Context, def domain.WorkflowDefinition, name string, creds domain.AutomationCredentials) (string, error) {
	if len(def) == 0 {
		return "", domain.NewInvalidInputError("workflow definition is required")
	}

	workflowID, _ := def["id"].(string)
	if workflowID != "" {
		if err := u.automation.UpdateWorkflow(ctx, workflowID, def, creds); err != nil {
			return "", err
		}
	} else {
		id, err := u.automation.CreateWorkflow(ctx, def, creds)
		if err != nil {
			return "", err
		}
		workflowID = id
		def["id"] = id
	}

	if name == "" {
		name, _ = def["name"].(string)
	}
	if _, err := u.dialogs.SaveWorkflow(ctx, workflowID, def, name); err != nil {
		return "", fmt.Errorf("workflow pushed but snapshot save failed: %w", err)
	}

	u.logger.Info("workflow applied", "workflow_id", workflowID, "name", name)
	return workflowID, nil
}

func (u *workflowUsecase) ExecuteWorkflow(ctx context.Context, workflowID string, creds domain.AutomationCredentials) (*domain.ExecutionResult, error) {
	if err := validateWorkflowID(workflowID); err != nil {
		return nil, err
	}

	result, err := u.automation.ExecuteWorkflow(ctx, workflowID, creds)
	if err != nil {
		return nil, err
	}

	u.logger.Info("workflow execution triggered", "workflow_id", workflowID, "execution_id", result.ExecutionID)
	return result, nil
}
