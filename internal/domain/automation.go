package domain

import "context"

// AutomationCredentials addresses one n8n instance. Zero values fall back to
// the configured defaults.
type AutomationCredentials struct {
	BaseURL string
	APIKey  string
}

// WorkflowDefinition is the opaque workflow JSON exchanged with the
// automation server.
type WorkflowDefinition map[string]interface{}

// ExecutionResult is the handle returned by a workflow execution request.
type ExecutionResult struct {
	ExecutionID string
	Status      string
	Raw         map[string]interface{}
}

// AutomationClient is the workflow-automation server boundary (n8n REST API).
type AutomationClient interface {
	// TestConnection verifies the instance is reachable with the credentials.
	TestConnection(ctx context.Context, creds AutomationCredentials) error

	// GetWorkflow fetches a workflow definition by remote ID.
	GetWorkflow(ctx context.Context, workflowID string, creds AutomationCredentials) (WorkflowDefinition, error)

	// CreateWorkflow creates a workflow and returns its remote ID.
	CreateWorkflow(ctx context.Context, def WorkflowDefinition, creds AutomationCredentials) (string, error)

	// UpdateWorkflow overwrites an existing workflow.
	UpdateWorkflow(ctx context.Context, workflowID string, def WorkflowDefinition, creds AutomationCredentials) error

	// ExecuteWorkflow triggers a workflow run.
	ExecuteWorkflow(ctx context.Context, workflowID string, creds AutomationCredentials) (*ExecutionResult, error)
}

// WorkflowUsecase mirrors workflow definitions between the automation server
// and the dialog snapshots.
type WorkflowUsecase interface {
	TestConnection(ctx context.Context, creds AutomationCredentials) error
	FetchWorkflow(ctx context.Context, workflowID string, creds AutomationCredentials) (WorkflowDefinition, error)

	// ApplyWorkflow pushes the definition (update-or-create) and saves the
	// result into the workflow's dialog snapshot. Returns the remote ID.
	ApplyWorkflow(ctx context.Context, def WorkflowDefinition, name string, creds AutomationCredentials) (string, error)

	ExecuteWorkflow(ctx context.Context, workflowID string, creds AutomationCredentials) (*ExecutionResult, error)
}
