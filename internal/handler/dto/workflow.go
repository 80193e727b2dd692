package dto

// AutomationAuth carries per-request automation server credentials (HTTP).
// Empty fields fall back to the server's configured defaults.
type AutomationAuth struct {
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
}

// TestConnectionRequest probes an automation instance (HTTP).
type TestConnectionRequest struct {
	AutomationAuth
}

// ApplyWorkflowRequest pushes a workflow definition (HTTP).
type ApplyWorkflowRequest struct {
	AutomationAuth
	WorkflowData map[string]interface{} `json:"workflow_data" binding:"required"`
	WorkflowName string                 `json:"workflow_name,omitempty"`
}

// ExecuteWorkflowRequest triggers a remote workflow run (HTTP).
type ExecuteWorkflowRequest struct {
	AutomationAuth
}

// ApplyWorkflowResponse reports the applied workflow (HTTP).
type ApplyWorkflowResponse struct {
	WorkflowID string `json:"workflow_id"`
}

// ExecutionResponse reports a triggered run (HTTP).
type ExecutionResponse struct {
	ExecutionID string                 `json:"execution_id,omitempty"`
	Status      string                 `json:"status"`
	Raw         map[string]interface{} `json:"raw,omitempty"`
}

// WorkflowDefinitionResponse is a fetched workflow definition (HTTP).
type WorkflowDefinitionResponse struct {
	WorkflowID string                 `json:"workflow_id"`
	Definition map[string]interface{} `json:"definition"`
}
