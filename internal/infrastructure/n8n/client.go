package n8n

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/ekenesbek/8pilot/internal/config"
	"github.com/ekenesbek/8pilot/internal/domain"
)

const apiKeyHeader = "X-N8N-API-KEY"

// Client talks to an n8n instance over its public REST API and implements
// domain.AutomationClient. Per-request credentials override the configured
// defaults, so one client serves every instance callers point it at.
type Client struct {
	http   *client.Client
	cfg    config.AutomationConfig
	logger *slog.Logger
}

// NewClient creates a new automation gateway client.
func NewClient(cfg config.AutomationConfig, logger *slog.Logger) (*Client, error) {
	c, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithClientReadTimeout(cfg.Timeout),
		client.WithMaxIdleConnDuration(60*time.Second),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create automation http client: %w", err)
	}

	return &Client{
		http:   c,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// TestConnection verifies the instance answers an authenticated request.
func (c *Client) TestConnection(ctx context.Context, creds domain.AutomationCredentials) error {
	_, err := c.do(ctx, consts.MethodGet, "/api/v1/workflows?limit=1", nil, creds)
	return err
}

// GetWorkflow fetches a workflow definition by remote ID.
func (c *Client) GetWorkflow(ctx context.Context, workflowID string, creds domain.AutomationCredentials) (domain.WorkflowDefinition, error) {
	body, err := c.do(ctx, consts.MethodGet, "/api/v1/workflows/"+workflowID, nil, creds)
	if err != nil {
		return nil, err
	}

	var def domain.WorkflowDefinition
	if err := sonic.Unmarshal(body, &def); err != nil {
		return nil, domain.NewUpstreamError("n8n", fmt.Errorf("failed to decode workflow: %w", err))
	}
	return def, nil
}

// CreateWorkflow creates a workflow and returns the assigned remote ID.
func (c *Client) CreateWorkflow(ctx context.Context, def domain.WorkflowDefinition, creds domain.AutomationCredentials) (string, error) {
	body, err := c.do(ctx, consts.MethodPost, "/api/v1/workflows", sanitizeDefinition(def), creds)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := sonic.Unmarshal(body, &created); err != nil {
		return "", domain.NewUpstreamError("n8n", fmt.Errorf("failed to decode created workflow: %w", err))
	}
	if created.ID == "" {
		return "", domain.NewUpstreamError("n8n", fmt.Errorf("create response carried no workflow id"))
	}

	c.logger.Info("workflow created on automation server", "workflow_id", created.ID)
	return created.ID, nil
}

// UpdateWorkflow overwrites an existing workflow.
func (c *Client) UpdateWorkflow(ctx context.Context, workflowID string, def domain.WorkflowDefinition, creds domain.AutomationCredentials) error {
	_, err := c.do(ctx, consts.MethodPut, "/api/v1/workflows/"+workflowID, sanitizeDefinition(def), creds)
	return err
}

// ExecuteWorkflow triggers a workflow run.
func (c *Client) ExecuteWorkflow(ctx context.Context, workflowID string, creds domain.AutomationCredentials) (*domain.ExecutionResult, error) {
	body, err := c.do(ctx, consts.MethodPost, "/api/v1/workflows/"+workflowID+"/run", map[string]interface{}{}, creds)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, domain.NewUpstreamError("n8n", fmt.Errorf("failed to decode execution response: %w", err))
	}

	result := &domain.ExecutionResult{Raw: raw}
	if id, ok := raw["executionId"].(string); ok {
		result.ExecutionID = id
	} else if id, ok := raw["id"].(string); ok {
		result.ExecutionID = id
	}
	if status, ok := raw["status"].(string); ok {
		result.Status = status
	} else {
		result.Status = "started"
	}
	return result, nil
}

// do sends one authenticated request and returns the response body. Non-2xx
// statuses become upstream errors carrying the status code.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, creds domain.AutomationCredentials) ([]byte, error) {
	baseURL := creds.BaseURL
	if baseURL == "" {
		baseURL = c.cfg.BaseURL
	}
	if baseURL == "" {
		return nil, domain.NewInvalidInputError("automation server base url is not configured")
	}
	apiKey := creds.APIKey
	if apiKey == "" {
		apiKey = c.cfg.APIKey
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(method)
	req.SetRequestURI(strings.TrimRight(baseURL, "/") + path)
	req.Header.Set(apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")

	if payload != nil {
		bodyBytes, err := sonic.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		req.Header.SetContentTypeBytes([]byte("application/json"))
		req.SetBody(bodyBytes)
	}

	if err := c.http.Do(ctx, req, resp); err != nil {
		c.logger.Error("automation request failed", "method", method, "path", path, "error", err)
		return nil, domain.NewUpstreamError("n8n", err)
	}

	status := resp.StatusCode()
	switch {
	case status == 404:
		return nil, domain.NewNotFoundError("workflow", path)
	case status == 401 || status == 403:
		return nil, domain.NewUnauthorizedError("automation server rejected the api key")
	case status < 200 || status >= 300:
		c.logger.Error("automation request rejected", "method", method, "path", path, "status", status)
		return nil, domain.NewUpstreamError("n8n", fmt.Errorf("unexpected status %d", status))
	}

	// Detach the body from the pooled response before release.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// sanitizeDefinition strips fields the n8n API rejects on write.
func sanitizeDefinition(def domain.WorkflowDefinition) domain.WorkflowDefinition {
	out := make(domain.WorkflowDefinition, len(def))
	for k, v := range def {
		switch k {
		case "id", "active", "createdAt", "updatedAt", "versionId", "tags":
			continue
		}
		out[k] = v
	}
	return out
}
