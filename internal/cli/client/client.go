package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/ekenesbek/8pilot/internal/cli/types"
)

// APIClient wraps a Hertz client for HTTP communication with the API server.
type APIClient struct {
	client *client.Client
	server string
	token  string
}

// NewAPIClient creates a new API client.
func NewAPIClient(server, token string) (*APIClient, error) {
	normalizedServer, err := normalizeServerURL(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	// The standard dialer is required for streaming responses; netpoll
	// does not handle them well.
	c, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithMaxIdleConnDuration(60*time.Second),
		client.WithResponseBodyStream(true),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &APIClient{
		client: c,
		server: normalizedServer,
		token:  token,
	}, nil
}

// normalizeServerURL ensures the server address has a scheme and no path.
func normalizeServerURL(server string) (string, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}

	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server URL")
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

// Login performs user login.
func (c *APIClient) Login(ctx context.Context, username, password string) (*types.APIResponse[types.LoginData], error) {
	bodyBytes, err := sonic.Marshal(types.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpointLogin)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(bodyBytes)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("login failed with HTTP status: %d", resp.StatusCode())
	}

	var loginResp types.APIResponse[types.LoginData]
	if err := sonic.Unmarshal(resp.Body(), &loginResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &loginResp, nil
}

// GetHistory fetches a workflow's chat history.
func (c *APIClient) GetHistory(ctx context.Context, workflowID string, includeMessages bool) (*types.History, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	uri := fmt.Sprintf("%s"+endpointHistory, c.server, workflowID)
	if includeMessages {
		uri += "?include_messages=true"
	}

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(uri)
	req.Header.Set("Authorization", "Bearer "+c.token)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("failed to get history (HTTP %d)", resp.StatusCode())
	}

	var historyResp types.APIResponse[types.History]
	if err := sonic.Unmarshal(resp.Body(), &historyResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &historyResp.Data, nil
}

// Cleanup asks the server to delete sessions idle beyond maxAgeHours.
func (c *APIClient) Cleanup(ctx context.Context, maxAgeHours int) (*types.CleanupResult, error) {
	bodyBytes, err := sonic.Marshal(map[string]int{"max_age_hours": maxAgeHours})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpointCleanup)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.SetBody(bodyBytes)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("cleanup failed (HTTP %d)", resp.StatusCode())
	}

	var cleanupResp types.APIResponse[types.CleanupResult]
	if err := sonic.Unmarshal(resp.Body(), &cleanupResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &cleanupResp.Data, nil
}

// StreamChat sends a chat turn and returns channels of stream events. The
// event channel closes when the stream ends; errCh carries transport errors.
func (c *APIClient) StreamChat(ctx context.Context, chatReq types.ChatRequest) (<-chan types.ChatStreamEvent, <-chan error, error) {
	bodyBytes, err := sonic.Marshal(chatReq)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpointChatStream)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/event-stream")
	req.SetBody(bodyBytes)

	if err := c.client.Do(ctx, req, resp); err != nil {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		statusCode := resp.StatusCode()
		body := resp.Body()
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
		return nil, nil, fmt.Errorf("chat failed with HTTP status: %d, body: %s", statusCode, string(body))
	}

	eventCh := make(chan types.ChatStreamEvent, 10)
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			close(eventCh)
			close(errCh)
			protocol.ReleaseRequest(req)
			protocol.ReleaseResponse(resp)
		}()

		bodyStream := resp.BodyStream()
		if bodyStream == nil {
			errCh <- fmt.Errorf("body stream is nil")
			return
		}

		c.parseSSEStream(bodyStream, eventCh, errCh)
	}()

	return eventCh, errCh, nil
}

// parseSSEStream reads the SSE stream line by line as data arrives.
func (c *APIClient) parseSSEStream(reader io.Reader, eventCh chan<- types.ChatStreamEvent, errCh chan<- error) {
	scanner := bufio.NewScanner(reader)

	const maxScanTokenSize = 1024 * 1024
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data: ") {
			dataStr := strings.TrimPrefix(line, "data: ")

			var event types.ChatStreamEvent
			if err := sonic.Unmarshal([]byte(dataStr), &event); err != nil {
				errCh <- fmt.Errorf("failed to parse event: %w", err)
				return
			}

			select {
			case eventCh <- event:
			case <-time.After(5 * time.Second):
				errCh <- fmt.Errorf("timeout sending event to channel")
				return
			}

			if event.Done || event.Error != "" {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		errCh <- fmt.Errorf("scanner error: %w", err)
	}
}
