package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/protocol/sse"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/handler/dto"
)

// ChatHandler serves chat turns, plain and streamed.
type ChatHandler struct {
	usecase domain.ChatUsecase
	logger  *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(usecase domain.ChatUsecase, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// Send handles a non-streaming chat turn.
//
//	@Summary		Send a chat message
//	@Description	Persists the user turn, produces the assistant reply and persists it
//	@Tags			Chat
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		dto.ChatRequest	true	"Chat turn"
//	@Success		200		{object}	dto.ChatResponse
//	@Router			/chat/send [post]
func (h *ChatHandler) Send(ctx context.Context, c *app.RequestContext) {
	var req dto.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		h.logger.Error("failed to bind request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	resp, err := h.usecase.Chat(ctx, toChatRequest(&req))
	if err != nil {
		h.logger.Error("chat failed", "workflow_id", req.WorkflowID, "error", err)
		ErrorResponse(c, err)
		return
	}

	c.JSON(consts.StatusOK, dto.ChatResponse{
		Message:      resp.Message,
		SessionID:    resp.SessionID,
		WorkflowID:   resp.WorkflowID,
		Provider:     resp.Provider,
		ResponseTime: resp.ResponseTime,
	})
}

// Stream handles a streaming chat turn over SSE.
//
//	@Summary		Stream a chat message
//	@Description	Streams the assistant reply as SSE events; the first event carries the session ID
//	@Tags			Chat
//	@Accept			json
//	@Produce		text/event-stream
//	@Security		BearerAuth
//	@Param			request	body	dto.ChatRequest	true	"Chat turn"
//	@Router			/chat/stream [post]
func (h *ChatHandler) Stream(ctx context.Context, c *app.RequestContext) {
	var req dto.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		h.logger.Error("failed to bind request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	// Canceling on any return releases the forwarding goroutine when the
	// client stops reading mid-stream.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	streamCh, session, err := h.usecase.ChatStreaming(ctx, toChatRequest(&req))
	if err != nil {
		h.logger.Error("streaming chat failed", "workflow_id", req.WorkflowID, "error", err)
		ErrorResponse(c, err)
		return
	}

	// The status code must be set before the SSE writer takes over.
	c.SetStatusCode(consts.StatusOK)

	writer := sse.NewWriter(c)
	defer writer.Close()

	if err := h.writeSSEJSON(writer, dto.ChatStreamEvent{SessionID: session.SessionID}); err != nil {
		h.logger.Error("failed to write session event", "error", err)
		return
	}

	for chunk := range streamCh {
		if chunk.Error != "" {
			h.logger.Error("stream error", "session_id", session.SessionID, "error", chunk.Error)
			_ = h.writeSSEJSON(writer, dto.ChatStreamEvent{Error: chunk.Error, Done: true})
			return
		}

		if chunk.Text != "" {
			if err := h.writeSSEJSON(writer, dto.ChatStreamEvent{Content: chunk.Text}); err != nil {
				h.logger.Error("failed to write sse event", "error", err)
				return
			}
		}

		if chunk.IsEnd {
			if err := h.writeSSEJSON(writer, dto.ChatStreamEvent{Done: true}); err != nil {
				h.logger.Error("failed to write final event", "error", err)
			}
			return
		}
	}
}

// writeSSEJSON sends one JSON payload; WriteEvent flushes internally.
func (h *ChatHandler) writeSSEJSON(writer *sse.Writer, data interface{}) error {
	jsonData, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}
	return writer.WriteEvent("", "", jsonData)
}

func toChatRequest(req *dto.ChatRequest) *domain.ChatRequest {
	return &domain.ChatRequest{
		WorkflowID:   req.WorkflowID,
		SessionID:    req.SessionID,
		Message:      req.Message,
		Provider:     req.Provider,
		Model:        req.Model,
		APIKey:       req.APIKey,
		SystemPrompt: req.SystemPrompt,
	}
}
