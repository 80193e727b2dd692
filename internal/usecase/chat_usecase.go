package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// contextWindowSize bounds how many persisted messages accompany a prompt.
// Truncation drops the oldest messages first; the transcript listing in the
// dialog usecase keeps the oldest-N instead and the two must stay separate.
const contextWindowSize = 10

// persistTimeout bounds the detached write of a streamed assistant reply.
const persistTimeout = 10 * time.Second

// chatUsecase implements domain.ChatUsecase. It persists the user turn,
// calls the AI gateway without holding any storage lock, and persists the
// assistant turn afterwards.
type chatUsecase struct {
	aiClient domain.AIClient
	dialogs  domain.DialogUsecase
	logger   *slog.Logger
}

// NewChatUsecase creates a new ChatUsecase instance.
func NewChatUsecase(aiClient domain.AIClient, dialogs domain.DialogUsecase, logger *slog.Logger) domain.ChatUsecase {
	return &chatUsecase{
		aiClient: aiClient,
		dialogs:  dialogs,
		logger:   logger,
	}
}

// Chat runs a full non-streaming turn. On gateway failure the user message
// stays persisted and the failure surfaces as an upstream error, distinct
// from any assistant reply.
func (u *chatUsecase) Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := u.validateChatRequest(req); err != nil {
		return nil, err
	}

	session, err := u.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	prompt, err := u.preparePrompt(ctx, session, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	completion, err := u.aiClient.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	assistant := domain.MessageCreate{
		Role:     entity.RoleAssistant,
		Content:  completion.Text,
		Provider: req.Provider,
	}
	if completion.TokensUsed > 0 {
		tokens := completion.TokensUsed
		assistant.TokensUsed = &tokens
	}
	if _, err := u.dialogs.AppendMessage(ctx, session.SessionID, assistant); err != nil {
		return nil, err
	}

	return &domain.ChatResponse{
		Message:      completion.Text,
		SessionID:    session.SessionID,
		WorkflowID:   req.WorkflowID,
		Provider:     req.Provider,
		ResponseTime: time.Since(start).Seconds(),
	}, nil
}

// ChatStreaming runs a streaming turn. The returned channel carries text
// chunks terminated by an IsEnd or Error chunk. The accumulated assistant
// text is persisted only when the provider stream ends naturally; aborted or
// failed streams persist nothing beyond the user message.
func (u *chatUsecase) ChatStreaming(ctx context.Context, req *domain.ChatRequest) (<-chan entity.StreamChunk, *entity.ChatSession, error) {
	if err := u.validateChatRequest(req); err != nil {
		return nil, nil, err
	}

	session, err := u.resolveSession(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	prompt, err := u.preparePrompt(ctx, session, req)
	if err != nil {
		return nil, nil, err
	}

	streamCh, err := u.aiClient.StreamCompletion(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan entity.StreamChunk, 64)
	go u.pumpStream(ctx, session.SessionID, req.Provider, streamCh, out)

	return out, session, nil
}

// pumpStream forwards provider chunks, accumulating text so the final
// assistant message can be written once the stream completes. Every send
// races ctx so an abandoned consumer never pins the goroutine.
func (u *chatUsecase) pumpStream(ctx context.Context, sessionID, provider string, in <-chan entity.StreamChunk, out chan<- entity.StreamChunk) {
	defer close(out)

	var acc strings.Builder
	for {
		select {
		case chunk, ok := <-in:
			if !ok {
				// Provider channel closed without a terminal marker.
				u.logger.Warn("ai stream ended without terminal chunk", "session_id", sessionID)
				u.send(ctx, out, entity.StreamChunk{IsEnd: true, Error: "stream aborted"})
				return
			}

			if chunk.Error != "" {
				// Partial text is discarded; the caller sees the failure.
				u.logger.Warn("ai stream failed", "session_id", sessionID, "error", chunk.Error)
				u.send(ctx, out, chunk)
				return
			}

			if chunk.Text != "" {
				acc.WriteString(chunk.Text)
				if !u.send(ctx, out, entity.StreamChunk{Text: chunk.Text}) {
					u.logger.Warn("stream consumer gone, discarding reply", "session_id", sessionID)
					return
				}
			}

			if chunk.IsEnd {
				u.persistStreamedReply(ctx, sessionID, provider, acc.String())
				u.send(ctx, out, entity.StreamChunk{IsEnd: true})
				return
			}
		case <-ctx.Done():
			u.logger.Warn("stream canceled before completion", "session_id", sessionID)
			return
		}
	}
}

// send delivers one chunk unless ctx ends first. Reports delivery.
func (u *chatUsecase) send(ctx context.Context, out chan<- entity.StreamChunk, chunk entity.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// persistStreamedReply writes the accumulated assistant text with a context
// detached from the request, which may already be canceled by the client.
func (u *chatUsecase) persistStreamedReply(ctx context.Context, sessionID, provider, text string) {
	if text == "" {
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	_, err := u.dialogs.AppendMessage(persistCtx, sessionID, domain.MessageCreate{
		Role:     entity.RoleAssistant,
		Content:  text,
		Provider: provider,
	})
	if err != nil {
		u.logger.Error("failed to persist streamed assistant reply", "session_id", sessionID, "error", err)
	}
}

// resolveSession returns the referenced session, or creates a fresh one for
// the workflow when no session ID is supplied.
func (u *chatUsecase) resolveSession(ctx context.Context, req *domain.ChatRequest) (*entity.ChatSession, error) {
	if req.SessionID != "" {
		return u.dialogs.GetSession(ctx, req.SessionID, false)
	}
	session, err := u.dialogs.CreateSession(ctx, req.WorkflowID, nil)
	if err != nil {
		return nil, err
	}
	u.logger.Info("new conversation started", "workflow_id", req.WorkflowID, "session_id", session.SessionID)
	return session, nil
}

// preparePrompt reads the history window, persists the user turn and builds
// the gateway prompt. The window is read before the append so the in-flight
// message is excluded; it is then added as the prompt's last element.
func (u *chatUsecase) preparePrompt(ctx context.Context, session *entity.ChatSession, req *domain.ChatRequest) (*entity.Prompt, error) {
	history, err := u.dialogs.ListMessages(ctx, session.SessionID, 0)
	if err != nil {
		return nil, err
	}

	if _, err := u.dialogs.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
		Role:    entity.RoleUser,
		Content: req.Message,
	}); err != nil {
		return nil, err
	}

	window := history
	if len(window) > contextWindowSize {
		window = window[len(window)-contextWindowSize:]
	}

	messages := make([]entity.PromptMessage, 0, len(window)+1)
	for _, m := range window {
		messages = append(messages, entity.PromptMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, entity.PromptMessage{Role: entity.RoleUser, Content: req.Message})

	return &entity.Prompt{
		Provider:     req.Provider,
		Model:        req.Model,
		APIKey:       req.APIKey,
		SystemPrompt: req.SystemPrompt,
		Messages:     messages,
	}, nil
}

// validateChatRequest checks the inbound turn.
func (u *chatUsecase) validateChatRequest(req *domain.ChatRequest) error {
	if req == nil {
		return domain.NewInvalidInputError("request is required")
	}
	if req.SessionID == "" && req.WorkflowID == "" {
		return domain.NewInvalidInputError("workflow id or session id is required")
	}
	if req.Message == "" {
		return domain.NewInvalidInputError("message is required")
	}
	if len(req.Message) > maxContentLength {
		return domain.NewInvalidInputError(fmt.Sprintf("message too long (max %d characters)", maxContentLength))
	}
	return nil
}
