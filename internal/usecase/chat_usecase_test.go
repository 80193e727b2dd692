package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// fakeAIClient captures prompts and returns canned completions.
type fakeAIClient struct {
	lastPrompt  *fakePrompt
	completion  *entity.Completion
	completeErr error
	chunks      []entity.StreamChunk
	closeOnly   bool // close the stream channel without a terminal chunk
}

type fakePrompt struct {
	provider string
	messages []entity.PromptMessage
}

func (c *fakeAIClient) Complete(ctx context.Context, prompt *entity.Prompt) (*entity.Completion, error) {
	c.lastPrompt = &fakePrompt{provider: prompt.Provider, messages: prompt.Messages}
	if c.completeErr != nil {
		return nil, c.completeErr
	}
	return c.completion, nil
}

func (c *fakeAIClient) StreamCompletion(ctx context.Context, prompt *entity.Prompt) (<-chan entity.StreamChunk, error) {
	c.lastPrompt = &fakePrompt{provider: prompt.Provider, messages: prompt.Messages}
	out := make(chan entity.StreamChunk, len(c.chunks)+1)
	for _, chunk := range c.chunks {
		out <- chunk
	}
	if !c.closeOnly {
		out <- entity.StreamChunk{IsEnd: true}
	}
	close(out)
	return out, nil
}

func newChatFixture(ai *fakeAIClient) (domain.ChatUsecase, domain.DialogUsecase, *fakeDialogRepository) {
	repo := newFakeDialogRepository()
	dialogs := NewDialogUsecase(repo, testLogger())
	return NewChatUsecase(ai, dialogs, testLogger()), dialogs, repo
}

func collectChunks(t *testing.T, ch <-chan entity.StreamChunk) []entity.StreamChunk {
	t.Helper()
	var chunks []entity.StreamChunk
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return chunks
			}
			chunks = append(chunks, chunk)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

// waitForMessages polls until the session transcript reaches the expected
// length, since streamed replies are persisted on a detached goroutine.
func waitForMessages(t *testing.T, dialogs domain.DialogUsecase, sessionID string, want int) []*entity.Message {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		messages, err := dialogs.ListMessages(context.Background(), sessionID, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(messages) >= want || time.Now().After(deadline) {
			return messages
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestChatValidation(t *testing.T) {
	uc, _, _ := newChatFixture(&fakeAIClient{})

	tests := []struct {
		name string
		req  *domain.ChatRequest
	}{
		{"nil request", nil},
		{"no target", &domain.ChatRequest{Message: "hi"}},
		{"empty message", &domain.ChatRequest{WorkflowID: "wf-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.Chat(context.Background(), tt.req); !domain.IsInvalidInput(err) {
				t.Errorf("expected invalid-input error, got %v", err)
			}
		})
	}
}

func TestChatPersistsBothTurns(t *testing.T) {
	ai := &fakeAIClient{completion: &entity.Completion{Text: "hello there", TokensUsed: 42}}
	uc, dialogs, _ := newChatFixture(ai)
	ctx := context.Background()

	resp, err := uc.Chat(ctx, &domain.ChatRequest{WorkflowID: "wf-1", Message: "hi", Provider: "openai"})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if resp.Message != "hello there" {
		t.Errorf("reply = %q", resp.Message)
	}
	if resp.SessionID == "" {
		t.Error("response is missing the session id")
	}

	messages, err := dialogs.ListMessages(ctx, resp.SessionID, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(messages))
	}
	if messages[0].Role != entity.RoleUser || messages[0].Content != "hi" {
		t.Errorf("first message = %s %q", messages[0].Role, messages[0].Content)
	}
	if messages[1].Role != entity.RoleAssistant || messages[1].Content != "hello there" {
		t.Errorf("second message = %s %q", messages[1].Role, messages[1].Content)
	}
	if messages[1].TokensUsed == nil || *messages[1].TokensUsed != 42 {
		t.Error("assistant message lost its token count")
	}
}

func TestChatReusesSession(t *testing.T) {
	ai := &fakeAIClient{completion: &entity.Completion{Text: "reply"}}
	uc, dialogs, _ := newChatFixture(ai)
	ctx := context.Background()

	session, err := dialogs.CreateSession(ctx, "wf-1", nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	resp, err := uc.Chat(ctx, &domain.ChatRequest{SessionID: session.SessionID, Message: "hi"})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if resp.SessionID != session.SessionID {
		t.Errorf("expected session %s, got %s", session.SessionID, resp.SessionID)
	}

	if _, err := uc.Chat(ctx, &domain.ChatRequest{SessionID: "session_missing", Message: "hi"}); !domain.IsNotFound(err) {
		t.Errorf("expected not-found for unknown session, got %v", err)
	}
}

func TestChatUpstreamFailureKeepsUserMessage(t *testing.T) {
	ai := &fakeAIClient{completeErr: domain.NewUpstreamError("ai provider", fmt.Errorf("boom"))}
	uc, dialogs, _ := newChatFixture(ai)
	ctx := context.Background()

	session, _ := dialogs.CreateSession(ctx, "wf-1", nil)

	_, err := uc.Chat(ctx, &domain.ChatRequest{SessionID: session.SessionID, Message: "hi"})
	if !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	messages, _ := dialogs.ListMessages(ctx, session.SessionID, 0)
	if len(messages) != 1 {
		t.Fatalf("expected the user message to survive, got %d messages", len(messages))
	}
	if messages[0].Role != entity.RoleUser {
		t.Errorf("surviving message role = %s", messages[0].Role)
	}
}

func TestChatContextWindow(t *testing.T) {
	ai := &fakeAIClient{completion: &entity.Completion{Text: "reply"}}
	uc, dialogs, _ := newChatFixture(ai)
	ctx := context.Background()

	session, _ := dialogs.CreateSession(ctx, "wf-1", nil)
	for i := 0; i < 15; i++ {
		if _, err := dialogs.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
			Role:    entity.RoleUser,
			Content: fmt.Sprintf("old %d", i),
		}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	if _, err := uc.Chat(ctx, &domain.ChatRequest{SessionID: session.SessionID, Message: "newest"}); err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if ai.lastPrompt == nil {
		t.Fatal("gateway never saw a prompt")
	}
	prompt := ai.lastPrompt.messages
	if len(prompt) != contextWindowSize+1 {
		t.Fatalf("expected %d prompt messages, got %d", contextWindowSize+1, len(prompt))
	}
	// Newest ten of the history, oldest first, then the in-flight message.
	if prompt[0].Content != "old 5" {
		t.Errorf("window starts at %q, expected %q", prompt[0].Content, "old 5")
	}
	if prompt[len(prompt)-2].Content != "old 14" {
		t.Errorf("window ends at %q, expected %q", prompt[len(prompt)-2].Content, "old 14")
	}
	if prompt[len(prompt)-1].Content != "newest" {
		t.Errorf("prompt tail = %q, expected the in-flight message", prompt[len(prompt)-1].Content)
	}
}

func TestChatStreamingNaturalEnd(t *testing.T) {
	ai := &fakeAIClient{chunks: []entity.StreamChunk{
		{Text: "hel"},
		{Text: "lo"},
	}}
	uc, dialogs, _ := newChatFixture(ai)
	ctx := context.Background()

	ch, session, err := uc.ChatStreaming(ctx, &domain.ChatRequest{WorkflowID: "wf-1", Message: "hi"})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	chunks := collectChunks(t, ch)
	last := chunks[len(chunks)-1]
	if !last.IsEnd || last.Error != "" {
		t.Errorf("expected clean terminal chunk, got %+v", last)
	}

	var streamed string
	for _, chunk := range chunks {
		streamed += chunk.Text
	}
	if streamed != "hello" {
		t.Errorf("streamed text = %q", streamed)
	}

	messages := waitForMessages(t, dialogs, session.SessionID, 2)
	if len(messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(messages))
	}
	if messages[1].Role != entity.RoleAssistant || messages[1].Content != "hello" {
		t.Errorf("persisted reply = %s %q", messages[1].Role, messages[1].Content)
	}
}

func TestChatStreamingErrorDiscardsPartialReply(t *testing.T) {
	ai := &fakeAIClient{
		chunks: []entity.StreamChunk{
			{Text: "partial "},
			{Error: "provider exploded"},
		},
		closeOnly: true,
	}
	uc, dialogs, _ := newChatFixture(ai)
	ctx := context.Background()

	ch, session, err := uc.ChatStreaming(ctx, &domain.ChatRequest{WorkflowID: "wf-1", Message: "hi"})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	chunks := collectChunks(t, ch)
	last := chunks[len(chunks)-1]
	if last.Error == "" {
		t.Errorf("expected error chunk, got %+v", last)
	}

	// Give any stray persistence goroutine a moment to run, then confirm
	// only the user message exists.
	time.Sleep(50 * time.Millisecond)
	messages, _ := dialogs.ListMessages(ctx, session.SessionID, 0)
	if len(messages) != 1 {
		t.Fatalf("expected only the user message, got %d messages", len(messages))
	}
	if messages[0].Role != entity.RoleUser {
		t.Errorf("surviving message role = %s", messages[0].Role)
	}
}

func TestChatStreamingConsumerCancellation(t *testing.T) {
	// Far more chunks than the outbound buffer holds, so the forwarding
	// goroutine is mid-send when the consumer walks away.
	chunks := make([]entity.StreamChunk, 200)
	for i := range chunks {
		chunks[i] = entity.StreamChunk{Text: "x"}
	}
	ai := &fakeAIClient{chunks: chunks, closeOnly: true}
	uc, dialogs, _ := newChatFixture(ai)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, session, err := uc.ChatStreaming(ctx, &domain.ChatRequest{WorkflowID: "wf-1", Message: "hi"})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	// Read a single chunk, then abandon the stream.
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no chunk arrived")
	}
	cancel()

	// The forwarder must drop its pending send and close the channel; the
	// buffered remainder drains but no terminal chunk may follow.
	deadline := time.After(3 * time.Second)
drain:
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				break drain
			}
			if chunk.IsEnd {
				t.Fatal("canceled stream still delivered a terminal chunk")
			}
		case <-deadline:
			t.Fatal("stream goroutine did not exit after cancellation")
		}
	}

	// Abandoned partial text is never persisted.
	time.Sleep(50 * time.Millisecond)
	messages, _ := dialogs.ListMessages(context.Background(), session.SessionID, 0)
	if len(messages) != 1 {
		t.Fatalf("expected only the user message, got %d messages", len(messages))
	}
}

func TestChatStreamingAbortedChannel(t *testing.T) {
	ai := &fakeAIClient{
		chunks:    []entity.StreamChunk{{Text: "half a re"}},
		closeOnly: true,
	}
	uc, dialogs, _ := newChatFixture(ai)
	ctx := context.Background()

	ch, session, err := uc.ChatStreaming(ctx, &domain.ChatRequest{WorkflowID: "wf-1", Message: "hi"})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	chunks := collectChunks(t, ch)
	last := chunks[len(chunks)-1]
	if !last.IsEnd || last.Error == "" {
		t.Errorf("expected aborted terminal chunk, got %+v", last)
	}

	time.Sleep(50 * time.Millisecond)
	messages, _ := dialogs.ListMessages(ctx, session.SessionID, 0)
	if len(messages) != 1 {
		t.Fatalf("expected partial text to be discarded, got %d messages", len(messages))
	}
}
