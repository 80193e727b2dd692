package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// fakeDialogRepository is an in-memory DialogRepository for usecase tests.
type fakeDialogRepository struct {
	dialogs  map[string]*entity.WorkflowDialog // active dialog per workflow ID
	sessions map[string]*entity.ChatSession
	messages map[string][]*entity.Message
}

func newFakeDialogRepository() *fakeDialogRepository {
	return &fakeDialogRepository{
		dialogs:  make(map[string]*entity.WorkflowDialog),
		sessions: make(map[string]*entity.ChatSession),
		messages: make(map[string][]*entity.Message),
	}
}

func (r *fakeDialogRepository) CreateDialog(ctx context.Context, create domain.DialogCreate) (*entity.WorkflowDialog, error) {
	if existing, ok := r.dialogs[create.WorkflowID]; ok {
		return existing, nil
	}
	dialog := &entity.WorkflowDialog{
		ID:           uuid.New().String(),
		WorkflowID:   create.WorkflowID,
		WorkflowName: create.WorkflowName,
		WorkflowData: create.WorkflowData,
		Metadata:     create.Metadata,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		IsActive:     true,
	}
	r.dialogs[create.WorkflowID] = dialog
	return dialog, nil
}

func (r *fakeDialogRepository) GetDialog(ctx context.Context, workflowID string) (*entity.WorkflowDialog, error) {
	if dialog, ok := r.dialogs[workflowID]; ok {
		return dialog, nil
	}
	return nil, domain.NewNotFoundError("workflow dialog", workflowID)
}

func (r *fakeDialogRepository) UpdateDialog(ctx context.Context, workflowID string, update domain.DialogUpdate) (*entity.WorkflowDialog, error) {
	dialog, ok := r.dialogs[workflowID]
	if !ok {
		return nil, domain.NewNotFoundError("workflow dialog", workflowID)
	}
	if update.WorkflowName != nil {
		dialog.WorkflowName = *update.WorkflowName
	}
	if update.WorkflowData != nil {
		dialog.WorkflowData = update.WorkflowData
	}
	if update.Metadata != nil {
		dialog.Metadata = update.Metadata
	}
	dialog.UpdatedAt = time.Now()
	return dialog, nil
}

func (r *fakeDialogRepository) SoftDeleteDialog(ctx context.Context, workflowID string) error {
	if _, ok := r.dialogs[workflowID]; !ok {
		return domain.NewNotFoundError("workflow dialog", workflowID)
	}
	delete(r.dialogs, workflowID)
	return nil
}

func (r *fakeDialogRepository) SaveWorkflowSnapshot(ctx context.Context, workflowID string, data map[string]interface{}, name string) (*entity.WorkflowDialog, error) {
	if dialog, ok := r.dialogs[workflowID]; ok {
		dialog.WorkflowData = data
		if name != "" {
			dialog.WorkflowName = name
		}
		return dialog, nil
	}
	return r.CreateDialog(ctx, domain.DialogCreate{
		WorkflowID:   workflowID,
		WorkflowName: name,
		WorkflowData: data,
	})
}

func (r *fakeDialogRepository) CreateSession(ctx context.Context, workflowID string, metadata map[string]interface{}) (*entity.ChatSession, error) {
	dialog, err := r.CreateDialog(ctx, domain.DialogCreate{WorkflowID: workflowID})
	if err != nil {
		return nil, err
	}
	session := &entity.ChatSession{
		ID:           uuid.New().String(),
		SessionID:    fmt.Sprintf("session_%s", uuid.New().String()),
		DialogID:     dialog.ID,
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		Metadata:     metadata,
	}
	r.sessions[session.SessionID] = session
	return session, nil
}

func (r *fakeDialogRepository) GetSession(ctx context.Context, sessionID string) (*entity.ChatSession, error) {
	if session, ok := r.sessions[sessionID]; ok {
		return session, nil
	}
	return nil, domain.NewNotFoundError("chat session", sessionID)
}

func (r *fakeDialogRepository) GetLatestSession(ctx context.Context, workflowID string) (*entity.ChatSession, error) {
	dialog, ok := r.dialogs[workflowID]
	if !ok {
		return nil, domain.NewNotFoundError("workflow dialog", workflowID)
	}
	var latest *entity.ChatSession
	for _, session := range r.sessions {
		if session.DialogID != dialog.ID {
			continue
		}
		if latest == nil || session.LastActivity.After(latest.LastActivity) {
			latest = session
		}
	}
	if latest == nil {
		return nil, domain.NewNotFoundError("chat session", workflowID)
	}
	return latest, nil
}

func (r *fakeDialogRepository) TouchSession(ctx context.Context, sessionID string) error {
	session, ok := r.sessions[sessionID]
	if !ok {
		return domain.NewNotFoundError("chat session", sessionID)
	}
	session.LastActivity = time.Now()
	return nil
}

func (r *fakeDialogRepository) AppendMessage(ctx context.Context, sessionID string, create domain.MessageCreate) (*entity.Message, error) {
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, domain.NewNotFoundError("chat session", sessionID)
	}
	now := time.Now()
	message := &entity.Message{
		ID:         uuid.New().String(),
		MessageID:  fmt.Sprintf("msg_%s", uuid.New().String()),
		Role:       create.Role,
		Content:    create.Content,
		Timestamp:  now,
		TokensUsed: create.TokensUsed,
		Provider:   create.Provider,
		Metadata:   create.Metadata,
	}
	session.LastActivity = now
	session.MessageCount++
	r.messages[sessionID] = append(r.messages[sessionID], message)
	return message, nil
}

func (r *fakeDialogRepository) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*entity.Message, error) {
	messages := r.messages[sessionID]
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	out := make([]*entity.Message, len(messages))
	copy(out, messages)
	return out, nil
}

func (r *fakeDialogRepository) GetHistory(ctx context.Context, workflowID string, query domain.HistoryQuery) (*entity.ChatHistory, error) {
	history := &entity.ChatHistory{WorkflowID: workflowID, Sessions: []*entity.ChatSession{}}
	dialog, ok := r.dialogs[workflowID]
	if !ok {
		return history, nil
	}
	history.Dialog = dialog
	for _, session := range r.sessions {
		if session.DialogID != dialog.ID {
			continue
		}
		history.Sessions = append(history.Sessions, session)
		history.TotalSessions++
		history.TotalMessages += len(r.messages[session.SessionID])
		if history.LatestActivity == nil || session.LastActivity.After(*history.LatestActivity) {
			la := session.LastActivity
			history.LatestActivity = &la
		}
	}
	return history, nil
}

func (r *fakeDialogRepository) GetWorkflowStats(ctx context.Context, workflowID string) (*entity.WorkflowStats, error) {
	history, err := r.GetHistory(ctx, workflowID, domain.HistoryQuery{})
	if err != nil {
		return nil, err
	}
	return &entity.WorkflowStats{
		WorkflowID:     workflowID,
		TotalSessions:  history.TotalSessions,
		TotalMessages:  history.TotalMessages,
		LatestActivity: history.LatestActivity,
	}, nil
}

func (r *fakeDialogRepository) CleanupSessions(ctx context.Context, olderThan time.Time) (int, error) {
	deleted := 0
	for sessionID, session := range r.sessions {
		if session.LastActivity.Before(olderThan) {
			delete(r.sessions, sessionID)
			delete(r.messages, sessionID)
			deleted++
		}
	}
	return deleted, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCreateDialogValidation(t *testing.T) {
	uc := NewDialogUsecase(newFakeDialogRepository(), testLogger())

	tests := []struct {
		name        string
		workflowID  string
		errContains string
	}{
		{"empty workflow id", "", "workflow id is required"},
		{"workflow id too long", strings.Repeat("x", 256), "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateDialog(context.Background(), domain.DialogCreate{WorkflowID: tt.workflowID})
			if err == nil {
				t.Fatal("expected error, got success")
			}
			if !domain.IsInvalidInput(err) {
				t.Errorf("expected invalid-input error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %v, expected to contain %q", err, tt.errContains)
			}
		})
	}
}

func TestCreateDialogIdempotent(t *testing.T) {
	uc := NewDialogUsecase(newFakeDialogRepository(), testLogger())
	ctx := context.Background()

	first, err := uc.CreateDialog(ctx, domain.DialogCreate{WorkflowID: "wf-1", WorkflowName: "first"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := uc.CreateDialog(ctx, domain.DialogCreate{WorkflowID: "wf-1", WorkflowName: "second"})
	if err != nil {
		t.Fatalf("repeat create failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("repeat create produced a different dialog: %s vs %s", first.ID, second.ID)
	}
	if second.WorkflowName != "first" {
		t.Errorf("repeat create overwrote the dialog: name = %q", second.WorkflowName)
	}
}

func TestAppendMessageValidation(t *testing.T) {
	repo := newFakeDialogRepository()
	uc := NewDialogUsecase(repo, testLogger())
	ctx := context.Background()

	session, err := uc.CreateSession(ctx, "wf-1", nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	tests := []struct {
		name   string
		create domain.MessageCreate
	}{
		{"invalid role", domain.MessageCreate{Role: "bot", Content: "hi"}},
		{"empty content", domain.MessageCreate{Role: entity.RoleUser, Content: ""}},
		{"content too long", domain.MessageCreate{Role: entity.RoleUser, Content: strings.Repeat("a", 10001)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.AppendMessage(ctx, session.SessionID, tt.create)
			if err == nil {
				t.Fatal("expected error, got success")
			}
			if !domain.IsInvalidInput(err) {
				t.Errorf("expected invalid-input error, got %v", err)
			}
		})
	}

	// Boundary: exactly 10000 characters is accepted.
	if _, err := uc.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
		Role:    entity.RoleUser,
		Content: strings.Repeat("a", 10000),
	}); err != nil {
		t.Errorf("max-length content rejected: %v", err)
	}
}

func TestAppendMessageBumpsActivity(t *testing.T) {
	repo := newFakeDialogRepository()
	uc := NewDialogUsecase(repo, testLogger())
	ctx := context.Background()

	session, err := uc.CreateSession(ctx, "wf-1", nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	before := session.LastActivity

	time.Sleep(2 * time.Millisecond)
	message, err := uc.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
		Role:    entity.RoleUser,
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	refreshed, err := uc.GetSession(ctx, session.SessionID, false)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if !refreshed.LastActivity.After(before) {
		t.Error("append did not bump last activity")
	}
	if !refreshed.LastActivity.Equal(message.Timestamp) {
		t.Errorf("activity %v and message timestamp %v disagree", refreshed.LastActivity, message.Timestamp)
	}
}

func TestAppendMessageMissingSession(t *testing.T) {
	uc := NewDialogUsecase(newFakeDialogRepository(), testLogger())

	_, err := uc.AppendMessage(context.Background(), "session_missing", domain.MessageCreate{
		Role:    entity.RoleUser,
		Content: "hello",
	})
	if !domain.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestGetSessionIncludesMessages(t *testing.T) {
	repo := newFakeDialogRepository()
	uc := NewDialogUsecase(repo, testLogger())
	ctx := context.Background()

	session, _ := uc.CreateSession(ctx, "wf-1", nil)
	for i := 0; i < 3; i++ {
		if _, err := uc.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
			Role:    entity.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	bare, err := uc.GetSession(ctx, session.SessionID, false)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if len(bare.Messages) != 0 {
		t.Errorf("expected no messages without include, got %d", len(bare.Messages))
	}

	full, err := uc.GetSession(ctx, session.SessionID, true)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if len(full.Messages) != 3 {
		t.Errorf("expected 3 messages, got %d", len(full.Messages))
	}
}

func TestListMessagesLimit(t *testing.T) {
	repo := newFakeDialogRepository()
	uc := NewDialogUsecase(repo, testLogger())
	ctx := context.Background()

	session, _ := uc.CreateSession(ctx, "wf-1", nil)
	for i := 0; i < 5; i++ {
		if _, err := uc.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
			Role:    entity.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	// A positive limit keeps the oldest messages.
	messages, err := uc.ListMessages(ctx, session.SessionID, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "message 0" || messages[1].Content != "message 1" {
		t.Errorf("limit did not keep the oldest messages: %q, %q", messages[0].Content, messages[1].Content)
	}

	if _, err := uc.ListMessages(ctx, session.SessionID, -1); !domain.IsInvalidInput(err) {
		t.Errorf("expected invalid-input for negative limit, got %v", err)
	}
}

func TestCleanupOldSessions(t *testing.T) {
	repo := newFakeDialogRepository()
	uc := NewDialogUsecase(repo, testLogger())
	ctx := context.Background()

	stale, _ := uc.CreateSession(ctx, "wf-1", nil)
	fresh, _ := uc.CreateSession(ctx, "wf-1", nil)

	// Straddle the default window: one session just past it, one just inside.
	repo.sessions[stale.SessionID].LastActivity = time.Now().UTC().
		Add(-time.Duration(domain.DefaultSessionMaxAgeHours+1) * time.Hour)
	repo.sessions[fresh.SessionID].LastActivity = time.Now().UTC().
		Add(-time.Duration(domain.DefaultSessionMaxAgeHours-1) * time.Hour)

	deleted, err := uc.CleanupOldSessions(ctx, 0)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted session, got %d", deleted)
	}
	if _, err := uc.GetSession(ctx, stale.SessionID, false); !domain.IsNotFound(err) {
		t.Error("stale session survived cleanup")
	}
	if _, err := uc.GetSession(ctx, fresh.SessionID, false); err != nil {
		t.Errorf("fresh session was deleted: %v", err)
	}

	// A second sweep finds nothing.
	deleted, err = uc.CleanupOldSessions(ctx, 0)
	if err != nil {
		t.Fatalf("repeat cleanup failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected idempotent cleanup, got %d deletions", deleted)
	}
}
