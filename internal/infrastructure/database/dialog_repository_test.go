package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestRepo(t *testing.T) (domain.DialogRepository, *gorm.DB) {
	db := newTestDB(t)
	return NewDialogRepository(db), db
}

func TestCreateDialogGetOrCreate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateDialog(ctx, domain.DialogCreate{WorkflowID: "wf-1", WorkflowName: "original"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	second, err := repo.CreateDialog(ctx, domain.DialogCreate{WorkflowID: "wf-1", WorkflowName: "changed"})
	if err != nil {
		t.Fatalf("repeat create failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("repeat create produced a new dialog: %s vs %s", second.ID, first.ID)
	}
	if second.WorkflowName != "original" {
		t.Errorf("repeat create modified the existing dialog: name = %q", second.WorkflowName)
	}

	other, err := repo.CreateDialog(ctx, domain.DialogCreate{WorkflowID: "wf-2"})
	if err != nil {
		t.Fatalf("create for second workflow failed: %v", err)
	}
	if other.ID == first.ID {
		t.Error("distinct workflows share a dialog")
	}
}

func TestSoftDeleteAndRecreate(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateDialog(ctx, domain.DialogCreate{WorkflowID: "wf-1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.SoftDeleteDialog(ctx, "wf-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.GetDialog(ctx, "wf-1"); !domain.IsNotFound(err) {
		t.Errorf("deleted dialog still visible: %v", err)
	}
	if err := repo.SoftDeleteDialog(ctx, "wf-1"); !domain.IsNotFound(err) {
		t.Errorf("repeat delete should report not found, got %v", err)
	}

	// A fresh create starts a new identity; the retired row stays behind.
	recreated, err := repo.CreateDialog(ctx, domain.DialogCreate{WorkflowID: "wf-1"})
	if err != nil {
		t.Fatalf("recreate failed: %v", err)
	}
	if recreated.ID == first.ID {
		t.Error("recreate revived the retired dialog")
	}

	var total int64
	if err := db.Model(&dialogModel{}).Where("workflow_id = ?", "wf-1").Count(&total).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected the retired row to remain, got %d rows", total)
	}
}

func TestUpdateDialogPartial(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateDialog(ctx, domain.DialogCreate{
		WorkflowID:   "wf-1",
		WorkflowName: "before",
		WorkflowData: map[string]interface{}{"nodes": []interface{}{}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "after"
	time.Sleep(2 * time.Millisecond)
	updated, err := repo.UpdateDialog(ctx, "wf-1", domain.DialogUpdate{WorkflowName: &name})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.WorkflowName != "after" {
		t.Errorf("name = %q", updated.WorkflowName)
	}
	if updated.WorkflowData == nil {
		t.Error("untouched workflow data was cleared")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("updated_at was not bumped")
	}

	if _, err := repo.UpdateDialog(ctx, "wf-missing", domain.DialogUpdate{WorkflowName: &name}); !domain.IsNotFound(err) {
		t.Errorf("expected not-found for missing dialog, got %v", err)
	}
}

func TestSaveWorkflowSnapshot(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	data := map[string]interface{}{"nodes": []interface{}{map[string]interface{}{"type": "webhook"}}}
	created, err := repo.SaveWorkflowSnapshot(ctx, "wf-1", data, "My Flow")
	if err != nil {
		t.Fatalf("snapshot save failed: %v", err)
	}
	if created.WorkflowName != "My Flow" {
		t.Errorf("name = %q", created.WorkflowName)
	}

	// A second save updates the same dialog in place.
	updated, err := repo.SaveWorkflowSnapshot(ctx, "wf-1", map[string]interface{}{"nodes": []interface{}{}}, "")
	if err != nil {
		t.Fatalf("snapshot update failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Error("snapshot save created a second dialog")
	}
	if updated.WorkflowName != "My Flow" {
		t.Errorf("empty name overwrote the stored one: %q", updated.WorkflowName)
	}
}

func TestCreateSessionImplicitDialog(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	session, err := repo.CreateSession(ctx, "wf-1", map[string]interface{}{"source": "extension"})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.SessionID == "" {
		t.Fatal("session id is empty")
	}

	dialog, err := repo.GetDialog(ctx, "wf-1")
	if err != nil {
		t.Fatalf("implicit dialog missing: %v", err)
	}
	if session.DialogID != dialog.ID {
		t.Errorf("session is attached to %s, dialog is %s", session.DialogID, dialog.ID)
	}

	// A second session lands under the same dialog.
	second, err := repo.CreateSession(ctx, "wf-1", nil)
	if err != nil {
		t.Fatalf("second session failed: %v", err)
	}
	if second.SessionID == session.SessionID {
		t.Error("sessions share a session id")
	}
	if second.DialogID != dialog.ID {
		t.Error("second session created another dialog")
	}
}

func TestAppendMessageAtomicity(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	session, err := repo.CreateSession(ctx, "wf-1", nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	message, err := repo.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
		Role:    entity.RoleUser,
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	refreshed, err := repo.GetSession(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if !refreshed.LastActivity.Equal(message.Timestamp) {
		t.Errorf("last_activity %v != message timestamp %v", refreshed.LastActivity, message.Timestamp)
	}
	if refreshed.MessageCount != 1 {
		t.Errorf("message count = %d", refreshed.MessageCount)
	}

	// A missing session fails without writing anything.
	if _, err := repo.AppendMessage(ctx, "missing", domain.MessageCreate{
		Role:    entity.RoleUser,
		Content: "hello",
	}); !domain.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestMessageOrdering(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	session, _ := repo.CreateSession(ctx, "wf-1", nil)
	for i := 0; i < 5; i++ {
		if _, err := repo.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
			Role:    entity.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	// Collapse every timestamp to the same instant; insertion order must
	// still win via the per-session sequence.
	if err := db.Exec("UPDATE messages SET timestamp = ?", time.Now().UTC()).Error; err != nil {
		t.Fatalf("timestamp collapse failed: %v", err)
	}

	messages, err := repo.ListSessionMessages(ctx, session.SessionID, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}
	for i, m := range messages {
		if want := fmt.Sprintf("message %d", i); m.Content != want {
			t.Errorf("position %d holds %q, expected %q", i, m.Content, want)
		}
	}
}

func TestListSessionMessages(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	// A missing session yields an empty slice, not an error.
	messages, err := repo.ListSessionMessages(ctx, "missing", 0)
	if err != nil {
		t.Fatalf("list for missing session failed: %v", err)
	}
	if messages == nil || len(messages) != 0 {
		t.Errorf("expected empty slice, got %v", messages)
	}

	session, _ := repo.CreateSession(ctx, "wf-1", nil)
	for i := 0; i < 4; i++ {
		if _, err := repo.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
			Role:    entity.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	limited, err := repo.ListSessionMessages(ctx, session.SessionID, 2)
	if err != nil {
		t.Fatalf("limited list failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(limited))
	}
	if limited[0].Content != "message 0" || limited[1].Content != "message 1" {
		t.Errorf("limit did not keep the oldest messages: %q, %q", limited[0].Content, limited[1].Content)
	}
}

func TestGetLatestSessionDeterministic(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.CreateSession(ctx, "wf-1", nil)
	b, _ := repo.CreateSession(ctx, "wf-1", nil)

	// Force identical activity so only the tie-break decides.
	instant := time.Now().UTC().Truncate(time.Second)
	if err := db.Exec("UPDATE chat_sessions SET last_activity = ?", instant).Error; err != nil {
		t.Fatalf("activity collapse failed: %v", err)
	}

	first, err := repo.GetLatestSession(ctx, "wf-1")
	if err != nil {
		t.Fatalf("latest session failed: %v", err)
	}
	second, err := repo.GetLatestSession(ctx, "wf-1")
	if err != nil {
		t.Fatalf("repeat latest session failed: %v", err)
	}
	if first.SessionID != second.SessionID {
		t.Errorf("repeated calls disagree: %s vs %s", first.SessionID, second.SessionID)
	}
	if first.SessionID != a.SessionID && first.SessionID != b.SessionID {
		t.Errorf("latest session %s belongs to neither candidate", first.SessionID)
	}

	// Newer activity on the other session flips the result.
	other := a.SessionID
	if first.SessionID == a.SessionID {
		other = b.SessionID
	}
	if err := repo.TouchSession(ctx, other); err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	latest, err := repo.GetLatestSession(ctx, "wf-1")
	if err != nil {
		t.Fatalf("latest session failed: %v", err)
	}
	if latest.SessionID != other {
		t.Errorf("expected %s after touch, got %s", other, latest.SessionID)
	}

	if _, err := repo.GetLatestSession(ctx, "wf-none"); !domain.IsNotFound(err) {
		t.Errorf("expected not-found for workflow without sessions, got %v", err)
	}
}

func TestTouchSession(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	session, _ := repo.CreateSession(ctx, "wf-1", nil)
	before := session.LastActivity

	time.Sleep(2 * time.Millisecond)
	if err := repo.TouchSession(ctx, session.SessionID); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	refreshed, _ := repo.GetSession(ctx, session.SessionID)
	if !refreshed.LastActivity.After(before) {
		t.Error("touch did not bump last_activity")
	}

	if err := repo.TouchSession(ctx, "missing"); !domain.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestGetHistory(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	// A workflow without a dialog yields the empty shape.
	empty, err := repo.GetHistory(ctx, "wf-42", domain.HistoryQuery{})
	if err != nil {
		t.Fatalf("history for missing workflow failed: %v", err)
	}
	if empty.WorkflowID != "wf-42" || empty.Dialog != nil || len(empty.Sessions) != 0 ||
		empty.TotalSessions != 0 || empty.TotalMessages != 0 || empty.LatestActivity != nil {
		t.Errorf("expected empty history shape, got %+v", empty)
	}

	older, _ := repo.CreateSession(ctx, "wf-42", nil)
	if _, err := repo.AppendMessage(ctx, older.SessionID, domain.MessageCreate{Role: entity.RoleUser, Content: "hello"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := repo.AppendMessage(ctx, older.SessionID, domain.MessageCreate{Role: entity.RoleAssistant, Content: "hi"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	time.Sleep(2 * time.Millisecond)
	newer, _ := repo.CreateSession(ctx, "wf-42", nil)
	if _, err := repo.AppendMessage(ctx, newer.SessionID, domain.MessageCreate{Role: entity.RoleUser, Content: "again"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	history, err := repo.GetHistory(ctx, "wf-42", domain.HistoryQuery{IncludeMessages: true})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if history.Dialog == nil {
		t.Fatal("history is missing the dialog")
	}
	if history.TotalSessions != 2 || history.TotalMessages != 3 {
		t.Errorf("rollups = %d sessions / %d messages", history.TotalSessions, history.TotalMessages)
	}
	if history.LatestActivity == nil {
		t.Fatal("latest activity missing")
	}

	// Most recently active session first.
	if history.Sessions[0].SessionID != newer.SessionID {
		t.Errorf("expected %s first, got %s", newer.SessionID, history.Sessions[0].SessionID)
	}
	if len(history.Sessions[1].Messages) != 2 {
		t.Errorf("older session carries %d messages", len(history.Sessions[1].Messages))
	}
	if history.Sessions[1].Messages[0].Content != "hello" {
		t.Errorf("transcript out of order: %q first", history.Sessions[1].Messages[0].Content)
	}

	// A session limit bounds the listing and the rollups together.
	limited, err := repo.GetHistory(ctx, "wf-42", domain.HistoryQuery{SessionLimit: 1})
	if err != nil {
		t.Fatalf("limited history failed: %v", err)
	}
	if limited.TotalSessions != 1 || len(limited.Sessions) != 1 {
		t.Errorf("limited history has %d sessions", len(limited.Sessions))
	}
	if limited.Sessions[0].SessionID != newer.SessionID {
		t.Error("limit kept the wrong session")
	}
}

func TestGetWorkflowStats(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	stats, err := repo.GetWorkflowStats(ctx, "wf-1")
	if err != nil {
		t.Fatalf("stats for missing workflow failed: %v", err)
	}
	if stats.TotalSessions != 0 || stats.TotalMessages != 0 || stats.LatestActivity != nil {
		t.Errorf("expected zero stats, got %+v", stats)
	}

	session, _ := repo.CreateSession(ctx, "wf-1", nil)
	for i := 0; i < 3; i++ {
		if _, err := repo.AppendMessage(ctx, session.SessionID, domain.MessageCreate{
			Role:    entity.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	stats, err = repo.GetWorkflowStats(ctx, "wf-1")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalSessions != 1 || stats.TotalMessages != 3 {
		t.Errorf("stats = %d sessions / %d messages", stats.TotalSessions, stats.TotalMessages)
	}
	if stats.LatestActivity == nil {
		t.Error("latest activity missing")
	}
}

func TestCleanupSessions(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	stale, _ := repo.CreateSession(ctx, "wf-1", nil)
	if _, err := repo.AppendMessage(ctx, stale.SessionID, domain.MessageCreate{Role: entity.RoleUser, Content: "old"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	fresh, _ := repo.CreateSession(ctx, "wf-1", nil)

	cutoff := time.Now().UTC().Add(-time.Hour)
	if err := db.Exec("UPDATE chat_sessions SET last_activity = ? WHERE session_id = ?",
		cutoff.Add(-time.Minute), stale.SessionID).Error; err != nil {
		t.Fatalf("aging failed: %v", err)
	}

	deleted, err := repo.CleanupSessions(ctx, cutoff)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted session, got %d", deleted)
	}
	if _, err := repo.GetSession(ctx, stale.SessionID); !domain.IsNotFound(err) {
		t.Error("stale session survived cleanup")
	}
	if _, err := repo.GetSession(ctx, fresh.SessionID); err != nil {
		t.Errorf("fresh session was deleted: %v", err)
	}

	// Messages cascade with their session.
	var orphaned int64
	if err := db.Model(&messageModel{}).Count(&orphaned).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if orphaned != 0 {
		t.Errorf("%d messages survived their session", orphaned)
	}

	// A session parked exactly on the cutoff stays; deletion is strict.
	if err := db.Exec("UPDATE chat_sessions SET last_activity = ? WHERE session_id = ?",
		cutoff, fresh.SessionID).Error; err != nil {
		t.Fatalf("aging failed: %v", err)
	}
	deleted, err = repo.CleanupSessions(ctx, cutoff)
	if err != nil {
		t.Fatalf("repeat cleanup failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("cutoff boundary was deleted: %d", deleted)
	}
}
