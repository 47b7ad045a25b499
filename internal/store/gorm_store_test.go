package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"roundtable.local/projects/insight-gateway/internal/meeting"
)

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "meetings.db")
	s, err := NewGormStore("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGormStoreRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("mtg_1")
	if err := s.SaveMeeting(ctx, rec); err != nil {
		t.Fatalf("save meeting: %v", err)
	}
	// Insert out of order; load must come back in sequence order.
	if err := s.SaveEntry(ctx, testEntry("mtg_1", "entry_2", 2)); err != nil {
		t.Fatalf("save entry: %v", err)
	}
	if err := s.SaveEntry(ctx, testEntry("mtg_1", "entry_1", 1)); err != nil {
		t.Fatalf("save entry: %v", err)
	}
	if err := s.SaveInsight(ctx, meeting.Insight{
		InsightID: "insight_1", MeetingID: "mtg_1", Type: meeting.InsightDecision,
		Content: "ship friday", Confidence: 0.9, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("save insight: %v", err)
	}
	if err := s.SaveActionItem(ctx, meeting.ActionItem{
		ItemID: "ai_1", MeetingID: "mtg_1", Description: "send notes",
		Priority: meeting.PriorityHigh, Status: meeting.ActionItemPending,
		Confidence: 0.8, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("save item: %v", err)
	}

	loaded, err := s.LoadMeeting(ctx, "mtg_1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Record.Title != rec.Title || loaded.Record.Status != meeting.StatusActive {
		t.Fatalf("unexpected record: %+v", loaded.Record)
	}
	if len(loaded.Record.Participants) != 2 || loaded.Record.Participants[0] != "anna" {
		t.Fatalf("participants not round-tripped: %+v", loaded.Record.Participants)
	}
	if len(loaded.Entries) != 2 || loaded.Entries[0].Sequence != 1 || loaded.Entries[1].Sequence != 2 {
		t.Fatalf("entries not in sequence order: %+v", loaded.Entries)
	}
	if len(loaded.Insights) != 1 || loaded.Insights[0].Type != meeting.InsightDecision {
		t.Fatalf("unexpected insights: %+v", loaded.Insights)
	}
	if len(loaded.ActionItems) != 1 || loaded.ActionItems[0].Priority != meeting.PriorityHigh {
		t.Fatalf("unexpected items: %+v", loaded.ActionItems)
	}
}

func TestGormStoreSaveMeetingUpserts(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("mtg_1")
	if err := s.SaveMeeting(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	endedAt := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	rec.Status = meeting.StatusEnded
	rec.EndedAt = &endedAt
	if err := s.SaveMeeting(ctx, rec); err != nil {
		t.Fatalf("resave: %v", err)
	}

	loaded, err := s.LoadMeeting(ctx, "mtg_1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Record.Status != meeting.StatusEnded || loaded.Record.EndedAt == nil {
		t.Fatalf("header not upserted: %+v", loaded.Record)
	}
}

func TestGormStoreActionItemUpsert(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	if err := s.SaveMeeting(ctx, testRecord("mtg_1")); err != nil {
		t.Fatalf("save meeting: %v", err)
	}
	item := meeting.ActionItem{
		ItemID: "ai_1", MeetingID: "mtg_1", Description: "send notes",
		Priority: meeting.PriorityMedium, Status: meeting.ActionItemPending,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := s.SaveActionItem(ctx, item); err != nil {
		t.Fatalf("save item: %v", err)
	}
	item.Status = meeting.ActionItemConfirmed
	item.Assignee = "ben"
	if err := s.SaveActionItem(ctx, item); err != nil {
		t.Fatalf("upsert item: %v", err)
	}

	loaded, err := s.LoadMeeting(ctx, "mtg_1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.ActionItems) != 1 {
		t.Fatalf("upsert must not duplicate, got %d items", len(loaded.ActionItems))
	}
	if loaded.ActionItems[0].Status != meeting.ActionItemConfirmed || loaded.ActionItems[0].Assignee != "ben" {
		t.Fatalf("upsert did not replace: %+v", loaded.ActionItems[0])
	}
}

func TestGormStoreLoadUnknown(t *testing.T) {
	s := newSQLiteStore(t)
	if _, err := s.LoadMeeting(context.Background(), "mtg_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGormStoreRejectsUnknownDriver(t *testing.T) {
	if _, err := NewGormStore("oracle", "whatever"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
