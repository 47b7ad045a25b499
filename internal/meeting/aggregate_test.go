package meeting

import (
	"errors"
	"testing"
	"time"
)

func newTestAggregate() *Aggregate {
	return New("mtg_1", "Planning", []string{"anna", "ben"}, 30, time.Unix(1_700_000_000, 0))
}

func TestNewGeneratesDefaults(t *testing.T) {
	agg := New("", "", nil, 0, time.Now())
	if agg.ID() == "" {
		t.Fatalf("expected generated meeting id")
	}
	view := agg.Snapshot()
	if view.Title != "Untitled Meeting" {
		t.Fatalf("unexpected default title: %s", view.Title)
	}
	if view.Status != StatusActive {
		t.Fatalf("expected active status, got %s", view.Status)
	}
}

func TestAppendAssignsMonotonicSequence(t *testing.T) {
	agg := newTestAggregate()

	at := time.Unix(1_700_000_100, 0)
	first, err := agg.Append("anna", "first", at)
	if err != nil {
		t.Fatalf("append first: %v", err)
	}
	// Same wall-clock instant; arrival order still decides ordering.
	second, err := agg.Append("ben", "second", at)
	if err != nil {
		t.Fatalf("append second: %v", err)
	}

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Fatalf("expected sequences 1,2 got %d,%d", first.Sequence, second.Sequence)
	}
	if first.EntryID == second.EntryID {
		t.Fatalf("expected distinct entry ids")
	}

	view := agg.Snapshot()
	if len(view.Transcript) != 2 || view.Transcript[0].Text != "first" || view.Transcript[1].Text != "second" {
		t.Fatalf("transcript out of order: %+v", view.Transcript)
	}
}

func TestAppendDefaultsUnknownSpeaker(t *testing.T) {
	agg := newTestAggregate()
	entry, err := agg.Append("  ", "hello", time.Now())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if entry.Speaker != SpeakerUnknown {
		t.Fatalf("expected unknown speaker, got %s", entry.Speaker)
	}
}

func TestAppendRejectedAfterEnd(t *testing.T) {
	agg := newTestAggregate()
	if err := agg.End(time.Now()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := agg.Append("anna", "too late", time.Now()); !errors.Is(err, ErrMeetingEnded) {
		t.Fatalf("expected ErrMeetingEnded, got %v", err)
	}
	if err := agg.End(time.Now()); !errors.Is(err, ErrMeetingEnded) {
		t.Fatalf("expected second End to fail, got %v", err)
	}
}

func TestRecentEntriesBoundsWindow(t *testing.T) {
	agg := newTestAggregate()
	for _, text := range []string{"a", "b", "c", "d"} {
		if _, err := agg.Append("anna", text, time.Now()); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recent := agg.RecentEntries(2)
	if len(recent) != 2 || recent[0].Text != "c" || recent[1].Text != "d" {
		t.Fatalf("unexpected window: %+v", recent)
	}
	if got := agg.RecentEntries(10); len(got) != 4 {
		t.Fatalf("expected all entries for large window, got %d", len(got))
	}
	if got := agg.RecentEntries(0); got != nil {
		t.Fatalf("expected nil for zero window, got %+v", got)
	}
}

func TestApplyMergesOutcome(t *testing.T) {
	agg := newTestAggregate()
	entry, _ := agg.Append("anna", "ship friday", time.Now())

	outcome := AnalysisOutcome{
		EntryID: entry.EntryID,
		Insights: []Insight{
			{InsightID: "insight_1", MeetingID: "mtg_1", Type: InsightDecision, Content: "ship friday", Confidence: 0.9},
		},
		ActionItems: []ActionItem{
			{ItemID: "ai_1", MeetingID: "mtg_1", Description: "prepare release", Priority: PriorityHigh, Status: ActionItemPending, Confidence: 0.8},
		},
		Summary:   "release planning",
		Sentiment: "positive",
		Urgency:   "high",
	}
	if err := agg.Apply(outcome); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Re-applying the same item id updates in place instead of duplicating.
	outcome.ActionItems[0].Description = "prepare release notes"
	if err := agg.Apply(outcome); err != nil {
		t.Fatalf("apply again: %v", err)
	}

	view := agg.Snapshot()
	if len(view.ActionItems) != 1 {
		t.Fatalf("expected upsert, got %d items", len(view.ActionItems))
	}
	if view.ActionItems[0].Description != "prepare release notes" {
		t.Fatalf("expected updated description, got %s", view.ActionItems[0].Description)
	}
	if len(view.Insights) != 2 {
		t.Fatalf("expected insights to append, got %d", len(view.Insights))
	}
	if view.Summary != "release planning" || view.Sentiment != "positive" || view.Urgency != "high" {
		t.Fatalf("rolling fields not applied: %+v", view)
	}
}

func TestApplyDegradedIsNoOp(t *testing.T) {
	agg := newTestAggregate()
	if err := agg.Apply(AnalysisOutcome{EntryID: "entry_x", Degraded: true, FailureKind: "timeout"}); err != nil {
		t.Fatalf("apply degraded: %v", err)
	}
	view := agg.Snapshot()
	if len(view.Insights) != 0 || len(view.ActionItems) != 0 || view.Summary != "" {
		t.Fatalf("degraded outcome must not mutate state: %+v", view)
	}
}

func TestApplyRejectedAfterEnd(t *testing.T) {
	agg := newTestAggregate()
	_ = agg.End(time.Now())
	err := agg.Apply(AnalysisOutcome{EntryID: "entry_1", Insights: []Insight{{InsightID: "i1", Content: "late"}}})
	if !errors.Is(err, ErrMeetingEnded) {
		t.Fatalf("expected ErrMeetingEnded for late outcome, got %v", err)
	}
}

func TestConfirmActionItemStateMachine(t *testing.T) {
	agg := newTestAggregate()
	item := ActionItem{ItemID: "ai_1", MeetingID: "mtg_1", Description: "write doc", Priority: PriorityMedium, Status: ActionItemPending}
	if err := agg.Apply(AnalysisOutcome{EntryID: "entry_1", ActionItems: []ActionItem{item}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	assignee := "ben"
	due := "2026-09-05"
	priority := PriorityHigh
	confirmed, err := agg.ConfirmActionItem("ai_1", true, Modifications{Assignee: &assignee, DueDate: &due, Priority: &priority})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != ActionItemConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
	if confirmed.Assignee != "ben" || confirmed.DueDate != "2026-09-05" || confirmed.Priority != PriorityHigh {
		t.Fatalf("modifications not applied: %+v", confirmed)
	}

	// confirmed -> rejected is not a legal transition.
	if _, err := agg.ConfirmActionItem("ai_1", false, Modifications{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	done, err := agg.ConfirmActionItem("ai_1", true, Modifications{})
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if done.Status != ActionItemDone {
		t.Fatalf("expected done, got %s", done.Status)
	}

	// done is terminal.
	if _, err := agg.ConfirmActionItem("ai_1", true, Modifications{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected terminal state error, got %v", err)
	}
}

func TestRejectIgnoresModifications(t *testing.T) {
	agg := newTestAggregate()
	item := ActionItem{ItemID: "ai_2", MeetingID: "mtg_1", Description: "cleanup", Priority: PriorityLow, Status: ActionItemPending}
	_ = agg.Apply(AnalysisOutcome{EntryID: "entry_1", ActionItems: []ActionItem{item}})

	assignee := "mallory"
	rejected, err := agg.ConfirmActionItem("ai_2", false, Modifications{Assignee: &assignee})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != ActionItemRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.Assignee != "" {
		t.Fatalf("rejection must ignore modifications, got assignee %q", rejected.Assignee)
	}

	if _, err := agg.ConfirmActionItem("ai_2", true, Modifications{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("rejected is terminal, got %v", err)
	}
}

func TestConfirmUnknownItem(t *testing.T) {
	agg := newTestAggregate()
	if _, err := agg.ConfirmActionItem("ai_missing", true, Modifications{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	agg := newTestAggregate()
	_, _ = agg.Append("anna", "one two three", time.Now())

	before := agg.Snapshot()
	_, _ = agg.Append("ben", "four", time.Now())

	if len(before.Transcript) != 1 {
		t.Fatalf("earlier snapshot mutated by later append")
	}
	after := agg.Snapshot()
	if len(after.Transcript) != 2 {
		t.Fatalf("expected 2 entries in new snapshot, got %d", len(after.Transcript))
	}
}

func TestParticipationRates(t *testing.T) {
	agg := newTestAggregate()
	_, _ = agg.Append("anna", "one two three", time.Now())
	_, _ = agg.Append("ben", "four", time.Now())

	view := agg.Snapshot()
	if len(view.Speakers) != 2 {
		t.Fatalf("expected 2 speakers, got %d", len(view.Speakers))
	}
	anna := view.Speakers[0]
	if anna.Name != "anna" || anna.Utterances != 1 || anna.WordCount != 3 {
		t.Fatalf("unexpected tally for anna: %+v", anna)
	}
	if anna.ParticipationRate != 0.75 {
		t.Fatalf("expected participation rate 0.75, got %f", anna.ParticipationRate)
	}
}

func TestRestoreRebuildsState(t *testing.T) {
	agg := newTestAggregate()
	entry, _ := agg.Append("anna", "hello world", time.Now())
	item := ActionItem{ItemID: "ai_1", MeetingID: agg.ID(), Description: "task", Priority: PriorityMedium, Status: ActionItemPending}
	_ = agg.Apply(AnalysisOutcome{EntryID: entry.EntryID, ActionItems: []ActionItem{item}})
	view := agg.Snapshot()

	restored := Restore(Record{
		MeetingID:    view.MeetingID,
		Title:        view.Title,
		Participants: view.Participants,
		Status:       view.Status,
		CreatedAt:    view.CreatedAt,
	}, view.Transcript, view.Insights, view.ActionItems)

	next, err := restored.Append("ben", "next", time.Now())
	if err != nil {
		t.Fatalf("append after restore: %v", err)
	}
	if next.Sequence != entry.Sequence+1 {
		t.Fatalf("sequence not restored: got %d want %d", next.Sequence, entry.Sequence+1)
	}
	if _, err := restored.ConfirmActionItem("ai_1", true, Modifications{}); err != nil {
		t.Fatalf("item index not restored: %v", err)
	}
}

func TestParsePriorityDefaults(t *testing.T) {
	cases := map[string]Priority{
		"HIGH":    PriorityHigh,
		" low ":   PriorityLow,
		"medium":  PriorityMedium,
		"urgent":  PriorityMedium,
		"":        PriorityMedium,
		"Extreme": PriorityMedium,
	}
	for raw, want := range cases {
		if got := ParsePriority(raw); got != want {
			t.Fatalf("ParsePriority(%q) = %s, want %s", raw, got, want)
		}
	}
}
