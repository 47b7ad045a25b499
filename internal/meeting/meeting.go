package meeting

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrMeetingEnded      = errors.New("meeting already ended")
	ErrInvalidTransition = errors.New("invalid action item transition")
)

// SpeakerUnknown is recorded when an utterance arrives without attribution.
const SpeakerUnknown = "unknown"

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes a free-form priority string, defaulting to medium.
func ParsePriority(raw string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

type ActionItemStatus string

const (
	ActionItemPending   ActionItemStatus = "pending"
	ActionItemConfirmed ActionItemStatus = "confirmed"
	ActionItemRejected  ActionItemStatus = "rejected"
	ActionItemDone      ActionItemStatus = "done"
)

type InsightType string

const (
	InsightKeyPoint   InsightType = "key_point"
	InsightDecision   InsightType = "decision"
	InsightActionItem InsightType = "action_item"
	InsightQuestion   InsightType = "question"
	InsightConcern    InsightType = "concern"
)

// Record is the persisted meeting header.
type Record struct {
	MeetingID               string     `json:"meeting_id"`
	Title                   string     `json:"title"`
	Participants            []string   `json:"participants"`
	Status                  Status     `json:"status"`
	DurationEstimateMinutes int        `json:"duration_estimate_minutes,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	EndedAt                 *time.Time `json:"ended_at,omitempty"`
}

// TranscriptEntry is immutable once appended. Sequence is monotonic within
// a meeting; ties on wall-clock time are broken by arrival order.
type TranscriptEntry struct {
	EntryID   string    `json:"entry_id"`
	MeetingID string    `json:"meeting_id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Sequence  int64     `json:"sequence"`
	SpokenAt  time.Time `json:"spoken_at"`
}

type Insight struct {
	InsightID     string      `json:"insight_id"`
	MeetingID     string      `json:"meeting_id"`
	Type          InsightType `json:"type"`
	Content       string      `json:"content"`
	Confidence    float64     `json:"confidence"`
	Speaker       string      `json:"speaker,omitempty"`
	SourceEntryID string      `json:"source_entry_id,omitempty"`
	LowConfidence bool        `json:"low_confidence,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

type ActionItem struct {
	ItemID        string           `json:"item_id"`
	MeetingID     string           `json:"meeting_id"`
	Description   string           `json:"description"`
	Assignee      string           `json:"assignee,omitempty"`
	DueDate       string           `json:"due_date,omitempty"`
	Priority      Priority         `json:"priority"`
	Status        ActionItemStatus `json:"status"`
	Confidence    float64          `json:"confidence"`
	SourceEntryID string           `json:"source_entry_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type ParticipantStats struct {
	Name              string  `json:"name"`
	Utterances        int64   `json:"utterances"`
	WordCount         int64   `json:"word_count"`
	ParticipationRate float64 `json:"participation_rate"`
}

// AnalysisOutcome is what the orchestrator hands back for one transcript
// entry. A degraded outcome carries no insights or items, only the failure
// kind for user-visible notification.
type AnalysisOutcome struct {
	EntryID        string       `json:"entry_id"`
	Insights       []Insight    `json:"insights"`
	ActionItems    []ActionItem `json:"action_items"`
	Summary        string       `json:"summary,omitempty"`
	Sentiment      string       `json:"sentiment,omitempty"`
	Urgency        string       `json:"urgency,omitempty"`
	FollowUpNeeded bool         `json:"follow_up_needed,omitempty"`
	Degraded       bool         `json:"degraded,omitempty"`
	FailureKind    string       `json:"failure_kind,omitempty"`
}

// Modifications are applied to an action item on confirmation only.
type Modifications struct {
	Assignee *string
	DueDate  *string
	Priority *Priority
}

// View is a point-in-time deep copy of a meeting's state, safe to hand to
// clients or the persistence layer. Later aggregate mutation never changes
// a previously returned View.
type View struct {
	MeetingID               string             `json:"meeting_id"`
	Title                   string             `json:"title"`
	Participants            []string           `json:"participants"`
	Status                  Status             `json:"status"`
	DurationEstimateMinutes int                `json:"duration_estimate_minutes,omitempty"`
	CreatedAt               time.Time          `json:"created_at"`
	EndedAt                 *time.Time         `json:"ended_at,omitempty"`
	Transcript              []TranscriptEntry  `json:"transcript"`
	Insights                []Insight          `json:"insights"`
	ActionItems             []ActionItem       `json:"action_items"`
	Speakers                []ParticipantStats `json:"speakers"`
	Summary                 string             `json:"summary,omitempty"`
	Sentiment               string             `json:"sentiment,omitempty"`
	Urgency                 string             `json:"urgency,omitempty"`
	FollowUpNeeded          bool               `json:"follow_up_needed,omitempty"`
	EfficiencyScore         *float64           `json:"efficiency_score,omitempty"`
}
