package meeting

import (
	"strings"
	"sync"
	"time"

	"roundtable.local/projects/insight-gateway/internal/ids"
)

// Aggregate is the authoritative per-meeting state. All operations lock the
// aggregate's own mutex; no state is shared across meetings.
type Aggregate struct {
	mu sync.Mutex

	record     Record
	transcript []TranscriptEntry
	insights   []Insight
	items      []ActionItem
	itemIndex  map[string]int

	speakers     map[string]*speakerTally
	speakerOrder []string

	summary         string
	sentiment       string
	urgency         string
	followUpNeeded  bool
	efficiencyScore *float64

	seq int64
}

type speakerTally struct {
	utterances int64
	wordCount  int64
}

func New(meetingID, title string, participants []string, durationEstimate int, now time.Time) *Aggregate {
	if strings.TrimSpace(meetingID) == "" {
		meetingID = "mtg_" + ids.New()[:12]
	}
	if strings.TrimSpace(title) == "" {
		title = "Untitled Meeting"
	}
	return &Aggregate{
		record: Record{
			MeetingID:               meetingID,
			Title:                   title,
			Participants:            append([]string(nil), participants...),
			Status:                  StatusActive,
			DurationEstimateMinutes: durationEstimate,
			CreatedAt:               now.UTC(),
		},
		itemIndex: make(map[string]int),
		speakers:  make(map[string]*speakerTally),
	}
}

// Restore rebuilds an aggregate from persisted records. Entries must be in
// sequence order.
func Restore(rec Record, entries []TranscriptEntry, insights []Insight, items []ActionItem) *Aggregate {
	a := &Aggregate{
		record:    rec,
		itemIndex: make(map[string]int),
		speakers:  make(map[string]*speakerTally),
	}
	a.record.Participants = append([]string(nil), rec.Participants...)
	for _, entry := range entries {
		a.transcript = append(a.transcript, entry)
		a.tallySpeaker(entry.Speaker, entry.Text)
		if entry.Sequence > a.seq {
			a.seq = entry.Sequence
		}
	}
	a.insights = append(a.insights, insights...)
	for _, item := range items {
		a.items = append(a.items, item)
		a.itemIndex[item.ItemID] = len(a.items) - 1
	}
	return a
}

func (a *Aggregate) ID() string {
	return a.record.MeetingID
}

func (a *Aggregate) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record.Status
}

// Append adds one utterance to the transcript and updates the speaker's
// participation tally. The text must already be trimmed and non-empty.
func (a *Aggregate) Append(speaker, text string, at time.Time) (TranscriptEntry, error) {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		speaker = SpeakerUnknown
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.record.Status != StatusActive {
		return TranscriptEntry{}, ErrMeetingEnded
	}

	a.seq++
	entry := TranscriptEntry{
		EntryID:   "entry_" + ids.Short(),
		MeetingID: a.record.MeetingID,
		Speaker:   speaker,
		Text:      text,
		Sequence:  a.seq,
		SpokenAt:  at.UTC(),
	}
	a.transcript = append(a.transcript, entry)
	a.tallySpeaker(speaker, text)
	return entry, nil
}

// RecentEntries returns up to n of the newest transcript entries, oldest
// first. Used to bound the analysis context window.
func (a *Aggregate) RecentEntries(n int) []TranscriptEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n <= 0 || len(a.transcript) == 0 {
		return nil
	}
	start := len(a.transcript) - n
	if start < 0 {
		start = 0
	}
	out := make([]TranscriptEntry, len(a.transcript)-start)
	copy(out, a.transcript[start:])
	return out
}

// Apply merges an analysis outcome: insights and items append, the rolling
// summary/sentiment/urgency fields are overwritten by the latest successful
// analysis. Degraded outcomes carry nothing and are a no-op.
func (a *Aggregate) Apply(outcome AnalysisOutcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.record.Status != StatusActive {
		return ErrMeetingEnded
	}
	if outcome.Degraded {
		return nil
	}

	a.insights = append(a.insights, outcome.Insights...)
	for _, item := range outcome.ActionItems {
		if idx, ok := a.itemIndex[item.ItemID]; ok {
			a.items[idx] = item
			continue
		}
		a.items = append(a.items, item)
		a.itemIndex[item.ItemID] = len(a.items) - 1
	}

	if strings.TrimSpace(outcome.Summary) != "" {
		a.summary = outcome.Summary
	}
	if strings.TrimSpace(outcome.Sentiment) != "" {
		a.sentiment = outcome.Sentiment
	}
	if strings.TrimSpace(outcome.Urgency) != "" {
		a.urgency = outcome.Urgency
	}
	a.followUpNeeded = outcome.FollowUpNeeded
	return nil
}

// ConfirmActionItem drives the item state machine:
// pending -> confirmed (modifications applied) or rejected (modifications
// ignored); confirmed -> done on a second confirmation. Terminal states
// reject with ErrInvalidTransition.
func (a *Aggregate) ConfirmActionItem(itemID string, confirmed bool, mods Modifications) (ActionItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.record.Status != StatusActive {
		return ActionItem{}, ErrMeetingEnded
	}

	idx, ok := a.itemIndex[itemID]
	if !ok {
		return ActionItem{}, ErrNotFound
	}
	item := a.items[idx]

	switch item.Status {
	case ActionItemPending:
		if confirmed {
			item.Status = ActionItemConfirmed
			if mods.Assignee != nil {
				item.Assignee = strings.TrimSpace(*mods.Assignee)
			}
			if mods.DueDate != nil {
				item.DueDate = strings.TrimSpace(*mods.DueDate)
			}
			if mods.Priority != nil {
				item.Priority = ParsePriority(string(*mods.Priority))
			}
		} else {
			item.Status = ActionItemRejected
		}
	case ActionItemConfirmed:
		if !confirmed {
			return ActionItem{}, ErrInvalidTransition
		}
		item.Status = ActionItemDone
	default:
		return ActionItem{}, ErrInvalidTransition
	}

	item.UpdatedAt = time.Now().UTC()
	a.items[idx] = item
	return item, nil
}

// End transitions the meeting to its terminal state. A second End fails
// with ErrMeetingEnded.
func (a *Aggregate) End(now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.record.Status != StatusActive {
		return ErrMeetingEnded
	}
	a.record.Status = StatusEnded
	ended := now.UTC()
	a.record.EndedAt = &ended
	return nil
}

// SetEfficiencyScore records the score computed from this meeting's own
// transcript and insights.
func (a *Aggregate) SetEfficiencyScore(score float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.efficiencyScore = &score
}

func (a *Aggregate) Snapshot() View {
	a.mu.Lock()
	defer a.mu.Unlock()

	view := View{
		MeetingID:               a.record.MeetingID,
		Title:                   a.record.Title,
		Participants:            append([]string(nil), a.record.Participants...),
		Status:                  a.record.Status,
		DurationEstimateMinutes: a.record.DurationEstimateMinutes,
		CreatedAt:               a.record.CreatedAt,
		Transcript:              append([]TranscriptEntry(nil), a.transcript...),
		Insights:                append([]Insight(nil), a.insights...),
		ActionItems:             append([]ActionItem(nil), a.items...),
		Summary:                 a.summary,
		Sentiment:               a.sentiment,
		Urgency:                 a.urgency,
		FollowUpNeeded:          a.followUpNeeded,
	}
	if a.record.EndedAt != nil {
		ended := *a.record.EndedAt
		view.EndedAt = &ended
	}
	if a.efficiencyScore != nil {
		score := *a.efficiencyScore
		view.EfficiencyScore = &score
	}

	var totalWords int64
	for _, name := range a.speakerOrder {
		totalWords += a.speakers[name].wordCount
	}
	view.Speakers = make([]ParticipantStats, 0, len(a.speakerOrder))
	for _, name := range a.speakerOrder {
		tally := a.speakers[name]
		stats := ParticipantStats{
			Name:       name,
			Utterances: tally.utterances,
			WordCount:  tally.wordCount,
		}
		if totalWords > 0 {
			stats.ParticipationRate = float64(tally.wordCount) / float64(totalWords)
		}
		view.Speakers = append(view.Speakers, stats)
	}
	return view
}

// Header returns the current persisted-record view of the meeting.
func (a *Aggregate) Header() Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.record
	rec.Participants = append([]string(nil), a.record.Participants...)
	if a.record.EndedAt != nil {
		ended := *a.record.EndedAt
		rec.EndedAt = &ended
	}
	return rec
}

func (a *Aggregate) tallySpeaker(speaker, text string) {
	tally, ok := a.speakers[speaker]
	if !ok {
		tally = &speakerTally{}
		a.speakers[speaker] = tally
		a.speakerOrder = append(a.speakerOrder, speaker)
	}
	tally.utterances++
	tally.wordCount += int64(len(strings.Fields(text)))
}
