package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roundtable.local/projects/insight-gateway/internal/meeting"
)

var ErrNotFound = errors.New("not found")

// Store is the narrow repository capability the core depends on. It never
// exposes a specific storage engine.
type Store interface {
	SaveMeeting(context.Context, meeting.Record) error
	SaveEntry(context.Context, meeting.TranscriptEntry) error
	SaveInsight(context.Context, meeting.Insight) error
	SaveActionItem(context.Context, meeting.ActionItem) error
	LoadMeeting(context.Context, string) (LoadedMeeting, error)
	Close() error
}

// LoadedMeeting carries everything needed to reconstruct an aggregate.
// Entries are in sequence order.
type LoadedMeeting struct {
	Record      meeting.Record
	Entries     []meeting.TranscriptEntry
	Insights    []meeting.Insight
	ActionItems []meeting.ActionItem
}

func validateMeetingID(meetingID string) error {
	if strings.TrimSpace(meetingID) == "" {
		return fmt.Errorf("meeting_id is required")
	}
	return nil
}
