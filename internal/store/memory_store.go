package store

import (
	"context"
	"fmt"
	"sync"

	"roundtable.local/projects/insight-gateway/internal/meeting"
)

// MemoryStore keeps everything in process memory. Used for tests and for
// running without a database.
type MemoryStore struct {
	mu        sync.Mutex
	meetings  map[string]meeting.Record
	entries   map[string][]meeting.TranscriptEntry
	insights  map[string][]meeting.Insight
	items     map[string][]meeting.ActionItem
	itemIndex map[string]itemLocation
	closed    bool
}

type itemLocation struct {
	meetingID string
	idx       int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meetings:  make(map[string]meeting.Record),
		entries:   make(map[string][]meeting.TranscriptEntry),
		insights:  make(map[string][]meeting.Insight),
		items:     make(map[string][]meeting.ActionItem),
		itemIndex: make(map[string]itemLocation),
	}
}

func (s *MemoryStore) SaveMeeting(_ context.Context, rec meeting.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memory store is closed")
	}
	rec.Participants = append([]string(nil), rec.Participants...)
	s.meetings[rec.MeetingID] = rec
	return nil
}

func (s *MemoryStore) SaveEntry(_ context.Context, entry meeting.TranscriptEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memory store is closed")
	}
	if _, ok := s.meetings[entry.MeetingID]; !ok {
		return ErrNotFound
	}
	s.entries[entry.MeetingID] = append(s.entries[entry.MeetingID], entry)
	return nil
}

func (s *MemoryStore) SaveInsight(_ context.Context, insight meeting.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memory store is closed")
	}
	if _, ok := s.meetings[insight.MeetingID]; !ok {
		return ErrNotFound
	}
	s.insights[insight.MeetingID] = append(s.insights[insight.MeetingID], insight)
	return nil
}

func (s *MemoryStore) SaveActionItem(_ context.Context, item meeting.ActionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memory store is closed")
	}
	if _, ok := s.meetings[item.MeetingID]; !ok {
		return ErrNotFound
	}
	if loc, ok := s.itemIndex[item.ItemID]; ok {
		s.items[loc.meetingID][loc.idx] = item
		return nil
	}
	s.items[item.MeetingID] = append(s.items[item.MeetingID], item)
	s.itemIndex[item.ItemID] = itemLocation{meetingID: item.MeetingID, idx: len(s.items[item.MeetingID]) - 1}
	return nil
}

func (s *MemoryStore) LoadMeeting(_ context.Context, meetingID string) (LoadedMeeting, error) {
	if err := validateMeetingID(meetingID); err != nil {
		return LoadedMeeting{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return LoadedMeeting{}, fmt.Errorf("memory store is closed")
	}

	rec, ok := s.meetings[meetingID]
	if !ok {
		return LoadedMeeting{}, ErrNotFound
	}

	loaded := LoadedMeeting{Record: rec}
	loaded.Record.Participants = append([]string(nil), rec.Participants...)
	loaded.Entries = append([]meeting.TranscriptEntry(nil), s.entries[meetingID]...)
	loaded.Insights = append([]meeting.Insight(nil), s.insights[meetingID]...)
	loaded.ActionItems = append([]meeting.ActionItem(nil), s.items[meetingID]...)
	return loaded, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
