package meeting

import (
	"log"
	"sync"
	"time"
)

// Manager owns the set of live aggregates, keyed by meeting id. It is
// constructed once at process start and injected into the ingestion path.
type Manager struct {
	logger *log.Logger

	mu       sync.Mutex
	meetings map[string]*Aggregate
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		logger:   logger,
		meetings: make(map[string]*Aggregate),
	}
}

// Create registers a new active meeting. An empty meetingID gets a
// generated one.
func (m *Manager) Create(meetingID, title string, participants []string, durationEstimate int) *Aggregate {
	agg := New(meetingID, title, participants, durationEstimate, time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetings[agg.ID()] = agg
	m.logger.Printf("meeting created meeting_id=%s title=%q participants=%d", agg.ID(), title, len(participants))
	return agg
}

func (m *Manager) Get(meetingID string) (*Aggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.meetings[meetingID]
	if !ok {
		return nil, ErrNotFound
	}
	return agg, nil
}

// Adopt registers a restored aggregate, replacing any live one with the
// same id.
func (m *Manager) Adopt(agg *Aggregate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetings[agg.ID()] = agg
}

// All returns the live aggregates in no particular order.
func (m *Manager) All() []*Aggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Aggregate, 0, len(m.meetings))
	for _, agg := range m.meetings {
		out = append(out, agg)
	}
	return out
}

// ActiveCount reports how many meetings are still active.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, agg := range m.meetings {
		if agg.Status() == StatusActive {
			count++
		}
	}
	return count
}
