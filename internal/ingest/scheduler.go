package ingest

import (
	"context"
	"errors"
	"log"
	"sync"
)

var ErrMeetingQueueFull = errors.New("meeting queue full")

// Scheduler runs one worker goroutine per meeting so utterances from the
// same meeting are processed strictly in arrival order, while different
// meetings never block each other.
type Scheduler struct {
	logger    *log.Logger
	queueSize int

	mu      sync.Mutex
	workers map[string]*worker
}

type worker struct {
	ch chan func(context.Context)
}

func NewScheduler(logger *log.Logger, queueSize int) *Scheduler {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Scheduler{
		logger:    logger,
		queueSize: queueSize,
		workers:   make(map[string]*worker),
	}
}

// Enqueue schedules a job on the meeting's worker without blocking. A full
// queue rejects with ErrMeetingQueueFull so the caller can push back. The
// send happens under the scheduler mutex so a concurrent Release can never
// close the channel between worker lookup and send; the select never blocks,
// so the mutex is held only briefly.
func (s *Scheduler) Enqueue(meetingID string, job func(context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.workerForLocked(meetingID)
	select {
	case w.ch <- job:
		return nil
	default:
		s.logger.Printf("meeting queue full meeting_id=%s", meetingID)
		return ErrMeetingQueueFull
	}
}

func (s *Scheduler) workerForLocked(meetingID string) *worker {
	if w, ok := s.workers[meetingID]; ok {
		return w
	}

	w := &worker{ch: make(chan func(context.Context), s.queueSize)}
	s.workers[meetingID] = w

	go func() {
		for job := range w.ch {
			job(context.Background())
		}
	}()

	return w
}

// Release removes the meeting's worker and closes its channel under the
// same mutex Enqueue sends under, so no send can race the close. Jobs
// already queued still run; new Enqueue calls start a fresh worker.
func (s *Scheduler) Release(meetingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[meetingID]
	if !ok {
		return
	}
	delete(s.workers, meetingID)
	close(w.ch)
}
