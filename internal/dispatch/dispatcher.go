package dispatch

import (
	"context"
	"log"
	"time"

	"roundtable.local/projects/insight-gateway/internal/subscribers"
	"roundtable.local/projects/insight-gateway/internal/types"
)

// Dispatcher fans outbound meeting events out to subscribers, one goroutine
// per subscriber, with bounded retry.
type Dispatcher struct {
	logger       *log.Logger
	subscribers  []subscribers.Subscriber
	retryCount   int
	retryBackoff time.Duration
}

func New(logger *log.Logger, subs []subscribers.Subscriber) *Dispatcher {
	return &Dispatcher{
		logger:       logger,
		subscribers:  subs,
		retryCount:   3,
		retryBackoff: 150 * time.Millisecond,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg types.ServerMessage) {
	for _, sub := range d.subscribers {
		s := sub
		go d.dispatchOne(ctx, s, msg)
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, sub subscribers.Subscriber, msg types.ServerMessage) {
	for attempt := 1; attempt <= d.retryCount; attempt++ {
		err := sub.Handle(ctx, msg)
		if err == nil {
			return
		}

		d.logger.Printf("subscriber=%s type=%s meeting_id=%s attempt=%d err=%v", sub.Name(), msg.Type, msg.MeetingID, attempt, err)
		if attempt == d.retryCount {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.retryBackoff):
		}
	}
}
