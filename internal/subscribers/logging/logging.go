package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"roundtable.local/projects/insight-gateway/internal/types"
)

type Subscriber struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Subscriber {
	return &Subscriber{logger: logger}
}

func (s *Subscriber) Name() string {
	return "logging"
}

func (s *Subscriber) Handle(_ context.Context, msg types.ServerMessage) error {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	s.logger.Printf("subscriber=logging type=%s meeting_id=%s message=%s", msg.Type, msg.MeetingID, encoded)
	return nil
}
