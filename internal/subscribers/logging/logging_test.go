package logging

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"roundtable.local/projects/insight-gateway/internal/types"
)

func TestSubscriberHandle(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	s := New(logger)

	msg := types.ServerMessage{Type: types.MessageTypeTextReceived, MeetingID: "mtg_1"}
	if err := s.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name() != "logging" {
		t.Fatalf("unexpected name: %s", s.Name())
	}
	if !strings.Contains(buf.String(), "mtg_1") {
		t.Fatalf("expected log output to contain meeting id, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "text_received") {
		t.Fatalf("expected log output to contain message type, got %q", buf.String())
	}
}
