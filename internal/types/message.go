package types

import (
	"encoding/json"
	"time"
)

type MessageType string

// Client to server.
const (
	MessageTypeTextInput         MessageType = "text_input"
	MessageTypeStartRecording    MessageType = "start_recording"
	MessageTypeStopRecording     MessageType = "stop_recording"
	MessageTypeUserTyping        MessageType = "user_typing"
	MessageTypePing              MessageType = "ping"
	MessageTypeConfirmActionItem MessageType = "confirm_action_item"
)

// Server to client.
const (
	MessageTypeConnectionEstablished MessageType = "connection_established"
	MessageTypeTextReceived          MessageType = "text_received"
	MessageTypeAnalysisResult        MessageType = "analysis_result"
	MessageTypeRealTimeInsight       MessageType = "real_time_insight"
	MessageTypeActionItemDetected    MessageType = "action_item_detected"
	MessageTypeActionItemConfirmed   MessageType = "action_item_confirmed"
	MessageTypeParticipantJoined     MessageType = "participant_joined"
	MessageTypeParticipantLeft       MessageType = "participant_left"
	MessageTypeRecordingStarted      MessageType = "recording_started"
	MessageTypeRecordingStopped      MessageType = "recording_stopped"
	MessageTypePong                  MessageType = "pong"
	MessageTypeError                 MessageType = "error"
)

// ClientMessage is one inbound frame on a meeting connection.
type ClientMessage struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (m ClientMessage) DecodeData(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// ServerMessage is one outbound event. The registry serializes it exactly
// once per broadcast; subscribers receive the same envelope.
type ServerMessage struct {
	Type       MessageType `json:"type"`
	MeetingID  string      `json:"meeting_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       any         `json:"data,omitempty"`
}
