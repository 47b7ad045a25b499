package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roundtable.local/projects/insight-gateway/internal/ingest"
	"roundtable.local/projects/insight-gateway/internal/meeting"
	"roundtable.local/projects/insight-gateway/internal/types"
)

const (
	maxWSMessageBytes = 64 << 10
	wsWriteTimeout    = 5 * time.Second
)

// wsConn adapts a gorilla websocket connection to the registry. Writes are
// serialized through the mutex because gorilla allows only one concurrent
// writer.
type wsConn struct {
	id   string
	conn *websocket.Conn

	mu sync.Mutex
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.NewString(), conn: conn}
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (s *server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")

	upgrader := websocket.Upgrader{CheckOrigin: isWebSocketOriginAllowed}
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("ws upgrade failed meeting_id=%s err=%v", meetingID, err)
		return
	}
	raw.SetReadLimit(maxWSMessageBytes)

	conn := newWSConn(raw)
	if err := s.ingest.Connect(r.Context(), meetingID, conn); err != nil {
		s.logger.Printf("ws connect failed meeting_id=%s err=%v", meetingID, err)
		_ = raw.Close()
		return
	}
	defer s.ingest.Disconnect(meetingID, conn)

	for {
		var msg types.ClientMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("ws read failed meeting_id=%s conn_id=%s err=%v", meetingID, conn.id, err)
			}
			return
		}
		s.handleClientMessage(r, meetingID, conn, msg)
	}
}

func (s *server) handleClientMessage(r *http.Request, meetingID string, conn *wsConn, msg types.ClientMessage) {
	switch msg.Type {
	case types.MessageTypeTextInput:
		var payload types.TextInputPayload
		if err := msg.DecodeData(&payload); err != nil {
			s.sendWSError(meetingID, conn, "invalid_payload", err.Error())
			return
		}
		if err := s.ingest.HandleTextInput(r.Context(), meetingID, payload); err != nil {
			s.sendWSError(meetingID, conn, wsErrorCode(err), err.Error())
		}

	case types.MessageTypeConfirmActionItem:
		var payload types.ConfirmActionItemPayload
		if err := msg.DecodeData(&payload); err != nil {
			s.sendWSError(meetingID, conn, "invalid_payload", err.Error())
			return
		}
		if _, err := s.ingest.ConfirmActionItem(r.Context(), meetingID, payload); err != nil {
			s.sendWSError(meetingID, conn, wsErrorCode(err), err.Error())
		}

	case types.MessageTypeStartRecording:
		s.ingest.StartRecording(meetingID)

	case types.MessageTypeStopRecording:
		s.ingest.StopRecording(meetingID)

	case types.MessageTypeUserTyping:
		var payload types.UserTypingPayload
		if err := msg.DecodeData(&payload); err != nil {
			s.sendWSError(meetingID, conn, "invalid_payload", err.Error())
			return
		}
		s.ingest.RelayTyping(meetingID, conn.id, payload)

	case types.MessageTypePing:
		var payload types.PingPayload
		_ = msg.DecodeData(&payload)
		s.sendWS(meetingID, conn, types.MessageTypePong, types.PongPayload{Timestamp: payload.Timestamp})

	default:
		s.sendWSError(meetingID, conn, "unknown_message_type", fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (s *server) sendWS(meetingID string, conn *wsConn, msgType types.MessageType, data any) {
	_ = s.ingest.SendPersonal(conn, types.ServerMessage{
		Type:       msgType,
		MeetingID:  meetingID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
}

func (s *server) sendWSError(meetingID string, conn *wsConn, code, message string) {
	s.sendWS(meetingID, conn, types.MessageTypeError, types.ErrorPayload{Code: code, Message: message})
}

func wsErrorCode(err error) string {
	switch {
	case errors.Is(err, ingest.ErrEmptyText):
		return "empty_text"
	case errors.Is(err, ingest.ErrTextTooLong):
		return "text_too_long"
	case errors.Is(err, ingest.ErrMeetingQueueFull):
		return "queue_full"
	case errors.Is(err, meeting.ErrMeetingEnded):
		return "meeting_ended"
	case errors.Is(err, meeting.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, meeting.ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}
