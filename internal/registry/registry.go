package registry

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"roundtable.local/projects/insight-gateway/internal/types"
)

// Conn is a live client connection. Send must bound its own write attempt;
// a send error is terminal for the connection, never for the meeting.
type Conn interface {
	ID() string
	Send(data []byte) error
	Ping() error
	Close() error
}

type DeliveryReport struct {
	Delivered int
	Dropped   int
}

// Registry multiplexes client connections per meeting. A connection is
// never held under two meetings at once.
type Registry struct {
	logger *log.Logger

	mu            sync.Mutex
	conns         map[string]map[string]Conn
	meetingByConn map[string]string
}

func New(logger *log.Logger) *Registry {
	return &Registry{
		logger:        logger,
		conns:         make(map[string]map[string]Conn),
		meetingByConn: make(map[string]string),
	}
}

// Join registers a connection under a meeting, creating the meeting's
// connection set lazily. Joining the same connection twice is a no-op;
// joining it under a different meeting moves it there.
func (r *Registry) Join(meetingID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.meetingByConn[conn.ID()]; ok {
		if current == meetingID {
			return
		}
		r.removeLocked(conn.ID())
	}

	set, ok := r.conns[meetingID]
	if !ok {
		set = make(map[string]Conn)
		r.conns[meetingID] = set
	}
	set[conn.ID()] = conn
	r.meetingByConn[conn.ID()] = meetingID
	r.logger.Printf("connection joined meeting_id=%s conn_id=%s total=%d", meetingID, conn.ID(), len(set))
}

// Leave removes the connection from whichever meeting it belongs to.
// Unknown connections are a no-op; Leave never errors.
func (r *Registry) Leave(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(conn.ID())
}

func (r *Registry) removeLocked(connID string) {
	meetingID, ok := r.meetingByConn[connID]
	if !ok {
		return
	}
	delete(r.meetingByConn, connID)
	set := r.conns[meetingID]
	delete(set, connID)
	if len(set) == 0 {
		delete(r.conns, meetingID)
		r.logger.Printf("meeting room cleaned up meeting_id=%s", meetingID)
	}
}

// Broadcast serializes the message once and delivers it to every live
// connection of the meeting. Delivery is independent per connection: a
// failed write drops that connection and delivery continues.
func (r *Registry) Broadcast(meetingID string, msg types.ServerMessage) DeliveryReport {
	return r.broadcast(meetingID, "", msg)
}

// BroadcastExcept behaves like Broadcast but skips one connection,
// typically the sender.
func (r *Registry) BroadcastExcept(meetingID, exceptConnID string, msg types.ServerMessage) DeliveryReport {
	return r.broadcast(meetingID, exceptConnID, msg)
}

func (r *Registry) broadcast(meetingID, exceptConnID string, msg types.ServerMessage) DeliveryReport {
	payload, err := json.Marshal(msg)
	if err != nil {
		r.logger.Printf("broadcast marshal failed meeting_id=%s type=%s err=%v", meetingID, msg.Type, err)
		return DeliveryReport{}
	}

	r.mu.Lock()
	targets := make([]Conn, 0, len(r.conns[meetingID]))
	for connID, conn := range r.conns[meetingID] {
		if connID == exceptConnID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.Unlock()

	var report DeliveryReport
	for _, conn := range targets {
		if err := conn.Send(payload); err != nil {
			r.logger.Printf("broadcast send failed meeting_id=%s conn_id=%s err=%v", meetingID, conn.ID(), err)
			r.Leave(conn)
			_ = conn.Close()
			report.Dropped++
			continue
		}
		report.Delivered++
	}
	return report
}

// Send delivers a message to a single connection. A failed write removes
// the connection from the registry.
func (r *Registry) Send(conn Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := conn.Send(payload); err != nil {
		r.logger.Printf("personal send failed conn_id=%s err=%v", conn.ID(), err)
		r.Leave(conn)
		_ = conn.Close()
		return err
	}
	return nil
}

// Size reports the number of live connections for a meeting.
func (r *Registry) Size(meetingID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[meetingID])
}

// TotalConnections reports live connections across all meetings.
func (r *Registry) TotalConnections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.meetingByConn)
}

// StartSweeper pings every connection on the given interval and prunes the
// ones whose transport is dead, bounding memory growth from abandoned
// clients. Returns when ctx is done.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	r.mu.Lock()
	all := make([]Conn, 0, len(r.meetingByConn))
	for _, set := range r.conns {
		for _, conn := range set {
			all = append(all, conn)
		}
	}
	r.mu.Unlock()

	for _, conn := range all {
		if err := conn.Ping(); err != nil {
			r.logger.Printf("sweep pruned dead connection conn_id=%s err=%v", conn.ID(), err)
			r.Leave(conn)
			_ = conn.Close()
		}
	}
}

// CloseAll closes every connection and clears the registry. Used on
// shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]Conn, 0, len(r.meetingByConn))
	for _, set := range r.conns {
		for _, conn := range set {
			all = append(all, conn)
		}
	}
	r.conns = make(map[string]map[string]Conn)
	r.meetingByConn = make(map[string]string)
	r.mu.Unlock()

	for _, conn := range all {
		_ = conn.Close()
	}
}
