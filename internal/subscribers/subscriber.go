package subscribers

import (
	"context"

	"roundtable.local/projects/insight-gateway/internal/types"
)

// Subscriber receives every outbound meeting event after it is broadcast
// to the meeting's connections.
type Subscriber interface {
	Name() string
	Handle(context.Context, types.ServerMessage) error
}
