package ports

import (
	"context"

	"histbeat/internal/domain"
)

// Tracker forwards heartbeats to a time-tracking client
type Tracker interface {
	// Send records one heartbeat and blocks until the client is done with it
	Send(ctx context.Context, hb domain.Heartbeat) error

	// IsAvailable returns true if the client can be invoked
	IsAvailable() bool
}
