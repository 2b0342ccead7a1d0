package ports

import "histbeat/internal/domain"

// SentLedger remembers heartbeats that were already delivered so reruns over
// overlapping windows do not send them twice.
type SentLedger interface {
	HasSent(hb domain.Heartbeat) (bool, error)
	MarkSent(hb domain.Heartbeat, runID string) error
	Close() error
}
