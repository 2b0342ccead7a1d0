package ports

import (
	"context"

	"histbeat/internal/domain"
)

// HistorySource collects edit events recorded by an editor
type HistorySource interface {
	// Scan walks root and returns every edit inside window, in collection order.
	// Unreadable or malformed metadata is skipped and counted in the stats.
	Scan(ctx context.Context, root string, window domain.TimeWindow) ([]domain.HistoryEntry, domain.ScanStats, error)
}

// WindowResolver turns a human-readable date into epoch seconds
type WindowResolver interface {
	Epoch(s string) (float64, error)
}
