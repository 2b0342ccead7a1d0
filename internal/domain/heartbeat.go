package domain

import (
	"sort"
	"strconv"
	"time"
)

// DefaultDedupThreshold is the minimum gap between two retained heartbeats
// for the same file.
const DefaultDedupThreshold = 120 * time.Second

// Heartbeat is one edit event forwarded to the time tracker
type Heartbeat struct {
	Entity  string
	Time    float64
	IsWrite bool
	Unsaved bool // entity no longer exists on disk
}

// NewHeartbeat builds a write heartbeat from a history entry
func NewHeartbeat(e HistoryEntry) Heartbeat {
	return Heartbeat{
		Entity:  e.Path,
		Time:    e.Time,
		IsWrite: true,
	}
}

// TimeString formats the heartbeat time the way the tracker CLI expects it
func (h Heartbeat) TimeString() string {
	return strconv.FormatFloat(h.Time, 'f', -1, 64)
}

// Deduplicate sorts entries by time and keeps the first entry for each path
// plus every later entry at least threshold after the last kept one for that
// path. Entries with equal times keep their collection order. The input slice
// is not modified.
func Deduplicate(entries []HistoryEntry, threshold time.Duration) []HistoryEntry {
	sorted := make([]HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	gap := threshold.Seconds()
	last := make(map[string]float64)
	var kept []HistoryEntry

	for _, e := range sorted {
		prev, seen := last[e.Path]
		if !seen || e.Time-prev >= gap {
			kept = append(kept, e)
			last[e.Path] = e.Time
		}
	}

	return kept
}
