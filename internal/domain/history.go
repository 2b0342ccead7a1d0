package domain

import (
	"fmt"
	"time"
)

// HistoryEntry is a single recorded edit of a file
type HistoryEntry struct {
	Path string  // Resolved filesystem path of the edited file
	Time float64 // Unix epoch seconds
}

// String renders the entry for sample output
func (e HistoryEntry) String() string {
	return fmt.Sprintf("%s @ %s (%.3f)", e.Path, EpochToTime(e.Time).Format(time.RFC3339), e.Time)
}

// TimeWindow is a closed interval of epoch seconds
type TimeWindow struct {
	Start float64
	End   float64
}

// Contains reports whether t lies within [Start, End]
func (w TimeWindow) Contains(t float64) bool {
	return t >= w.Start && t <= w.End
}

// Valid reports whether the window is non-inverted
func (w TimeWindow) Valid() bool {
	return w.Start <= w.End
}

// ScanStats holds statistics from a history scan
type ScanStats struct {
	MetadataFiles int // entries.json files found
	Skipped       int // metadata files that could not be read or parsed
	Unresolved    int // metadata files whose resource had no usable path
	Collected     int // entries inside the window
}

// EpochToTime converts fractional epoch seconds to a time.Time
func EpochToTime(secs float64) time.Time {
	whole := int64(secs)
	nanos := int64((secs - float64(whole)) * float64(time.Second))
	return time.Unix(whole, nanos)
}

// MillisToSeconds converts an editor timestamp in milliseconds to epoch seconds
func MillisToSeconds(ms float64) float64 {
	return ms / 1000.0
}
