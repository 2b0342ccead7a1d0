package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"histbeat/internal/domain"
)

// fakeResolver maps literal inputs to epoch seconds
type fakeResolver map[string]float64

func (r fakeResolver) Epoch(s string) (float64, error) {
	if v, ok := r[s]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown date %q", s)
}

// fakeSource returns canned entries filtered by the window, like the real scanner
type fakeSource struct {
	entries []domain.HistoryEntry
	err     error
	calls   int
}

func (s *fakeSource) Scan(ctx context.Context, root string, window domain.TimeWindow) ([]domain.HistoryEntry, domain.ScanStats, error) {
	s.calls++
	if s.err != nil {
		return nil, domain.ScanStats{}, s.err
	}

	var out []domain.HistoryEntry
	for _, e := range s.entries {
		if window.Contains(e.Time) {
			out = append(out, e)
		}
	}
	return out, domain.ScanStats{MetadataFiles: 1, Collected: len(out)}, nil
}

// fakeTracker records heartbeats and fails for entities containing "fail"
type fakeTracker struct {
	sent        []domain.Heartbeat
	unavailable bool
}

func (t *fakeTracker) Send(ctx context.Context, hb domain.Heartbeat) error {
	t.sent = append(t.sent, hb)
	if strings.Contains(hb.Entity, "fail") {
		return errors.New("exit status 1: rate limited")
	}
	return nil
}

func (t *fakeTracker) IsAvailable() bool {
	return !t.unavailable
}

// fakeLedger is an in-memory SentLedger
type fakeLedger struct {
	sent    map[string]string // entity@time -> run ID
	failHas bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{sent: map[string]string{}}
}

func ledgerKey(hb domain.Heartbeat) string {
	return hb.Entity + "@" + hb.TimeString()
}

func (l *fakeLedger) HasSent(hb domain.Heartbeat) (bool, error) {
	if l.failHas {
		return false, errors.New("database is locked")
	}
	_, ok := l.sent[ledgerKey(hb)]
	return ok, nil
}

func (l *fakeLedger) MarkSent(hb domain.Heartbeat, runID string) error {
	l.sent[ledgerKey(hb)] = runID
	return nil
}

func (l *fakeLedger) Close() error {
	return nil
}
