package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"histbeat/internal/application"
	"histbeat/internal/domain"
	"histbeat/internal/logging"
	"histbeat/internal/ports"
)

// ScanResult contains the outcome of scanning and deduplicating history
type ScanResult struct {
	Window   domain.TimeWindow
	Stats    domain.ScanStats
	Raw      int                   // entries inside the window before deduplication
	Retained []domain.HistoryEntry // sorted by time
}

// ScanCommand collects edit history inside a time window and deduplicates it
type ScanCommand struct {
	source     ports.HistorySource
	resolver   ports.WindowResolver
	HistoryDir string
	Start      string
	End        string
	Threshold  time.Duration
}

// NewScanCommand creates a new ScanCommand
func NewScanCommand(source ports.HistorySource, resolver ports.WindowResolver, historyDir, start, end string, threshold time.Duration) *ScanCommand {
	return &ScanCommand{
		source:     source,
		resolver:   resolver,
		HistoryDir: historyDir,
		Start:      start,
		End:        end,
		Threshold:  threshold,
	}
}

// Validate checks if the scan parameters are usable
func (c *ScanCommand) Validate() error {
	if err := application.ValidateRequired("start", c.Start); err != nil {
		return err
	}
	if err := application.ValidateRequired("end", c.End); err != nil {
		return err
	}
	if err := application.ValidateRequired("historyDir", c.HistoryDir); err != nil {
		return err
	}
	if c.Threshold < 0 {
		return &application.ValidationError{
			Field:   "threshold",
			Message: fmt.Sprintf("dedup threshold must not be negative, got %s", c.Threshold),
		}
	}
	return nil
}

// ResolveWindow parses the start and end bounds
func (c *ScanCommand) ResolveWindow() (domain.TimeWindow, error) {
	start, err := c.resolver.Epoch(c.Start)
	if err != nil {
		return domain.TimeWindow{}, &application.TimeParseError{Field: "start", Input: c.Start, Err: err}
	}
	end, err := c.resolver.Epoch(c.End)
	if err != nil {
		return domain.TimeWindow{}, &application.TimeParseError{Field: "end", Input: c.End, Err: err}
	}

	window := domain.TimeWindow{Start: start, End: end}
	if !window.Valid() {
		return domain.TimeWindow{}, fmt.Errorf("%w: start %q is after end %q", application.ErrInvalidWindow, c.Start, c.End)
	}
	return window, nil
}

// Execute resolves the window, scans the history directory and deduplicates
func (c *ScanCommand) Execute(ctx context.Context) (*ScanResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	log := logging.WithContext(ctx)

	window, err := c.ResolveWindow()
	if err != nil {
		return nil, err
	}
	log.Info("time window resolved",
		zap.String("start", c.Start),
		zap.Float64("start_epoch", window.Start),
		zap.String("end", c.End),
		zap.Float64("end_epoch", window.End),
	)

	if err := application.ValidateDirectory("historyDir", c.HistoryDir); err != nil {
		return nil, err
	}

	entries, stats, err := c.source.Scan(ctx, c.HistoryDir, window)
	if err != nil {
		return nil, fmt.Errorf("failed to scan history: %w", err)
	}
	log.Info("found raw heartbeat entries in range",
		zap.Int("entries", len(entries)),
		zap.Int("metadata_files", stats.MetadataFiles),
		zap.Int("skipped", stats.Skipped),
	)

	retained := domain.Deduplicate(entries, c.Threshold)
	log.Info("deduplicated heartbeats",
		zap.Int("retained", len(retained)),
		zap.Duration("threshold", c.Threshold),
	)

	return &ScanResult{
		Window:   window,
		Stats:    stats,
		Raw:      len(entries),
		Retained: retained,
	}, nil
}
