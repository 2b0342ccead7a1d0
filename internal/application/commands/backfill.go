package commands

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"histbeat/internal/application"
	"histbeat/internal/domain"
	"histbeat/internal/logging"
	"histbeat/internal/ports"
)

const (
	DefaultSampleSize    = 5
	DefaultProgressEvery = 10
)

// BackfillResult contains the outcome of a backfill run
type BackfillResult struct {
	RunID   string
	DryRun  bool
	Scan    *ScanResult
	Samples []domain.HistoryEntry // only populated on dry runs

	Sent        int
	Failed      int
	Missing     int // entities no longer on disk, sent as unsaved
	AlreadySent int // skipped because the ledger had them
}

// BackfillCommand scans history and forwards the deduplicated edits to the
// tracker, one blocking invocation at a time
type BackfillCommand struct {
	scan    *ScanCommand
	tracker ports.Tracker
	ledger  ports.SentLedger

	DryRun        bool
	SampleSize    int
	ProgressEvery int

	// Exists reports whether an entity is still on disk
	Exists func(path string) bool
}

// NewBackfillCommand creates a new BackfillCommand. ledger may be nil.
func NewBackfillCommand(scan *ScanCommand, tracker ports.Tracker, ledger ports.SentLedger, dryRun bool) *BackfillCommand {
	return &BackfillCommand{
		scan:          scan,
		tracker:       tracker,
		ledger:        ledger,
		DryRun:        dryRun,
		SampleSize:    DefaultSampleSize,
		ProgressEvery: DefaultProgressEvery,
		Exists:        fileExists,
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Validate checks if the backfill parameters are usable
func (c *BackfillCommand) Validate() error {
	if c.scan == nil {
		return &application.ValidationError{Field: "scan", Message: "scan is required"}
	}
	if c.SampleSize < 0 {
		return &application.ValidationError{
			Field:   "sampleSize",
			Message: fmt.Sprintf("sample size must not be negative, got %d", c.SampleSize),
		}
	}
	if !c.DryRun && c.tracker == nil {
		return &application.ValidationError{Field: "tracker", Message: "tracker is required"}
	}
	return c.scan.Validate()
}

// Execute runs the backfill. Fatal errors abort before any heartbeat is
// sent; per-heartbeat failures are logged, counted and skipped.
func (c *BackfillCommand) Execute(ctx context.Context) (*BackfillResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	ctx = logging.WithRunID(ctx)
	log := logging.WithContext(ctx)
	log.Info("starting backfill", zap.Bool("dry_run", c.DryRun))

	scan, err := c.scan.Execute(ctx)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{
		RunID:  logging.RunID(ctx),
		DryRun: c.DryRun,
		Scan:   scan,
	}

	if c.DryRun {
		n := min(c.SampleSize, len(scan.Retained))
		result.Samples = scan.Retained[:n]
		log.Info("dry run complete, no data sent")
		return result, nil
	}

	if !c.tracker.IsAvailable() {
		return nil, trackerUnavailable(c.tracker)
	}

	total := len(scan.Retained)
	for _, entry := range scan.Retained {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		hb := domain.NewHeartbeat(entry)

		if c.ledger != nil {
			sent, err := c.ledger.HasSent(hb)
			if err != nil {
				return result, err
			}
			if sent {
				result.AlreadySent++
				log.Debug("already sent", zap.String("entity", hb.Entity), zap.String("time", hb.TimeString()))
				continue
			}
		}

		if !c.Exists(hb.Entity) {
			hb.Unsaved = true
			result.Missing++
		}

		if err := c.tracker.Send(ctx, hb); err != nil {
			result.Failed++
			log.Warn("failed to send heartbeat", zap.String("entity", hb.Entity), zap.Error(err))
			continue
		}

		result.Sent++
		log.Debug("sent heartbeat",
			zap.String("entity", hb.Entity),
			zap.String("time", hb.TimeString()),
			zap.Bool("unsaved", hb.Unsaved),
		)

		if c.ledger != nil {
			if err := c.ledger.MarkSent(hb, result.RunID); err != nil {
				log.Warn("failed to record heartbeat in ledger", zap.String("entity", hb.Entity), zap.Error(err))
			}
		}

		if c.ProgressEvery > 0 && result.Sent%c.ProgressEvery == 0 {
			log.Info("sent heartbeats", zap.Int("sent", result.Sent), zap.Int("total", total))
		}
	}

	log.Info("backfill complete",
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("missing_on_disk", result.Missing),
		zap.Int("already_sent", result.AlreadySent),
	)
	return result, nil
}

// trackerUnavailable names the tracker's command when it exposes one
func trackerUnavailable(tracker ports.Tracker) error {
	if named, ok := tracker.(interface{ Command() string }); ok {
		return fmt.Errorf("%w: %s", application.ErrTrackerNotFound, named.Command())
	}
	return application.ErrTrackerNotFound
}
