package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"histbeat/internal/domain"
	"histbeat/internal/logging"
	"histbeat/internal/ports"
)

// MetadataFile is the per-resource index the editor writes next to its
// history snapshots.
const MetadataFile = "entries.json"

// entriesFile mirrors the on-disk shape of MetadataFile
type entriesFile struct {
	Resource string      `json:"resource"`
	Entries  []entryJSON `json:"entries"`
}

type entryJSON struct {
	ID        string  `json:"id,omitempty"`
	Source    string  `json:"source,omitempty"`
	Timestamp float64 `json:"timestamp"` // milliseconds
}

// HistoryScanner implements ports.HistorySource over an editor's local
// history directory
type HistoryScanner struct {
	homeMarker string
}

// Ensure HistoryScanner implements HistorySource
var _ ports.HistorySource = (*HistoryScanner)(nil)

// NewHistoryScanner creates a scanner that resolves remote resources
// through homeMarker
func NewHistoryScanner(homeMarker string) *HistoryScanner {
	return &HistoryScanner{homeMarker: homeMarker}
}

// Scan walks root and collects every edit inside window
func (s *HistoryScanner) Scan(ctx context.Context, root string, window domain.TimeWindow) ([]domain.HistoryEntry, domain.ScanStats, error) {
	log := logging.WithContext(ctx)
	var stats domain.ScanStats
	var collected []domain.HistoryEntry

	info, err := os.Stat(root)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read history directory: %w", err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("history path %s is not a directory", root)
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || d.Name() != MetadataFile {
			return nil
		}

		stats.MetadataFiles++
		file, err := readEntriesFile(path)
		if err != nil {
			stats.Skipped++
			log.Warn("skipping metadata file", zap.String("path", path), zap.Error(err))
			return nil
		}

		resolved := domain.ResolveResource(file.Resource, s.homeMarker)
		if resolved == "" {
			stats.Unresolved++
			log.Debug("unresolvable resource", zap.String("resource", file.Resource))
			return nil
		}

		for _, e := range file.Entries {
			if e.Timestamp == 0 {
				continue
			}
			secs := domain.MillisToSeconds(e.Timestamp)
			if !window.Contains(secs) {
				continue
			}
			collected = append(collected, domain.HistoryEntry{Path: resolved, Time: secs})
		}
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	stats.Collected = len(collected)
	return collected, stats, nil
}

func readEntriesFile(path string) (*entriesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file entriesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", MetadataFile, err)
	}
	return &file, nil
}
