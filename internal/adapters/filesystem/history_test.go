package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"histbeat/internal/domain"
)

const testMarker = "/home/u/"

func writeEntries(t *testing.T, root, dir, content string) {
	t.Helper()

	dirPath := filepath.Join(root, dir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dirPath, err)
	}
	if err := os.WriteFile(filepath.Join(dirPath, MetadataFile), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write entries: %v", err)
	}
}

func entriesJSON(resource string, timestampsMS ...int64) string {
	entries := ""
	for i, ts := range timestampsMS {
		if i > 0 {
			entries += ","
		}
		entries += fmt.Sprintf(`{"id":"e%d.txt","timestamp":%d}`, i, ts)
	}
	return fmt.Sprintf(`{"version":1,"resource":%q,"entries":[%s]}`, resource, entries)
}

func TestHistoryScanner_Scan(t *testing.T) {
	root := t.TempDir()
	window := domain.TimeWindow{Start: 1000, End: 2000}

	writeEntries(t, root, "-1a2b3c", entriesJSON("file:///home/u/proj/a.txt", 999999, 1000000, 1500000, 2000000, 2000001))
	writeEntries(t, root, "nested/deeper/4d5e", entriesJSON("vscode-remote://ssh-remote%2Bbox/home/u/proj/b.go", 1200000))
	// Not the metadata filename; must be ignored
	if err := os.WriteFile(filepath.Join(root, "-1a2b3c", "AbCd.txt"), []byte("snapshot"), 0644); err != nil {
		t.Fatal(err)
	}

	scanner := NewHistoryScanner(testMarker)
	entries, stats, err := scanner.Scan(context.Background(), root, window)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := map[domain.HistoryEntry]bool{
		{Path: "/home/u/proj/a.txt", Time: 1000}: true,
		{Path: "/home/u/proj/a.txt", Time: 1500}: true,
		{Path: "/home/u/proj/a.txt", Time: 2000}: true,
		{Path: "/home/u/proj/b.go", Time: 1200}:  true,
	}

	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for _, e := range entries {
		if !want[e] {
			t.Errorf("unexpected entry %+v", e)
		}
	}

	if stats.MetadataFiles != 2 {
		t.Errorf("expected 2 metadata files, got %d", stats.MetadataFiles)
	}
	if stats.Collected != 4 {
		t.Errorf("expected 4 collected, got %d", stats.Collected)
	}
}

func TestHistoryScanner_SkipsMalformedMetadata(t *testing.T) {
	root := t.TempDir()
	window := domain.TimeWindow{Start: 0, End: 1e12}

	writeEntries(t, root, "broken", `{"resource": "file:///home/u/x", "entries": [`)
	writeEntries(t, root, "wrong-shape", `{"resource": 42, "entries": "nope"}`)
	writeEntries(t, root, "good", entriesJSON("file:///home/u/ok.txt", 5000))

	entries, stats, err := NewHistoryScanner(testMarker).Scan(context.Background(), root, window)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(entries) != 1 || entries[0].Path != "/home/u/ok.txt" {
		t.Errorf("expected only the sibling good entry, got %+v", entries)
	}
	if stats.Skipped != 2 {
		t.Errorf("expected 2 skipped metadata files, got %d", stats.Skipped)
	}
}

func TestHistoryScanner_SkipsUnresolvableResources(t *testing.T) {
	root := t.TempDir()
	window := domain.TimeWindow{Start: 0, End: 1e12}

	writeEntries(t, root, "untitled", entriesJSON("untitled:Untitled-1", 5000))
	writeEntries(t, root, "empty", `{"entries":[{"timestamp":5000}]}`)

	entries, stats, err := NewHistoryScanner(testMarker).Scan(context.Background(), root, window)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("expected no entries, got %+v", entries)
	}
	if stats.Unresolved != 2 {
		t.Errorf("expected 2 unresolved, got %d", stats.Unresolved)
	}
	if stats.Skipped != 0 {
		t.Errorf("unresolvable resources should not count as skipped, got %d", stats.Skipped)
	}
}

func TestHistoryScanner_SkipsZeroTimestamps(t *testing.T) {
	root := t.TempDir()
	writeEntries(t, root, "z", `{"resource":"file:///home/u/z.txt","entries":[{"id":"a"},{"timestamp":0},{"timestamp":3000}]}`)

	entries, _, err := NewHistoryScanner(testMarker).Scan(context.Background(), root, domain.TimeWindow{Start: 0, End: 10})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(entries) != 1 || entries[0].Time != 3 {
		t.Errorf("expected a single entry at 3s, got %+v", entries)
	}
}

func TestHistoryScanner_MissingRoot(t *testing.T) {
	_, _, err := NewHistoryScanner(testMarker).Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), domain.TimeWindow{})
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestHistoryScanner_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeEntries(t, root, "a", entriesJSON("file:///home/u/a", 1000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := NewHistoryScanner(testMarker).Scan(ctx, root, domain.TimeWindow{Start: 0, End: 10}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
