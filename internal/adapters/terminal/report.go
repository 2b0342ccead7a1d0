// Package terminal renders backfill summaries for a human at a terminal.
package terminal

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"histbeat/internal/application/commands"
	"histbeat/internal/domain"
)

// ExecuteHint is printed after every dry run
const ExecuteHint = "To actually send data, run with --execute"

// Report writes styled summaries to w
type Report struct {
	w   io.Writer
	loc *time.Location
}

// NewReport creates a Report writing to w. Times render in loc, or local
// time when loc is nil.
func NewReport(w io.Writer, loc *time.Location) *Report {
	if loc == nil {
		loc = time.Local
	}
	return &Report{w: w, loc: loc}
}

func (r *Report) formatTime(epoch float64) string {
	return domain.EpochToTime(epoch).In(r.loc).Format(time.RFC3339)
}

func formatEpoch(epoch float64) string {
	return strconv.FormatFloat(epoch, 'f', -1, 64)
}

func row(label string, value any) string {
	return Label.Render(label+":") + " " + Value.Render(fmt.Sprint(value))
}

// Window echoes both window bounds with their epoch values
func (r *Report) Window(start, end string, window domain.TimeWindow) {
	lines := []string{
		Title.Render("Time window"),
		Section.Render(lipgloss.JoinVertical(lipgloss.Left,
			row("Start", fmt.Sprintf("%s (%s)", start, formatEpoch(window.Start))),
			row("End", fmt.Sprintf("%s (%s)", end, formatEpoch(window.End))),
		)),
	}
	fmt.Fprintln(r.w, strings.Join(lines, "\n"))
}

func (r *Report) counts(scan *commands.ScanResult, threshold time.Duration) string {
	rows := []string{
		row("Metadata files", scan.Stats.MetadataFiles),
		row("Raw heartbeats in range", scan.Raw),
		row(fmt.Sprintf("After deduplication (%s)", threshold), len(scan.Retained)),
	}
	if scan.Stats.Skipped > 0 {
		rows = append(rows, WarningMsg.Render(fmt.Sprintf("Skipped %d unreadable metadata files", scan.Stats.Skipped)))
	}
	return Section.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// DryRun prints the scan counts, the sample heartbeats and the execute hint
func (r *Report) DryRun(result *commands.BackfillResult, threshold time.Duration) {
	var b strings.Builder

	b.WriteString(Title.Render("Dry run, no data sent"))
	b.WriteString("\n")
	b.WriteString(r.counts(result.Scan, threshold))
	b.WriteString("\n")

	if len(result.Samples) > 0 {
		b.WriteString(Title.Render(fmt.Sprintf("Sample heartbeats (%d of %d)", len(result.Samples), len(result.Scan.Retained))))
		b.WriteString("\n")
		b.WriteString(Section.Render(r.entryLines(result.Samples)))
		b.WriteString("\n")
	}

	b.WriteString(Hint.Render(ExecuteHint))
	fmt.Fprintln(r.w, b.String())
}

// Completed prints the totals of an executed backfill
func (r *Report) Completed(result *commands.BackfillResult, threshold time.Duration) {
	var b strings.Builder

	total := len(result.Scan.Retained)
	b.WriteString(Title.Render("Backfill complete"))
	b.WriteString("\n")
	b.WriteString(r.counts(result.Scan, threshold))
	b.WriteString("\n")

	status := Success
	if result.Failed > 0 {
		status = ErrorMsg
	}
	rows := []string{
		status.Render(fmt.Sprintf("Sent %d/%d heartbeats", result.Sent, total)),
		row("Missing on disk (sent as unsaved)", result.Missing),
	}
	if result.Failed > 0 {
		rows = append(rows, ErrorMsg.Render(fmt.Sprintf("Failed: %d", result.Failed)))
	}
	if result.AlreadySent > 0 {
		rows = append(rows, row("Already sent in earlier runs", result.AlreadySent))
	}
	rows = append(rows, Hint.Render("run "+result.RunID))
	b.WriteString(Section.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))

	fmt.Fprintln(r.w, b.String())
}

// Heartbeats lists entries one per line as time then path
func (r *Report) Heartbeats(entries []domain.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.w, Hint.Render("No heartbeats in range"))
		return
	}
	fmt.Fprintln(r.w, r.entryLines(entries))
}

func (r *Report) entryLines(entries []domain.HistoryEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, Timestamp.Render(r.formatTime(e.Time))+"  "+Entity.Render(e.Path))
	}
	return strings.Join(lines, "\n")
}
