package importer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback receives one update per synced source
type ProgressCallback interface {
	Update(source string, detail string)
	Finish()
}

// ProgressReporter draws a progress bar for a multi-source sync
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	startTime time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(w io.Writer, total int) *ProgressReporter {
	return &ProgressReporter{
		writer:    w,
		total:     total,
		startTime: time.Now(),
	}
}

// Update advances the bar and shows the latest source result
func (p *ProgressReporter) Update(source string, detail string) {
	p.current++
	total := p.total
	if total < p.current {
		total = p.current
	}

	pct := float64(p.current) / float64(total) * 100

	barWidth := 30
	filled := barWidth * p.current / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	display := source + ": " + detail
	if len(display) > 60 {
		display = display[:57] + "..."
	}

	_, _ = fmt.Fprintf(p.writer, "\r[%s] %3.0f%% (%d/%d) %s\033[K", bar, pct, p.current, total, display)
}

// Finish completes the progress display
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	_, _ = fmt.Fprintf(p.writer, "\nSynced %d sources in %s\n", p.current, elapsed.Round(time.Millisecond))
}
