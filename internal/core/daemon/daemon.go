package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Somers1/logsheet/internal/core/importer"
	"github.com/Somers1/logsheet/internal/core/pipeline"
	"github.com/Somers1/logsheet/internal/core/summarization"
)

// Syncer pulls new events from every enabled source
type Syncer interface {
	SyncProject(ctx context.Context, projectID int64, progress importer.ProgressCallback) ([]importer.SyncResult, error)
}

// Regrouper rebuilds blocks and day summaries for every project
type Regrouper interface {
	RunAll(ctx context.Context) ([]pipeline.Result, error)
}

// Summarizer fills in missing summaries
type Summarizer interface {
	ProcessPending(ctx context.Context, projectID int64) (*summarization.PassResult, error)
}

// Daemon runs sync, regroup and summarize on a fixed interval
type Daemon struct {
	syncer     Syncer
	regrouper  Regrouper
	summarizer Summarizer // nil disables summarization
	interval   time.Duration
	pauseFile  string

	watcher *fsnotify.Watcher
	settle  time.Duration

	mu    sync.Mutex
	stats Stats
}

// Stats tracks daemon activity
type Stats struct {
	StartTime        time.Time
	Cycles           int
	EventsImported   int
	BlocksSummarized int
	DaysSummarized   int
	LastCycle        time.Time
	Errors           int
}

// New creates a daemon. The pause file defaults to
// ~/.config/logsheet/daemon/paused.
func New(syncer Syncer, regrouper Regrouper, summarizer Summarizer, interval time.Duration) (*Daemon, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("daemon interval must be positive, got %s", interval)
	}
	pauseFile, err := DefaultPauseFile()
	if err != nil {
		return nil, err
	}
	return &Daemon{
		syncer:     syncer,
		regrouper:  regrouper,
		summarizer: summarizer,
		interval:   interval,
		pauseFile:  pauseFile,
		settle:     2 * time.Second,
		stats:      Stats{StartTime: time.Now()},
	}, nil
}

// DefaultPauseFile is the marker whose presence pauses the daemon
func DefaultPauseFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "logsheet", "daemon", "paused"), nil
}

// SetPauseFile overrides where the pause marker is looked for
func (d *Daemon) SetPauseFile(path string) {
	d.pauseFile = path
}

// Watch makes CSV exports written to dirs trigger a cycle once writes
// settle, without waiting for the next tick. The watcher is closed when
// Start returns.
func (d *Daemon) Watch(dirs ...string) error {
	if len(dirs) == 0 {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		log.Printf("Watching: %s", dir)
	}
	d.watcher = watcher
	return nil
}

// Start runs a cycle immediately and then on every tick until ctx ends
func (d *Daemon) Start(ctx context.Context) error {
	log.Printf("Daemon starting, cycle every %s", d.interval)
	if d.summarizer == nil {
		log.Printf("  Summarization disabled")
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if d.watcher != nil {
		defer func() { _ = d.watcher.Close() }()
		events, watchErrs = d.watcher.Events, d.watcher.Errors
	}
	var settled <-chan time.Time

	d.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Printf("Daemon shutting down gracefully...")
			return nil

		case <-ticker.C:
			d.tick(ctx)

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if shouldProcessEvent(event) {
				log.Printf("File event: %s %s", event.Op, event.Name)
				settled = time.After(d.settle)
			}

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			log.Printf("Watcher error: %v", err)
			d.mu.Lock()
			d.stats.Errors++
			d.mu.Unlock()

		case <-settled:
			settled = nil
			d.tick(ctx)
		}
	}
}

// shouldProcessEvent reports CSV writes and creates
func shouldProcessEvent(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (d *Daemon) tick(ctx context.Context) {
	if d.isPaused() {
		log.Printf("Daemon paused (%s), skipping cycle", d.pauseFile)
		return
	}
	if err := d.RunOnce(ctx); err != nil {
		log.Printf("Cycle error: %v", err)
	}
}

// RunOnce performs one sync, regroup and summarize cycle. Source failures
// are logged and do not stop grouping; a regroup failure skips
// summarization.
func (d *Daemon) RunOnce(ctx context.Context) error {
	started := time.Now()
	var errs int

	results, err := d.syncer.SyncProject(ctx, 0, nil)
	imported := 0
	for _, r := range results {
		imported += r.Inserted
	}
	if err != nil {
		log.Printf("[SYNC] %v", err)
		errs++
	}
	if ctx.Err() != nil {
		d.record(started, imported, nil, errs)
		return ctx.Err()
	}

	if _, err := d.regrouper.RunAll(ctx); err != nil {
		d.record(started, imported, nil, errs+1)
		return fmt.Errorf("regroup: %w", err)
	}

	var pass *summarization.PassResult
	if d.summarizer != nil {
		pass, err = d.summarizer.ProcessPending(ctx, 0)
		if err != nil {
			d.record(started, imported, pass, errs+1)
			return fmt.Errorf("summarize: %w", err)
		}
	}

	d.record(started, imported, pass, errs)
	log.Printf("✓ Cycle complete in %s: %d new events", time.Since(started).Round(time.Millisecond), imported)
	return nil
}

func (d *Daemon) record(at time.Time, imported int, pass *summarization.PassResult, errs int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Cycles++
	d.stats.LastCycle = at
	d.stats.EventsImported += imported
	d.stats.Errors += errs
	if pass != nil {
		d.stats.BlocksSummarized += pass.Blocks
		d.stats.DaysSummarized += pass.Days
	}
}

// isPaused checks if daemon is paused (pause file exists)
func (d *Daemon) isPaused() bool {
	if d.pauseFile == "" {
		return false
	}
	_, err := os.Stat(d.pauseFile)
	return err == nil
}

// GetStats returns a copy of the current statistics
func (d *Daemon) GetStats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
