package importer

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
)

// RawEvent is an activity as fetched from a source, before it is stored.
type RawEvent struct {
	Timestamp time.Time
	Text      string
}

// Fetcher pulls a source's events. Implementations must not write to the store.
type Fetcher interface {
	FetchEvents(ctx context.Context, source *models.Source) ([]RawEvent, error)
}

// Options carries collaborators shared by all fetchers.
type Options struct {
	HTTPClient *http.Client
}

// NewFetcher selects the adapter for a source's type.
func NewFetcher(ctx context.Context, source *models.Source, opts Options) (Fetcher, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	switch source.Type {
	case models.SourceGitHub:
		return &GitHubFetcher{client: client}, nil
	case models.SourceCSV:
		return &CSVFetcher{}, nil
	case models.SourceOutlook:
		f, err := NewOutlookFetcher(ctx, source)
		if err != nil {
			return nil, err
		}
		return f, nil
	case models.SourceJira, models.SourceSlack, models.SourceAWS:
		return nil, apperrors.Misconfigured("source type %q has no importer", source.Type)
	default:
		return nil, apperrors.Misconfigured("unknown source type %q", source.Type)
	}
}

// SyncResult describes one source sync.
type SyncResult struct {
	RunID    string
	SourceID int64
	Fetched  int
	Inserted int
	Duration time.Duration
}

// Importer syncs sources into the database
type Importer struct {
	db         *db.DB
	opts       Options
	newFetcher func(ctx context.Context, source *models.Source, opts Options) (Fetcher, error)
	now        func() time.Time
}

// New creates a new importer
func New(database *db.DB, opts Options) *Importer {
	return &Importer{
		db:         database,
		opts:       opts,
		newFetcher: NewFetcher,
		now:        time.Now,
	}
}

// Sync fetches a source and stores its events together with the new
// last_sync time. Every attempt is written to the sync log.
func (i *Importer) Sync(ctx context.Context, source *models.Source) (*SyncResult, error) {
	result := &SyncResult{RunID: uuid.NewString(), SourceID: source.ID}
	started := i.now()

	inserted, fetched, err := i.sync(ctx, source, started)
	result.Fetched = fetched
	result.Inserted = inserted
	result.Duration = i.now().Sub(started)

	record := &db.SyncRecord{
		RunID:      result.RunID,
		SourceID:   source.ID,
		StartedAt:  started,
		FinishedAt: started.Add(result.Duration),
		Fetched:    fetched,
		Inserted:   inserted,
		Status:     "success",
	}
	if err != nil {
		record.Status = "failed"
		record.Error = err.Error()
	}
	if logErr := i.db.RecordSync(record); logErr != nil {
		log.Printf("[SYNC] Failed to record sync for source %d: %v", source.ID, logErr)
	}

	if err != nil {
		log.Printf("[SYNC] Source %d (%s) failed: %v", source.ID, source.Type, err)
		return result, err
	}
	log.Printf("[SYNC] Source %d (%s): fetched %d, inserted %d", source.ID, source.Type, fetched, inserted)
	return result, nil
}

func (i *Importer) sync(ctx context.Context, source *models.Source, started time.Time) (inserted, fetched int, err error) {
	fetcher, err := i.newFetcher(ctx, source, i.opts)
	if err != nil {
		return 0, 0, err
	}

	raw, err := fetcher.FetchEvents(ctx, source)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch source %d: %w", source.ID, err)
	}

	events := make([]models.Event, 0, len(raw))
	for _, r := range raw {
		text := strings.TrimSpace(r.Text)
		if text == "" || r.Timestamp.IsZero() {
			continue
		}
		events = append(events, models.Event{
			SourceID:  source.ID,
			Timestamp: r.Timestamp.UTC(),
			Text:      text,
		})
	}

	inserted, err = i.db.SaveSync(source.ID, events, started)
	if err != nil {
		return 0, len(raw), fmt.Errorf("save source %d: %w", source.ID, err)
	}
	return inserted, len(raw), nil
}

// SyncProject syncs every enabled source of a project (all projects when
// projectID is 0). A failing source does not stop the others; the first
// error is returned after all have run.
func (i *Importer) SyncProject(ctx context.Context, projectID int64, progress ProgressCallback) ([]SyncResult, error) {
	sources, err := i.db.ListSources(projectID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	var results []SyncResult
	var firstErr error
	for idx := range sources {
		src := &sources[idx]
		if !src.Enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := i.Sync(ctx, src)
		label := fmt.Sprintf("#%d %s", src.ID, src.Type)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if progress != nil {
				progress.Update(label, "failed: "+err.Error())
			}
			continue
		}
		results = append(results, *res)
		if progress != nil {
			progress.Update(label, fmt.Sprintf("%d new of %d", res.Inserted, res.Fetched))
		}
	}
	if progress != nil {
		progress.Finish()
	}
	return results, firstErr
}
