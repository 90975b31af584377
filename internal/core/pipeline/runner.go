package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/dayagg"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/grouping"
	"github.com/Somers1/logsheet/internal/core/models"
)

// Result reports one project's regroup.
type Result struct {
	RunID     string
	ProjectID int64
	Events    int
	Blocks    int
	Days      int
	Changes   db.RegroupResult
	Duration  time.Duration
}

// Runner rebuilds blocks and day summaries from stored events. Runs for the
// same project never overlap; different projects proceed in parallel.
type Runner struct {
	db          *db.DB
	params      grouping.Params
	loc         *time.Location
	concurrency int

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewRunner creates a runner. loc decides which calendar day a block belongs
// to; nil means UTC.
func NewRunner(database *db.DB, params grouping.Params, loc *time.Location, concurrency int) (*Runner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	// Blocks are stored keyed by (start, end). Without a gap, events sharing
	// a timestamp can open identical blocks.
	if params.GapTolerance == 0 {
		return nil, apperrors.Invalid("gap tolerance must be positive to store blocks")
	}
	if loc == nil {
		loc = time.UTC
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		db:          database,
		params:      params,
		loc:         loc,
		concurrency: concurrency,
		locks:       make(map[int64]*sync.Mutex),
	}, nil
}

func (r *Runner) projectLock(projectID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[projectID] = l
	}
	return l
}

// Regroup loads a project's events, groups them and replaces its blocks
// and day summaries in one transaction.
func (r *Runner) Regroup(ctx context.Context, projectID int64) (*Result, error) {
	lock := r.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	result := &Result{RunID: uuid.NewString(), ProjectID: projectID}

	events, err := r.db.ListEvents(projectID, nil, models.TimeRange{})
	if err != nil {
		return nil, fmt.Errorf("load events for project %d: %w", projectID, err)
	}
	result.Events = len(events)

	blocks, err := r.params.Group(events)
	if err != nil {
		return nil, fmt.Errorf("group project %d: %w", projectID, err)
	}
	days := DaySummaries(blocks, r.loc)
	result.Blocks = len(blocks)
	result.Days = len(days)

	changes, err := r.db.SaveRegroup(projectID, blocks, days)
	if err != nil {
		return nil, fmt.Errorf("save regroup for project %d: %w", projectID, err)
	}
	result.Changes = *changes
	result.Duration = time.Since(started)

	log.Printf("[GROUP] run=%s project=%d events=%d blocks=%d (+%d -%d) days=%d (-%d) in %s",
		result.RunID[:8], projectID, result.Events, result.Blocks,
		changes.BlocksInserted, changes.BlocksDeleted, result.Days, changes.DaysDeleted,
		result.Duration.Round(time.Millisecond))
	for _, date := range changes.StaleExports {
		log.Printf("[GROUP] project=%d day %s changed after export, re-export it with --force", projectID, date)
	}
	return result, nil
}

// RunAll regroups every project, at most concurrency at a time. The first
// failure cancels the projects not yet started.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	projects, err := r.db.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	results := make([]Result, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, p := range projects {
		i, p := i, p
		g.Go(func() error {
			res, err := r.Regroup(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("project %s: %w", p.Name, err)
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DaySummaries derives one day row per local calendar day that has blocks.
func DaySummaries(blocks []models.EventBlock, loc *time.Location) []models.DaySummary {
	totals := dayagg.Summarize(blocks, loc)
	days := make([]models.DaySummary, 0, len(totals))
	for _, t := range totals {
		days = append(days, models.DaySummary{
			Date:       t.Date,
			Duration:   t.Duration,
			BlockCount: len(t.Blocks),
		})
	}
	return days
}
