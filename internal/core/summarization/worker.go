package summarization

import (
	"context"
	"fmt"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/llm"
	"github.com/Somers1/logsheet/internal/core/models"
)

// Worker fills in missing block and day summaries
type Worker struct {
	db         *db.DB
	summarizer *llm.Summarizer
	loc        *time.Location
	interval   time.Duration
	batchSize  int
	projects   map[int64]*models.Project
}

// NewWorker creates a new background summarization worker
func NewWorker(database *db.DB, summarizer *llm.Summarizer, loc *time.Location, interval time.Duration) *Worker {
	if loc == nil {
		loc = time.UTC
	}
	return &Worker{
		db:         database,
		summarizer: summarizer,
		loc:        loc,
		interval:   interval,
		batchSize:  25,
	}
}

// PassResult counts one summarization pass.
type PassResult struct {
	Blocks int
	Days   int
	// Retryable counts records left for a later pass after a retryable failure.
	Retryable int
	// Waiting counts days held back until all their blocks are summarized.
	Waiting int
}

// Start runs a pass immediately and then on every tick until ctx ends
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	fmt.Printf("Starting background summarization with %s...\n", w.summarizer.ProviderName())
	if _, err := w.ProcessPending(ctx, 0); err != nil {
		fmt.Printf("Initial summarization error: %v\n", err)
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Shutting down summarization worker...")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx, 0); err != nil {
				fmt.Printf("Summarization error: %v\n", err)
			}
		}
	}
}

// ProcessPending summarizes unsummarized blocks, then days whose blocks are
// all summarized. projectID 0 means every project. A fatal gateway error
// ends the pass; retryable ones are counted and left for the next pass.
func (w *Worker) ProcessPending(ctx context.Context, projectID int64) (*PassResult, error) {
	w.projects = make(map[int64]*models.Project)
	result := &PassResult{}

	if err := w.processBlocks(ctx, projectID, result); err != nil {
		return result, err
	}
	if err := w.processDays(ctx, projectID, result); err != nil {
		return result, err
	}

	if result.Blocks > 0 || result.Days > 0 || result.Retryable > 0 {
		fmt.Printf("[%s] Summaries: %d blocks, %d days, %d to retry\n",
			time.Now().Format("15:04:05"), result.Blocks, result.Days, result.Retryable)
	}
	return result, nil
}

func (w *Worker) processBlocks(ctx context.Context, projectID int64, result *PassResult) error {
	blocks, err := w.db.ListUnsummarizedBlocks(projectID, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsummarized blocks: %w", err)
	}

	for i := range blocks {
		b := &blocks[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		project, err := w.project(b.ProjectID)
		if err != nil {
			return err
		}
		events, err := w.db.BlockEvents(b)
		if err != nil {
			return fmt.Errorf("load events for block %d: %w", b.ID, err)
		}
		if len(events) == 0 {
			continue
		}

		texts := make([]string, len(events))
		for j := range events {
			texts[j] = events[j].Describe(w.loc)
		}

		fmt.Printf("  [%d/%d] Block %d %s (%d events)... ", i+1, len(blocks), b.ID,
			b.Start.In(w.loc).Format("2006-01-02 15:04"), len(events))
		summary, err := w.summarizer.Summarize(ctx, describe(project), texts)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			if apperrors.IsRetryable(err) {
				result.Retryable++
				continue
			}
			return fmt.Errorf("summarize block %d: %w", b.ID, err)
		}

		if err := w.db.SetBlockSummary(b.ID, summary); err != nil {
			return fmt.Errorf("save block %d summary: %w", b.ID, err)
		}
		fmt.Printf("✓\n")
		result.Blocks++
	}
	return nil
}

func (w *Worker) processDays(ctx context.Context, projectID int64, result *PassResult) error {
	days, err := w.db.ListUnsummarizedDays(projectID, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsummarized days: %w", err)
	}

	for i := range days {
		d := &days[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		blocks, err := w.db.ListBlocks(d.ProjectID, models.TimeRange{
			From: d.Date.In(w.loc),
			To:   d.Date.AddDays(1).In(w.loc),
		})
		if err != nil {
			return fmt.Errorf("load blocks for %s: %w", d.Date, err)
		}
		summaries := make([]string, 0, len(blocks))
		for _, b := range blocks {
			if b.Summarized() {
				summaries = append(summaries, b.Summary)
			}
		}
		if len(summaries) == 0 || len(summaries) < len(blocks) {
			result.Waiting++
			continue
		}

		project, err := w.project(d.ProjectID)
		if err != nil {
			return err
		}
		summary, err := w.summarizer.SummarizeDay(ctx, describe(project), d.Date.String(), d.Duration, summaries)
		if err != nil {
			if apperrors.IsRetryable(err) {
				result.Retryable++
				continue
			}
			return fmt.Errorf("summarize %s: %w", d.Date, err)
		}
		if err := w.db.SetDaySummary(d.ID, summary); err != nil {
			return fmt.Errorf("save %s summary: %w", d.Date, err)
		}
		result.Days++
	}
	return nil
}

func (w *Worker) project(id int64) (*models.Project, error) {
	if p, ok := w.projects[id]; ok {
		return p, nil
	}
	p, err := w.db.GetProject(id)
	if err != nil {
		return nil, err
	}
	w.projects[id] = p
	return p, nil
}

func describe(p *models.Project) string {
	if p.Description != "" {
		return p.Description
	}
	return p.Name
}
