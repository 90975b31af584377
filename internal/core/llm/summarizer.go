package llm

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/config"
)

// ErrEmptySummary is returned when the model produced no usable text
var ErrEmptySummary = errors.New("model returned an empty summary")

// Summarizer turns ordered event texts into timesheet prose. It owns no global
// state; construct one per run and pass it to whoever needs it.
type Summarizer struct {
	provider      Provider
	timeout       time.Duration
	blockTemplate string
	dayTemplate   string
	maxEventChars int
}

// NewSummarizer creates a new summarizer with the given provider
func NewSummarizer(provider Provider, cfg config.SummarizerConfig) *Summarizer {
	s := &Summarizer{
		provider:      provider,
		timeout:       cfg.Timeout.Duration,
		blockTemplate: DefaultBlockPrompt,
		dayTemplate:   DefaultDayPrompt,
		maxEventChars: cfg.MaxEventChars,
	}
	if cfg.PromptTemplate != "" {
		s.blockTemplate = cfg.PromptTemplate
	}
	if s.timeout <= 0 {
		s.timeout = 2 * time.Minute
	}
	return s
}

// ProviderName reports which backend is in use
func (s *Summarizer) ProviderName() string {
	return s.provider.Name()
}

// Summarize produces a summary of one work session. eventTexts must already be
// in chronological order. Failures are apperrors.GatewayError values.
func (s *Summarizer) Summarize(ctx context.Context, projectDescription string, eventTexts []string) (string, error) {
	prompt, err := renderPrompt(s.blockTemplate, projectDescription, eventTexts, s.maxEventChars, nil)
	if err != nil {
		return "", apperrors.Fatal("summarize", err)
	}
	return s.generate(ctx, "summarize", prompt)
}

// SummarizeDay rolls a day's session summaries into notes for the whole day
func (s *Summarizer) SummarizeDay(ctx context.Context, projectDescription, date string, duration time.Duration, blockSummaries []string) (string, error) {
	prompt, err := renderPrompt(s.dayTemplate, projectDescription, blockSummaries, s.maxEventChars, map[string]interface{}{
		"date":     date,
		"duration": duration.String(),
	})
	if err != nil {
		return "", apperrors.Fatal("summarize day", err)
	}
	return s.generate(ctx, "summarize day", prompt)
}

func (s *Summarizer) generate(ctx context.Context, op string, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.provider.GenerateText(ctx, prompt)
	if err != nil {
		// a provider may swallow the deadline into its own error
		if ctx.Err() == context.DeadlineExceeded && !errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(err, context.DeadlineExceeded)
		}
		log.Printf("[SUMMARIZE] %s via %s failed after %s: %v", op, s.provider.Name(), time.Since(start).Round(time.Millisecond), err)
		return "", classify(s.provider.Name()+" "+op, err)
	}

	text = cleanSummary(text)
	if text == "" {
		return "", apperrors.Retryable(s.provider.Name()+" "+op, ErrEmptySummary)
	}
	return text, nil
}

// cleanSummary removes LLM meta-commentary around the actual summary
func cleanSummary(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	junkPrefixes := []string{
		"here is",
		"here's",
		"sure,",
		"summary:",
		"let me know",
	}

	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		isJunk := false
		for _, prefix := range junkPrefixes {
			if strings.HasPrefix(lower, prefix) {
				// "Summary: did X" keeps the text after the label
				if prefix == "summary:" && len(trimmed) > len(prefix) {
					trimmed = strings.TrimSpace(trimmed[len(prefix):])
					break
				}
				isJunk = true
				break
			}
		}
		if isJunk {
			continue
		}
		kept = append(kept, trimmed)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
