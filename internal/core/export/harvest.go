package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/config"
	"github.com/Somers1/logsheet/internal/core/models"
)

// Harvest talks to the Harvest v2 REST API.
type Harvest struct {
	httpClient *http.Client
	baseURL    string
	token      string
	accountID  string
	taskName   string
	userAgent  string
}

// NewHarvest builds a Harvest client from config.
func NewHarvest(cfg config.HarvestConfig, httpClient *http.Client) (*Harvest, error) {
	if cfg.AccessToken == "" || cfg.AccountID == "" {
		return nil, apperrors.Misconfigured("harvest.access_token and harvest.account_id are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.harvestapp.com/v2"
	}
	task := cfg.TaskName
	if task == "" {
		task = "logsheet"
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "logsheet"
	}
	return &Harvest{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(base, "/"),
		token:      cfg.AccessToken,
		accountID:  cfg.AccountID,
		taskName:   task,
		userAgent:  ua,
	}, nil
}

type harvestRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type harvestLinks struct {
	Next string `json:"next"`
}

// HarvestEntry is a time entry as Harvest reports it.
type HarvestEntry struct {
	ID        int64      `json:"id"`
	SpentDate string     `json:"spent_date"`
	Hours     float64    `json:"hours"`
	Notes     string     `json:"notes"`
	Billable  bool       `json:"billable"`
	Project   harvestRef `json:"project"`
	Task      harvestRef `json:"task"`
}

type harvestEntryRequest struct {
	ProjectID int64   `json:"project_id"`
	TaskID    int64   `json:"task_id"`
	SpentDate string  `json:"spent_date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
}

// ExportDay creates a Harvest time entry for the day's total duration.
func (h *Harvest) ExportDay(ctx context.Context, project *models.Project, day *models.DaySummary) (string, error) {
	projectID, err := h.projectID(ctx, project)
	if err != nil {
		return "", err
	}
	taskID, err := h.taskID(ctx)
	if err != nil {
		return "", err
	}

	req := harvestEntryRequest{
		ProjectID: projectID,
		TaskID:    taskID,
		SpentDate: day.Date.String(),
		Hours:     models.DecimalHours(day.Duration),
		Notes:     day.Summary,
	}
	var created HarvestEntry
	if err := h.do(ctx, "harvest create time entry", http.MethodPost, h.baseURL+"/time_entries", req, &created); err != nil {
		return "", err
	}
	return strconv.FormatInt(created.ID, 10), nil
}

// projectID prefers the id stored on the project and falls back to a
// case-insensitive name match.
func (h *Harvest) projectID(ctx context.Context, project *models.Project) (int64, error) {
	if project.ExternalID != "" {
		id, err := strconv.ParseInt(project.ExternalID, 10, 64)
		if err != nil {
			return 0, apperrors.Misconfigured("project %s external id %q is not a Harvest id", project.Name, project.ExternalID)
		}
		return id, nil
	}

	var found int64
	err := h.paginate(ctx, "harvest list projects", h.baseURL+"/projects?is_active=true", func(data []byte) error {
		var page struct {
			Projects []harvestRef `json:"projects"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		for _, p := range page.Projects {
			if found == 0 && strings.EqualFold(p.Name, project.Name) {
				found = p.ID
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if found == 0 {
		return 0, apperrors.Misconfigured("no Harvest project named %q", project.Name)
	}
	return found, nil
}

func (h *Harvest) taskID(ctx context.Context) (int64, error) {
	var found int64
	err := h.paginate(ctx, "harvest list tasks", h.baseURL+"/tasks", func(data []byte) error {
		var page struct {
			Tasks []harvestRef `json:"tasks"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		for _, t := range page.Tasks {
			if found == 0 && strings.EqualFold(t.Name, h.taskName) {
				found = t.ID
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if found == 0 {
		return 0, apperrors.Misconfigured("no Harvest task named %q", h.taskName)
	}
	return found, nil
}

// ListTimeEntries returns entries spent in [from, to] (Harvest bounds are inclusive).
func (h *Harvest) ListTimeEntries(ctx context.Context, from, to models.Date) ([]HarvestEntry, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.String())
	}
	if !to.IsZero() {
		q.Set("to", to.String())
	}
	endpoint := h.baseURL + "/time_entries"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var entries []HarvestEntry
	err := h.paginate(ctx, "harvest list time entries", endpoint, func(data []byte) error {
		var page struct {
			TimeEntries []HarvestEntry `json:"time_entries"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		entries = append(entries, page.TimeEntries...)
		return nil
	})
	return entries, err
}

// paginate follows links.next until it is empty.
func (h *Harvest) paginate(ctx context.Context, op, endpoint string, handle func([]byte) error) error {
	for endpoint != "" {
		var raw json.RawMessage
		if err := h.do(ctx, op, http.MethodGet, endpoint, nil, &raw); err != nil {
			return err
		}
		if err := handle(raw); err != nil {
			return apperrors.Fatal(op, fmt.Errorf("decoding response: %w", err))
		}
		var page struct {
			Links harvestLinks `json:"links"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return apperrors.Fatal(op, fmt.Errorf("decoding links: %w", err))
		}
		endpoint = page.Links.Next
	}
	return nil
}

func (h *Harvest) do(ctx context.Context, op, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Harvest-Account-Id", h.accountID)
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return apperrors.Fatal(op, err)
		}
		return apperrors.Retryable(op, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return apperrors.Retryable(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		err := fmt.Errorf("harvest API error %d: %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return apperrors.Retryable(op, err)
		}
		return apperrors.Fatal(op, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Fatal(op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
