package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

// GitHubFetcher reads commits from a GitHub commits endpoint
// (https://api.github.com/repos/{owner}/{repo}/commits) stored as the source's base_url.
type GitHubFetcher struct {
	client *http.Client
}

type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

func (f *GitHubFetcher) FetchEvents(ctx context.Context, source *models.Source) ([]RawEvent, error) {
	if source.BaseURL == "" {
		return nil, apperrors.Misconfigured("github source %d has no base_url", source.ID)
	}
	endpoint, err := withSince(source.BaseURL, source.LastSync)
	if err != nil {
		return nil, apperrors.Misconfigured("github source %d base_url: %v", source.ID, err)
	}

	var events []RawEvent
	for endpoint != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if source.APIKey != "" {
			req.Header.Set("Authorization", "token "+source.APIKey)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, apperrors.Retryable("github commits", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, apperrors.Retryable("github commits", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, statusError("github commits", resp.StatusCode, body)
		}

		var commits []githubCommit
		if err := json.Unmarshal(body, &commits); err != nil {
			return nil, apperrors.Fatal("github commits", fmt.Errorf("decoding response: %w", err))
		}
		for _, c := range commits {
			events = append(events, RawEvent{Timestamp: c.Commit.Author.Date, Text: c.Commit.Message})
		}

		endpoint = nextLink(resp.Header.Get("Link"))
	}
	return events, nil
}

// withSince limits the listing to commits after the last sync.
func withSince(raw string, since time.Time) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if since.IsZero() {
		return u.String(), nil
	}
	q := u.Query()
	if q.Get("since") == "" {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// nextLink extracts the rel="next" target of an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			param = strings.TrimSpace(param)
			if param == `rel="next"` || param == "rel=next" {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}

func statusError(op string, code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	err := fmt.Errorf("API error %d: %s", code, msg)
	if code == http.StatusTooManyRequests || code >= 500 {
		return apperrors.Retryable(op, err)
	}
	return apperrors.Fatal(op, err)
}
