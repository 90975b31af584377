package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	_ = tmpfile.Close()

	database, err := db.New(tmpfile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func createSource(t *testing.T, database *db.DB, src *models.Source) *models.Source {
	t.Helper()
	p := &models.Project{Name: fmt.Sprintf("project-%d", time.Now().UnixNano())}
	if err := database.CreateProject(p); err != nil {
		t.Fatal(err)
	}
	src.ProjectID = p.ID
	src.Enabled = true
	if err := database.CreateSource(src); err != nil {
		t.Fatal(err)
	}
	return src
}

const auditCSV = "Time,Operation,User\n" +
	"2024-03-04T09:00:00Z,Deploy,alice\n" +
	"2024-03-04 09:20:00,Restart,bob\n"

func TestParseCSV(t *testing.T) {
	events, err := ParseCSV(strings.NewReader(auditCSV))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	want := "Time: 2024-03-04T09:00:00Z\nOperation: Deploy\nUser: alice"
	if events[0].Text != want {
		t.Errorf("Text = %q, want %q", events[0].Text, want)
	}
	if !events[1].Timestamp.Equal(time.Date(2024, 3, 4, 9, 20, 0, 0, time.UTC)) {
		t.Errorf("Timestamp = %s", events[1].Timestamp)
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing time column", "When,Operation\n2024-03-04,Deploy\n"},
		{"bad time", "Time,Operation\nyesterday,Deploy\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCSV(strings.NewReader(tt.input)); !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("ParseCSV() error = %v, want ErrInvalidInput", err)
			}
		})
	}

	events, err := ParseCSV(strings.NewReader(""))
	if err != nil || len(events) != 0 {
		t.Errorf("empty input = %v, %v", events, err)
	}
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{`<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=5>; rel="last"`, "https://api.github.com/x?page=2"},
		{`<https://api.github.com/x?page=1>; rel="prev", <https://api.github.com/x?page=1>; rel="first"`, ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := nextLink(tt.header); got != tt.want {
			t.Errorf("nextLink(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestGitHubFetcherPaging(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("since"); got != "2024-03-01T00:00:00Z" {
			t.Errorf("since = %q", got)
		}
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"sha":"b","commit":{"message":"Second","author":{"date":"2024-03-04T10:00:00Z"}}}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/commits?page=2&since=2024-03-01T00:00:00Z>; rel="next"`, server.URL))
		fmt.Fprint(w, `[{"sha":"a","commit":{"message":"First","author":{"date":"2024-03-04T09:00:00Z"}}}]`)
	}))
	defer server.Close()

	f := &GitHubFetcher{client: server.Client()}
	events, err := f.FetchEvents(context.Background(), &models.Source{
		ID:       1,
		BaseURL:  server.URL + "/commits",
		APIKey:   "secret",
		LastSync: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if len(events) != 2 || events[0].Text != "First" || events[1].Text != "Second" {
		t.Fatalf("events = %+v", events)
	}
}

func TestGitHubFetcherUnauthorizedIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	f := &GitHubFetcher{client: server.Client()}
	_, err := f.FetchEvents(context.Background(), &models.Source{ID: 1, BaseURL: server.URL})
	if !apperrors.IsGateway(err) || apperrors.IsRetryable(err) {
		t.Errorf("FetchEvents() error = %v, want fatal gateway error", err)
	}
}

func TestOutlookFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/v1.0/users/me@example.com/messages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":[{"id":"1","subject":"Invoice query","bodyPreview":"Can you check",
			"receivedDateTime":"2024-03-04T09:00:00Z",
			"from":{"emailAddress":{"address":"client@example.com"}},
			"toRecipients":[{"emailAddress":{"address":"me@example.com"}}],
			"ccRecipients":[{"emailAddress":{"address":"a@example.com"}},{"emailAddress":{"address":"b@example.com"}}]}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := &models.Source{
		ID:      3,
		Type:    models.SourceOutlook,
		BaseURL: server.URL + "/v1.0",
		Auth: map[string]string{
			"email":         "me@example.com",
			"client_id":     "id",
			"client_secret": "secret",
			"token_url":     server.URL + "/token",
		},
	}
	f, err := NewOutlookFetcher(context.Background(), src)
	if err != nil {
		t.Fatalf("NewOutlookFetcher() error = %v", err)
	}
	events, err := f.FetchEvents(context.Background(), src)
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	want := "Subject: Invoice query\nFrom: client@example.com\nTo: me@example.com\nCC: a@example.com, b@example.com\nBody: Can you check"
	if events[0].Text != want {
		t.Errorf("Text = %q, want %q", events[0].Text, want)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	database := newTestDB(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "audit.csv"), []byte(auditCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	src := createSource(t, database, &models.Source{Type: models.SourceCSV, Auth: map[string]string{"path": dir}})

	imp := New(database, Options{})
	first, err := imp.Sync(context.Background(), src)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if first.Fetched != 2 || first.Inserted != 2 {
		t.Errorf("first sync = %+v, want 2 fetched and inserted", first)
	}

	second, err := imp.Sync(context.Background(), src)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if second.Inserted != 0 {
		t.Errorf("second sync inserted %d, want 0", second.Inserted)
	}
	if first.RunID == second.RunID {
		t.Error("run ids should differ between syncs")
	}

	stored, err := database.GetSource(src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.LastSync.IsZero() {
		t.Error("last_sync was not updated")
	}

	log, err := database.RecentSyncs(src.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 || log[0].Status != "success" {
		t.Errorf("sync log = %+v", log)
	}
}

func TestSyncUnsupportedSourceType(t *testing.T) {
	database := newTestDB(t)
	src := createSource(t, database, &models.Source{Type: models.SourceJira})

	_, err := New(database, Options{}).Sync(context.Background(), src)
	if !errors.Is(err, apperrors.ErrConfiguration) {
		t.Fatalf("Sync() error = %v, want ErrConfiguration", err)
	}

	log, err := database.RecentSyncs(src.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0].Status != "failed" || log[0].Error == "" {
		t.Errorf("sync log = %+v, want one failed row", log)
	}
}

type recordingProgress struct {
	updates  []string
	finished bool
}

func (p *recordingProgress) Update(source, detail string) {
	p.updates = append(p.updates, source+" "+detail)
}

func (p *recordingProgress) Finish() { p.finished = true }

func TestSyncProjectContinuesPastFailures(t *testing.T) {
	database := newTestDB(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "audit.csv"), []byte(auditCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	good := createSource(t, database, &models.Source{Type: models.SourceCSV, Auth: map[string]string{"path": dir}})
	bad := &models.Source{ProjectID: good.ProjectID, Type: models.SourceSlack, Enabled: true}
	if err := database.CreateSource(bad); err != nil {
		t.Fatal(err)
	}

	progress := &recordingProgress{}
	results, err := New(database, Options{}).SyncProject(context.Background(), good.ProjectID, progress)
	if !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("SyncProject() error = %v, want ErrConfiguration", err)
	}
	if len(results) != 1 || results[0].Inserted != 2 {
		t.Errorf("results = %+v", results)
	}
	if len(progress.updates) != 2 || !progress.finished {
		t.Errorf("progress = %+v", progress)
	}
}
