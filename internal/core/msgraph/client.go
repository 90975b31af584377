package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Somers1/logsheet/internal/core/apperrors"
)

const (
	graphBaseURL = "https://graph.microsoft.com/v1.0"
	graphScope   = "https://graph.microsoft.com/.default"
	pageSize     = 50
)

// Credentials identify an Azure AD application using the client-credentials grant.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// TokenURL overrides the tenant token endpoint.
	TokenURL string
}

func (c Credentials) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return "https://login.microsoftonline.com/" + url.PathEscape(c.TenantID) + "/oauth2/v2.0/token"
}

// Client is an authenticated Microsoft Graph API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Graph client that fetches app-only tokens on demand.
// An empty baseURL means the public v1.0 endpoint.
func NewClient(ctx context.Context, creds Credentials, baseURL string) (*Client, error) {
	if creds.TenantID == "" && creds.TokenURL == "" {
		return nil, apperrors.Misconfigured("graph tenant_id is required")
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, apperrors.Misconfigured("graph client_id and client_secret are required")
	}
	cc := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.tokenURL(),
		Scopes:       []string{graphScope},
	}
	return NewClientWithHTTP(cc.Client(ctx), baseURL), nil
}

// NewClientWithHTTP wraps an already authenticated http.Client.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = graphBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// Message is the subset of a Graph mail message logsheet reads.
type Message struct {
	ID               string      `json:"id"`
	Subject          string      `json:"subject"`
	BodyPreview      string      `json:"bodyPreview"`
	ReceivedDateTime time.Time   `json:"receivedDateTime"`
	From             Recipient   `json:"from"`
	ToRecipients     []Recipient `json:"toRecipients"`
	CcRecipients     []Recipient `json:"ccRecipients"`
}

type messagesResponse struct {
	Value    []Message `json:"value"`
	NextLink string    `json:"@odata.nextLink"`
}

// ListMessages pages through a mailbox, newest first. A zero since fetches
// everything.
func (c *Client) ListMessages(ctx context.Context, user string, since time.Time) ([]Message, error) {
	if user == "" {
		return nil, apperrors.Misconfigured("graph mailbox user is required")
	}

	q := url.Values{}
	q.Set("$select", "subject,receivedDateTime,bodyPreview,from,toRecipients,ccRecipients")
	q.Set("$orderby", "receivedDateTime DESC")
	q.Set("$top", fmt.Sprint(pageSize))
	if !since.IsZero() {
		q.Set("$filter", "receivedDateTime ge "+since.UTC().Format(time.RFC3339))
	}
	endpoint := fmt.Sprintf("%s/users/%s/messages?%s", c.baseURL, url.PathEscape(user), q.Encode())

	var all []Message
	for endpoint != "" {
		var page messagesResponse
		if err := c.do(ctx, "graph list messages", http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Value...)
		endpoint = page.NextLink
	}
	return all, nil
}

// DateTimeTimeZone is Graph's wall-clock time plus a zone name.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Event is a Graph calendar event.
type Event struct {
	ID      string           `json:"id,omitempty"`
	Subject string           `json:"subject"`
	Body    ItemBody         `json:"body"`
	Start   DateTimeTimeZone `json:"start"`
	End     DateTimeTimeZone `json:"end"`
}

// CreateEvent adds ev to a user's calendar, or to the default calendar when
// calendarID is empty.
func (c *Client) CreateEvent(ctx context.Context, user, calendarID string, ev Event) (*Event, error) {
	if user == "" {
		return nil, apperrors.Misconfigured("graph calendar user is required")
	}
	endpoint := fmt.Sprintf("%s/users/%s/events", c.baseURL, url.PathEscape(user))
	if calendarID != "" {
		endpoint = fmt.Sprintf("%s/users/%s/calendars/%s/events", c.baseURL, url.PathEscape(user), url.PathEscape(calendarID))
	}

	var created Event
	if err := c.do(ctx, "graph create event", http.MethodPost, endpoint, ev, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, in, out interface{}) error {
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
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return apperrors.Retryable(op, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StatusError(op, resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Fatal(op, fmt.Errorf("decoding graph response: %w", err))
	}
	return nil
}

// StatusError classifies a non-2xx response: throttling and server errors
// are retryable, everything else is fatal.
func StatusError(op string, code int, body []byte) error {
	err := fmt.Errorf("graph API error %d: %s", code, strings.TrimSpace(string(body)))
	if code == http.StatusTooManyRequests || code >= 500 {
		return apperrors.Retryable(op, err)
	}
	return apperrors.Fatal(op, err)
}

func transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return apperrors.Fatal(op, err)
	}
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		if tokenErr.Response != nil && tokenErr.Response.StatusCode >= 500 {
			return apperrors.Retryable(op, err)
		}
		return apperrors.Fatal(op, fmt.Errorf("acquiring token: %w", err))
	}
	return apperrors.Retryable(op, err)
}
