package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/msgraph"
)

// OutlookFetcher reads a mailbox through Microsoft Graph. The source's auth
// settings carry tenant_id, client_id, client_secret and email.
type OutlookFetcher struct {
	client  *msgraph.Client
	mailbox string
}

func NewOutlookFetcher(ctx context.Context, source *models.Source) (*OutlookFetcher, error) {
	mailbox := source.Auth["email"]
	if mailbox == "" {
		return nil, apperrors.Misconfigured("outlook source %d has no email", source.ID)
	}
	client, err := msgraph.NewClient(ctx, msgraph.Credentials{
		TenantID:     source.Auth["tenant_id"],
		ClientID:     source.Auth["client_id"],
		ClientSecret: source.Auth["client_secret"],
		TokenURL:     source.Auth["token_url"],
	}, source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("outlook source %d: %w", source.ID, err)
	}
	return &OutlookFetcher{client: client, mailbox: mailbox}, nil
}

func (f *OutlookFetcher) FetchEvents(ctx context.Context, source *models.Source) ([]RawEvent, error) {
	messages, err := f.client.ListMessages(ctx, f.mailbox, source.LastSync)
	if err != nil {
		return nil, err
	}

	events := make([]RawEvent, 0, len(messages))
	for _, m := range messages {
		events = append(events, RawEvent{Timestamp: m.ReceivedDateTime, Text: messageText(m)})
	}
	return events, nil
}

func messageText(m msgraph.Message) string {
	return fmt.Sprintf("Subject: %s\nFrom: %s\nTo: %s\nCC: %s\nBody: %s",
		m.Subject,
		m.From.EmailAddress.Address,
		addresses(m.ToRecipients),
		addresses(m.CcRecipients),
		m.BodyPreview,
	)
}

func addresses(recipients []msgraph.Recipient) string {
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, r.EmailAddress.Address)
	}
	return strings.Join(out, ", ")
}
