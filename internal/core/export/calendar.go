package export

import (
	"context"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/config"
	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/msgraph"
)

const (
	calendarBodyNote = "This meeting was automatically generated by logsheet"
	graphLocalLayout = "2006-01-02T15:04:05"
	defaultWindowsTZ = "AUS Eastern Standard Time"
)

// Calendar creates Outlook calendar events through Microsoft Graph.
type Calendar struct {
	client     *msgraph.Client
	userID     string
	calendarID string
	zoneName   string
	loc        *time.Location
}

// NewCalendar builds a calendar gateway from config. loc is the zone block
// times are rendered in before being tagged with the configured zone name.
func NewCalendar(ctx context.Context, cfg config.CalendarConfig, loc *time.Location) (*Calendar, error) {
	if cfg.UserID == "" {
		return nil, apperrors.Misconfigured("calendar.user_id is required")
	}
	client, err := msgraph.NewClient(ctx, msgraph.Credentials{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return newCalendar(client, cfg, loc), nil
}

func newCalendar(client *msgraph.Client, cfg config.CalendarConfig, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	zone := cfg.TimeZoneName
	if zone == "" {
		zone = defaultWindowsTZ
	}
	return &Calendar{
		client:     client,
		userID:     cfg.UserID,
		calendarID: cfg.CalendarID,
		zoneName:   zone,
		loc:        loc,
	}
}

func (c *Calendar) ExportBlock(ctx context.Context, block *models.EventBlock) error {
	_, err := c.client.CreateEvent(ctx, c.userID, c.calendarID, c.FormatBlock(block))
	return err
}

// FormatBlock renders a block as a Graph event in local wall-clock time.
func (c *Calendar) FormatBlock(block *models.EventBlock) msgraph.Event {
	return msgraph.Event{
		Subject: block.Summary,
		Body: msgraph.ItemBody{
			ContentType: "HTML",
			Content:     calendarBodyNote,
		},
		Start: msgraph.DateTimeTimeZone{
			DateTime: block.Start.In(c.loc).Format(graphLocalLayout),
			TimeZone: c.zoneName,
		},
		End: msgraph.DateTimeTimeZone{
			DateTime: block.End.In(c.loc).Format(graphLocalLayout),
			TimeZone: c.zoneName,
		},
	}
}
