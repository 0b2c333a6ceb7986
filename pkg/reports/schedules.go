package reports

import (
	"context"
	"fmt"
	"net/http"

	"github.com/complypoint/complyctl/internal/utils"
)

// Schedule is a recurring report delivery.
type Schedule struct {
	ID         string   `json:"id"`
	ReportID   string   `json:"report_id"`
	Format     string   `json:"format"`
	Cadence    string   `json:"cadence"`
	Recipients []string `json:"recipients"`
	Active     bool     `json:"active"`
}

// CreateScheduleInput carries everything the backend needs for a new schedule.
// Recipients may be nil, meaning "deliver to the account email".
type CreateScheduleInput struct {
	ReportID   string   `json:"report_id"`
	Format     string   `json:"format"`
	Cadence    string   `json:"cadence"`
	Recipients []string `json:"recipients"`
}

// Schedules lists the account's report schedules.
func (c *Client) Schedules(ctx context.Context) ([]Schedule, error) {
	var out struct {
		Schedules []Schedule `json:"schedules"`
	}
	if err := c.HTTP.GetJSON(ctx, "list schedules", "/reports/schedules", &out); err != nil {
		return nil, err
	}
	return out.Schedules, nil
}

// NormalizeRecipients filters blanks and rejects anything that does not look
// like an address. An empty result normalizes to nil so the backend falls back
// to the account email.
func NormalizeRecipients(recipients []string) ([]string, error) {
	filtered := utils.FilterNonEmpty(recipients)
	for _, r := range filtered {
		if !utils.IsEmail(r) {
			return nil, fmt.Errorf("invalid recipient: %s", r)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}
	return filtered, nil
}

// CreateSchedule validates recipients and creates the schedule. The caller
// must refetch afterwards; mutations are never patched into local state.
func (c *Client) CreateSchedule(ctx context.Context, in CreateScheduleInput) error {
	recipients, err := NormalizeRecipients(in.Recipients)
	if err != nil {
		return err
	}
	in.Recipients = recipients
	return c.HTTP.SendJSON(ctx, "create schedule", http.MethodPost, "/reports/schedules", in, nil)
}

// ToggleSchedule flips a schedule between active and paused.
func (c *Client) ToggleSchedule(ctx context.Context, id string, active bool) error {
	body := struct {
		Active bool `json:"active"`
	}{Active: active}
	return c.HTTP.SendJSON(ctx, "toggle schedule", http.MethodPatch, "/reports/schedules/"+id, body, nil)
}

// DeleteSchedule removes a schedule. Destructive: callers gate this behind an
// explicit confirmation before the request is ever issued.
func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	return c.HTTP.SendJSON(ctx, "delete schedule", http.MethodDelete, "/reports/schedules/"+id, nil, nil)
}
