// Package entitlements fetches the authenticated account's plan and feature
// enablement decisions.
package entitlements

import (
	"context"

	"github.com/complypoint/complyctl/pkg/whttp"
)

// Feature is one feature-enablement decision keyed by feature key.
type Feature struct {
	Enabled     bool   `json:"enabled"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MinimumPlan string `json:"minimum_plan"`
}

// Entitlements is the full decision set for one account.
type Entitlements struct {
	Features           map[string]Feature `json:"features"`
	Plan               string             `json:"plan"`
	PlanName           string             `json:"plan_name"`
	SubscriptionStatus string             `json:"subscription_status"`
	IsActive           bool               `json:"is_active"`
}

// Feature returns the metadata for key regardless of enablement, so upgrade
// prompts can name what is gated.
func (e *Entitlements) Feature(key string) (Feature, bool) {
	if e == nil || e.Features == nil {
		return Feature{}, false
	}
	f, ok := e.Features[key]
	return f, ok
}

type Client struct {
	HTTP *whttp.Client
}

// Fetch retrieves the current actor's entitlements. No retries; a failure
// leaves the caller without entitlements and every gate fails closed.
func (c *Client) Fetch(ctx context.Context) (*Entitlements, error) {
	var ents Entitlements
	if err := c.HTTP.GetJSON(ctx, "fetch entitlements", "/entitlements", &ents); err != nil {
		return nil, err
	}
	return &ents, nil
}
