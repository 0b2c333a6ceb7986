// Package intake implements the service-intake workflow: the catalog and
// schema clients, the draft/pricing/checkout client, and the five-step wizard
// state machine that drives them.
package intake

import (
	"context"

	"github.com/complypoint/complyctl/pkg/whttp"
)

// AddonPrintedCopy is the addon that makes the postal address mandatory.
// Removing it clears the address; dependent data never outlives its
// precondition.
const AddonPrintedCopy = "PRINTED_COPY"

// ServiceCatalogEntry is one orderable service. Immutable; fetched once per
// wizard session.
type ServiceCatalogEntry struct {
	ServiceCode  string `json:"service_code"`
	Category     string `json:"category"`
	Name         string `json:"name"`
	PriceDisplay string `json:"price_display"`
}

// AddonOption is an optional extra applicable to a service.
type AddonOption struct {
	AddonCode    string `json:"addon_code"`
	Name         string `json:"name"`
	PriceDisplay string `json:"price_display"`
	Description  string `json:"description"`
}

// Pack describes a document-pack service's constraints: which documents can
// be selected and which variants exist. Checkout re-validates against these
// server-side.
type Pack struct {
	ServiceCode string   `json:"service_code"`
	Documents   []string `json:"documents"`
	Variants    []string `json:"variants"`
}

// AddonPrice is one priced line of a quote.
type AddonPrice struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	PricePence int    `json:"price_pence"`
}

// PricingQuote is the backend-computed price for the current selection,
// recomputed after every step that can affect price.
type PricingQuote struct {
	BasePricePence  int          `json:"base_price_pence"`
	Addons          []AddonPrice `json:"addons"`
	TotalPricePence int          `json:"total_price_pence"`
}

type CatalogClient struct {
	HTTP *whttp.Client
}

// Catalog fetches the orderable services and their addon options. The
// endpoint serves both in one payload and is hit once per wizard session.
func (c *CatalogClient) Catalog(ctx context.Context) ([]ServiceCatalogEntry, []AddonOption, error) {
	var out struct {
		Services []ServiceCatalogEntry `json:"services"`
		Addons   []AddonOption         `json:"addons"`
	}
	if err := c.HTTP.GetJSON(ctx, "fetch service catalog", "/intake/services", &out); err != nil {
		return nil, nil, err
	}
	return out.Services, out.Addons, nil
}

func (c *CatalogClient) Packs(ctx context.Context) ([]Pack, error) {
	var out struct {
		Packs []Pack `json:"packs"`
	}
	if err := c.HTTP.GetJSON(ctx, "fetch packs", "/intake/packs", &out); err != nil {
		return nil, err
	}
	return out.Packs, nil
}

// Schema fetches the per-service intake field schema. Called on service
// selection; the step-3 form is rendered entirely from this.
func (c *CatalogClient) Schema(ctx context.Context, serviceCode string) (*ServiceSchema, error) {
	var s ServiceSchema
	if err := c.HTTP.GetJSON(ctx, "fetch intake schema", "/intake/schema/"+serviceCode, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
