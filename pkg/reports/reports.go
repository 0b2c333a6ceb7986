// Package reports drives the reporting surface: available report definitions,
// filtered downloads (flat CSV or client-assembled PDF) and schedule CRUD.
package reports

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/complypoint/complyctl/internal/utils"
	"github.com/complypoint/complyctl/pkg/whttp"
)

const (
	FormatCSV = "csv"
	FormatPDF = "pdf"

	// Report types with type-specific filter behaviour.
	TypeAuditLog     = "audit_log"
	TypeRequirements = "requirements"
)

// Definition is one downloadable report as advertised by the backend.
type Definition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Formats  []string `json:"formats"`
	Endpoint string   `json:"endpoint"`
}

// Filters is the client-side filter selection. Only the filters applicable to
// the report type are sent: date range for audit-log reports, property for
// requirements reports.
type Filters struct {
	Format     string
	PropertyID string
	StartDate  string
	EndDate    string
}

type Client struct {
	HTTP *whttp.Client
}

// Available lists the report definitions the account can generate.
func (c *Client) Available(ctx context.Context) ([]Definition, error) {
	var out struct {
		Reports []Definition `json:"reports"`
	}
	if err := c.HTTP.GetJSON(ctx, "list reports", "/reports/available", &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

// query builds the request query string, honouring only the filters that apply
// to the report type.
func query(def Definition, f Filters) string {
	v := url.Values{}
	v.Set("format", f.Format)
	if def.Type == TypeRequirements && f.PropertyID != "" {
		v.Set("property_id", f.PropertyID)
	}
	if def.Type == TypeAuditLog {
		if f.StartDate != "" {
			v.Set("start_date", f.StartDate)
		}
		if f.EndDate != "" {
			v.Set("end_date", f.EndDate)
		}
	}
	return v.Encode()
}

// fallbackFilename is the deterministic name used when the backend sends no
// usable Content-Disposition.
func fallbackFilename(def Definition, format string, now time.Time) string {
	return fmt.Sprintf("report_%s_%s.%s", def.ID, now.Format("2006-01-02"), format)
}

func filenameFromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return filepath.Base(params["filename"])
}

// Download fetches the report and writes it under outDir, returning the file
// path. CSV is saved as received; PDF is assembled client-side from the JSON
// source data. Error classification is the caller's job: a PlanGateDenied
// must reach an upgrade prompt, everything else a generic failure.
func (c *Client) Download(ctx context.Context, def Definition, f Filters, outDir string) (string, error) {
	switch f.Format {
	case FormatCSV:
		return c.downloadFlat(ctx, def, f, outDir)
	case FormatPDF:
		return c.assemblePDF(ctx, def, f, outDir)
	default:
		return "", fmt.Errorf("unsupported report format: %s", f.Format)
	}
}

func (c *Client) downloadFlat(ctx context.Context, def Definition, f Filters, outDir string) (string, error) {
	op := "download report " + def.ID
	res, err := c.HTTP.Do(ctx, op, &whttp.WHTTPReq{
		Method: http.MethodGet,
		URL:    def.Endpoint + "?" + query(def, f),
	})
	if err != nil {
		return "", err
	}

	name := filenameFromDisposition(res.Disposition)
	if name == "" || name == "." || name == string(os.PathSeparator) {
		name = fallbackFilename(def, f.Format, time.Now())
	}
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, res.BodyBytes, 0o644); err != nil {
		return "", fmt.Errorf("%s: save: %w", op, err)
	}
	utils.Log.Debug("Saved report to ", path)
	return path, nil
}
