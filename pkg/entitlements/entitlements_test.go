package entitlements

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/complypoint/complyctl/pkg/apierr"
	"github.com/complypoint/complyctl/pkg/whttp"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entitlements" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"plan": "starter",
			"plan_name": "Starter",
			"subscription_status": "active",
			"is_active": true,
			"features": {
				"reports.scheduling": {"enabled": false, "name": "Scheduled reports", "minimum_plan": "pro"},
				"cms.admin": {"enabled": true, "name": "Site builder"}
			}
		}`))
	}))
	defer server.Close()

	httpClient, err := whttp.NewClient(server.URL, "tok", "")
	if err != nil {
		t.Fatal(err)
	}
	ents, err := (&Client{HTTP: httpClient}).Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if ents.Plan != "starter" || !ents.IsActive {
		t.Errorf("ents = %+v", ents)
	}
	f, ok := ents.Feature("reports.scheduling")
	if !ok || f.Enabled || f.MinimumPlan != "pro" {
		t.Errorf("feature = %+v ok=%v", f, ok)
	}
}

func TestFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	httpClient, _ := whttp.NewClient(server.URL, "tok", "")
	ents, err := (&Client{HTTP: httpClient}).Fetch(context.Background())
	if ents != nil {
		t.Error("entitlements returned on failure")
	}
	var netErr *apierr.NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("got %T: %v", err, err)
	}
}

func TestFeatureNilReceiver(t *testing.T) {
	var e *Entitlements
	if _, ok := e.Feature("anything"); ok {
		t.Error("nil entitlements reported a feature")
	}
}
