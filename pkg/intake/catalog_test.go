package intake

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complypoint/complyctl/pkg/whttp"
)

func TestCatalogFetchesServicesAndAddonsTogether(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/intake/services", r.URL.Path)
		requests++
		w.Write([]byte(`{
			"services": [{"service_code": "FIRE_RISK_ASSESSMENT", "name": "Fire Risk Assessment", "price_display": "£99"}],
			"addons": [{"addon_code": "PRINTED_COPY", "name": "Printed copy", "price_display": "£15"}]
		}`))
	}))
	t.Cleanup(server.Close)

	httpClient, err := whttp.NewClient(server.URL, "tok", "")
	require.NoError(t, err)
	client := &CatalogClient{HTTP: httpClient}

	services, addons, err := client.Catalog(context.Background())
	require.NoError(t, err)

	// One payload serves both lists; the endpoint is hit exactly once.
	assert.Equal(t, 1, requests)
	require.Len(t, services, 1)
	assert.Equal(t, "FIRE_RISK_ASSESSMENT", services[0].ServiceCode)
	require.Len(t, addons, 1)
	assert.Equal(t, AddonPrintedCopy, addons[0].AddonCode)
}
