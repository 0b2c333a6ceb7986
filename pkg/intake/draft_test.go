package intake

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complypoint/complyctl/pkg/whttp"
)

func testDraftClient(t *testing.T, handler http.Handler) *DraftClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	httpClient, err := whttp.NewClient(server.URL, "tok", "")
	require.NoError(t, err)
	return &DraftClient{HTTP: httpClient}
}

func TestCreateDraftSendsIdempotencyKey(t *testing.T) {
	var keys []string
	client := testDraftClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/intake/draft", r.URL.Path)
		keys = append(keys, r.Header.Get("Idempotency-Key"))

		var body struct {
			ServiceCode string   `json:"service_code"`
			Addons      []string `json:"addons"`
		}
		payload, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(payload, &body))
		assert.Equal(t, "FIRE_RISK_ASSESSMENT", body.ServiceCode)

		json.NewEncoder(w).Encode(Draft{DraftID: "drf_1", DraftRef: "CP-0001"})
	}))

	ctx := context.Background()
	draft, err := client.CreateDraft(ctx, "FIRE_RISK_ASSESSMENT", []string{"PRINTED_COPY"})
	require.NoError(t, err)
	assert.Equal(t, "drf_1", draft.DraftID)

	_, err = client.CreateDraft(ctx, "FIRE_RISK_ASSESSMENT", nil)
	require.NoError(t, err)

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.NotEmpty(t, keys[1])
	assert.NotEqual(t, keys[0], keys[1], "each create carries its own idempotency key")
}

func TestDraftRoutes(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	client := testDraftClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		switch r.URL.Path {
		case "/intake/calculate-price":
			json.NewEncoder(w).Encode(PricingQuote{BasePricePence: 9900, TotalPricePence: 11400})
		case "/intake/draft/drf_1/checkout/validate":
			json.NewEncoder(w).Encode(CheckoutValidation{Valid: true})
		case "/intake/draft/drf_1/checkout":
			w.Write([]byte(`{"payment_url":"https://pay.example.com/s1"}`))
		}
	}))
	ctx := context.Background()

	require.NoError(t, client.UpdateAddons(ctx, "drf_1", []string{"PRINTED_COPY"}, &PostalAddress{Line1: "1 High St"}))
	require.NoError(t, client.UpdateClientIdentity(ctx, "drf_1", ClientIdentity{FullName: "Alice"}))
	require.NoError(t, client.UpdateIntake(ctx, "drf_1", IntakeData{"property_type": "HMO"}))
	require.NoError(t, client.UpdateDeliveryConsent(ctx, "drf_1", ConsentState{TermsPrivacy: true, AccuracyConfirmation: true}, nil))

	quote, err := client.CalculatePrice(ctx, "FIRE_RISK_ASSESSMENT", []string{"PRINTED_COPY"})
	require.NoError(t, err)
	assert.Equal(t, 11400, quote.TotalPricePence)

	verdict, err := client.ValidateCheckout(ctx, "drf_1")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)

	url, err := client.Checkout(ctx, "drf_1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/s1", url)

	want := []call{
		{http.MethodPut, "/intake/draft/drf_1/addons"},
		{http.MethodPut, "/intake/draft/drf_1/client-identity"},
		{http.MethodPut, "/intake/draft/drf_1/intake"},
		{http.MethodPut, "/intake/draft/drf_1/delivery-consent"},
		{http.MethodPost, "/intake/calculate-price"},
		{http.MethodPost, "/intake/draft/drf_1/checkout/validate"},
		{http.MethodPost, "/intake/draft/drf_1/checkout"},
	}
	assert.Equal(t, want, calls)
}
