package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complypoint/complyctl/pkg/intake"
	"github.com/complypoint/complyctl/pkg/whttp"
)

// stubBackend satisfies every wizard transition without a server.
type stubBackend struct{}

func (stubBackend) CreateDraft(context.Context, string, []string) (intake.Draft, error) {
	return intake.Draft{DraftID: "drf_1", DraftRef: "CP-0001"}, nil
}

func (stubBackend) UpdateAddons(context.Context, string, []string, *intake.PostalAddress) error {
	return nil
}

func (stubBackend) UpdateClientIdentity(context.Context, string, intake.ClientIdentity) error {
	return nil
}

func (stubBackend) UpdateIntake(context.Context, string, intake.IntakeData) error { return nil }

func (stubBackend) UpdateDeliveryConsent(context.Context, string, intake.ConsentState, *intake.PostalAddress) error {
	return nil
}

func (stubBackend) CalculatePrice(context.Context, string, []string) (intake.PricingQuote, error) {
	return intake.PricingQuote{BasePricePence: 9900, TotalPricePence: 9900}, nil
}

func (stubBackend) ValidateCheckout(context.Context, string) (intake.CheckoutValidation, error) {
	return intake.CheckoutValidation{Valid: true}, nil
}

func (stubBackend) Checkout(context.Context, string) (string, error) {
	return "https://pay.example.com/s1", nil
}

func newTestModel() *Model {
	m := NewModel(intake.NewWizard(stubBackend{}, nil), nil, nil)
	m.services = []intake.ServiceCatalogEntry{
		{ServiceCode: "FIRE_RISK_ASSESSMENT", Name: "Fire Risk Assessment", PriceDisplay: "£99"},
	}
	m.addonOpts = []intake.AddonOption{
		{AddonCode: intake.AddonPrintedCopy, Name: "Printed copy", PriceDisplay: "£15"},
	}
	m.phase = phaseForm
	return m
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBuildStepOneFormAndFocus(t *testing.T) {
	m := newTestModel()

	// Row 0 is the service cycler; focusing it must not touch a textinput.
	m.buildForm()
	require.Len(t, m.form, 2)
	assert.Equal(t, "service", m.form[0].key)
	assert.Equal(t, 0, m.focus)

	// Cycling right selects the first real service.
	m.Update(key(tea.KeyRight))
	require.NotNil(t, m.wizard.Service())
	assert.Equal(t, "FIRE_RISK_ASSESSMENT", m.wizard.Service().ServiceCode)

	// Toggling the printed-copy addon grows the form by the postal rows.
	m.Update(key(tea.KeyTab))
	m.Update(key(tea.KeySpace))
	assert.True(t, m.wizard.AddonSelected(intake.AddonPrintedCopy))
	assert.Len(t, m.form, 7)

	// View renders without a terminal attached.
	assert.NotEmpty(t, m.View())
}

func TestFormKeysDroppedWhileSubmitting(t *testing.T) {
	m := newTestModel()
	m.wizard.SelectService(m.services[0])
	require.NoError(t, m.wizard.Next(context.Background()))
	require.Equal(t, intake.StepClientIdentity, m.wizard.Step())
	m.buildForm()

	m.submitting = true

	// Typing must not reach the wizard mid-transition.
	m.Update(runes("x"))
	assert.Empty(t, m.wizard.Identity().FullName)

	// Neither may stepping back.
	m.Update(key(tea.KeyEsc))
	assert.Equal(t, intake.StepClientIdentity, m.wizard.Step())

	// Nor a second submission.
	_, cmd := m.Update(key(tea.KeyEnter))
	assert.Nil(t, cmd)

	// Once the result lands input flows again.
	m.Update(stepResultMsg{err: nil})
	assert.False(t, m.submitting)
	m.Update(runes("A"))
	assert.Equal(t, "A", m.wizard.Identity().FullName)
}

func TestBootstrapFetchesCatalogOnce(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		switch r.URL.Path {
		case "/intake/services":
			w.Write([]byte(`{
				"services": [{"service_code": "FIRE_RISK_ASSESSMENT", "name": "Fire Risk Assessment"}],
				"addons": [{"addon_code": "PRINTED_COPY", "name": "Printed copy"}]
			}`))
		case "/intake/packs":
			w.Write([]byte(`{"packs": [{"service_code": "DOC_PACK_STANDARD"}]}`))
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	httpClient, err := whttp.NewClient(server.URL, "tok", "")
	require.NoError(t, err)
	m := NewModel(intake.NewWizard(stubBackend{}, nil), &intake.CatalogClient{HTTP: httpClient}, nil)

	msg, ok := m.bootstrap()().(bootstrapMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)

	assert.Len(t, msg.services, 1)
	assert.Len(t, msg.addons, 1)
	assert.Len(t, msg.packs, 1)
	assert.Equal(t, 1, hits["/intake/services"], "catalog endpoint fetched more than once per session")
	assert.Equal(t, 1, hits["/intake/packs"])
}
