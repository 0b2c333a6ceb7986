package intake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complypoint/complyctl/pkg/apierr"
)

// fakeBackend records calls and lets tests fail specific operations.
type fakeBackend struct {
	draftsCreated   int
	addonUpdates    int
	identityUpdates int
	intakeUpdates   int
	consentUpdates  int
	priceCalls      int
	validateCalls   int
	checkoutCalls   int
	lastAddons      []string
	lastPostal      *PostalAddress
	lastConsentPost *PostalAddress
	failPrice       error
	failIdentity    error
	verdict         CheckoutValidation
	failCheckout    error
}

func (b *fakeBackend) CreateDraft(ctx context.Context, serviceCode string, addons []string) (Draft, error) {
	b.draftsCreated++
	b.lastAddons = addons
	return Draft{DraftID: "drf_1", DraftRef: "CP-0001"}, nil
}

func (b *fakeBackend) UpdateAddons(ctx context.Context, draftID string, addons []string, postal *PostalAddress) error {
	b.addonUpdates++
	b.lastAddons = addons
	b.lastPostal = postal
	return nil
}

func (b *fakeBackend) UpdateClientIdentity(ctx context.Context, draftID string, identity ClientIdentity) error {
	b.identityUpdates++
	return b.failIdentity
}

func (b *fakeBackend) UpdateIntake(ctx context.Context, draftID string, data IntakeData) error {
	b.intakeUpdates++
	return nil
}

func (b *fakeBackend) UpdateDeliveryConsent(ctx context.Context, draftID string, consent ConsentState, postal *PostalAddress) error {
	b.consentUpdates++
	b.lastConsentPost = postal
	return nil
}

func (b *fakeBackend) CalculatePrice(ctx context.Context, serviceCode string, addons []string) (PricingQuote, error) {
	b.priceCalls++
	if b.failPrice != nil {
		return PricingQuote{}, b.failPrice
	}
	total := 9900
	for range addons {
		total += 1500
	}
	return PricingQuote{BasePricePence: 9900, TotalPricePence: total}, nil
}

func (b *fakeBackend) ValidateCheckout(ctx context.Context, draftID string) (CheckoutValidation, error) {
	b.validateCalls++
	return b.verdict, nil
}

func (b *fakeBackend) Checkout(ctx context.Context, draftID string) (string, error) {
	b.checkoutCalls++
	if b.failCheckout != nil {
		return "", b.failCheckout
	}
	return "https://pay.example.com/sess_1", nil
}

type fakeStore struct {
	saves   []Snapshot
	cleared bool
}

func (s *fakeStore) Save(snap Snapshot) error {
	s.saves = append(s.saves, snap)
	s.cleared = false
	return nil
}

func (s *fakeStore) Clear() error {
	s.cleared = true
	return nil
}

var testService = ServiceCatalogEntry{ServiceCode: "FIRE_RISK_ASSESSMENT", Name: "Fire Risk Assessment"}

func validIdentity() ClientIdentity {
	return ClientIdentity{
		FullName: "Alice Example",
		Email:    "alice@example.com",
		Phone:    "07123456789",
		Role:     "Landlord",
	}
}

func advanceToStep2(t *testing.T, w *Wizard) {
	t.Helper()
	w.SelectService(testService)
	require.NoError(t, w.Next(context.Background()))
	require.Equal(t, StepClientIdentity, w.Step())
}

func TestNextWithoutServiceIsValidationError(t *testing.T) {
	w := NewWizard(&fakeBackend{}, nil)

	err := w.Next(context.Background())
	var vErr *apierr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "service")
	assert.Equal(t, StepSelectService, w.Step())
}

func TestDraftCreatedAtMostOnce(t *testing.T) {
	backend := &fakeBackend{}
	w := NewWizard(backend, nil)
	ctx := context.Background()

	advanceToStep2(t, w)
	require.Equal(t, 1, backend.draftsCreated)
	require.Equal(t, "drf_1", w.Draft().DraftID)

	// Going back and forward again must update, not re-create.
	w.Prev()
	require.Equal(t, StepSelectService, w.Step())
	w.ToggleAddon("EXPRESS")
	require.NoError(t, w.Next(ctx))

	assert.Equal(t, 1, backend.draftsCreated)
	assert.Equal(t, 1, backend.addonUpdates)
	assert.Equal(t, []string{"EXPRESS"}, backend.lastAddons)
}

func TestPrintedCopyRequiresPostalAddress(t *testing.T) {
	w := NewWizard(&fakeBackend{}, nil)
	w.SelectService(testService)
	w.ToggleAddon(AddonPrintedCopy)

	err := w.Next(context.Background())
	var vErr *apierr.ValidationError
	require.ErrorAs(t, err, &vErr)
	for _, key := range []string{"postal_line1", "postal_line2", "postal_city", "postal_postcode", "postal_country"} {
		assert.Contains(t, vErr.Fields, key)
	}

	w.SetPostal(PostalAddress{
		Line1: "1 High St", Line2: "Flat 2", City: "Leeds", Postcode: "LS1 1AA", Country: "GB",
	})
	require.NoError(t, w.Next(context.Background()))
}

func TestDeselectingPrintedCopyClearsPostal(t *testing.T) {
	w := NewWizard(&fakeBackend{}, nil)
	w.SelectService(testService)
	w.ToggleAddon(AddonPrintedCopy)
	w.SetPostal(PostalAddress{Line1: "1 High St", Line2: "Flat 2", City: "Leeds", Postcode: "LS1 1AA", Country: "GB"})

	w.ToggleAddon(AddonPrintedCopy)

	assert.True(t, w.Postal().Empty(), "postal address must be dropped with its addon")
	// Reselecting starts from a blank address.
	w.ToggleAddon(AddonPrintedCopy)
	assert.True(t, w.Postal().Empty())
}

func TestRoleOtherRequiresFreeText(t *testing.T) {
	backend := &fakeBackend{}
	w := NewWizard(backend, nil)
	advanceToStep2(t, w)

	id := validIdentity()
	id.Role = "Other"
	w.SetIdentity(id)

	err := w.Next(context.Background())
	var vErr *apierr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "role_other_text")
	assert.Len(t, vErr.Fields, 1)

	id.RoleOtherText = "Letting agent"
	w.SetIdentity(id)
	require.NoError(t, w.Next(context.Background()))
	assert.Equal(t, StepServiceFields, w.Step())
}

func TestInvalidEmailRejected(t *testing.T) {
	w := NewWizard(&fakeBackend{}, nil)
	advanceToStep2(t, w)

	id := validIdentity()
	id.Email = "not-an-email"
	w.SetIdentity(id)

	err := w.Next(context.Background())
	var vErr *apierr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "email")
}

func TestPricingFailureLeavesStateUntouched(t *testing.T) {
	backend := &fakeBackend{}
	w := NewWizard(backend, nil)
	ctx := context.Background()

	advanceToStep2(t, w)
	firstQuote := w.Quote()
	require.NotNil(t, firstQuote)

	w.SetIdentity(validIdentity())
	backend.failPrice = &apierr.NetworkError{Op: "calculate price", StatusCode: 502}

	err := w.Next(ctx)
	require.Error(t, err)

	// No advance, identity side effect already ran, old quote retained.
	assert.Equal(t, StepClientIdentity, w.Step())
	assert.Same(t, firstQuote, w.Quote())
	assert.Equal(t, "drf_1", w.Draft().DraftID, "draft id survives a failed transition")

	backend.failPrice = nil
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepServiceFields, w.Step())
}

func TestSnapshotPersistedOnlyMidFlow(t *testing.T) {
	store := &fakeStore{}
	backend := &fakeBackend{}
	w := NewWizard(backend, store)
	ctx := context.Background()

	// Step 1 edits are not persisted; nothing has been committed yet.
	w.SelectService(testService)
	w.ToggleAddon("EXPRESS")
	assert.Empty(t, store.saves)

	require.NoError(t, w.Next(ctx))
	require.NotEmpty(t, store.saves)
	last := store.saves[len(store.saves)-1]
	assert.Equal(t, 2, last.CurrentStep)
	assert.Equal(t, testService.ServiceCode, last.ServiceCode)
	assert.Equal(t, "drf_1", last.DraftID)
	assert.False(t, last.SavedAt.IsZero())

	w.SetIdentity(validIdentity())
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))
	require.Equal(t, StepReview, w.Step())

	w.SetConsent(ConsentState{TermsPrivacy: true, AccuracyConfirmation: true})
	require.NoError(t, w.Next(ctx))
	require.Equal(t, StepPayment, w.Step())

	// The snapshot is gone before the payment handoff, so a completed order
	// can never be offered for resume.
	assert.True(t, store.cleared)
	assert.NotEmpty(t, w.PaymentURL())
}

func TestPackCheckoutValidation(t *testing.T) {
	backend := &fakeBackend{
		verdict: CheckoutValidation{
			Valid:    false,
			Errors:   []string{"Select at least one document"},
			Warnings: []string{"Variant B is being retired"},
		},
	}
	w := NewWizard(backend, nil)
	w.SetPacks([]Pack{{ServiceCode: "DOC_PACK_STANDARD"}})
	ctx := context.Background()

	w.SelectService(ServiceCatalogEntry{ServiceCode: "DOC_PACK_STANDARD", Name: "Document pack"})
	require.NoError(t, w.Next(ctx))
	w.SetIdentity(validIdentity())
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))
	w.SetConsent(ConsentState{TermsPrivacy: true, AccuracyConfirmation: true})

	err := w.Next(ctx)
	var blocked *CheckoutBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, []string{"Select at least one document"}, blocked.Errors)
	assert.Equal(t, []string{"Variant B is being retired"}, blocked.Warnings)
	assert.Equal(t, StepReview, w.Step())
	assert.Zero(t, backend.checkoutCalls, "checkout must not run after a blocked validation")

	// Once the backend is satisfied the same transition goes through.
	backend.verdict = CheckoutValidation{Valid: true, Warnings: []string{"Variant B is being retired"}}
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepPayment, w.Step())
	assert.Equal(t, []string{"Variant B is being retired"}, w.CheckoutWarnings())
}

func TestNonPackSkipsCheckoutValidation(t *testing.T) {
	backend := &fakeBackend{}
	w := NewWizard(backend, nil)
	w.SetPacks([]Pack{{ServiceCode: "DOC_PACK_STANDARD"}})
	ctx := context.Background()

	w.SelectService(testService)
	require.NoError(t, w.Next(ctx))
	w.SetIdentity(validIdentity())
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))
	w.SetConsent(ConsentState{TermsPrivacy: true, AccuracyConfirmation: true})
	require.NoError(t, w.Next(ctx))

	assert.Zero(t, backend.validateCalls)
	assert.Equal(t, 1, backend.checkoutCalls)
}

func TestPriceRecalculatedOnEachForwardTransition(t *testing.T) {
	backend := &fakeBackend{}
	w := NewWizard(backend, nil)
	ctx := context.Background()

	w.SelectService(testService)
	require.NoError(t, w.Next(ctx))
	w.SetIdentity(validIdentity())
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))

	// Steps 1, 2 and 3 each trigger a recalculation; review does not.
	assert.Equal(t, 3, backend.priceCalls)
	w.SetConsent(ConsentState{TermsPrivacy: true, AccuracyConfirmation: true})
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, 3, backend.priceCalls)
}

func TestServiceChangeResetsIntakeAnswers(t *testing.T) {
	w := NewWizard(&fakeBackend{}, nil)
	w.SelectService(testService)
	w.SetSchema(&ServiceSchema{ServiceCode: testService.ServiceCode})
	w.SetIntakeField("property_type", "HMO")

	// Same service again keeps the answers.
	w.SelectService(testService)
	assert.Equal(t, "HMO", w.Intake()["property_type"])

	w.SelectService(ServiceCatalogEntry{ServiceCode: "GAS_SAFETY_CHECK"})
	assert.Empty(t, w.Intake())
	assert.Nil(t, w.Schema())
}

func TestPrevClampedAtFirstStep(t *testing.T) {
	w := NewWizard(&fakeBackend{}, nil)
	w.Prev()
	assert.Equal(t, StepSelectService, w.Step())
}

func TestStepValidationSkippedWithoutSchema(t *testing.T) {
	// Schema fetch can fail without stranding the user; the backend still
	// validates on its side.
	backend := &fakeBackend{}
	w := NewWizard(backend, nil)
	ctx := context.Background()

	w.SelectService(testService)
	require.NoError(t, w.Next(ctx))
	w.SetIdentity(validIdentity())
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepReview, w.Step())
	assert.Equal(t, 1, backend.intakeUpdates)
}

func TestRestore(t *testing.T) {
	catalog := []ServiceCatalogEntry{testService}
	snap := Snapshot{
		CurrentStep: 3,
		ServiceCode: testService.ServiceCode,
		Addons:      []string{AddonPrintedCopy},
		Client:      validIdentity(),
		Intake:      IntakeData{"property_type": "HMO"},
		Postal:      PostalAddress{Line1: "1 High St", Line2: "Flat 2", City: "Leeds", Postcode: "LS1 1AA", Country: "GB"},
		DraftID:     "drf_9",
		SavedAt:     time.Now(),
	}

	w := NewWizard(&fakeBackend{}, nil)
	require.NoError(t, w.Restore(snap, catalog))

	assert.Equal(t, StepServiceFields, w.Step())
	assert.Equal(t, "drf_9", w.Draft().DraftID)
	assert.True(t, w.AddonSelected(AddonPrintedCopy))
	assert.Equal(t, "HMO", w.Intake()["property_type"])
	assert.Equal(t, "1 High St", w.Postal().Line1)
}

func TestRestoreRefusesCompletedSnapshot(t *testing.T) {
	w := NewWizard(&fakeBackend{}, nil)
	err := w.Restore(Snapshot{CurrentStep: 5}, nil)
	require.Error(t, err)
	assert.Equal(t, StepSelectService, w.Step())
}

func TestRestoreFailsWhenServiceGone(t *testing.T) {
	w := NewWizard(&fakeBackend{}, nil)
	err := w.Restore(Snapshot{CurrentStep: 2, ServiceCode: "RETIRED_SERVICE"}, []ServiceCatalogEntry{testService})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no longer available")
}
