package intake

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/complypoint/complyctl/internal/utils"
	"github.com/complypoint/complyctl/pkg/apierr"
)

// Step is the wizard position. Steps advance one at a time; forward moves are
// validated and side-effecting, backward moves are free.
type Step int

const (
	StepSelectService  Step = 1
	StepClientIdentity Step = 2
	StepServiceFields  Step = 3
	StepReview         Step = 4
	StepPayment        Step = 5
)

func (s Step) String() string {
	switch s {
	case StepSelectService:
		return "Select service"
	case StepClientIdentity:
		return "Your details"
	case StepServiceFields:
		return "Service information"
	case StepReview:
		return "Review & consent"
	case StepPayment:
		return "Payment"
	default:
		return fmt.Sprintf("Step %d", int(s))
	}
}

// Snapshot is the locally persisted copy of in-progress wizard state, used to
// offer recovery after an interrupted session.
type Snapshot struct {
	CurrentStep int            `json:"currentStep"`
	ServiceCode string         `json:"selected_service_code"`
	Addons      []string       `json:"selectedAddons"`
	Client      ClientIdentity `json:"clientData"`
	Intake      IntakeData     `json:"intakeData"`
	Consent     ConsentState   `json:"consent"`
	Postal      PostalAddress  `json:"postalAddress"`
	DraftID     string         `json:"draftId"`
	SavedAt     time.Time      `json:"savedAt"`
}

// SnapshotStore persists at most one snapshot. Implementations decide the
// medium; the wizard only needs save and clear.
type SnapshotStore interface {
	Save(snap Snapshot) error
	Clear() error
}

// CheckoutBlockedError reports a non-valid checkout validation: every backend
// error plus any advisory warnings. Errors block checkout; warnings don't.
type CheckoutBlockedError struct {
	Errors   []string
	Warnings []string
}

func (e *CheckoutBlockedError) Error() string {
	return "checkout blocked: " + strings.Join(e.Errors, "; ")
}

// Wizard is the five-step intake state machine. It owns the in-progress order
// state and drives the backend; it does no terminal I/O of its own. All
// mutation goes through its methods from a single goroutine (the UI event
// loop), which is the concurrency discipline this workflow relies on.
type Wizard struct {
	backend Backend
	store   SnapshotStore
	now     func() time.Time

	step     Step
	service  *ServiceCatalogEntry
	schema   *ServiceSchema
	packs    map[string]bool
	addons   map[string]bool
	postal   PostalAddress
	identity ClientIdentity
	intake   IntakeData
	consent  ConsentState
	draft    Draft
	quote    *PricingQuote

	paymentURL       string
	checkoutWarnings []string
}

// NewWizard builds a wizard at step 1. store may be nil when recovery is not
// wanted (tests, one-shot scripted runs).
func NewWizard(backend Backend, store SnapshotStore) *Wizard {
	return &Wizard{
		backend: backend,
		store:   store,
		now:     time.Now,
		step:    StepSelectService,
		addons:  map[string]bool{},
		intake:  IntakeData{},
	}
}

func (w *Wizard) Step() Step                    { return w.step }
func (w *Wizard) Service() *ServiceCatalogEntry { return w.service }
func (w *Wizard) Schema() *ServiceSchema        { return w.schema }
func (w *Wizard) Identity() ClientIdentity      { return w.identity }
func (w *Wizard) Postal() PostalAddress         { return w.postal }
func (w *Wizard) Consent() ConsentState         { return w.consent }
func (w *Wizard) Intake() IntakeData            { return w.intake }
func (w *Wizard) Draft() Draft                  { return w.draft }
func (w *Wizard) Quote() *PricingQuote          { return w.quote }
func (w *Wizard) PaymentURL() string            { return w.paymentURL }
func (w *Wizard) CheckoutWarnings() []string    { return w.checkoutWarnings }

func (w *Wizard) AddonSelected(code string) bool { return w.addons[code] }

// SelectedAddons returns the addon codes in stable order.
func (w *Wizard) SelectedAddons() []string {
	var out []string
	for code, on := range w.addons {
		if on {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// SetPacks records which service codes are document packs; checkout for these
// is validated against the backend before a payment session is created.
func (w *Wizard) SetPacks(packs []Pack) {
	w.packs = make(map[string]bool, len(packs))
	for _, p := range packs {
		w.packs[p.ServiceCode] = true
	}
}

// SelectService picks the service for the order. The per-service schema is
// fetched by the caller and attached with SetSchema.
func (w *Wizard) SelectService(entry ServiceCatalogEntry) {
	if w.service == nil || w.service.ServiceCode != entry.ServiceCode {
		// Intake answers belong to the schema of the previous service.
		w.intake = IntakeData{}
		w.schema = nil
	}
	w.service = &entry
	w.persist()
}

func (w *Wizard) SetSchema(schema *ServiceSchema) {
	w.schema = schema
}

// ToggleAddon flips an addon. Deselecting the printed-copy addon clears the
// postal address: dependent data is dropped the moment its precondition goes.
func (w *Wizard) ToggleAddon(code string) {
	w.addons[code] = !w.addons[code]
	if code == AddonPrintedCopy && !w.addons[code] {
		w.postal = PostalAddress{}
	}
	w.persist()
}

func (w *Wizard) SetPostal(p PostalAddress) {
	w.postal = p
	w.persist()
}

func (w *Wizard) SetIdentity(id ClientIdentity) {
	w.identity = id
	w.persist()
}

func (w *Wizard) SetIntakeField(key string, value interface{}) {
	w.intake[key] = value
	w.persist()
}

func (w *Wizard) SetConsent(c ConsentState) {
	w.consent = c
	w.persist()
}

// Prev steps backward: no validation, no network call, clamped at step 1.
func (w *Wizard) Prev() {
	if w.step > StepSelectService {
		w.step--
		w.persist()
	}
}

// Next validates the current step, performs its side effect, recomputes the
// price where the step can affect it, and advances. Any failure leaves the
// wizard exactly where it was: the step does not advance and previously held
// values (including the last good quote) are kept.
func (w *Wizard) Next(ctx context.Context) error {
	if w.step >= StepPayment {
		return nil
	}

	if errs := w.validateStep(); len(errs) > 0 {
		return &apierr.ValidationError{Op: w.step.String(), Fields: errs}
	}

	switch w.step {
	case StepSelectService:
		if err := w.saveSelection(ctx); err != nil {
			return err
		}
	case StepClientIdentity:
		if err := w.backend.UpdateClientIdentity(ctx, w.draft.DraftID, w.identity); err != nil {
			return err
		}
	case StepServiceFields:
		if err := w.backend.UpdateIntake(ctx, w.draft.DraftID, w.intake); err != nil {
			return err
		}
	case StepReview:
		return w.completeReview(ctx)
	}

	quote, err := w.backend.CalculatePrice(ctx, w.service.ServiceCode, w.SelectedAddons())
	if err != nil {
		return err
	}
	w.quote = &quote

	w.step++
	w.persist()
	return nil
}

// saveSelection creates the draft on the first pass through step 1 and
// updates it on later passes. Creation happens at most once per wizard
// instance; every subsequent step addresses the same draft id.
func (w *Wizard) saveSelection(ctx context.Context) error {
	if w.draft.DraftID == "" {
		draft, err := w.backend.CreateDraft(ctx, w.service.ServiceCode, w.SelectedAddons())
		if err != nil {
			return err
		}
		w.draft = draft
		utils.Log.Debug("Created draft ", draft.DraftRef)
		return nil
	}
	return w.backend.UpdateAddons(ctx, w.draft.DraftID, w.SelectedAddons(), w.postalPtr())
}

// completeReview persists consent, runs pack checkout validation, creates the
// payment session and moves to the terminal payment step. The snapshot is
// wiped before the caller redirects, so a completed order can never be
// resumed as if in progress.
func (w *Wizard) completeReview(ctx context.Context) error {
	if err := w.backend.UpdateDeliveryConsent(ctx, w.draft.DraftID, w.consent, w.postalPtr()); err != nil {
		return err
	}

	w.checkoutWarnings = nil
	if w.packs[w.service.ServiceCode] {
		verdict, err := w.backend.ValidateCheckout(ctx, w.draft.DraftID)
		if err != nil {
			return err
		}
		w.checkoutWarnings = verdict.Warnings
		if !verdict.Valid {
			return &CheckoutBlockedError{Errors: verdict.Errors, Warnings: verdict.Warnings}
		}
	}

	url, err := w.backend.Checkout(ctx, w.draft.DraftID)
	if err != nil {
		return err
	}

	w.clearSnapshot()
	w.paymentURL = url
	w.step = StepPayment
	return nil
}

func (w *Wizard) postalPtr() *PostalAddress {
	if !w.addons[AddonPrintedCopy] || w.postal.Empty() {
		return nil
	}
	p := w.postal
	return &p
}

func (w *Wizard) validateStep() map[string]string {
	errs := map[string]string{}
	switch w.step {
	case StepSelectService:
		if w.service == nil {
			errs["service"] = "Select a service to continue"
			break
		}
		if w.addons[AddonPrintedCopy] {
			requirePostal(errs, "postal_line1", w.postal.Line1)
			requirePostal(errs, "postal_line2", w.postal.Line2)
			requirePostal(errs, "postal_city", w.postal.City)
			requirePostal(errs, "postal_postcode", w.postal.Postcode)
			requirePostal(errs, "postal_country", w.postal.Country)
		}
	case StepClientIdentity:
		if strings.TrimSpace(w.identity.FullName) == "" {
			errs["full_name"] = "Full name is required"
		}
		if strings.TrimSpace(w.identity.Email) == "" {
			errs["email"] = "Email is required"
		} else if !utils.IsEmail(w.identity.Email) {
			errs["email"] = "Enter a valid email address"
		}
		if strings.TrimSpace(w.identity.Phone) == "" {
			errs["phone"] = "Phone is required"
		}
		if strings.TrimSpace(w.identity.Role) == "" {
			errs["role"] = "Role is required"
		} else if w.identity.Role == "Other" && strings.TrimSpace(w.identity.RoleOtherText) == "" {
			errs["role_other_text"] = "Tell us your role"
		}
	case StepServiceFields:
		if w.schema != nil {
			for k, v := range w.schema.Validate(w.intake) {
				errs[k] = v
			}
		}
	case StepReview:
		if !w.consent.TermsPrivacy {
			errs["consent_terms_privacy"] = "You must accept the terms and privacy policy"
		}
		if !w.consent.AccuracyConfirmation {
			errs["accuracy_confirmation"] = "You must confirm the information is accurate"
		}
	}
	return errs
}

func requirePostal(errs map[string]string, key, value string) {
	if strings.TrimSpace(value) == "" {
		errs[key] = "Required for printed copy delivery"
	}
}

// Snapshot captures the current wizard state for recovery.
func (w *Wizard) Snapshot() Snapshot {
	snap := Snapshot{
		CurrentStep: int(w.step),
		Addons:      w.SelectedAddons(),
		Client:      w.identity,
		Intake:      w.intake,
		Consent:     w.consent,
		Postal:      w.postal,
		DraftID:     w.draft.DraftID,
		SavedAt:     w.now(),
	}
	if w.service != nil {
		snap.ServiceCode = w.service.ServiceCode
	}
	return snap
}

// persist rewrites the snapshot after a state-affecting change, but only in
// the recoverable window: past step 1 and before the payment handoff.
func (w *Wizard) persist() {
	if w.store == nil || w.step <= StepSelectService || w.step >= StepPayment {
		return
	}
	if err := w.store.Save(w.Snapshot()); err != nil {
		utils.Log.Warn("Could not save wizard snapshot: ", err)
	}
}

func (w *Wizard) clearSnapshot() {
	if w.store == nil {
		return
	}
	if err := w.store.Clear(); err != nil {
		utils.Log.Warn("Could not clear wizard snapshot: ", err)
	}
}

// Restore rebuilds wizard state from a confirmed snapshot. The service is
// reselected by code against the fetched catalog; the caller refetches the
// service schema afterwards. Restoring into the payment step is refused.
func (w *Wizard) Restore(snap Snapshot, catalog []ServiceCatalogEntry) error {
	if snap.CurrentStep >= int(StepPayment) {
		return fmt.Errorf("restore: snapshot is past the point of recovery")
	}

	if snap.ServiceCode != "" {
		found := false
		for _, entry := range catalog {
			if entry.ServiceCode == snap.ServiceCode {
				entry := entry
				w.service = &entry
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("restore: service %s is no longer available", snap.ServiceCode)
		}
	}

	w.addons = map[string]bool{}
	for _, code := range snap.Addons {
		w.addons[code] = true
	}
	w.identity = snap.Client
	w.intake = snap.Intake
	if w.intake == nil {
		w.intake = IntakeData{}
	}
	w.consent = snap.Consent
	w.postal = snap.Postal
	w.draft = Draft{DraftID: snap.DraftID}
	if snap.CurrentStep >= int(StepSelectService) && snap.CurrentStep < int(StepPayment) {
		w.step = Step(snap.CurrentStep)
	} else {
		w.step = StepSelectService
	}
	return nil
}
