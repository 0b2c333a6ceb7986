package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/complypoint/complyctl/pkg/apierr"
	"github.com/complypoint/complyctl/pkg/whttp"
)

// PostalAddress is required whenever the printed-copy addon is selected. All
// five fields are mandatory in that case.
type PostalAddress struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

func (p PostalAddress) Empty() bool {
	return p == PostalAddress{}
}

// ClientIdentity is the step-2 data.
type ClientIdentity struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	RoleOtherText  string `json:"role_other_text,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	CompanyWebsite string `json:"company_website,omitempty"`
}

// ConsentState is the step-4 data. Both flags must be true to proceed past
// review.
type ConsentState struct {
	TermsPrivacy         bool `json:"consent_terms_privacy"`
	AccuracyConfirmation bool `json:"accuracy_confirmation"`
}

// Draft identifies the server-owned in-progress order.
type Draft struct {
	DraftID           string   `json:"draft_id"`
	DraftRef          string   `json:"draft_ref"`
	SelectedDocuments []string `json:"selected_documents,omitempty"`
}

// CheckoutValidation is the backend's pack-constraint verdict. Errors block
// checkout; warnings are advisory and never block.
type CheckoutValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Backend is the remote collaborator the wizard drives. Split out as an
// interface so the state machine tests run against a fake.
type Backend interface {
	CreateDraft(ctx context.Context, serviceCode string, addons []string) (Draft, error)
	UpdateAddons(ctx context.Context, draftID string, addons []string, postal *PostalAddress) error
	UpdateClientIdentity(ctx context.Context, draftID string, identity ClientIdentity) error
	UpdateIntake(ctx context.Context, draftID string, data IntakeData) error
	UpdateDeliveryConsent(ctx context.Context, draftID string, consent ConsentState, postal *PostalAddress) error
	CalculatePrice(ctx context.Context, serviceCode string, addons []string) (PricingQuote, error)
	ValidateCheckout(ctx context.Context, draftID string) (CheckoutValidation, error)
	Checkout(ctx context.Context, draftID string) (paymentURL string, err error)
}

// DraftClient is the HTTP implementation of Backend.
type DraftClient struct {
	HTTP *whttp.Client
}

var _ Backend = (*DraftClient)(nil)

// CreateDraft opens the server-side draft. An idempotency key guards against
// a duplicate submission creating two drafts if the response is lost.
func (c *DraftClient) CreateDraft(ctx context.Context, serviceCode string, addons []string) (Draft, error) {
	body := struct {
		ServiceCode string   `json:"service_code"`
		Addons      []string `json:"addons"`
	}{ServiceCode: serviceCode, Addons: addons}

	var d Draft
	res, err := c.HTTP.Do(ctx, "create draft", &whttp.WHTTPReq{
		Method:  http.MethodPost,
		URL:     "/intake/draft",
		Body:    body,
		Headers: []whttp.WHTTPHeader{{Name: "Idempotency-Key", Value: uuid.NewString()}},
	})
	if err != nil {
		return Draft{}, err
	}
	if err := json.Unmarshal(res.BodyBytes, &d); err != nil {
		return Draft{}, &apierr.NetworkError{Op: "create draft", Err: fmt.Errorf("decode response: %w", err)}
	}
	return d, nil
}

func (c *DraftClient) UpdateAddons(ctx context.Context, draftID string, addons []string, postal *PostalAddress) error {
	body := struct {
		Addons []string       `json:"addons"`
		Postal *PostalAddress `json:"postal_address,omitempty"`
	}{Addons: addons, Postal: postal}
	return c.HTTP.SendJSON(ctx, "update draft addons", http.MethodPut, "/intake/draft/"+draftID+"/addons", body, nil)
}

func (c *DraftClient) UpdateClientIdentity(ctx context.Context, draftID string, identity ClientIdentity) error {
	return c.HTTP.SendJSON(ctx, "update draft identity", http.MethodPut, "/intake/draft/"+draftID+"/client-identity", identity, nil)
}

func (c *DraftClient) UpdateIntake(ctx context.Context, draftID string, data IntakeData) error {
	body := struct {
		Fields IntakeData `json:"fields"`
	}{Fields: data}
	return c.HTTP.SendJSON(ctx, "update draft intake", http.MethodPut, "/intake/draft/"+draftID+"/intake", body, nil)
}

func (c *DraftClient) UpdateDeliveryConsent(ctx context.Context, draftID string, consent ConsentState, postal *PostalAddress) error {
	body := struct {
		ConsentState
		Postal *PostalAddress `json:"postal_address,omitempty"`
	}{ConsentState: consent, Postal: postal}
	return c.HTTP.SendJSON(ctx, "update draft consent", http.MethodPut, "/intake/draft/"+draftID+"/delivery-consent", body, nil)
}

func (c *DraftClient) CalculatePrice(ctx context.Context, serviceCode string, addons []string) (PricingQuote, error) {
	body := struct {
		ServiceCode string   `json:"service_code"`
		Addons      []string `json:"addons"`
	}{ServiceCode: serviceCode, Addons: addons}
	var quote PricingQuote
	if err := c.HTTP.SendJSON(ctx, "calculate price", http.MethodPost, "/intake/calculate-price", body, &quote); err != nil {
		return PricingQuote{}, err
	}
	return quote, nil
}

func (c *DraftClient) ValidateCheckout(ctx context.Context, draftID string) (CheckoutValidation, error) {
	var v CheckoutValidation
	if err := c.HTTP.SendJSON(ctx, "validate checkout", http.MethodPost, "/intake/draft/"+draftID+"/checkout/validate", nil, &v); err != nil {
		return CheckoutValidation{}, err
	}
	return v, nil
}

func (c *DraftClient) Checkout(ctx context.Context, draftID string) (string, error) {
	var out struct {
		PaymentURL string `json:"payment_url"`
	}
	if err := c.HTTP.SendJSON(ctx, "create payment session", http.MethodPost, "/intake/draft/"+draftID+"/checkout", nil, &out); err != nil {
		return "", err
	}
	return out.PaymentURL, nil
}
