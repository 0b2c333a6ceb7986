// Package apierr defines the error taxonomy shared by every ComplyPoint API
// client package. Callers match with errors.As so that a plan-gate denial is
// never presented as a generic failure.
package apierr

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// UpgradeDetail is the payload carried by a plan-gate denial. It holds enough
// to render an upgrade prompt without a second round trip.
type UpgradeDetail struct {
	Feature          string `json:"feature"`
	FeatureName      string `json:"feature_name"`
	Description      string `json:"description"`
	RequiredPlan     string `json:"required_plan"`
	RequiredPlanName string `json:"required_plan_name"`
	Message          string `json:"message"`
}

// NetworkError covers transport failures and 5xx responses. Terminal for the
// attempt; nothing in this product retries automatically.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError is a 4xx with per-field detail. Fields maps field key to a
// human message; callers that track per-field errors surface them inline.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed (%d field(s))", e.Op, len(e.Fields))
}

// PlanGateDenied is the distinguished 4xx meaning the account's plan does not
// include the attempted feature. Always routed to an upgrade prompt.
type PlanGateDenied struct {
	Op     string
	Detail UpgradeDetail
}

func (e *PlanGateDenied) Error() string {
	if e.Detail.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Detail.Message)
	}
	return fmt.Sprintf("%s: plan upgrade required", e.Op)
}

const (
	codePlanGate   = "PLAN_UPGRADE_REQUIRED"
	codeValidation = "VALIDATION"
)

// FromResponse classifies a non-2xx API response body into the taxonomy.
// Unknown shapes and 5xx become NetworkError.
func FromResponse(op string, status int, body string) error {
	if status >= 500 {
		return &NetworkError{Op: op, StatusCode: status}
	}

	switch gjson.Get(body, "error.code").Str {
	case codePlanGate:
		d := UpgradeDetail{
			Feature:          gjson.Get(body, "error.feature").Str,
			FeatureName:      gjson.Get(body, "error.feature_name").Str,
			Description:      gjson.Get(body, "error.description").Str,
			RequiredPlan:     gjson.Get(body, "error.required_plan").Str,
			RequiredPlanName: gjson.Get(body, "error.required_plan_name").Str,
			Message:          gjson.Get(body, "error.message").Str,
		}
		return &PlanGateDenied{Op: op, Detail: d}
	case codeValidation:
		fields := map[string]string{}
		gjson.Get(body, "error.fields").ForEach(func(k, v gjson.Result) bool {
			fields[k.Str] = v.Str
			return true
		})
		return &ValidationError{Op: op, Fields: fields}
	}

	return &NetworkError{Op: op, StatusCode: status}
}
