// Package upgrade renders plan-gate prompts. A gated feature must always be
// explained: which feature is locked and which plan unlocks it. No variant is
// allowed to render nothing.
package upgrade

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/complypoint/complyctl/pkg/apierr"
	"github.com/complypoint/complyctl/pkg/entitlements"
	"github.com/complypoint/complyctl/pkg/session"
)

// Variant selects one of the three presentational shapes.
type Variant int

const (
	VariantInline Variant = iota
	VariantModal
	VariantCard
)

// PromptData is everything a prompt needs. Pure input; the renderer holds no
// state of its own.
type PromptData struct {
	FeatureName        string
	FeatureDescription string
	RequiredPlan       string
	RequiredPlanName   string
	Variant            Variant
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	bodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	actionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	cardBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F7B801")).Padding(0, 1)
)

// normalize backfills missing names so the contract ("always explain feature
// and unlocking plan") holds even on sparse metadata.
func (d PromptData) normalize() PromptData {
	if strings.TrimSpace(d.FeatureName) == "" {
		d.FeatureName = "This feature"
	}
	if strings.TrimSpace(d.RequiredPlanName) == "" {
		if strings.TrimSpace(d.RequiredPlan) != "" {
			d.RequiredPlanName = d.RequiredPlan
		} else {
			d.RequiredPlanName = "a higher plan"
		}
	}
	return d
}

// UpgradeTarget is the billing destination for the primary action,
// parameterized by the required plan.
func (d PromptData) UpgradeTarget() string {
	plan := strings.TrimSpace(d.RequiredPlan)
	if plan == "" {
		return "/billing/upgrade"
	}
	return "/billing/upgrade?plan=" + plan
}

// Render produces the prompt for the selected variant. Never empty.
func Render(d PromptData) string {
	d = d.normalize()
	switch d.Variant {
	case VariantModal:
		return renderModal(d)
	case VariantCard:
		return renderCard(d)
	default:
		return renderInline(d)
	}
}

func renderInline(d PromptData) string {
	line := fmt.Sprintf("%s requires the %s plan.", d.FeatureName, d.RequiredPlanName)
	return titleStyle.Render("⬆ ") + bodyStyle.Render(line) + " " +
		actionStyle.Render(fmt.Sprintf("Upgrade → %s", d.UpgradeTarget()))
}

func renderModal(d PromptData) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Unlock %s", d.FeatureName)),
	}
	if strings.TrimSpace(d.FeatureDescription) != "" {
		lines = append(lines, bodyStyle.Render(d.FeatureDescription))
	}
	lines = append(lines,
		bodyStyle.Render(fmt.Sprintf("Available on the %s plan.", d.RequiredPlanName)),
		"",
		actionStyle.Render(fmt.Sprintf("[ Upgrade → %s ]", d.UpgradeTarget())),
		hintStyle.Render("[ Not now ]"),
	)
	return cardBorder.Render(strings.Join(lines, "\n"))
}

func renderCard(d PromptData) string {
	lines := []string{
		titleStyle.Render(d.FeatureName),
		bodyStyle.Render(fmt.Sprintf("Included in %s and above.", d.RequiredPlanName)),
	}
	if strings.TrimSpace(d.FeatureDescription) != "" {
		lines = append(lines, hintStyle.Render(d.FeatureDescription))
	}
	lines = append(lines, actionStyle.Render(fmt.Sprintf("Upgrade → %s", d.UpgradeTarget())))
	return cardBorder.Render(strings.Join(lines, "\n"))
}

// FromDetail builds prompt data from a backend plan-gate denial.
func FromDetail(detail apierr.UpgradeDetail, v Variant) PromptData {
	name := detail.FeatureName
	if name == "" {
		name = detail.Feature
	}
	return PromptData{
		FeatureName:        name,
		FeatureDescription: detail.Description,
		RequiredPlan:       detail.RequiredPlan,
		RequiredPlanName:   detail.RequiredPlanName,
		Variant:            v,
	}
}

// FromFeature builds prompt data from entitlement feature metadata.
func FromFeature(key string, f entitlements.Feature, v Variant) PromptData {
	name := f.Name
	if name == "" {
		name = key
	}
	return PromptData{
		FeatureName:        name,
		FeatureDescription: f.Description,
		RequiredPlan:       f.MinimumPlan,
		RequiredPlanName:   f.MinimumPlan,
		Variant:            v,
	}
}

// FeatureGate renders content when the feature is entitled, the fallback (if
// given) or a default prompt when it is not, and nothing while entitlements
// are still unknown (nil store contents is a transient state, not a decision).
func FeatureGate(store *session.Store, key string, content func() string, fallback func() string) string {
	if store.Entitlements() == nil {
		return ""
	}
	if store.HasFeature(key) {
		if content == nil {
			return ""
		}
		return content()
	}
	if fallback != nil {
		return fallback()
	}
	f, _ := store.Entitlements().Feature(key)
	return Render(FromFeature(key, f, VariantInline))
}
