// Package tui is the interactive front of the intake wizard. It follows the
// Model-Update-View shape: every backend call runs as a tea.Cmd and comes
// back as a typed message, and all wizard mutation happens on the single
// Update goroutine.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/complypoint/complyctl/pkg/apierr"
	"github.com/complypoint/complyctl/pkg/intake"
	"github.com/complypoint/complyctl/pkg/snapshot"
	"github.com/complypoint/complyctl/pkg/upgrade"
)

type phase int

const (
	phaseLoading phase = iota
	phaseRestorePrompt
	phaseForm
	phaseDone
	phaseFatal
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	priceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
)

type bootstrapMsg struct {
	services []intake.ServiceCatalogEntry
	addons   []intake.AddonOption
	packs    []intake.Pack
	snap     *intake.Snapshot
	err      error
}

type schemaMsg struct {
	schema *intake.ServiceSchema
	err    error
}

type stepResultMsg struct {
	err error
}

// Model is the wizard TUI state.
type Model struct {
	wizard  *intake.Wizard
	catalog *intake.CatalogClient
	store   *snapshot.WizardStore
	openURL func(url string) error

	phase       phase
	services    []intake.ServiceCatalogEntry
	addonOpts   []intake.AddonOption
	pendingSnap *intake.Snapshot

	form  []*formField
	focus int

	fieldErrs  map[string]string
	generalErr string
	upgradeBox string
	warnings   []string
	submitting bool
	statusMsg  string

	width  int
	height int
}

func NewModel(wizard *intake.Wizard, catalog *intake.CatalogClient, store *snapshot.WizardStore) *Model {
	return &Model{
		wizard:    wizard,
		catalog:   catalog,
		store:     store,
		openURL:   openInBrowser,
		phase:     phaseLoading,
		fieldErrs: map[string]string{},
	}
}

func openInBrowser(url string) error {
	return exec.Command("xdg-open", url).Start()
}

func (m *Model) Init() tea.Cmd {
	return m.bootstrap()
}

// bootstrap fans out the independent session reads (the catalog, which
// carries services and addons in one payload, and the pack list) and the
// snapshot load, joined before the first render.
func (m *Model) bootstrap() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		type result struct {
			services []intake.ServiceCatalogEntry
			addons   []intake.AddonOption
			packs    []intake.Pack
			err      error
		}
		catCh := make(chan result, 1)
		packCh := make(chan result, 1)
		go func() {
			s, a, err := m.catalog.Catalog(ctx)
			catCh <- result{services: s, addons: a, err: err}
		}()
		go func() {
			p, err := m.catalog.Packs(ctx)
			packCh <- result{packs: p, err: err}
		}()

		cat, pk := <-catCh, <-packCh
		for _, r := range []result{cat, pk} {
			if r.err != nil {
				return bootstrapMsg{err: r.err}
			}
		}

		msg := bootstrapMsg{services: cat.services, addons: cat.addons, packs: pk.packs}
		if m.store != nil {
			if snap, ok, err := m.store.Load(ctx, timeNow()); err == nil && ok {
				msg.snap = &snap
			}
		}
		return msg
	}
}

// timeNow is swapped in tests.
var timeNow = func() time.Time { return time.Now() }

func (m *Model) fetchSchema(serviceCode string) tea.Cmd {
	return func() tea.Msg {
		schema, err := m.catalog.Schema(context.Background(), serviceCode)
		return schemaMsg{schema: schema, err: err}
	}
}

func (m *Model) submit() tea.Cmd {
	return func() tea.Msg {
		return stepResultMsg{err: m.wizard.Next(context.Background())}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case bootstrapMsg:
		if msg.err != nil {
			m.phase = phaseFatal
			m.generalErr = msg.err.Error()
			return m, nil
		}
		m.services = msg.services
		m.addonOpts = msg.addons
		m.wizard.SetPacks(msg.packs)
		if msg.snap != nil {
			m.pendingSnap = msg.snap
			m.phase = phaseRestorePrompt
			return m, nil
		}
		m.phase = phaseForm
		m.buildForm()
		return m, nil

	case schemaMsg:
		if msg.err != nil {
			m.generalErr = "Could not load the service form: " + msg.err.Error()
			return m, nil
		}
		m.wizard.SetSchema(msg.schema)
		if m.wizard.Step() == intake.StepServiceFields {
			m.buildForm()
		}
		return m, nil

	case stepResultMsg:
		m.submitting = false
		return m.handleStepResult(msg.err)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleStepResult(err error) (tea.Model, tea.Cmd) {
	m.fieldErrs = map[string]string{}
	m.generalErr = ""
	m.upgradeBox = ""
	m.warnings = m.wizard.CheckoutWarnings()

	if err != nil {
		var vErr *apierr.ValidationError
		var gateErr *apierr.PlanGateDenied
		var blocked *intake.CheckoutBlockedError
		switch {
		case errors.As(err, &vErr):
			m.fieldErrs = vErr.Fields
			m.statusMsg = "Fix the highlighted fields to continue"
		case errors.As(err, &gateErr):
			m.upgradeBox = upgrade.Render(upgrade.FromDetail(gateErr.Detail, upgrade.VariantModal))
			m.statusMsg = ""
		case errors.As(err, &blocked):
			m.generalErr = "Checkout blocked:\n  - " + strings.Join(blocked.Errors, "\n  - ")
			m.warnings = blocked.Warnings
		default:
			m.generalErr = "Something went wrong. Your progress is saved; try again."
			m.statusMsg = err.Error()
		}
		return m, nil
	}

	if m.wizard.Step() == intake.StepPayment {
		m.phase = phaseDone
		url := m.wizard.PaymentURL()
		return m, func() tea.Msg {
			_ = m.openURL(url)
			return nil
		}
	}

	m.buildForm()
	// Schema is fetched lazily once a service is locked in.
	if m.wizard.Service() != nil && m.wizard.Schema() == nil {
		return m, m.fetchSchema(m.wizard.Service().ServiceCode)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.phase {
	case phaseRestorePrompt:
		switch key {
		case "y", "Y", "enter":
			return m.restorePending()
		case "n", "N", "esc":
			if m.store != nil {
				_ = m.store.Clear()
			}
			m.pendingSnap = nil
			m.phase = phaseForm
			m.buildForm()
			return m, nil
		}
		return m, nil

	case phaseDone:
		if key == "enter" || key == "q" {
			return m, tea.Quit
		}
		return m, nil

	case phaseFatal:
		return m, tea.Quit

	case phaseForm:
		return m.handleFormKey(msg)
	}
	return m, nil
}

func (m *Model) restorePending() (tea.Model, tea.Cmd) {
	snap := m.pendingSnap
	m.pendingSnap = nil
	m.phase = phaseForm
	if snap == nil {
		m.buildForm()
		return m, nil
	}
	if err := m.wizard.Restore(*snap, m.services); err != nil {
		m.generalErr = err.Error()
		if m.store != nil {
			_ = m.store.Clear()
		}
		m.buildForm()
		return m, nil
	}
	m.statusMsg = "Restored your in-progress order"
	m.buildForm()
	if m.wizard.Service() != nil {
		return m, m.fetchSchema(m.wizard.Service().ServiceCode)
	}
	return m, nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A transition is in flight on the command goroutine. The wizard is
	// single-writer, so no form input (typing, toggles, esc) may touch it
	// until the step result lands.
	if m.submitting {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.moveFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, nil
	case "enter":
		m.submitting = true
		m.statusMsg = "Saving…"
		return m, m.submit()
	case "esc":
		if m.wizard.Step() == intake.StepSelectService {
			return m, tea.Quit
		}
		m.wizard.Prev()
		m.fieldErrs = map[string]string{}
		m.generalErr = ""
		m.upgradeBox = ""
		m.buildForm()
		return m, nil
	}

	if m.focus >= 0 && m.focus < len(m.form) {
		field := m.form[m.focus]
		cmd, consumed := field.handleKey(msg)
		if consumed && m.needsRebuild(field.key) {
			m.buildForm()
		}
		return m, cmd
	}
	return m, nil
}

// needsRebuild reports whether changing this field alters which rows exist
// (conditional postal block, role free-text, schema visibility, service swap).
func (m *Model) needsRebuild(key string) bool {
	if key == "service" || key == "role" || strings.HasPrefix(key, "addon:") {
		return true
	}
	if schema := m.wizard.Schema(); schema != nil && m.wizard.Step() == intake.StepServiceFields {
		for _, f := range schema.Fields {
			if f.VisibleWhen.Field == key {
				return true
			}
		}
	}
	return false
}

func (m *Model) moveFocus(delta int) {
	if len(m.form) == 0 {
		return
	}
	m.form[m.focus].blur()
	m.focus = (m.focus + delta + len(m.form)) % len(m.form)
	m.form[m.focus].focus()
}

func (m *Model) View() string {
	switch m.phase {
	case phaseLoading:
		return "Loading service catalog…"
	case phaseFatal:
		return errStyle.Render("Could not start the intake wizard: "+m.generalErr) + "\n"
	case phaseRestorePrompt:
		return m.viewRestorePrompt()
	case phaseDone:
		return m.viewDone()
	}
	return m.viewForm()
}

func (m *Model) viewRestorePrompt() string {
	snap := m.pendingSnap
	lines := []string{
		headerStyle.Render("Resume your order?"),
		"",
		labelStyle.Render("We found an order you started earlier."),
	}
	if snap != nil && snap.ServiceCode != "" {
		lines = append(lines, labelStyle.Render("Service: "+snap.ServiceCode))
	}
	lines = append(lines, "", hintStyle.Render("y → resume    n → start fresh"))
	return strings.Join(lines, "\n")
}

func (m *Model) viewDone() string {
	lines := []string{
		headerStyle.Render("Order complete — continue to payment"),
		"",
		labelStyle.Render("A secure payment page has been opened in your browser."),
		labelStyle.Render("If it did not open, visit:"),
		priceStyle.Render("  " + m.wizard.PaymentURL()),
	}
	for _, w := range m.warnings {
		lines = append(lines, warnStyle.Render("⚠ "+w))
	}
	lines = append(lines, "", hintStyle.Render("enter → close"))
	return strings.Join(lines, "\n")
}

func (m *Model) viewForm() string {
	step := m.wizard.Step()
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Intake · Step %d of 5 · %s", int(step), step)))
	b.WriteString("\n\n")

	if step == intake.StepReview {
		b.WriteString(m.viewSummary())
		b.WriteString("\n")
	}

	for i, f := range m.form {
		cursor := "  "
		style := labelStyle
		if i == m.focus {
			cursor = "› "
			style = focusStyle
		}
		b.WriteString(cursor + style.Render(f.label) + ": " + m.renderFieldValue(f, i == m.focus))
		if f.hint != "" {
			b.WriteString("  " + hintStyle.Render("("+f.hint+")"))
		}
		b.WriteString("\n")
		if msg, ok := m.fieldErrs[f.key]; ok {
			b.WriteString("    " + errStyle.Render("✗ "+msg) + "\n")
		}
	}

	if quote := m.wizard.Quote(); quote != nil {
		b.WriteString("\n" + priceStyle.Render(fmt.Sprintf("Total: £%.2f", float64(quote.TotalPricePence)/100)) + "\n")
	}
	if m.upgradeBox != "" {
		b.WriteString("\n" + m.upgradeBox + "\n")
	}
	if m.generalErr != "" {
		b.WriteString("\n" + errStyle.Render(m.generalErr) + "\n")
	}
	for _, w := range m.warnings {
		b.WriteString(warnStyle.Render("⚠ "+w) + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString("\n" + hintStyle.Render(m.statusMsg) + "\n")
	}

	b.WriteString("\n" + hintStyle.Render("tab/↑↓ move · space toggle · ←→ choose · enter continue · esc back"))
	return b.String()
}

func (m *Model) renderFieldValue(f *formField, focused bool) string {
	switch f.editor {
	case editToggle:
		if f.on {
			return "[x]"
		}
		return "[ ]"
	case editCycle:
		v := f.value()
		if v == "" {
			v = "—"
		}
		if focused {
			return "‹ " + v + " ›"
		}
		return v
	default:
		if focused {
			return f.input.View()
		}
		return f.input.Value()
	}
}

func (m *Model) viewSummary() string {
	var lines []string
	if svc := m.wizard.Service(); svc != nil {
		lines = append(lines, labelStyle.Render("Service: ")+svc.Name)
	}
	if addons := m.wizard.SelectedAddons(); len(addons) > 0 {
		lines = append(lines, labelStyle.Render("Addons:  ")+strings.Join(addons, ", "))
	}
	id := m.wizard.Identity()
	lines = append(lines, labelStyle.Render("Contact: ")+id.FullName+" · "+id.Email)
	if ref := m.wizard.Draft().DraftRef; ref != "" {
		lines = append(lines, labelStyle.Render("Order:   ")+ref)
	}
	return strings.Join(lines, "\n") + "\n"
}

// buildForm regenerates the form rows for the current step from wizard state.
func (m *Model) buildForm() {
	var form []*formField

	switch m.wizard.Step() {
	case intake.StepSelectService:
		form = m.buildSelectServiceForm()
	case intake.StepClientIdentity:
		form = m.buildIdentityForm()
	case intake.StepServiceFields:
		form = m.buildSchemaForm()
	case intake.StepReview:
		form = m.buildReviewForm()
	}

	m.form = form
	if m.focus >= len(m.form) {
		m.focus = 0
	}
	for i, f := range m.form {
		if i == m.focus {
			f.focus()
		} else {
			f.blur()
		}
	}
}

func (m *Model) buildSelectServiceForm() []*formField {
	names := make([]string, 0, len(m.services)+1)
	names = append(names, "")
	for _, s := range m.services {
		names = append(names, s.Name)
	}
	current := ""
	if svc := m.wizard.Service(); svc != nil {
		current = svc.Name
	}
	form := []*formField{
		newCycleField("service", "Service", names, current, func(f *formField) {
			for _, s := range m.services {
				if s.Name == f.value() {
					m.wizard.SelectService(s)
					return
				}
			}
		}),
	}

	for _, addon := range m.addonOpts {
		addon := addon
		form = append(form, newToggleField(
			"addon:"+addon.AddonCode,
			addon.Name+" ("+addon.PriceDisplay+")",
			m.wizard.AddonSelected(addon.AddonCode),
			func(f *formField) { m.wizard.ToggleAddon(addon.AddonCode) },
		))
	}

	if m.wizard.AddonSelected(intake.AddonPrintedCopy) {
		form = append(form, m.postalForm()...)
	}
	return form
}

func (m *Model) postalForm() []*formField {
	p := m.wizard.Postal()
	set := func(assign func(p *intake.PostalAddress, v string)) func(*formField) {
		return func(f *formField) {
			cur := m.wizard.Postal()
			assign(&cur, f.value())
			m.wizard.SetPostal(cur)
		}
	}
	return []*formField{
		newTextField("postal_line1", "Address line 1", p.Line1, "", set(func(p *intake.PostalAddress, v string) { p.Line1 = v })),
		newTextField("postal_line2", "Address line 2", p.Line2, "", set(func(p *intake.PostalAddress, v string) { p.Line2 = v })),
		newTextField("postal_city", "City", p.City, "", set(func(p *intake.PostalAddress, v string) { p.City = v })),
		newTextField("postal_postcode", "Postcode", p.Postcode, "", set(func(p *intake.PostalAddress, v string) { p.Postcode = v })),
		newTextField("postal_country", "Country", p.Country, "", set(func(p *intake.PostalAddress, v string) { p.Country = v })),
	}
}

var clientRoles = []string{"", "Director", "Owner", "Property Manager", "Letting Agent", "Other"}

func (m *Model) buildIdentityForm() []*formField {
	id := m.wizard.Identity()
	set := func(assign func(id *intake.ClientIdentity, v string)) func(*formField) {
		return func(f *formField) {
			cur := m.wizard.Identity()
			assign(&cur, f.value())
			m.wizard.SetIdentity(cur)
		}
	}

	form := []*formField{
		newTextField("full_name", "Full name", id.FullName, "", set(func(id *intake.ClientIdentity, v string) { id.FullName = v })),
		newTextField("email", "Email", id.Email, "", set(func(id *intake.ClientIdentity, v string) { id.Email = v })),
		newTextField("phone", "Phone", id.Phone, "", set(func(id *intake.ClientIdentity, v string) { id.Phone = v })),
		newCycleField("role", "Role", clientRoles, id.Role, set(func(id *intake.ClientIdentity, v string) { id.Role = v })),
	}
	if id.Role == "Other" {
		form = append(form, newTextField("role_other_text", "Your role", id.RoleOtherText, "",
			set(func(id *intake.ClientIdentity, v string) { id.RoleOtherText = v })))
	}
	form = append(form,
		newTextField("company_name", "Company (optional)", id.CompanyName, "",
			set(func(id *intake.ClientIdentity, v string) { id.CompanyName = v })),
		newTextField("company_website", "Website (optional)", id.CompanyWebsite, "",
			set(func(id *intake.ClientIdentity, v string) { id.CompanyWebsite = v })),
	)
	return form
}

func (m *Model) buildSchemaForm() []*formField {
	schema := m.wizard.Schema()
	if schema == nil {
		return nil
	}
	var form []*formField
	data := m.wizard.Intake()
	for _, group := range schema.Groups() {
		for _, field := range group.Fields {
			if !field.Visible(data) {
				continue
			}
			form = append(form, m.schemaEditor(field))
		}
	}
	return form
}

func (m *Model) buildReviewForm() []*formField {
	c := m.wizard.Consent()
	return []*formField{
		newToggleField("consent_terms_privacy", "I accept the terms and privacy policy", c.TermsPrivacy, func(f *formField) {
			cur := m.wizard.Consent()
			cur.TermsPrivacy = f.on
			m.wizard.SetConsent(cur)
		}),
		newToggleField("accuracy_confirmation", "I confirm the information is accurate", c.AccuracyConfirmation, func(f *formField) {
			cur := m.wizard.Consent()
			cur.AccuracyConfirmation = f.on
			m.wizard.SetConsent(cur)
		}),
	}
}
