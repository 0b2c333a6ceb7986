package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/complypoint/complyctl/pkg/intake"
)

// editorKind is how a form row is edited: free text, an on/off toggle, or a
// left/right cycler over fixed options.
type editorKind int

const (
	editText editorKind = iota
	editToggle
	editCycle
)

// formField is one interactive row of the current step. apply pushes the
// field's value back into the wizard on every change, so the recovery
// snapshot always reflects what is on screen.
type formField struct {
	key     string
	label   string
	hint    string
	editor  editorKind
	options []string
	optIdx  int
	on      bool
	input   textinput.Model
	apply   func(f *formField)
}

func newTextField(key, label, value, hint string, apply func(f *formField)) *formField {
	ti := textinput.New()
	ti.Prompt = ""
	ti.SetValue(value)
	ti.CharLimit = 512
	return &formField{key: key, label: label, hint: hint, editor: editText, input: ti, apply: apply}
}

func newToggleField(key, label string, on bool, apply func(f *formField)) *formField {
	return &formField{key: key, label: label, editor: editToggle, on: on, apply: apply}
}

func newCycleField(key, label string, options []string, current string, apply func(f *formField)) *formField {
	idx := 0
	for i, opt := range options {
		if opt == current {
			idx = i
			break
		}
	}
	return &formField{key: key, label: label, editor: editCycle, options: options, optIdx: idx, apply: apply}
}

func (f *formField) value() string {
	switch f.editor {
	case editText:
		return f.input.Value()
	case editCycle:
		if len(f.options) == 0 {
			return ""
		}
		return f.options[f.optIdx]
	default:
		if f.on {
			return "yes"
		}
		return "no"
	}
}

// Only text rows carry a live textinput; toggles and cyclers hold its zero
// value, which must never be driven.
func (f *formField) focus() {
	if f.editor == editText {
		f.input.Focus()
	}
}

func (f *formField) blur() {
	if f.editor == editText {
		f.input.Blur()
	}
}

// handleKey processes a key for the focused field and reports whether it was
// consumed.
func (f *formField) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch f.editor {
	case editToggle:
		if msg.String() == " " || msg.String() == "space" {
			f.on = !f.on
			f.apply(f)
			return nil, true
		}
		return nil, false
	case editCycle:
		switch msg.String() {
		case "left", "h":
			if f.optIdx > 0 {
				f.optIdx--
				f.apply(f)
			}
			return nil, true
		case "right", "l":
			if f.optIdx < len(f.options)-1 {
				f.optIdx++
				f.apply(f)
			}
			return nil, true
		}
		return nil, false
	default:
		var cmd tea.Cmd
		before := f.input.Value()
		f.input, cmd = f.input.Update(msg)
		if f.input.Value() != before {
			f.apply(f)
		}
		return cmd, true
	}
}

// splitList parses a comma-separated editor value into a clean slice.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// schemaFieldValue converts the text-editor representation into the value
// shape the schema validator expects for the field kind.
func schemaFieldValue(field intake.Field, f *formField) interface{} {
	switch field.Kind {
	case intake.KindNumber:
		v := strings.TrimSpace(f.value())
		if v == "" {
			return nil
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
		// Keep the raw text so validation can flag it.
		return f.value()
	case intake.KindMultiSelect, intake.KindTagList, intake.KindBoolGroup:
		return splitList(f.value())
	case intake.KindBoolean:
		return f.on
	default:
		return f.value()
	}
}

// schemaEditor builds the right editor for a schema field kind.
func (m *Model) schemaEditor(field intake.Field) *formField {
	current := m.wizard.Intake()[field.Key]
	apply := func(f *formField) {
		m.wizard.SetIntakeField(field.Key, schemaFieldValue(field, f))
	}
	switch field.Kind {
	case intake.KindBoolean:
		on, _ := current.(bool)
		return newToggleField(field.Key, field.Label, on, apply)
	case intake.KindSelect:
		options := append([]string{""}, field.Options...)
		cur, _ := current.(string)
		return newCycleField(field.Key, field.Label, options, cur, apply)
	case intake.KindMultiSelect, intake.KindBoolGroup:
		hint := "comma-separated: " + strings.Join(field.Options, ", ")
		return newTextField(field.Key, field.Label, joinValue(current), hint, apply)
	case intake.KindTagList:
		hint := "comma-separated"
		if field.MaxItems > 0 {
			hint += ", up to " + strconv.Itoa(field.MaxItems)
		}
		return newTextField(field.Key, field.Label, joinValue(current), hint, apply)
	case intake.KindDate:
		cur, _ := current.(string)
		return newTextField(field.Key, field.Label, cur, "YYYY-MM-DD", apply)
	case intake.KindNumber:
		return newTextField(field.Key, field.Label, joinValue(current), "number", apply)
	default:
		cur, _ := current.(string)
		return newTextField(field.Key, field.Label, cur, "", apply)
	}
}

func joinValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []string:
		return strings.Join(t, ", ")
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
