package intake

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FieldKind is the closed set of schema-driven field types. The renderer and
// the validator both dispatch over this set; adding a kind means touching
// both.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindMultiline   FieldKind = "multiline"
	KindNumber      FieldKind = "number"
	KindSelect      FieldKind = "select"
	KindMultiSelect FieldKind = "multi_select"
	KindTagList     FieldKind = "tag_list"
	KindDate        FieldKind = "date"
	KindBoolean     FieldKind = "boolean"
	KindBoolGroup   FieldKind = "boolean_group"
)

// VisibleWhen conditions a field on another field's current value. Zero value
// means unconditionally visible.
type VisibleWhen struct {
	Field  string `json:"field"`
	Equals string `json:"equals"`
}

// Field is one schema-driven intake field.
type Field struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Kind        FieldKind   `json:"kind"`
	Required    bool        `json:"required"`
	Options     []string    `json:"options"`   // select, multi_select, boolean_group
	MaxItems    int         `json:"max_items"` // multi_select, tag_list caps
	Group       string      `json:"group"`
	GroupOrder  int         `json:"group_order"`
	Order       int         `json:"order"`
	VisibleWhen VisibleWhen `json:"visible_when"`
}

// ServiceSchema is the full field schema for one service.
type ServiceSchema struct {
	ServiceCode string  `json:"service_code"`
	Fields      []Field `json:"fields"`
}

// FieldGroup is a titled, ordered slice of fields for rendering.
type FieldGroup struct {
	Name   string
	Fields []Field
}

// Groups returns the schema's fields grouped and ordered by schema metadata.
func (s *ServiceSchema) Groups() []FieldGroup {
	byGroup := map[string][]Field{}
	groupOrder := map[string]int{}
	for _, f := range s.Fields {
		byGroup[f.Group] = append(byGroup[f.Group], f)
		if cur, ok := groupOrder[f.Group]; !ok || f.GroupOrder < cur {
			groupOrder[f.Group] = f.GroupOrder
		}
	}

	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if groupOrder[names[i]] != groupOrder[names[j]] {
			return groupOrder[names[i]] < groupOrder[names[j]]
		}
		return names[i] < names[j]
	})

	groups := make([]FieldGroup, 0, len(names))
	for _, name := range names {
		fields := byGroup[name]
		sort.Slice(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })
		groups = append(groups, FieldGroup{Name: name, Fields: fields})
	}
	return groups
}

// IntakeData is the free-form step-3 value mapping keyed by field key. Value
// shapes per kind: string (text, multiline, select, date), float64 (number),
// []string (multi_select, tag_list, boolean_group: the checked options),
// bool (boolean).
type IntakeData map[string]interface{}

// Visible reports whether the field should currently be shown given the other
// field values.
func (f Field) Visible(data IntakeData) bool {
	if f.VisibleWhen.Field == "" {
		return true
	}
	return valueAsString(data[f.VisibleWhen.Field]) == f.VisibleWhen.Equals
}

func valueAsString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Validate checks data against the schema. Hidden fields are skipped: a value
// a user can't see must never block them. Returns a field-key → message map,
// empty when valid.
func (s *ServiceSchema) Validate(data IntakeData) map[string]string {
	errs := map[string]string{}
	for _, f := range s.Fields {
		if !f.Visible(data) {
			continue
		}
		if msg := f.validate(data[f.Key]); msg != "" {
			errs[f.Key] = msg
		}
	}
	return errs
}

func (f Field) validate(v interface{}) string {
	switch f.Kind {
	case KindText, KindMultiline:
		s, _ := v.(string)
		if f.Required && strings.TrimSpace(s) == "" {
			return "This field is required"
		}
	case KindNumber:
		if v == nil {
			if f.Required {
				return "A number is required"
			}
			return ""
		}
		if _, ok := v.(float64); !ok {
			return "Must be a number"
		}
	case KindSelect:
		s, _ := v.(string)
		if s == "" {
			if f.Required {
				return "Choose an option"
			}
			return ""
		}
		if !contains(f.Options, s) {
			return "Not a valid option"
		}
	case KindMultiSelect, KindBoolGroup:
		items := stringSlice(v)
		if f.Required && len(items) == 0 {
			return "Choose at least one option"
		}
		if f.Kind == KindMultiSelect && f.MaxItems > 0 && len(items) > f.MaxItems {
			return fmt.Sprintf("Choose at most %d option(s)", f.MaxItems)
		}
		for _, it := range items {
			if !contains(f.Options, it) {
				return "Not a valid option"
			}
		}
	case KindTagList:
		items := stringSlice(v)
		if f.Required && len(items) == 0 {
			return "Add at least one entry"
		}
		if f.MaxItems > 0 && len(items) > f.MaxItems {
			return fmt.Sprintf("At most %d entries", f.MaxItems)
		}
	case KindDate:
		s, _ := v.(string)
		if s == "" {
			if f.Required {
				return "A date is required"
			}
			return ""
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return "Use the format YYYY-MM-DD"
		}
	case KindBoolean:
		if f.Required {
			b, ok := v.(bool)
			if !ok || !b {
				return "This must be confirmed"
			}
		}
	default:
		return fmt.Sprintf("Unknown field kind %q", f.Kind)
	}
	return ""
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func stringSlice(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, valueAsString(item))
		}
		return out
	default:
		return nil
	}
}
