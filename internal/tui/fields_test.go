package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/complypoint/complyctl/pkg/intake"
)

func textFieldWith(value string) *formField {
	return newTextField("k", "Label", value, "", func(*formField) {})
}

func TestSchemaFieldValueShapes(t *testing.T) {
	number := intake.Field{Key: "bedrooms", Kind: intake.KindNumber}
	assert.Equal(t, float64(3), schemaFieldValue(number, textFieldWith("3")))
	assert.Nil(t, schemaFieldValue(number, textFieldWith("  ")))
	// Unparseable stays raw so the validator flags it instead of it vanishing.
	assert.Equal(t, "three", schemaFieldValue(number, textFieldWith("three")))

	tags := intake.Field{Key: "alarms", Kind: intake.KindTagList}
	assert.Equal(t, []string{"smoke", "co"}, schemaFieldValue(tags, textFieldWith(" smoke , co ,")))

	boolean := intake.Field{Key: "confirmed", Kind: intake.KindBoolean}
	f := newToggleField("confirmed", "Confirmed", true, func(*formField) {})
	assert.Equal(t, true, schemaFieldValue(boolean, f))

	text := intake.Field{Key: "notes", Kind: intake.KindMultiline}
	assert.Equal(t, "some notes", schemaFieldValue(text, textFieldWith("some notes")))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
	assert.Nil(t, splitList("  "))
}

func TestJoinValue(t *testing.T) {
	assert.Equal(t, "", joinValue(nil))
	assert.Equal(t, "HMO", joinValue("HMO"))
	assert.Equal(t, "3", joinValue(float64(3)))
	assert.Equal(t, "a, b", joinValue([]string{"a", "b"}))
	assert.Equal(t, "a, b", joinValue([]interface{}{"a", "b"}))
}

func TestCycleFieldStartsAtCurrent(t *testing.T) {
	f := newCycleField("role", "Role", []string{"Landlord", "Agent", "Other"}, "Agent", func(*formField) {})
	assert.Equal(t, "Agent", f.value())

	// Unknown current falls back to the first option.
	f = newCycleField("role", "Role", []string{"Landlord", "Agent"}, "Missing", func(*formField) {})
	assert.Equal(t, "Landlord", f.value())
}
