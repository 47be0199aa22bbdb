package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tailoringFields = []string{
	"JobTitle", "Company", "JobDescription", "MasterResume", "EvidenceLibrary",
	"SkillContext", "TitleContext", "BioConstraints", "BioBuilder",
	"ApplyNowThreshold", "ApplyThreshold", "MaybeThreshold",
}

func TestTailoring(t *testing.T) {
	tmpl, err := Tailoring()
	require.NoError(t, err)
	assert.Equal(t, TailoringKey, tmpl.Name)
	assert.ElementsMatch(t, tailoringFields, tmpl.Fields())
}

func TestTailoring_RendersWithAllFields(t *testing.T) {
	tmpl, err := Tailoring()
	require.NoError(t, err)

	values := make(map[string]string, len(tailoringFields))
	for _, f := range tailoringFields {
		values[f] = "<" + f + ">"
	}
	out, err := tmpl.Render(values)
	require.NoError(t, err)
	assert.Contains(t, out, "VERIFIED BULLET LIBRARY")
	assert.Contains(t, out, "<EvidenceLibrary>")
	assert.NotContains(t, out, "{{.")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		known   []string
		wantErr string
	}{
		{name: "no restriction", text: "{{.Anything}}"},
		{name: "known fields", text: "{{.A}} {{.B}}", known: []string{"A", "B", "C"}},
		{name: "empty", text: "  \n", wantErr: "is empty"},
		{name: "unknown field", text: "{{.A}} {{.Typo}} {{.Other}}", known: []string{"A"}, wantErr: "unknown fields: Typo, Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("custom", tt.text, tt.known)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRender_MissingValues(t *testing.T) {
	tmpl, err := Parse("custom", "{{.A}} {{.B}}", nil)
	require.NoError(t, err)

	_, err = tmpl.Render(map[string]string{"A": "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing values for: B")

	out, err := tmpl.Render(map[string]string{"A": "a", "B": "b", "C": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "a b", out)
}

func TestFormat(t *testing.T) {
	result := Format("Hello {{.Name}}, welcome to {{.Company}}!", map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	})
	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", result)
}

func TestFormat_ValuesAreNotRescanned(t *testing.T) {
	data := map[string]string{
		"A": "{{.B}}",
		"B": "b",
	}
	assert.Equal(t, "A={{.B}} B=b", Format("A={{.A}} B={{.B}}", data))
}

func TestPlaceholders(t *testing.T) {
	keys := Placeholders("{{.A}} and {{.B}} then {{.A}} again, not {{B}}")
	assert.Equal(t, []string{"A", "B"}, keys)
}

func TestFields_ReturnsCopy(t *testing.T) {
	tmpl, err := Parse("custom", "{{.A}}", nil)
	require.NoError(t, err)
	fields := tmpl.Fields()
	fields[0] = "changed"
	assert.Equal(t, []string{"A"}, tmpl.Fields())
}
