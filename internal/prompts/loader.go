// Package prompts holds the model prompt templates. Templates live in embedded
// JSON files keyed by name and use {{.Field}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// TailoringKey names the analyze-and-tailor template in tailoring.json
const TailoringKey = "analyze-and-tailor"

//go:embed *.json
var promptFiles embed.FS

var placeholderPattern = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

var loadTailoring = sync.OnceValues(func() (map[string]string, error) {
	return readFile("tailoring.json")
})

// Template is a parsed prompt with the fields it references
type Template struct {
	Name   string
	text   string
	fields []string
}

// Tailoring returns the embedded analyze-and-tailor template
func Tailoring() (*Template, error) {
	templates, err := loadTailoring()
	if err != nil {
		return nil, err
	}
	text, ok := templates[TailoringKey]
	if !ok {
		return nil, fmt.Errorf("prompt %q not found in tailoring.json", TailoringKey)
	}
	return Parse(TailoringKey, text, nil)
}

// Parse builds a Template from text. When known is non-empty every placeholder
// must name one of the known fields.
func Parse(name, text string, known []string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("prompt %q is empty", name)
	}
	t := &Template{Name: name, text: text, fields: Placeholders(text)}
	if len(known) == 0 {
		return t, nil
	}
	var unknown []string
	for _, field := range t.fields {
		if !slices.Contains(known, field) {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("prompt %q references unknown fields: %s", name, strings.Join(unknown, ", "))
	}
	return t, nil
}

// Fields returns the placeholder names in order of first appearance
func (t *Template) Fields() []string {
	return slices.Clone(t.fields)
}

// Render substitutes values for the template's placeholders. Every referenced
// field needs a value; extra values are ignored.
func (t *Template) Render(values map[string]string) (string, error) {
	var missing []string
	for _, field := range t.fields {
		if _, ok := values[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %q missing values for: %s", t.Name, strings.Join(missing, ", "))
	}
	return Format(t.text, values), nil
}

// Format replaces {{.Key}} placeholders with values from data in a single
// pass, so placeholder-like text inside a value is never expanded.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Placeholders returns the distinct {{.Key}} names used by template, in order of appearance
func Placeholders(template string) []string {
	var keys []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !slices.Contains(keys, m[1]) {
			keys = append(keys, m[1])
		}
	}
	return keys
}

func readFile(filename string) (map[string]string, error) {
	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var templates map[string]string
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	return templates, nil
}
