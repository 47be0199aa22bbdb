// Package schemas checks the shape of model-produced documents against
// embedded JSON Schemas before they are decoded.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed tailored_resume.schema.json
var tailoredResumeSchema string

var draftSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return Compile(tailoredResumeSchema)
})

// Problem is one schema violation, located by a dotted path
type Problem struct {
	Path    string
	Message string
}

// ShapeError lists every violation found in a document
type ShapeError struct {
	Problems []Problem
}

func (e *ShapeError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Path + ": " + p.Message
	}
	return fmt.Sprintf("%d schema violation(s): %s", len(e.Problems), strings.Join(parts, "; "))
}

// Paths returns the location of every violation
func (e *ShapeError) Paths() []string {
	paths := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		paths[i] = p.Path
	}
	return paths
}

// Compile parses a schema document
func Compile(schema string) (*gojsonschema.Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// ValidateDraft checks a tailored resume draft document. Only structure is
// checked; references and vocabularies are resolved later.
func ValidateDraft(document []byte) error {
	schema, err := draftSchema()
	if err != nil {
		return err
	}
	return Check(schema, document)
}

// Check validates document against a compiled schema and returns a *ShapeError
// when it does not conform
func Check(schema *gojsonschema.Schema, document []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	shapeErr := &ShapeError{Problems: make([]Problem, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		path := desc.Field()
		if path == "" {
			path = "(root)"
		}
		shapeErr.Problems = append(shapeErr.Problems, Problem{Path: path, Message: desc.Description()})
	}
	return shapeErr
}
