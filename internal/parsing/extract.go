// Package parsing recovers structured documents from raw model replies.
package parsing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-grounder/internal/schemas"
	"github.com/jonathan/resume-grounder/internal/types"
)

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractJSON recovers the first JSON object from text. It tries, in order, the
// whole text, the first fenced code block, a string-aware balanced-brace scan
// from the first '{', and the slice from the first '{' to the last '}'.
func ExtractJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)

	if obj, ok := asObject(text); ok {
		return obj, nil
	}

	if m := fencedBlockPattern.FindStringSubmatch(text); m != nil {
		if obj, ok := asObject(m[1]); ok {
			return obj, nil
		}
	}

	if span, ok := balancedSpan(text); ok {
		if obj, ok := asObject(span); ok {
			return obj, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if obj, ok := asObject(text[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, ErrUnparseable
}

// asObject reports whether candidate is a syntactically valid JSON object
func asObject(candidate string) (json.RawMessage, bool) {
	candidate = strings.TrimSpace(candidate)
	if !strings.HasPrefix(candidate, "{") || !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}

// balancedSpan returns the first balanced {...} span starting at the first '{'.
// Braces inside string literals, including escaped quotes, are ignored.
func balancedSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseAnalysis extracts and decodes a model reply. The draft is read from the
// "tailored_resume" member when present, otherwise from the top-level object.
func ParseAnalysis(text string) (*types.AnalysisResponse, error) {
	obj, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(obj, &envelope); err != nil {
		return nil, &ParseError{Message: "failed to decode response object", Preview: Preview(text, 200), Cause: err}
	}

	draftJSON := json.RawMessage(obj)
	if raw, ok := envelope["tailored_resume"]; ok {
		draftJSON = raw
	}
	if trimmed := bytes.TrimSpace(draftJSON); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Message: "tailored_resume is not an object", Preview: Preview(text, 200)}
	}

	if err := schemas.ValidateDraft(draftJSON); err != nil {
		return nil, &ParseError{Message: "draft does not match schema", Preview: Preview(text, 200), Cause: err}
	}

	var draft types.TailoredResumeDraft
	if err := json.Unmarshal(draftJSON, &draft); err != nil {
		return nil, &ParseError{Message: "failed to decode draft", Preview: Preview(text, 200), Cause: err}
	}

	resp := &types.AnalysisResponse{Draft: &draft}
	if raw, ok := envelope["scoring"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		// Scoring is advisory; a malformed block does not cost the draft.
		var scoring types.Scoring
		if err := json.Unmarshal(raw, &scoring); err == nil {
			resp.Scoring = &scoring
		}
	}
	return resp, nil
}

// DecodeDraft decodes a bare draft document such as one saved to disk
func DecodeDraft(content []byte) (*types.TailoredResumeDraft, error) {
	resp, err := ParseAnalysis(string(content))
	if err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}
	return resp.Draft, nil
}
