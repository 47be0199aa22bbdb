package composing

import (
	"regexp"
)

// instructionPatterns match text that tries to address the model directly.
// Job postings routinely say "you are a..." so role phrasing is not flagged.
var instructionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions?`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)(\s+instructions?)?`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|everything)(\s+instructions?)?`),
	regexp.MustCompile(`(?i)new\s+instructions?:`),
	regexp.MustCompile(`(?i)system\s+prompt`),
}

const redacted = "[REDACTED]"

// FindInstructions returns the instruction-like phrases in text, in pattern order
func FindInstructions(text string) []string {
	var found []string
	for _, pattern := range instructionPatterns {
		found = append(found, pattern.FindAllString(text, -1)...)
	}
	return found
}

// RedactInstructions replaces instruction-like phrases in text
func RedactInstructions(text string) string {
	for _, pattern := range instructionPatterns {
		text = pattern.ReplaceAllString(text, redacted)
	}
	return text
}
