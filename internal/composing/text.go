package composing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTagPattern     = regexp.MustCompile(`(?i)</?(p|div|br|li|ul|ol|span|h[1-6]|strong|em|b|i|a|html|body|section|table|tr|td)\b[^>]*>`)
	blankLinesPattern  = regexp.MustCompile(`\n{3,}`)
	inlineSpacePattern = regexp.MustCompile(`[ \t]+`)
)

var delimiterEscaper = strings.NewReplacer(
	"{{", "{ {",
	"}}", "} }",
	`"""`, `'''`,
)

// Escape neutralizes template delimiters in user-supplied text so it cannot
// open a placeholder or close a quoted block of the prompt template. Runs of
// braces are split until no delimiter remains.
func Escape(text string) string {
	for hasDelimiter(text) {
		text = delimiterEscaper.Replace(text)
	}
	return text
}

func hasDelimiter(text string) bool {
	return strings.Contains(text, "{{") || strings.Contains(text, "}}") || strings.Contains(text, `"""`)
}

// Truncate cuts text to at most maxChars runes. A non-positive limit disables truncation.
func Truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, false
	}
	return string(runes[:maxChars]), true
}

// LooksLikeHTML reports whether text contains common HTML markup
func LooksLikeHTML(text string) bool {
	return htmlTagPattern.MatchString(text)
}

// PlainText converts an HTML fragment to readable text, keeping one line per
// block element. Text without markup is returned with whitespace tidied.
func PlainText(text string) (string, error) {
	if !LooksLikeHTML(text) {
		return tidy(text), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return tidy(doc.Text()), nil
}

func tidy(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpacePattern.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLinesPattern.ReplaceAllString(text, "\n\n"))
}
