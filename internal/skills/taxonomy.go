package skills

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/resume-grounder/internal/types"
)

var (
	parentheticalPattern = regexp.MustCompile(`\s*\([^)]*\)`)
	wordPattern          = regexp.MustCompile(`\b\w+\b`)
)

// writeWhenStopWords are dropped when activation keywords are derived from a
// free-text write_when condition such as "JD mentions Azure or GCP".
var writeWhenStopWords = map[string]bool{
	"jd": true, "mentions": true, "mention": true, "or": true, "and": true, "but": true,
	"not": true, "as": true, "primary": true, "for": true, "when": true, "the": true,
	"a": true, "an": true, "if": true, "is": true, "of": true, "in": true, "job": true,
}

// SplitTokens splits a skill item on commas and slashes into trimmed, non-empty tokens
func SplitTokens(item string) []string {
	fields := strings.FieldsFunc(item, func(r rune) bool {
		return r == ',' || r == '/'
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// GroupTokens returns every individual skill token of a skill group
func GroupTokens(group types.SkillGroup) []string {
	var tokens []string
	for _, item := range group.Items {
		tokens = append(tokens, SplitTokens(item)...)
	}
	return tokens
}

// NormalizeSkill lowercases a skill, removes parenthetical notes and collapses whitespace.
// "PySpark (Databricks)" → "pyspark".
func NormalizeSkill(skill string) string {
	return NormalizeSpace(strings.ToLower(parentheticalPattern.ReplaceAllString(skill, "")))
}

// MatchExcluded returns the excluded entry that token equals or is prefixed by at
// a word boundary ("Java 17" and "Java (Spring)" match "java"; "JavaScript" does not).
func MatchExcluded(token string, excluded []string) (string, bool) {
	normalized := NormalizeSpace(strings.ToLower(token))
	for _, entry := range excluded {
		ex := NormalizeSpace(strings.ToLower(entry))
		if ex == "" {
			continue
		}
		if normalized == ex {
			return entry, true
		}
		if strings.HasPrefix(normalized, ex) {
			next := []rune(normalized[len(ex):])[0]
			if !unicode.IsLetter(next) && !unicode.IsDigit(next) && next != '+' && next != '#' {
				return entry, true
			}
		}
	}
	return "", false
}

// ContainsWord reports whether keyword occurs in text as a whole word, ignoring case
func ContainsWord(text, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false
	}
	pattern := `(?i)(^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(keyword) + `($|[^\p{L}\p{N}_])`
	matched, err := regexp.MatchString(pattern, text)
	return err == nil && matched
}

// ActivationKeywords returns the keywords that activate a transferable skill.
// Explicit activation_keywords win; otherwise they are derived from write_when.
func ActivationKeywords(skill types.TransferableSkill) []string {
	if len(skill.ActivationKeywords) > 0 {
		return skill.ActivationKeywords
	}
	var keywords []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(skill.WriteWhen), -1) {
		if !writeWhenStopWords[word] {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// IsActivated reports whether any activation keyword of skill appears as a whole word in jobDescription
func IsActivated(skill types.TransferableSkill, jobDescription string) bool {
	for _, keyword := range ActivationKeywords(skill) {
		if ContainsWord(jobDescription, keyword) {
			return true
		}
	}
	return false
}

// Activated returns the transferable skills the job description activates, in taxonomy order
func Activated(taxonomy types.SkillTaxonomy, jobDescription string) []types.TransferableSkill {
	var active []types.TransferableSkill
	for _, skill := range taxonomy.Transferable {
		if IsActivated(skill, jobDescription) {
			active = append(active, skill)
		}
	}
	return active
}

// Classifier answers tier questions about individual skill tokens for one job description
type Classifier struct {
	taxonomy    types.SkillTaxonomy
	verified    map[string]bool
	activated   map[string]bool
	transferred map[string]bool
}

// NewClassifier indexes the taxonomy against a job description
func NewClassifier(taxonomy types.SkillTaxonomy, jobDescription string) *Classifier {
	c := &Classifier{
		taxonomy:    taxonomy,
		verified:    make(map[string]bool),
		activated:   make(map[string]bool),
		transferred: make(map[string]bool),
	}
	for _, category := range types.SortedKeys(taxonomy.Verified) {
		for _, skill := range taxonomy.Verified[category] {
			c.verified[NormalizeSkill(skill)] = true
		}
	}
	for _, skill := range taxonomy.Transferable {
		key := NormalizeSkill(skill.Skill)
		c.transferred[key] = true
		if IsActivated(skill, jobDescription) {
			c.activated[key] = true
		}
	}
	return c
}

// Excluded returns the excluded entry token matches, if any
func (c *Classifier) Excluded(token string) (string, bool) {
	return MatchExcluded(token, c.taxonomy.Excluded)
}

// Verified reports whether token is in the verified tier
func (c *Classifier) Verified(token string) bool {
	return c.verified[NormalizeSkill(token)]
}

// Activated reports whether token is a transferable skill activated by the job description
func (c *Classifier) Activated(token string) bool {
	return c.activated[NormalizeSkill(token)]
}

// Transferable reports whether token is a transferable skill, activated or not
func (c *Classifier) Transferable(token string) bool {
	return c.transferred[NormalizeSkill(token)]
}
