package validation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/resume-grounder/internal/bio"
	"github.com/jonathan/resume-grounder/internal/types"
)

var yearsClaimPattern = regexp.MustCompile(`(?i)(\d+)(\+?\s*years?)`)

// checkBio repairs a free-text bio: configured replacements are applied and
// out-of-range years claims are clamped. Banned phrases without a replacement
// are reported as warnings.
func (v *Validator) checkBio(draft *types.TailoredResumeDraft, outcome *types.ValidationOutcome) {
	text, ok := draft.BioText()
	if !ok || text == "" {
		return
	}
	c := v.lib.BioConstraints
	fixed := text

	for _, banned := range types.SortedKeys(c.Replacements) {
		if banned == "" {
			continue
		}
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(banned))
		if pattern.MatchString(fixed) {
			replacement := c.Replacements[banned]
			fixed = pattern.ReplaceAllLiteralString(fixed, replacement)
			v.logger.Info("replaced banned bio phrase", "phrase", banned, "replacement", replacement)
		}
	}

	lower := strings.ToLower(fixed)
	for _, phrase := range c.BannedPhrases {
		if _, replaced := c.Replacements[phrase]; replaced {
			continue
		}
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			outcome.AddWarning("Bio: contains banned phrase '%s' (no auto-replacement)", phrase)
		}
	}

	fixed = yearsClaimPattern.ReplaceAllStringFunc(fixed, func(claim string) string {
		m := yearsClaimPattern.FindStringSubmatch(claim)
		claimed, err := strconv.Atoi(m[1])
		if errors.Is(err, strconv.ErrRange) {
			claimed = math.MaxInt
		} else if err != nil {
			return claim
		}
		clamped, changed := bio.ClampYears(claimed, c)
		if !changed {
			return claim
		}
		v.logger.Info("clamped bio years claim", "claim", claim, "clamped", clamped)
		return strconv.Itoa(clamped) + m[2]
	})

	if fixed != text {
		draft.Bio = types.FreeformBio{Text: fixed}
		outcome.Fixes["bio"] = fixed
	}
}
