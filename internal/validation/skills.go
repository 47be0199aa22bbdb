package validation

import (
	"strings"

	"github.com/jonathan/resume-grounder/internal/skills"
	"github.com/jonathan/resume-grounder/internal/types"
)

// checkSkills blocks excluded skills and warns about skills that are neither
// verified nor activated by the job description
func (v *Validator) checkSkills(groups []types.SkillGroup, jobDescription string, outcome *types.ValidationOutcome) {
	tax := v.lib.Skills
	if len(tax.Verified) == 0 && len(tax.Transferable) == 0 && len(tax.Excluded) == 0 {
		return
	}
	classifier := skills.NewClassifier(tax, jobDescription)

	for _, group := range groups {
		for _, token := range skills.GroupTokens(group) {
			if _, excluded := classifier.Excluded(token); excluded {
				outcome.AddError("Excluded skill '%s' found in category '%s'", token, group.Category)
				continue
			}
			switch {
			case classifier.Verified(token), classifier.Activated(token):
			case classifier.Transferable(token):
				outcome.AddWarning("Transferable skill '%s' in category '%s' is not activated by the job description", token, group.Category)
			default:
				outcome.AddWarning("Unverified skill '%s' in category '%s'", token, group.Category)
			}
		}
	}
}

// checkCategories requires every category to be on the whitelist, ignoring case
func (v *Validator) checkCategories(groups []types.SkillGroup, outcome *types.ValidationOutcome) {
	allowed := v.lib.Skills.AllowedCategories
	if len(allowed) == 0 {
		return
	}

	set := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		set[strings.ToLower(strings.TrimSpace(c))] = true
	}
	for _, group := range groups {
		if !set[strings.ToLower(strings.TrimSpace(group.Category))] {
			outcome.AddError("Skill category '%s' not in allowed list: [%s]", group.Category, strings.Join(allowed, ", "))
		}
	}
}

// checkDuplicates warns when the same normalized skill is listed twice
func (v *Validator) checkDuplicates(groups []types.SkillGroup, outcome *types.ValidationOutcome) {
	seen := make(map[string]string)
	for _, group := range groups {
		for _, token := range skills.GroupTokens(group) {
			key := skills.NormalizeSkill(token)
			if key == "" {
				continue
			}
			if first, dup := seen[key]; dup {
				outcome.AddWarning("Duplicate skill '%s' in '%s' (also in '%s')", token, group.Category, first)
				continue
			}
			seen[key] = group.Category
		}
	}
}
