package validation

import (
	"strings"

	"github.com/jonathan/resume-grounder/internal/skills"
	"github.com/jonathan/resume-grounder/internal/types"
)

// checkTitles requires each experience title to be one its employer allows
func (v *Validator) checkTitles(experiences []types.Experience, outcome *types.ValidationOutcome) {
	if len(v.lib.Titles) == 0 {
		return
	}

	for _, exp := range experiences {
		if strings.TrimSpace(exp.Company) == "" {
			outcome.AddWarning("Experience with title '%s' has no company; title not checked", exp.Title)
			continue
		}

		key, ok := skills.MatchEmployer(exp.Company, v.lib.Titles)
		if !ok {
			outcome.AddWarning("No title options match employer '%s'; title not checked", exp.Company)
			continue
		}

		allowed := v.lib.Titles[key]
		if !skills.TitleAllowed(exp.Title, allowed) {
			outcome.AddError("Title '%s' for %s not in allowed list: [%s]", exp.Title, exp.Company, strings.Join(allowed, ", "))
		}
	}
}
