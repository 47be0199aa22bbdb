package validation

import (
	"fmt"

	"github.com/jonathan/resume-grounder/internal/types"
)

func (v *Validator) checkStructure(draft *types.TailoredResumeDraft, outcome *types.ValidationOutcome) {
	if n := len(draft.Experiences); n < MinExperiences {
		outcome.AddError("Need at least %d experiences, got %d", MinExperiences, n)
	}
	if n := len(draft.Projects); n < MinProjects {
		outcome.AddError("Need at least %d project, got %d", MinProjects, n)
	}
	if n := len(draft.Skills); n < MinSkillCategories {
		outcome.AddError("Need at least %d skill categories, got %d", MinSkillCategories, n)
	}

	for i, exp := range draft.Experiences {
		if len(exp.Bullets) == 0 {
			outcome.AddError("Experience '%s' has no bullets", nameOr(exp.Company, i))
		}
	}
	for i, proj := range draft.Projects {
		if len(proj.Bullets) == 0 {
			outcome.AddError("Project '%s' has no bullets", nameOr(proj.Name, i))
		}
	}
}

func nameOr(name string, index int) string {
	if name == "" {
		return fmt.Sprintf("#%d", index+1)
	}
	return name
}
