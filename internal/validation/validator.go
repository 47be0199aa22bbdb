// Package validation checks a resolved resume draft against the evidence
// library's taxonomies and classifies findings as errors, warnings or fixes.
package validation

import (
	"log/slog"

	"github.com/jonathan/resume-grounder/internal/types"
)

// Minimum counts a draft must meet after grounding
const (
	MinExperiences     = 2
	MinProjects        = 1
	MinSkillCategories = 3
)

// Validator runs every draft check against one evidence library
type Validator struct {
	lib    *types.EvidenceLibrary
	logger *slog.Logger
}

// New creates a Validator for lib
func New(lib *types.EvidenceLibrary, logger *slog.Logger) *Validator {
	return &Validator{lib: lib, logger: logger}
}

// Validate runs the bio, title, skill, category, duplicate and structure
// checks over draft. Fixes are applied to draft in place whether or not the
// outcome passes.
func (v *Validator) Validate(draft *types.TailoredResumeDraft, job types.GenerationRequest) *types.ValidationOutcome {
	outcome := types.NewValidationOutcome()

	v.checkBio(draft, outcome)
	v.checkTitles(draft.Experiences, outcome)
	v.checkSkills(draft.Skills, job.JobDescription, outcome)
	v.checkCategories(draft.Skills, outcome)
	v.checkDuplicates(draft.Skills, outcome)
	v.checkStructure(draft, outcome)

	outcome.Finalize()
	v.logger.Debug("draft validated",
		"company", job.Company,
		"passed", outcome.Passed,
		"errors", len(outcome.Errors),
		"warnings", len(outcome.Warnings),
		"fixes", len(outcome.Fixes),
	)
	return outcome
}
