// Package types provides type definitions for structured data used throughout the resume-grounder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GenerationRequest is one job posting to tailor a resume for
type GenerationRequest struct {
	JobID          string `json:"id,omitempty" yaml:"id"`
	JobTitle       string `json:"title" yaml:"title" validate:"required"`
	Company        string `json:"company" yaml:"company" validate:"required"`
	JobDescription string `json:"description" yaml:"description" validate:"required"`
}

// TailoredResumeDraft is the structured document the model returns. Bullets hold
// evidence references until grounding rewrites them to verified text.
type TailoredResumeDraft struct {
	Bio         Bio          `json:"bio"`
	Experiences []Experience `json:"experiences"`
	Projects    []Project    `json:"projects"`
	Skills      []SkillGroup `json:"skills"`
}

// Experience is one work-history entry of a draft
type Experience struct {
	Company  string   `json:"company"`
	Title    string   `json:"title"`
	Date     string   `json:"date,omitempty"`
	Location string   `json:"location,omitempty"`
	Bullets  []string `json:"bullets"`
}

// Project is one project entry of a draft
type Project struct {
	Name    string   `json:"name"`
	Date    string   `json:"date,omitempty"`
	Bullets []string `json:"bullets"`
}

// SkillGroup is one category line of the skills section
type SkillGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// UnmarshalJSON accepts items as an array or as a comma-separated string,
// under either "items" or the legacy "skills_list" key.
func (g *SkillGroup) UnmarshalJSON(data []byte) error {
	var raw struct {
		Category   string          `json:"category"`
		Items      json.RawMessage `json:"items"`
		SkillsList json.RawMessage `json:"skills_list"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.Category = raw.Category
	g.Items = nil

	source := raw.Items
	if len(source) == 0 || string(source) == "null" {
		source = raw.SkillsList
	}
	if len(source) == 0 || string(source) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(source, &list); err == nil {
		g.Items = list
		return nil
	}

	var joined string
	if err := json.Unmarshal(source, &joined); err != nil {
		return fmt.Errorf("skill group %q: items must be a list or a string", raw.Category)
	}
	for _, item := range strings.Split(joined, ",") {
		if item = strings.TrimSpace(item); item != "" {
			g.Items = append(g.Items, item)
		}
	}
	return nil
}

// Scoring is the job-fit assessment the model returns alongside the draft
type Scoring struct {
	OverallScore    float64 `json:"overall_score"`
	SkillMatch      float64 `json:"skill_match"`
	ExperienceFit   float64 `json:"experience_fit"`
	GrowthPotential float64 `json:"growth_potential"`
	Recommendation  string  `json:"recommendation"`
	Reasoning       string  `json:"reasoning"`
}

// AnalysisResponse is the complete structured reply of the model
type AnalysisResponse struct {
	Scoring *Scoring             `json:"scoring,omitempty"`
	Draft   *TailoredResumeDraft `json:"tailored_resume"`
}

// ValidationOutcome is the verdict on a resolved draft.
// Errors block the draft, warnings are advisory, fixes were applied in place.
type ValidationOutcome struct {
	Passed   bool              `json:"passed"`
	Errors   []string          `json:"errors"`
	Warnings []string          `json:"warnings"`
	Fixes    map[string]string `json:"fixes"`
}

// NewValidationOutcome returns an empty outcome with non-nil collections
func NewValidationOutcome() *ValidationOutcome {
	return &ValidationOutcome{
		Errors:   []string{},
		Warnings: []string{},
		Fixes:    map[string]string{},
	}
}

// AddError records a blocking finding
func (o *ValidationOutcome) AddError(format string, args ...any) {
	o.Errors = append(o.Errors, fmt.Sprintf(format, args...))
}

// AddWarning records an advisory finding
func (o *ValidationOutcome) AddWarning(format string, args ...any) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

// Finalize sets Passed from the error list
func (o *ValidationOutcome) Finalize() {
	o.Passed = len(o.Errors) == 0
}
