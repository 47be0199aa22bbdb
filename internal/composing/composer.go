// Package composing renders the single generation request sent to the model
// for one job posting.
package composing

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jonathan/resume-grounder/internal/prompts"
	"github.com/jonathan/resume-grounder/internal/types"
)

// Default prompt limits
const (
	DefaultJobDescriptionMaxChars = 4000
	DefaultMasterResumeMaxChars   = 3000
)

// Settings selects what the prompt contains
type Settings struct {
	JobDescriptionMaxChars int
	MasterResumeMaxChars   int
	ExperienceKeys         []string
	ProjectKeys            []string
	// RedactInstructions strips instruction-like phrases from external text
	// instead of only logging them
	RedactInstructions bool
}

// Thresholds are the score cut-offs rendered into the scoring instructions
type Thresholds struct {
	ApplyNow int
	Apply    int
	Maybe    int
}

// TemplateFields are the placeholders a prompt template may reference
var TemplateFields = []string{
	"JobTitle", "Company", "JobDescription", "MasterResume", "EvidenceLibrary",
	"SkillContext", "TitleContext", "BioConstraints", "BioBuilder",
	"ApplyNowThreshold", "ApplyThreshold", "MaybeThreshold",
}

// DefaultThresholds returns the default recommendation cut-offs
func DefaultThresholds() Thresholds {
	return Thresholds{ApplyNow: 7, Apply: 5, Maybe: 3}
}

// Composer renders prompts from an evidence library
type Composer struct {
	lib          *types.EvidenceLibrary
	settings     Settings
	thresholds   Thresholds
	customPrompt string
	template     *prompts.Template
	masterResume string
	logger       *slog.Logger
}

// Option configures a Composer
type Option func(*Composer)

// WithTemplate overrides the embedded prompt template. The template may only
// reference TemplateFields.
func WithTemplate(template string) Option {
	return func(c *Composer) { c.customPrompt = template }
}

// WithMasterResume adds the candidate's master resume (HTML or text) as context
func WithMasterResume(resume string) Option {
	return func(c *Composer) { c.masterResume = resume }
}

// WithThresholds sets the recommendation cut-offs
func WithThresholds(t Thresholds) Option {
	return func(c *Composer) { c.thresholds = t }
}

// NewComposer creates a Composer. Library sections that the settings do not
// select are logged once here and never rendered.
func NewComposer(lib *types.EvidenceLibrary, settings Settings, logger *slog.Logger, opts ...Option) (*Composer, error) {
	if settings.JobDescriptionMaxChars == 0 {
		settings.JobDescriptionMaxChars = DefaultJobDescriptionMaxChars
	}
	if settings.MasterResumeMaxChars == 0 {
		settings.MasterResumeMaxChars = DefaultMasterResumeMaxChars
	}

	c := &Composer{
		lib:        lib,
		settings:   settings,
		thresholds: DefaultThresholds(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	if c.customPrompt != "" {
		c.template, err = prompts.Parse("custom", c.customPrompt, TemplateFields)
	} else {
		c.template, err = prompts.Tailoring()
	}
	if err != nil {
		return nil, fmt.Errorf("loading prompt template: %w", err)
	}

	if c.masterResume != "" {
		text, err := PlainText(c.masterResume)
		if err != nil {
			return nil, fmt.Errorf("converting master resume: %w", err)
		}
		c.masterResume = c.screen(text, "master_resume", "")
	}

	c.logSectionSelection(types.SectionWorkExperience, lib.Work, settings.ExperienceKeys)
	c.logSectionSelection(types.SectionProjects, lib.Projects, settings.ProjectKeys)
	return c, nil
}

func (c *Composer) logSectionSelection(section string, entries map[string]*types.EvidenceEntry, keys []string) {
	selected := make(map[string]bool, len(keys))
	for _, key := range keys {
		selected[key] = true
		if _, ok := entries[key]; !ok {
			c.logger.Warn("configured evidence entry not in library", "section", section, "key", key)
		}
	}
	for _, key := range types.SortedKeys(entries) {
		if !selected[key] {
			c.logger.Info("evidence entry not configured, excluded from prompt", "section", section, "key", key)
		}
	}
}

// Compose renders the prompt for one job posting
func (c *Composer) Compose(req types.GenerationRequest) (string, error) {
	description, err := PlainText(req.JobDescription)
	if err != nil {
		return "", fmt.Errorf("converting job description: %w", err)
	}
	description = c.screen(description, "job_description", req.Company)
	description, truncated := Truncate(description, c.settings.JobDescriptionMaxChars)
	if truncated {
		c.logger.Debug("job description truncated", "company", req.Company, "max_chars", c.settings.JobDescriptionMaxChars)
	}
	resume, _ := Truncate(c.masterResume, c.settings.MasterResumeMaxChars)

	return c.template.Render(map[string]string{
		"JobTitle":          Escape(req.JobTitle),
		"Company":           Escape(req.Company),
		"JobDescription":    Escape(description),
		"MasterResume":      Escape(resume),
		"EvidenceLibrary":   c.renderEvidence(),
		"SkillContext":      renderSkillContext(c.lib.Skills, description),
		"TitleContext":      renderTitleContext(c.lib.Titles),
		"BioConstraints":    renderBioConstraints(c.lib.BioConstraints),
		"BioBuilder":        renderBioBuilder(c.lib.BioConstraints),
		"ApplyNowThreshold": strconv.Itoa(c.thresholds.ApplyNow),
		"ApplyThreshold":    strconv.Itoa(c.thresholds.Apply),
		"MaybeThreshold":    strconv.Itoa(c.thresholds.Maybe),
	})
}

// screen logs instruction-like phrases in external text and redacts them when configured
func (c *Composer) screen(text, source, company string) string {
	found := FindInstructions(text)
	if len(found) == 0 {
		return text
	}
	c.logger.Warn("instruction-like text in prompt input",
		"source", source,
		"company", company,
		"phrases", found,
		"redacted", c.settings.RedactInstructions,
	)
	if c.settings.RedactInstructions {
		return RedactInstructions(text)
	}
	return text
}
