// Package types provides type definitions for structured data used throughout the resume-grounder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "sort"

// Section names used to partition the evidence library
const (
	SectionWorkExperience = "work_experience"
	SectionProjects       = "projects"
)

// EvidenceItem is a single pre-approved factual statement with a stable ID.
// Text is the only string ever allowed to appear verbatim as an output bullet.
type EvidenceItem struct {
	ID      string `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"content"`
	Section string `json:"section" yaml:"-"`
	Entry   string `json:"entry" yaml:"-"` // key of the owning work/project entry
}

// EvidenceEntry is one work-history or project entry of the library
type EvidenceEntry struct {
	Key          string         `json:"key"`
	Section      string         `json:"section"`
	Name         string         `json:"name"` // company for work entries, title for projects
	Location     string         `json:"location,omitempty"`
	Period       string         `json:"period,omitempty"`
	DefaultTitle string         `json:"default_title,omitempty"`
	Items        []EvidenceItem `json:"items"`
}

// EvidenceLibrary is the closed catalog of verified facts plus the taxonomies
// that constrain a tailored draft. It is built once at load time and never mutated.
type EvidenceLibrary struct {
	Work     map[string]*EvidenceEntry `json:"work_experience"`
	Projects map[string]*EvidenceEntry `json:"projects"`

	Skills         SkillTaxonomy  `json:"skill_tiers"`
	Titles         TitleOptions   `json:"title_options"`
	BioConstraints BioConstraints `json:"bio_constraints"`

	byID   map[string]EvidenceItem
	byText map[string]EvidenceItem
}

// NewEvidenceLibrary indexes the given entries by item ID and item text.
// Duplicate IDs keep the first occurrence in key order.
func NewEvidenceLibrary(work, projects map[string]*EvidenceEntry) *EvidenceLibrary {
	if work == nil {
		work = map[string]*EvidenceEntry{}
	}
	if projects == nil {
		projects = map[string]*EvidenceEntry{}
	}
	lib := &EvidenceLibrary{
		Work:     work,
		Projects: projects,
		byID:     make(map[string]EvidenceItem),
		byText:   make(map[string]EvidenceItem),
	}
	for _, entries := range []map[string]*EvidenceEntry{work, projects} {
		for _, key := range SortedKeys(entries) {
			for _, item := range entries[key].Items {
				if item.ID != "" {
					if _, exists := lib.byID[item.ID]; !exists {
						lib.byID[item.ID] = item
					}
				}
				if _, exists := lib.byText[item.Text]; !exists {
					lib.byText[item.Text] = item
				}
			}
		}
	}
	return lib
}

// Lookup returns the evidence item with the given ID
func (l *EvidenceLibrary) Lookup(id string) (EvidenceItem, bool) {
	item, ok := l.byID[id]
	return item, ok
}

// ContainsText reports whether text is verbatim the text of some evidence item
func (l *EvidenceLibrary) ContainsText(text string) bool {
	_, ok := l.byText[text]
	return ok
}

// ItemCount returns the number of distinct evidence IDs
func (l *EvidenceLibrary) ItemCount() int {
	return len(l.byID)
}

// SkillTaxonomy classifies skill terms into verified, transferable and excluded tiers
type SkillTaxonomy struct {
	Verified          map[string][]string `json:"verified" yaml:"verified"`
	Transferable      []TransferableSkill `json:"transferable" yaml:"transferable"`
	Excluded          []string            `json:"excluded" yaml:"excluded"`
	AllowedCategories []string            `json:"allowed_categories" yaml:"-"`
}

// TransferableSkill is a skill that may only be listed when the job posting activates it
type TransferableSkill struct {
	Skill              string   `json:"skill" yaml:"skill"`
	ActivationKeywords []string `json:"activation_keywords,omitempty" yaml:"activation_keywords"`
	Basis              string   `json:"basis,omitempty" yaml:"basis"`
	WriteWhen          string   `json:"write_when,omitempty" yaml:"write_when"`
}

// TitleOptions maps an employer key to the job titles the candidate may claim there
type TitleOptions map[string][]string

// BioConstraints holds the hard numeric and lexical limits for the summary paragraph
// together with the reusable snippets the bio builder may cite.
type BioConstraints struct {
	MaxYears            int               `json:"max_years"`
	MinYears            int               `json:"min_years"`
	YearsScope          string            `json:"years_scope,omitempty"`
	BannedPhrases       []string          `json:"banned_phrases"`
	Replacements        map[string]string `json:"replacements"`
	ExtraRules          []string          `json:"extra_rules,omitempty"`
	AllowedRoleTitles   []string          `json:"allowed_role_titles"`
	DomainClaims        map[string]string `json:"domain_claims"`
	Closers             map[string]string `json:"closers"`
	EducationClause     string            `json:"education_clause,omitempty"`
	CertificationClause string            `json:"certification_clause,omitempty"`
}

// SortedKeys returns the keys of m in ascending order
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
