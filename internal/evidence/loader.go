package evidence

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/resume-grounder/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultMaxYears is the years-of-experience cap used when bio_constraints omits one
const DefaultMaxYears = 6

var knownSections = map[string]bool{
	"work_experience":          true,
	"projects":                 true,
	"skill_tiers":              true,
	"allowed_skill_categories": true,
	"title_options":            true,
	"bio_constraints":          true,
	"bio_builder":              true,
}

type rawLibrary struct {
	WorkExperience         map[string]rawEntry  `yaml:"work_experience"`
	Projects               map[string]rawEntry  `yaml:"projects"`
	SkillTiers             *types.SkillTaxonomy `yaml:"skill_tiers"`
	AllowedSkillCategories []string             `yaml:"allowed_skill_categories"`
	TitleOptions           map[string]titleSet  `yaml:"title_options"`
	BioConstraints         *rawBioConstraints   `yaml:"bio_constraints"`
	BioBuilder             *rawBioBuilder       `yaml:"bio_builder"`
}

type rawEntry struct {
	Company         string               `yaml:"company"`
	Title           string               `yaml:"title"`
	Location        string               `yaml:"location"`
	Period          string               `yaml:"period"`
	Titles          map[string]string    `yaml:"titles"`
	VerifiedBullets []types.EvidenceItem `yaml:"verified_bullets"`
}

type rawBioConstraints struct {
	MaxYearsClaim   *int              `yaml:"max_years_claim"`
	MinYearsClaim   int               `yaml:"min_years_claim"`
	YearsClaimScope string            `yaml:"years_claim_scope"`
	BannedPhrases   []string          `yaml:"banned_phrases"`
	Replacements    map[string]string `yaml:"replacements"`
	ExtraRules      []string          `yaml:"extra_rules"`
}

type snippet struct {
	Text string `yaml:"text"`
}

type rawBioBuilder struct {
	AllowedTitles       []string            `yaml:"allowed_titles"`
	DomainClaims        map[string]snippet  `yaml:"domain_claims"`
	CloserOptions       map[string]*snippet `yaml:"closer_options"`
	EducationClause     string              `yaml:"education_clause"`
	CertificationClause string              `yaml:"certification_clause"`
}

// titleSet accepts either a role-key → title mapping or a plain list of titles
type titleSet []string

func (t *titleSet) UnmarshalYAML(node *yaml.Node) error {
	var titles []string
	switch node.Kind {
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			titles = append(titles, node.Content[i].Value)
		}
	case yaml.SequenceNode:
		if err := node.Decode(&titles); err != nil {
			return err
		}
	case yaml.ScalarNode:
		titles = []string{node.Value}
	default:
		return fmt.Errorf("line %d: title options must be a mapping or a list", node.Line)
	}

	seen := make(map[string]bool, len(titles))
	*t = (*t)[:0]
	for _, title := range titles {
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		*t = append(*t, title)
	}
	return nil
}

// Load reads and parses an evidence library file
func Load(path string, logger *slog.Logger) (*types.EvidenceLibrary, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			Message: fmt.Sprintf("failed to read file %s", path),
			Cause:   err,
		}
	}
	return Parse(content, logger)
}

// Parse builds an evidence library from YAML. Sections that are missing or not
// recognized are logged, never rejected.
func Parse(content []byte, logger *slog.Logger) (*types.EvidenceLibrary, error) {
	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(content, &sections); err != nil {
		return nil, &LoadError{Message: "failed to unmarshal YAML", Cause: err}
	}
	for _, name := range types.SortedKeys(sections) {
		if !knownSections[name] {
			logger.Info("ignoring unrecognized library section", "section", name)
		}
	}

	var raw rawLibrary
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, &LoadError{Message: "failed to unmarshal YAML", Cause: err}
	}

	work := buildEntries(raw.WorkExperience, types.SectionWorkExperience, logger)
	projects := buildEntries(raw.Projects, types.SectionProjects, logger)
	lib := types.NewEvidenceLibrary(work, projects)

	if raw.SkillTiers != nil {
		lib.Skills = *raw.SkillTiers
	} else {
		logger.Info("skill_tiers not configured, skill tier checks disabled")
	}
	lib.Skills.AllowedCategories = raw.AllowedSkillCategories
	if len(raw.AllowedSkillCategories) == 0 {
		logger.Info("allowed_skill_categories not configured, category whitelist disabled")
	}

	lib.Titles = make(types.TitleOptions, len(raw.TitleOptions))
	for key, titles := range raw.TitleOptions {
		lib.Titles[key] = []string(titles)
	}
	if len(lib.Titles) == 0 {
		logger.Info("title_options not configured, title checks disabled")
	}

	lib.BioConstraints = buildBioConstraints(raw.BioConstraints, raw.BioBuilder, logger)

	logger.Debug("evidence library loaded",
		"work_entries", len(work),
		"project_entries", len(projects),
		"items", lib.ItemCount(),
	)
	return lib, nil
}

func buildEntries(raw map[string]rawEntry, section string, logger *slog.Logger) map[string]*types.EvidenceEntry {
	entries := make(map[string]*types.EvidenceEntry, len(raw))
	for _, key := range types.SortedKeys(raw) {
		r := raw[key]
		name := r.Company
		if section == types.SectionProjects {
			name = r.Title
		}
		if name == "" {
			name = key
		}

		entry := &types.EvidenceEntry{
			Key:          key,
			Section:      section,
			Name:         name,
			Location:     r.Location,
			Period:       r.Period,
			DefaultTitle: r.Titles["default"],
		}
		for _, item := range r.VerifiedBullets {
			if item.Text == "" {
				logger.Warn("skipping evidence item without content", "section", section, "entry", key, "id", item.ID)
				continue
			}
			item.Section = section
			item.Entry = key
			entry.Items = append(entry.Items, item)
		}
		entries[key] = entry
	}
	return entries
}

func buildBioConstraints(raw *rawBioConstraints, builder *rawBioBuilder, logger *slog.Logger) types.BioConstraints {
	bc := types.BioConstraints{MaxYears: DefaultMaxYears}
	if raw == nil {
		logger.Info("bio_constraints not configured, using defaults", "max_years", DefaultMaxYears)
	} else {
		if raw.MaxYearsClaim != nil {
			bc.MaxYears = *raw.MaxYearsClaim
		}
		bc.MinYears = raw.MinYearsClaim
		bc.YearsScope = raw.YearsClaimScope
		bc.BannedPhrases = raw.BannedPhrases
		bc.Replacements = raw.Replacements
		bc.ExtraRules = raw.ExtraRules
	}
	if bc.MinYears > bc.MaxYears {
		logger.Warn("min_years_claim exceeds max_years_claim, ignoring minimum",
			"min_years", bc.MinYears, "max_years", bc.MaxYears)
		bc.MinYears = 0
	}

	bc.DomainClaims = map[string]string{}
	bc.Closers = map[string]string{}
	if builder == nil {
		logger.Info("bio_builder not configured, structured bios cannot cite claims")
		return bc
	}
	bc.AllowedRoleTitles = builder.AllowedTitles
	for id, claim := range builder.DomainClaims {
		bc.DomainClaims[id] = claim.Text
	}
	for id, closer := range builder.CloserOptions {
		// A null closer is a valid choice that renders nothing.
		if closer == nil {
			bc.Closers[id] = ""
			continue
		}
		bc.Closers[id] = closer.Text
	}
	bc.EducationClause = builder.EducationClause
	bc.CertificationClause = builder.CertificationClause
	return bc
}
