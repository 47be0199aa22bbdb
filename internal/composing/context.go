package composing

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-grounder/internal/skills"
	"github.com/jonathan/resume-grounder/internal/types"
)

func (c *Composer) renderEvidence() string {
	var sb strings.Builder

	sb.WriteString("### WORK EXPERIENCE (select 2-3)\n")
	for _, key := range c.settings.ExperienceKeys {
		entry, ok := c.lib.Work[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n#### %s\n", entry.Name)
		fmt.Fprintf(&sb, "Location: %s | Period: %s | Title: %s\n", entry.Location, entry.Period, entry.DefaultTitle)
		writeItems(&sb, entry.Items)
	}

	sb.WriteString("\n### PROJECTS (select 1-2)\n")
	for _, key := range c.settings.ProjectKeys {
		entry, ok := c.lib.Projects[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n#### %s\n", entry.Name)
		fmt.Fprintf(&sb, "Period: %s\n", entry.Period)
		writeItems(&sb, entry.Items)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeItems(sb *strings.Builder, items []types.EvidenceItem) {
	sb.WriteString("Available bullets:\n")
	for _, item := range items {
		if item.ID != "" {
			fmt.Fprintf(sb, "  - [%s] %s\n", item.ID, item.Text)
		} else {
			fmt.Fprintf(sb, "  - %s\n", item.Text)
		}
	}
}

func renderSkillContext(tax types.SkillTaxonomy, jobDescription string) string {
	lines := []string{"ONLY list skills the candidate actually has."}
	if len(tax.Verified) == 0 && len(tax.Transferable) == 0 && len(tax.Excluded) == 0 {
		return lines[0]
	}

	lines = append(lines, "", "VERIFIED skills (can always include):")
	for _, category := range types.SortedKeys(tax.Verified) {
		lines = append(lines, fmt.Sprintf("  - %s: %s", category, strings.Join(tax.Verified[category], ", ")))
	}

	if active := skills.Activated(tax, jobDescription); len(active) > 0 {
		lines = append(lines, "", "TRANSFERABLE skills (include ONLY these, the job mentions them):")
		for _, s := range active {
			if s.Basis != "" {
				lines = append(lines, fmt.Sprintf("  - %s (basis: %s)", s.Skill, s.Basis))
			} else {
				lines = append(lines, "  - "+s.Skill)
			}
		}
	} else {
		lines = append(lines, "", "No transferable skills activated for this job.")
	}

	if len(tax.Excluded) > 0 {
		lines = append(lines, "", "EXCLUDED (NEVER include): "+strings.Join(tax.Excluded, ", "))
	}
	if len(tax.AllowedCategories) > 0 {
		lines = append(lines, "", "Skill categories MUST be chosen from: "+strings.Join(tax.AllowedCategories, ", "))
	}
	return strings.Join(lines, "\n")
}

func renderTitleContext(titles types.TitleOptions) string {
	if len(titles) == 0 {
		return "Choose the most relevant title for each experience."
	}
	lines := []string{"Choose the title for each experience that BEST matches the job:"}
	for _, key := range types.SortedKeys(titles) {
		quoted := make([]string, 0, len(titles[key]))
		for _, t := range titles[key] {
			quoted = append(quoted, fmt.Sprintf("%q", t))
		}
		lines = append(lines, fmt.Sprintf("  - %s: %s", displayName(key), strings.Join(quoted, ", ")))
	}
	return strings.Join(lines, "\n")
}

// displayName turns an employer key such as "glp_technology" into "Glp Technology"
func displayName(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func renderBioConstraints(bc types.BioConstraints) string {
	scope := bc.YearsScope
	if scope == "" {
		scope = "professional experience"
	}
	lines := []string{fmt.Sprintf("- Years: between %d and %d years of %s", bc.MinYears, bc.MaxYears, scope)}
	if len(bc.BannedPhrases) > 0 {
		lines = append(lines, "- BANNED phrases: "+strings.Join(bc.BannedPhrases, ", "))
	}
	for _, rule := range bc.ExtraRules {
		lines = append(lines, "- "+rule)
	}
	return strings.Join(lines, "\n")
}

func renderBioBuilder(bc types.BioConstraints) string {
	var lines []string
	if len(bc.AllowedRoleTitles) > 0 {
		lines = append(lines, "- role_title MUST be one of: "+strings.Join(bc.AllowedRoleTitles, ", "))
	}
	if len(bc.DomainClaims) > 0 {
		lines = append(lines, "- domain_claims ids (pick 1-2):")
		for _, id := range types.SortedKeys(bc.DomainClaims) {
			lines = append(lines, fmt.Sprintf("    %s: %s", id, bc.DomainClaims[id]))
		}
	}
	if len(bc.Closers) > 0 {
		lines = append(lines, "- closer_id options (or null):")
		for _, id := range types.SortedKeys(bc.Closers) {
			lines = append(lines, fmt.Sprintf("    %s: %s", id, bc.Closers[id]))
		}
	}
	return strings.Join(lines, "\n")
}
