// Package bio assembles the resume summary from a structured bio.
package bio

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jonathan/resume-grounder/internal/types"
)

// companyToken is replaced by the target company's name in closer snippets
const companyToken = "{company}"

// Assembler turns structured bios into prose under fixed constraints
type Assembler struct {
	constraints types.BioConstraints
	logger      *slog.Logger
}

// NewAssembler creates an Assembler for the given constraints
func NewAssembler(constraints types.BioConstraints, logger *slog.Logger) *Assembler {
	return &Assembler{constraints: constraints, logger: logger}
}

// Assemble dispatches on the bio variant. A structured bio is checked against
// the catalogs and rendered to FreeformBio; any error means the draft must be
// rejected, and the returned bio is nil.
func (a *Assembler) Assemble(b types.Bio, company string) (types.Bio, []string) {
	switch v := b.(type) {
	case nil:
		return types.NoBio{}, nil
	case types.NoBio:
		return v, nil
	case types.FreeformBio:
		return v, nil
	case types.StructuredBio:
		text, errs := a.assembleStructured(v, company)
		if len(errs) > 0 {
			return nil, errs
		}
		return types.FreeformBio{Text: text}, nil
	default:
		return nil, []string{fmt.Sprintf("Bio must be null, string, or object, got %T", b)}
	}
}

func (a *Assembler) assembleStructured(sb types.StructuredBio, company string) (string, []string) {
	var errs []string
	c := a.constraints

	role := strings.TrimSpace(sb.RoleTitle)
	switch {
	case role == "":
		errs = append(errs, "Bio role_title is required")
	case len(c.AllowedRoleTitles) > 0 && !slices.Contains(c.AllowedRoleTitles, role):
		errs = append(errs, fmt.Sprintf("Bio role_title '%s' not in allowed: [%s]", role, strings.Join(c.AllowedRoleTitles, ", ")))
	}

	claims := make([]string, 0, len(sb.DomainClaims))
	for _, id := range sb.DomainClaims {
		text, ok := c.DomainClaims[id]
		if !ok {
			errs = append(errs, fmt.Sprintf("Bio domain_claim '%s' not in whitelist: [%s]", id, strings.Join(types.SortedKeys(c.DomainClaims), ", ")))
			continue
		}
		claims = append(claims, text)
	}

	closer := ""
	if id := strings.TrimSpace(sb.CloserID); id != "" && id != "null" {
		text, ok := c.Closers[id]
		if !ok {
			errs = append(errs, fmt.Sprintf("Bio closer_id '%s' not in options: [%s]", id, strings.Join(types.SortedKeys(c.Closers), ", ")))
		}
		closer = text
	}

	if len(errs) > 0 {
		return "", errs
	}

	years := c.MaxYears
	if sb.Years != nil {
		years = *sb.Years
	}
	if clamped, changed := ClampYears(years, c); changed {
		a.logger.Info("clamped bio years claim", "requested", years, "clamped", clamped)
		years = clamped
	}

	parts := make([]string, 0, 4)
	if len(claims) > 0 {
		parts = append(parts, fmt.Sprintf("%s with %d years of experience in %s.", role, years, strings.Join(claims, " and ")))
	} else {
		parts = append(parts, fmt.Sprintf("%s with %d years of experience.", role, years))
	}
	if sb.WantsEducation() && c.EducationClause != "" {
		parts = append(parts, c.EducationClause)
	}
	if sb.IncludeCertification && c.CertificationClause != "" {
		parts = append(parts, c.CertificationClause)
	}
	if closer != "" {
		if company == "" {
			company = "the company"
		}
		parts = append(parts, strings.ReplaceAll(closer, companyToken, company))
	}
	return strings.Join(parts, " "), nil
}

// ClampYears bounds n to [MinYears, MaxYears] and reports whether it changed
func ClampYears(n int, c types.BioConstraints) (int, bool) {
	switch {
	case n > c.MaxYears:
		return c.MaxYears, true
	case n < c.MinYears:
		return c.MinYears, true
	default:
		return n, false
	}
}
