// Package grounding maps the evidence references in a draft back to verified text.
package grounding

import (
	"fmt"

	"github.com/jonathan/resume-grounder/internal/types"
)

// maxReferencePreview is how much of an unresolvable reference an error quotes
const maxReferencePreview = 80

// Resolve rewrites every bullet reference of draft in place. A reference that is
// an evidence ID becomes that item's text, a reference that already equals some
// item's text is kept, and anything else is dropped with an error naming the
// owning entry. It never produces text that is not in the library.
func Resolve(draft *types.TailoredResumeDraft, lib *types.EvidenceLibrary) []string {
	var errs []string
	for i := range draft.Experiences {
		exp := &draft.Experiences[i]
		exp.Bullets, errs = resolveBullets(exp.Bullets, label(exp.Company), lib, errs)
	}
	for i := range draft.Projects {
		proj := &draft.Projects[i]
		proj.Bullets, errs = resolveBullets(proj.Bullets, label(proj.Name), lib, errs)
	}
	return errs
}

func resolveBullets(refs []string, owner string, lib *types.EvidenceLibrary, errs []string) ([]string, []string) {
	resolved := make([]string, 0, len(refs))
	for _, ref := range refs {
		if item, ok := lib.Lookup(ref); ok {
			resolved = append(resolved, item.Text)
			continue
		}
		if lib.ContainsText(ref) {
			resolved = append(resolved, ref)
			continue
		}
		errs = append(errs, fmt.Sprintf("[%s] Unknown bullet ID or text: '%s'", owner, truncate(ref, maxReferencePreview)))
	}
	return resolved, errs
}

func label(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// IsGrounded reports whether every bullet of draft is verbatim evidence text
func IsGrounded(draft *types.TailoredResumeDraft, lib *types.EvidenceLibrary) bool {
	for _, exp := range draft.Experiences {
		for _, b := range exp.Bullets {
			if !lib.ContainsText(b) {
				return false
			}
		}
	}
	for _, proj := range draft.Projects {
		for _, b := range proj.Bullets {
			if !lib.ContainsText(b) {
				return false
			}
		}
	}
	return true
}
