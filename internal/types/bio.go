// Package types provides type definitions for structured data used throughout the resume-grounder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bio is the summary paragraph of a draft. It is one of NoBio, FreeformBio or
// StructuredBio; consumers dispatch with a type switch.
type Bio interface {
	isBio()
}

// NoBio means the resume renders without a summary paragraph
type NoBio struct{}

// FreeformBio is prose written by the model (legacy path) or produced by assembly
type FreeformBio struct {
	Text string
}

// StructuredBio is a constrained description of the summary that is assembled
// deterministically from catalog snippets instead of being generated freely.
type StructuredBio struct {
	RoleTitle            string   `json:"role_title"`
	Years                *int     `json:"years,omitempty"`
	DomainClaims         []string `json:"domain_claims"`
	CloserID             string   `json:"closer_id,omitempty"`
	IncludeEducation     *bool    `json:"include_education,omitempty"`
	IncludeCertification bool     `json:"include_certification"`
}

func (NoBio) isBio()         {}
func (FreeformBio) isBio()   {}
func (StructuredBio) isBio() {}

// MarshalJSON encodes the absent bio as null
func (NoBio) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON encodes a free-text bio as a JSON string
func (b FreeformBio) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Text)
}

// WantsEducation reports whether the education clause is requested (default true)
func (b StructuredBio) WantsEducation() bool {
	return b.IncludeEducation == nil || *b.IncludeEducation
}

// UnmarshalJSON tolerates years given as a string such as "6" or "6+"
func (b *StructuredBio) UnmarshalJSON(data []byte) error {
	type plain StructuredBio
	var raw struct {
		plain
		Years    json.RawMessage `json:"years"`
		CloserID json.RawMessage `json:"closer_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = StructuredBio(raw.plain)
	b.Years = nil
	b.CloserID = ""

	if years, ok, err := decodeYears(raw.Years); err != nil {
		return err
	} else if ok {
		b.Years = &years
	}

	if len(raw.CloserID) > 0 && string(raw.CloserID) != "null" {
		var closer string
		if err := json.Unmarshal(raw.CloserID, &closer); err != nil {
			return fmt.Errorf("bio closer_id must be a string: %w", err)
		}
		b.CloserID = closer
	}
	return nil
}

func decodeYears(raw json.RawMessage) (int, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false, nil
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return saturateYears(number), true, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, false, fmt.Errorf("bio years must be a number: %s", string(raw))
	}
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "+"))
	years, err := strconv.Atoi(text)
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(text, "-") {
			return -maxYearsValue, true, nil
		}
		return maxYearsValue, true, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("bio years must be a number: %q", text)
	}
	return years, true, nil
}

// maxYearsValue bounds decoded years so later clamping never sees an overflowed int
const maxYearsValue = math.MaxInt32

func saturateYears(number float64) int {
	switch {
	case number >= maxYearsValue:
		return maxYearsValue
	case number <= -maxYearsValue:
		return -maxYearsValue
	}
	return int(number)
}

// DecodeBio decodes the raw bio field: null → NoBio, string → FreeformBio, object → StructuredBio
func DecodeBio(raw json.RawMessage) (Bio, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NoBio{}, nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, fmt.Errorf("invalid bio string: %w", err)
		}
		return FreeformBio{Text: text}, nil
	case '{':
		var structured StructuredBio
		if err := json.Unmarshal(trimmed, &structured); err != nil {
			return nil, fmt.Errorf("invalid structured bio: %w", err)
		}
		return structured, nil
	default:
		return nil, fmt.Errorf("bio must be null, string, or object, got %s", string(trimmed))
	}
}

// UnmarshalJSON decodes the draft, dispatching the bio field on its JSON kind
func (d *TailoredResumeDraft) UnmarshalJSON(data []byte) error {
	type plain TailoredResumeDraft
	var raw struct {
		plain
		Bio json.RawMessage `json:"bio"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	bio, err := DecodeBio(raw.Bio)
	if err != nil {
		return err
	}

	*d = TailoredResumeDraft(raw.plain)
	d.Bio = bio
	return nil
}

// BioText returns the prose of a free-text bio and whether the bio is free text
func (d *TailoredResumeDraft) BioText() (string, bool) {
	if bio, ok := d.Bio.(FreeformBio); ok {
		return bio.Text, true
	}
	return "", false
}
