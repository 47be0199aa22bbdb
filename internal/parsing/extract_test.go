package parsing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jonathan/resume-grounder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trickyObject = `{"bio": "Says \"hi\" {not a brace}", "skills": [{"category": "A", "items": ["x}"]}], "nested": {"k": {"v": 1}}}`

func TestExtractJSON_EquivalentForms(t *testing.T) {
	var want any
	require.NoError(t, json.Unmarshal([]byte(trickyObject), &want))

	tests := []struct {
		name string
		text string
	}{
		{"raw json", trickyObject},
		{"fenced with prose", "Here is the result:\n```json\n" + trickyObject + "\n```\nLet me know if you need changes."},
		{"fenced without language", "```\n" + trickyObject + "\n```"},
		{"prose around braces", "Sure! " + trickyObject + " Hope this helps {smile}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ExtractJSON(tt.text)
			require.NoError(t, err)

			var got any
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestExtractJSON_BalancedScanSkipsTrailingObject(t *testing.T) {
	text := `Result: {"a": "x\"}"} and also {"b": 2}`
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "x\"}"}`, string(raw))
}

func TestExtractJSON_UnbalancedInput(t *testing.T) {
	text := `{ {"a": 1}`
	_, err := ExtractJSON(text)
	assert.ErrorIs(t, err, ErrUnparseable)

	text = "prefix {\"a\": {\"b\": 1}} suffix }"
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": {"b": 1}}`, string(raw))
}

func TestExtractJSON_Failures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"plain prose", "I cannot help with that."},
		{"array only", `[1, 2, 3]`},
		{"truncated object", `{"bio": "cut off mid`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ExtractJSON(tt.text)
			assert.Nil(t, raw)
			assert.True(t, errors.Is(err, ErrUnparseable))
		})
	}
}

func TestParseAnalysis_Envelope(t *testing.T) {
	text := "```json\n" + `{
		"scoring": {"overall_score": 7.5, "skill_match": 8, "experience_fit": 7, "growth_potential": 6,
			"recommendation": "APPLY", "reasoning": "Strong SQL match"},
		"tailored_resume": {
			"bio": {"role_title": "Data Scientist", "years": "6+", "domain_claims": ["pipelines"], "closer_id": "null"},
			"experiences": [{"company": "GLP Technology", "title": "Data Scientist", "date": "2021 - 2023", "bullets": ["glp_pipeline"]}],
			"projects": [{"name": "Thesis", "bullets": ["thesis_ensembles"]}],
			"skills": [{"category": "Programming", "items": "Python, SQL"}]
		}
	}` + "\n```"

	resp, err := ParseAnalysis(text)
	require.NoError(t, err)
	require.NotNil(t, resp.Scoring)
	assert.Equal(t, 7.5, resp.Scoring.OverallScore)
	assert.Equal(t, "APPLY", resp.Scoring.Recommendation)

	draft := resp.Draft
	require.NotNil(t, draft)
	bio, ok := draft.Bio.(types.StructuredBio)
	require.True(t, ok)
	require.NotNil(t, bio.Years)
	assert.Equal(t, 6, *bio.Years)
	assert.Equal(t, "null", bio.CloserID)
	require.Len(t, draft.Experiences, 1)
	assert.Equal(t, []string{"glp_pipeline"}, draft.Experiences[0].Bullets)
	assert.Equal(t, []string{"Python", "SQL"}, draft.Skills[0].Items)
}

func TestParseAnalysis_TopLevelDraft(t *testing.T) {
	resp, err := ParseAnalysis(`{"bio": "Plain text bio.", "experiences": [], "skills": []}`)
	require.NoError(t, err)
	assert.Nil(t, resp.Scoring)

	text, ok := resp.Draft.BioText()
	assert.True(t, ok)
	assert.Equal(t, "Plain text bio.", text)
}

func TestParseAnalysis_NullBio(t *testing.T) {
	resp, err := ParseAnalysis(`{"tailored_resume": {"bio": null}}`)
	require.NoError(t, err)
	assert.Equal(t, types.NoBio{}, resp.Draft.Bio)
}

func TestParseAnalysis_Errors(t *testing.T) {
	_, err := ParseAnalysis("no json here")
	assert.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseAnalysis(`{"tailored_resume": "not an object"}`)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "not an object")

	_, err = ParseAnalysis(`{"tailored_resume": {"bio": 12}}`)
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "draft does not match schema", parseErr.Message)
}

func TestParseAnalysis_MalformedScoringKeepsDraft(t *testing.T) {
	resp, err := ParseAnalysis(`{"scoring": "high", "tailored_resume": {"bio": null}}`)
	require.NoError(t, err)
	assert.Nil(t, resp.Scoring)
	assert.NotNil(t, resp.Draft)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 10))
	assert.Equal(t, "abc...", Preview("abcdef", 3))
}
