package validation

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jonathan/resume-grounder/internal/evidence"
	"github.com/jonathan/resume-grounder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLibrary(t *testing.T) *types.EvidenceLibrary {
	t.Helper()
	lib, err := evidence.Load(filepath.Join("..", "..", "testdata", "bullet_library.yaml"), discardLogger())
	require.NoError(t, err)
	return lib
}

func testJob() types.GenerationRequest {
	return types.GenerationRequest{
		JobTitle:       "Data Scientist",
		Company:        "Contoso",
		JobDescription: "We need Python and SQL. Experience with Azure is a plus.",
	}
}

func validDraft() *types.TailoredResumeDraft {
	return &types.TailoredResumeDraft{
		Bio: types.FreeformBio{Text: "Data Scientist with 5 years of experience."},
		Experiences: []types.Experience{
			{Company: "GLP Technology", Title: "Data Scientist", Bullets: []string{
				"Built a credit-risk model on 2M loan records that cut default losses by 12%",
			}},
			{Company: "Initech", Title: "Data Analyst", Bullets: []string{
				"Rewrote reporting SQL to run in 3 minutes instead of 45",
			}},
		},
		Projects: []types.Project{
			{Name: "Uncertainty Quantification for RL", Bullets: []string{
				"Benchmarked deep ensembles against MC dropout on six control tasks",
			}},
		},
		Skills: []types.SkillGroup{
			{Category: "Programming", Items: []string{"Python", "SQL"}},
			{Category: "Data Engineering", Items: []string{"Airflow", "dbt"}},
			{Category: "Machine Learning", Items: []string{"XGBoost", "PyTorch"}},
		},
	}
}

func TestValidate_ValidDraftPasses(t *testing.T) {
	v := New(testLibrary(t), discardLogger())

	outcome := v.Validate(validDraft(), testJob())
	assert.True(t, outcome.Passed)
	assert.Empty(t, outcome.Errors)
	assert.Empty(t, outcome.Warnings)
	assert.Empty(t, outcome.Fixes)
}

func TestValidate_TitleNotAllowed(t *testing.T) {
	draft := validDraft()
	draft.Experiences[1].Title = "Senior Wizard"

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.False(t, outcome.Passed)
	assert.Equal(t, []string{
		"Title 'Senior Wizard' for Initech not in allowed list: [Data Analyst, Business Intelligence Analyst]",
	}, outcome.Errors)
}

func TestValidate_TitleWhitespaceAndFuzzyEmployer(t *testing.T) {
	draft := validDraft()
	draft.Experiences[0].Company = "GLP Technology Co."
	draft.Experiences[0].Title = "  Machine Learning   Engineer "

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.True(t, outcome.Passed, outcome.Errors)
}

func TestValidate_UnmatchedEmployerWarns(t *testing.T) {
	draft := validDraft()
	draft.Experiences[1].Company = "Umbrella Corp"
	draft.Experiences[1].Title = "Anything"

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.True(t, outcome.Passed)
	assert.Contains(t, outcome.Warnings, "No title options match employer 'Umbrella Corp'; title not checked")
}

func TestValidate_ExcludedSkillBlocks(t *testing.T) {
	draft := validDraft()
	draft.Skills[0].Items = append(draft.Skills[0].Items, "Java 17")

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.False(t, outcome.Passed)
	assert.Equal(t, []string{"Excluded skill 'Java 17' found in category 'Programming'"}, outcome.Errors)
}

func TestValidate_TransferableActivation(t *testing.T) {
	draft := validDraft()
	draft.Skills = append(draft.Skills, types.SkillGroup{Category: "Cloud", Items: []string{"Azure / Kafka"}})

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.True(t, outcome.Passed)
	assert.Equal(t, []string{
		"Transferable skill 'Kafka' in category 'Cloud' is not activated by the job description",
	}, outcome.Warnings)
}

func TestValidate_UnverifiedSkillWarns(t *testing.T) {
	draft := validDraft()
	draft.Skills[0].Items = []string{"Python, SQL, Rust"}

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.True(t, outcome.Passed)
	assert.Equal(t, []string{"Unverified skill 'Rust' in category 'Programming'"}, outcome.Warnings)
}

func TestValidate_CategoryWhitelist(t *testing.T) {
	draft := validDraft()
	draft.Skills[0].Category = "programming"
	draft.Skills[1].Category = "Soft Skills"

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.False(t, outcome.Passed)
	require.Len(t, outcome.Errors, 1)
	assert.Contains(t, outcome.Errors[0], "Skill category 'Soft Skills' not in allowed list")
}

func TestValidate_DuplicateSkills(t *testing.T) {
	draft := validDraft()
	draft.Skills[2].Items = append(draft.Skills[2].Items, "Python (pandas)")

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.True(t, outcome.Passed)
	assert.Equal(t, []string{"Duplicate skill 'Python (pandas)' in 'Machine Learning' (also in 'Programming')"}, outcome.Warnings)
}

func TestValidate_Structure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *types.TailoredResumeDraft)
		want   []string
	}{
		{
			name:   "single experience",
			mutate: func(d *types.TailoredResumeDraft) { d.Experiences = d.Experiences[:1] },
			want:   []string{"Need at least 2 experiences, got 1"},
		},
		{
			name:   "no projects",
			mutate: func(d *types.TailoredResumeDraft) { d.Projects = nil },
			want:   []string{"Need at least 1 project, got 0"},
		},
		{
			name:   "two skill categories",
			mutate: func(d *types.TailoredResumeDraft) { d.Skills = d.Skills[:2] },
			want:   []string{"Need at least 3 skill categories, got 2"},
		},
		{
			name:   "experience emptied by grounding",
			mutate: func(d *types.TailoredResumeDraft) { d.Experiences[1].Bullets = []string{} },
			want:   []string{"Experience 'Initech' has no bullets"},
		},
		{
			name:   "unnamed project without bullets",
			mutate: func(d *types.TailoredResumeDraft) { d.Projects[0] = types.Project{} },
			want:   []string{"Project '#1' has no bullets"},
		},
	}

	v := New(testLibrary(t), discardLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(draft)

			outcome := v.Validate(draft, testJob())
			assert.False(t, outcome.Passed)
			assert.Equal(t, tt.want, outcome.Errors)
		})
	}
}

func TestValidate_BioFixes(t *testing.T) {
	draft := validDraft()
	draft.Bio = types.FreeformBio{Text: "A Results-Driven and passionate engineer with 10+ years of experience."}

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.True(t, outcome.Passed)

	want := "A outcome-focused and passionate engineer with 6+ years of experience."
	assert.Equal(t, want, outcome.Fixes["bio"])
	assert.Equal(t, types.FreeformBio{Text: want}, draft.Bio)
	assert.Equal(t, []string{"Bio: contains banned phrase 'passionate' (no auto-replacement)"}, outcome.Warnings)
}

func TestValidate_BioYearsBelowMinimum(t *testing.T) {
	draft := validDraft()
	draft.Bio = types.FreeformBio{Text: "Analyst with 0 years of experience."}

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.Equal(t, "Analyst with 1 years of experience.", outcome.Fixes["bio"])
}

func TestValidate_BioYearsOutOfIntRangeCapped(t *testing.T) {
	draft := validDraft()
	draft.Bio = types.FreeformBio{Text: "Analyst with 99999999999999999999999 years of experience."}

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.Equal(t, "Analyst with 6 years of experience.", outcome.Fixes["bio"])
}

func TestValidate_NoBioSkipsLexicalCheck(t *testing.T) {
	draft := validDraft()
	draft.Bio = types.NoBio{}

	outcome := New(testLibrary(t), discardLogger()).Validate(draft, testJob())
	assert.True(t, outcome.Passed)
	assert.Empty(t, outcome.Fixes)
}

func TestValidate_UnconfiguredTaxonomiesSkipChecks(t *testing.T) {
	lib, err := evidence.Parse([]byte("{}"), discardLogger())
	require.NoError(t, err)

	draft := validDraft()
	draft.Experiences[0].Title = "Anything"
	draft.Skills[0].Items = []string{"Java", "Cobol"}
	draft.Skills[1].Category = "Whatever"

	outcome := New(lib, discardLogger()).Validate(draft, testJob())
	assert.True(t, outcome.Passed)
	assert.Empty(t, outcome.Warnings)
}
