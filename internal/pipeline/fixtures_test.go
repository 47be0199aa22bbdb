package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/resume-grounder/internal/budget"
	"github.com/jonathan/resume-grounder/internal/composing"
	"github.com/jonathan/resume-grounder/internal/evidence"
	"github.com/jonathan/resume-grounder/internal/llm"
	"github.com/jonathan/resume-grounder/internal/retry"
	"github.com/jonathan/resume-grounder/internal/store"
	"github.com/jonathan/resume-grounder/internal/types"
	"github.com/stretchr/testify/require"
)

const acceptedDraftJSON = `{
  "scoring": {"overall_score": 7.5, "skill_match": 8, "experience_fit": 7, "growth_potential": 6,
              "recommendation": "APPLY_NOW", "reasoning": "Strong data overlap"},
  "tailored_resume": {
    "bio": {"role_title": "Data Scientist", "years": 9, "domain_claims": ["credit_risk", "pipelines"], "closer_id": "eager"},
    "experiences": [
      {"company": "GLP Technology", "title": "Data Scientist", "date": "2021 - 2023", "bullets": ["glp_credit_model", "glp_pipeline"]},
      {"company": "Initech", "title": "Data Analyst", "bullets": ["init_sql"]}
    ],
    "projects": [{"name": "Uncertainty Quantification for RL", "bullets": ["thesis_ensembles"]}],
    "skills": [
      {"category": "Programming", "items": ["Python", "SQL"]},
      {"category": "Data Engineering", "items": "Airflow, dbt"},
      {"category": "Machine Learning", "items": ["XGBoost", "PyTorch"]}
    ]
  }
}`

const acceptedResponse = "Here is the tailored resume:\n```json\n" + acceptedDraftJSON + "\n```"

const expectedBio = "Data Scientist with 6 years of experience in credit risk modeling and production data pipelines. " +
	"M.Sc. in Artificial Intelligence (2025). Excited to bring this experience to Contoso."

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLibrary(t testing.TB) *types.EvidenceLibrary {
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

// withResume replaces one substring of the accepted response
func withResume(old, replacement string) string {
	return strings.Replace(acceptedResponse, old, replacement, 1)
}

func noSleep(context.Context, time.Duration) error { return nil }

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries: 3,
		Classify:   retry.ClassifyLLM,
		Backoff:    retry.ProviderSchedule(time.Second, 30*time.Second, 0),
		Sleep:      noSleep,
		Logger:     discardLogger(),
	}
}

type engineSetup struct {
	client  llm.Client
	tracker *budget.Tracker
	store   store.Store
}

func newTestEngine(t testing.TB, setup engineSetup) *Engine {
	t.Helper()
	tracker := setup.tracker
	if tracker == nil {
		tracker = budget.NewTracker(budget.Limits{DailyLimit: 100000, WarningThreshold: 80000}, 0, discardLogger())
	}
	engine, err := NewEngine(testLibrary(t), setup.client, tracker, Options{
		Composer: testSettings(),
		Retry:    testPolicy(),
		JobDelay: -1,
		Store:    setup.store,
	}, discardLogger())
	require.NoError(t, err)
	return engine
}

func testSettings() composing.Settings {
	return composing.Settings{
		ExperienceKeys: []string{"glp_technology", "initech"},
		ProjectKeys:    []string{"thesis_uq", "recsys"},
	}
}
