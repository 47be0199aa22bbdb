package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-grounder/internal/budget"
	"github.com/jonathan/resume-grounder/internal/llm"
	"github.com/jonathan/resume-grounder/internal/llm/llmtest"
	"github.com/jonathan/resume-grounder/internal/store"
	"github.com/jonathan/resume-grounder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestTailorJob_Accepted(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(acceptedResponse, 1200))
	sqlite, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	engine := newTestEngine(t, engineSetup{client: client, store: sqlite})

	result, err := engine.TailorJob(context.Background(), testJob())
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Status, result.Outcome)

	draft := result.Draft
	require.NotNil(t, draft)
	assert.Equal(t, types.FreeformBio{Text: expectedBio}, draft.Bio)
	assert.Equal(t, []string{
		"Built a credit-risk model on 2M loan records that cut default losses by 12%",
		"Migrated nightly feature pipelines from cron scripts to Airflow, reducing failures by 40%",
	}, draft.Experiences[0].Bullets)
	assert.Equal(t, []string{"Airflow", "dbt"}, draft.Skills[1].Items)

	require.NotNil(t, result.Scoring)
	assert.Equal(t, "APPLY_NOW", result.Scoring.Recommendation)
	assert.Empty(t, result.Outcome.Errors)
	assert.Empty(t, result.Outcome.Warnings)

	assert.Equal(t, int64(1200), result.Tokens)
	assert.Equal(t, int64(1200), engine.Budget().Total())

	total, err := sqlite.TokensSince(context.Background(), store.StartOfDay(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(1200), total)

	require.NotEqual(t, uuid.Nil, result.DraftID)
	archived, err := sqlite.GetDraft(context.Background(), result.DraftID)
	require.NoError(t, err)
	assert.Contains(t, string(archived.Draft), "credit risk modeling")
	assert.Contains(t, string(archived.Scoring), "APPLY_NOW")
}

func TestTailorJob_EveryAcceptedBulletIsEvidence(t *testing.T) {
	response := withResume(`["glp_credit_model", "glp_pipeline"]`,
		`["glp_credit_model", "Invented a time machine", "Migrated nightly feature pipelines from cron scripts to Airflow, reducing failures by 40%"]`)
	engine := newTestEngine(t, engineSetup{client: llmtest.NewScriptedClient(llmtest.Text(response, 10))})
	lib := testLibrary(t)

	result, err := engine.TailorJob(context.Background(), testJob())
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Status)

	for _, exp := range result.Draft.Experiences {
		for _, bullet := range exp.Bullets {
			assert.True(t, lib.ContainsText(bullet), bullet)
		}
	}
	assert.Len(t, result.Draft.Experiences[0].Bullets, 2)
	assert.Equal(t, []string{"[GLP Technology] Unknown bullet ID or text: 'Invented a time machine'"}, result.Outcome.Warnings)
}

func TestTailorJob_UnresolvableBulletsEmptyAnExperience(t *testing.T) {
	response := withResume(`["init_sql"]`, `["made_up_1", "made_up_2"]`)
	engine := newTestEngine(t, engineSetup{client: llmtest.NewScriptedClient(llmtest.Text(response, 10))})

	result, err := engine.TailorJob(context.Background(), testJob())
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, result.Status)
	assert.Nil(t, result.Draft)
	assert.Contains(t, result.Outcome.Errors, "Experience 'Initech' has no bullets")
	assert.Len(t, result.Outcome.Warnings, 2)
}

func TestTailorJob_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		errMsg   string
	}{
		{
			"title outside employer options",
			`"title": "Data Analyst"`, `"title": "Chief Data Officer"`,
			"Title 'Chief Data Officer' for Initech not in allowed list: [Data Analyst, Business Intelligence Analyst]",
		},
		{
			"excluded skill",
			`["Python", "SQL"]`, `["Python", "SQL", "Java"]`,
			"Excluded skill 'Java' found in category 'Programming'",
		},
		{
			"single experience",
			`,
      {"company": "Initech", "title": "Data Analyst", "bullets": ["init_sql"]}`, ``,
			"Need at least 2 experiences, got 1",
		},
		{
			"unknown domain claim",
			`["credit_risk", "pipelines"]`, `["credit_risk", "quantum"]`,
			"Bio domain_claim 'quantum' not in whitelist: [credit_risk, forecasting, pipelines]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := withResume(tt.old, tt.new)
			require.NotEqual(t, acceptedResponse, response)
			engine := newTestEngine(t, engineSetup{client: llmtest.NewScriptedClient(llmtest.Text(response, 10))})

			result, err := engine.TailorJob(context.Background(), testJob())
			require.NoError(t, err)
			assert.Equal(t, StatusRejected, result.Status)
			assert.Nil(t, result.Draft)
			assert.False(t, result.Outcome.Passed)
			assert.Contains(t, result.Outcome.Errors, tt.errMsg)
		})
	}
}

func TestTailorJob_TruncatedIsSkippedWithoutRetry(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Truncated(`{"tailored_resume": {"bio": "cut`, 4096))
	engine := newTestEngine(t, engineSetup{client: client})

	result, err := engine.TailorJob(context.Background(), testJob())
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedTruncated, result.Status)
	assert.True(t, result.Status.Skipped())
	assert.Equal(t, 1, client.Calls())
	assert.Equal(t, int64(4096), engine.Budget().Total())
}

func TestTailorJob_Unparseable(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text("I cannot help with that.", 20))
	engine := newTestEngine(t, engineSetup{client: client})

	result, err := engine.TailorJob(context.Background(), testJob())
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedUnparseable, result.Status)
	assert.Nil(t, result.Outcome)
	assert.Equal(t, 1, client.Calls())
}

func TestTailorJob_EmptyReplyIsUnparseableAndCounted(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text("", 40))
	sqlite, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	engine := newTestEngine(t, engineSetup{client: client, store: sqlite})

	result, err := engine.TailorJob(context.Background(), testJob())
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedUnparseable, result.Status)
	assert.Equal(t, int64(40), result.Tokens)
	assert.Equal(t, int64(40), engine.Budget().Total())
	assert.Equal(t, 1, client.Calls())

	total, err := sqlite.TokensSince(context.Background(), store.StartOfDay(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(40), total)
}

func TestTailorJob_RetriesTransientErrors(t *testing.T) {
	transient := fmt.Errorf("%w: 503", llm.ErrTransient)
	client := llmtest.NewScriptedClient(
		llmtest.Failure(transient),
		llmtest.Failure(fmt.Errorf("%w: 429", llm.ErrRateLimited)),
		llmtest.Text(acceptedResponse, 10),
	)
	engine := newTestEngine(t, engineSetup{client: client})

	result, err := engine.TailorJob(context.Background(), testJob())
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 3, client.Calls())
}

func TestTailorJob_TransientExhausted(t *testing.T) {
	transient := fmt.Errorf("%w: timeout", llm.ErrTransient)
	client := llmtest.NewScriptedClient(
		llmtest.Failure(transient), llmtest.Failure(transient),
		llmtest.Failure(transient), llmtest.Failure(transient),
	)
	engine := newTestEngine(t, engineSetup{client: client})

	result, err := engine.TailorJob(context.Background(), testJob())
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedTransient, result.Status)
	assert.Equal(t, 4, client.Calls())
	assert.Zero(t, engine.Budget().Total())
}

func TestTailorJob_PermanentProviderError(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Failure(fmt.Errorf("claude API: 400 invalid request")))
	engine := newTestEngine(t, engineSetup{client: client})

	result, err := engine.TailorJob(context.Background(), testJob())
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedError, result.Status)
	assert.Equal(t, 1, client.Calls())
}

func TestRunBatch_Sequential(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Text(acceptedResponse, 100),
		llmtest.Text("not json", 50),
		llmtest.Text(acceptedResponse, 100),
	)
	engine := newTestEngine(t, engineSetup{client: client})

	jobs := []types.GenerationRequest{testJob(), testJob(), testJob()}
	jobs[0].Company = "Contoso"
	jobs[1].Company = "Fabrikam"
	jobs[2].Company = "Northwind"

	report, err := engine.RunBatch(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, StopNone, report.Stopped)
	assert.Zero(t, report.Pending)
	assert.Equal(t, 2, report.Count(StatusAccepted))
	assert.Equal(t, 1, report.Count(StatusSkippedUnparseable))
	assert.Equal(t, int64(250), report.TokensUsed)
	assert.NotEqual(t, uuid.Nil, report.RunID)

	prompts := client.Prompts()
	require.Len(t, prompts, 3)
	for i, job := range jobs {
		assert.Contains(t, prompts[i], job.Company)
		assert.Equal(t, job.Company, report.Results[i].Job.Company)
	}
	assert.Contains(t, report.Results[2].Draft.Bio.(types.FreeformBio).Text, "to Northwind.")
}

func TestRunBatch_AuthenticationAbortsBatch(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Failure(fmt.Errorf("%w: invalid x-api-key", llm.ErrAuthentication)),
		llmtest.Text(acceptedResponse, 100),
	)
	engine := newTestEngine(t, engineSetup{client: client})

	report, err := engine.RunBatch(context.Background(), []types.GenerationRequest{testJob(), testJob()})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrAuthentication)
	assert.Equal(t, StopAuthentication, report.Stopped)
	assert.Empty(t, report.Results)
	assert.Equal(t, 2, report.Pending)
	assert.Equal(t, 1, client.Calls())
}

func TestRunBatch_StopsAtBudget(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Text(acceptedResponse, 900),
		llmtest.Text(acceptedResponse, 900),
	)
	tracker := budget.NewTracker(budget.Limits{DailyLimit: 1000, WarningThreshold: 500}, 200, discardLogger())
	engine := newTestEngine(t, engineSetup{client: client, tracker: tracker})

	report, err := engine.RunBatch(context.Background(), []types.GenerationRequest{testJob(), testJob()})
	require.NoError(t, err)
	assert.Equal(t, StopBudget, report.Stopped)
	assert.Len(t, report.Results, 1)
	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, 1, client.Calls())
	assert.Equal(t, int64(1100), tracker.Total())
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := newTestEngine(t, engineSetup{client: llmtest.NewScriptedClient()})

	report, err := engine.RunBatch(ctx, []types.GenerationRequest{testJob()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCancelled, report.Stopped)
}

func TestEvaluate_Offline(t *testing.T) {
	engine := newTestEngine(t, engineSetup{})

	result := engine.Evaluate(testJob(), acceptedResponse)
	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, types.FreeformBio{Text: expectedBio}, result.Draft.Bio)

	_, err := engine.TailorJob(context.Background(), testJob())
	assert.Error(t, err)
}

func TestEvaluate_BioAssemblyIsIdempotent(t *testing.T) {
	engine := newTestEngine(t, engineSetup{})

	first := engine.Evaluate(testJob(), acceptedResponse)
	second := engine.Evaluate(testJob(), acceptedResponse)
	assert.Equal(t, first.Draft.Bio, second.Draft.Bio)
}

func TestJobKey(t *testing.T) {
	assert.Equal(t, "contoso-data-scientist", JobKey(testJob()))
	assert.Equal(t, "job-42", JobKey(types.GenerationRequest{JobID: "job-42", Company: "X"}))
	assert.Equal(t, "at-t-sr-engineer", JobKey(types.GenerationRequest{Company: "AT&T ", JobTitle: "Sr. Engineer!"}))
	assert.Equal(t, "job", JobKey(types.GenerationRequest{}))
}

func TestNewEngine_Pacing(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
		want  rate.Limit
	}{
		{name: "default", delay: 0, want: rate.Every(DefaultJobDelay)},
		{name: "configured", delay: 5 * time.Second, want: rate.Every(5 * time.Second)},
		{name: "disabled", delay: -1, want: rate.Inf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(testLibrary(t), nil, nil, Options{
				Composer: testSettings(),
				JobDelay: tt.delay,
			}, discardLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.want, engine.limiter.Limit())
		})
	}
}

func TestNewEngine_RequiresLibrary(t *testing.T) {
	_, err := NewEngine(nil, nil, nil, Options{}, discardLogger())
	assert.Error(t, err)
}
