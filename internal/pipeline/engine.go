// Package pipeline drives jobs through compose, generate, parse, ground,
// bio assembly and validation, one job at a time.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jonathan/resume-grounder/internal/bio"
	"github.com/jonathan/resume-grounder/internal/budget"
	"github.com/jonathan/resume-grounder/internal/composing"
	"github.com/jonathan/resume-grounder/internal/grounding"
	"github.com/jonathan/resume-grounder/internal/llm"
	"github.com/jonathan/resume-grounder/internal/parsing"
	"github.com/jonathan/resume-grounder/internal/retry"
	"github.com/jonathan/resume-grounder/internal/store"
	"github.com/jonathan/resume-grounder/internal/types"
	"github.com/jonathan/resume-grounder/internal/validation"
)

// DefaultJobDelay is the minimum spacing between model calls
const DefaultJobDelay = time.Second

// previewChars bounds response text quoted in logs
const previewChars = 200

// Step names reported through ProgressCallback
const (
	StepCompose  = "compose"
	StepGenerate = "generate"
	StepParse    = "parse"
	StepGround   = "ground"
	StepBio      = "assemble_bio"
	StepValidate = "validate"
)

// ProgressEvent represents a progress update during a job
type ProgressEvent struct {
	JobKey  string `json:"job_key"`
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Options configures an Engine
type Options struct {
	Composer        composing.Settings
	ComposerOptions []composing.Option
	Retry           retry.Policy
	// JobDelay spaces model calls; zero uses DefaultJobDelay, negative disables pacing
	JobDelay   time.Duration
	Store      store.Store
	OnProgress ProgressCallback
}

// Engine tailors resumes for jobs against one evidence library
type Engine struct {
	lib        *types.EvidenceLibrary
	client     llm.Client
	budget     *budget.Tracker
	composer   *composing.Composer
	assembler  *bio.Assembler
	validator  *validation.Validator
	policy     retry.Policy
	limiter    *rate.Limiter
	store      store.Store
	onProgress ProgressCallback
	logger     *slog.Logger
}

// NewEngine wires the components. client may be nil for offline evaluation only.
func NewEngine(lib *types.EvidenceLibrary, client llm.Client, tracker *budget.Tracker, opts Options, logger *slog.Logger) (*Engine, error) {
	if lib == nil {
		return nil, fmt.Errorf("evidence library is required")
	}
	if tracker == nil {
		tracker = budget.NewTracker(budget.Limits{}, 0, logger)
	}
	composer, err := composing.NewComposer(lib, opts.Composer, logger, opts.ComposerOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create composer: %w", err)
	}

	policy := opts.Retry
	if policy.Logger == nil {
		policy.Logger = logger
	}

	delay := opts.JobDelay
	if delay == 0 {
		delay = DefaultJobDelay
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	st := opts.Store
	if st == nil {
		st = store.NewNopStore()
	}

	return &Engine{
		lib:        lib,
		client:     client,
		budget:     tracker,
		composer:   composer,
		assembler:  bio.NewAssembler(lib.BioConstraints, logger),
		validator:  validation.New(lib, logger),
		policy:     policy,
		limiter:    rate.NewLimiter(limit, 1),
		store:      st,
		onProgress: opts.OnProgress,
		logger:     logger,
	}, nil
}

// Budget returns the engine's token tracker
func (e *Engine) Budget() *budget.Tracker {
	return e.budget
}

// Compose renders the prompt for job without calling the model
func (e *Engine) Compose(job types.GenerationRequest) (string, error) {
	return e.composer.Compose(job)
}

func (e *Engine) emit(key, step, message string) {
	if e.onProgress != nil {
		e.onProgress(ProgressEvent{JobKey: key, Step: step, Message: message})
	}
}

// TailorJob runs one job end to end. Skips and rejections are reported in the
// result; the error is reserved for conditions that must stop a batch:
// authentication failure, budget exhaustion and cancellation.
func (e *Engine) TailorJob(ctx context.Context, job types.GenerationRequest) (*JobResult, error) {
	return e.tailor(ctx, uuid.Nil, job)
}

func (e *Engine) tailor(ctx context.Context, runID uuid.UUID, job types.GenerationRequest) (*JobResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("no model client configured")
	}
	if err := e.budget.Check(); err != nil {
		return nil, err
	}

	key := JobKey(job)
	logger := e.logger.With("job", key)

	e.emit(key, StepCompose, "composing prompt")
	prompt, err := e.composer.Compose(job)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", key, err)
	}

	e.emit(key, StepGenerate, "calling "+e.client.Model())
	resp, err := retry.Do(ctx, e.policy, func(ctx context.Context) (*llm.Response, error) {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return e.client.Generate(ctx, prompt)
	})
	if err != nil {
		return e.providerFailure(ctx, key, job, err, logger)
	}

	tokens := resp.TokensUsed()
	e.budget.Add(tokens)

	var result *JobResult
	if resp.Truncated {
		logger.Warn("response truncated at output limit, skipping",
			"tokens", tokens, "preview", parsing.Preview(resp.Text, previewChars))
		result = &JobResult{
			Key:    key,
			Job:    job,
			Status: StatusSkippedTruncated,
			Reason: "response stopped at the output token limit",
		}
	} else {
		result = e.evaluate(key, job, resp.Text, logger)
	}
	result.Model = resp.Model
	result.Tokens = tokens

	e.persist(ctx, runID, result, logger)
	return result, nil
}

// providerFailure turns a failed model call into a skip, or an error when the batch must stop
func (e *Engine) providerFailure(ctx context.Context, key string, job types.GenerationRequest, err error, logger *slog.Logger) (*JobResult, error) {
	switch {
	case errors.Is(err, llm.ErrAuthentication):
		logger.Error("authentication failed", "error", err)
		return nil, fmt.Errorf("job %s: %w", key, err)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	}

	status := StatusSkippedError
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		status = StatusSkippedTransient
	}
	logger.Warn("model call failed, skipping job", "status", status, "error", err)
	return &JobResult{Key: key, Job: job, Status: status, Reason: err.Error()}, nil
}

// Evaluate runs parse, grounding, bio assembly and validation over a raw model
// response without calling the model
func (e *Engine) Evaluate(job types.GenerationRequest, responseText string) *JobResult {
	key := JobKey(job)
	return e.evaluate(key, job, responseText, e.logger.With("job", key))
}

func (e *Engine) evaluate(key string, job types.GenerationRequest, text string, logger *slog.Logger) *JobResult {
	result := &JobResult{Key: key, Job: job}

	e.emit(key, StepParse, "parsing response")
	analysis, err := parsing.ParseAnalysis(text)
	if err != nil {
		logger.Warn("unparseable response, skipping", "error", err, "preview", parsing.Preview(text, previewChars))
		result.Status = StatusSkippedUnparseable
		result.Reason = err.Error()
		return result
	}
	result.Scoring = analysis.Scoring
	draft := analysis.Draft

	e.emit(key, StepGround, "resolving evidence references")
	groundingErrs := grounding.Resolve(draft, e.lib)
	for _, msg := range groundingErrs {
		logger.Info("dropped ungrounded bullet", "detail", msg)
	}

	e.emit(key, StepBio, "assembling bio")
	assembled, bioErrs := e.assembler.Assemble(draft.Bio, job.Company)
	if len(bioErrs) == 0 {
		draft.Bio = assembled
	}

	e.emit(key, StepValidate, "validating draft")
	outcome := e.validator.Validate(draft, job)
	if len(bioErrs) > 0 {
		outcome.Errors = append(bioErrs, outcome.Errors...)
	}
	if len(groundingErrs) > 0 {
		outcome.Warnings = append(groundingErrs, outcome.Warnings...)
	}
	outcome.Finalize()
	result.Outcome = outcome

	if !outcome.Passed {
		logger.Info("draft rejected", "errors", len(outcome.Errors), "warnings", len(outcome.Warnings))
		result.Status = StatusRejected
		return result
	}

	logger.Info("draft accepted", "warnings", len(outcome.Warnings), "fixes", len(outcome.Fixes))
	result.Status = StatusAccepted
	result.Draft = draft
	return result
}

// persist records token usage for every call and archives accepted drafts.
// Storage failures are logged; they never change the job's outcome.
func (e *Engine) persist(ctx context.Context, runID uuid.UUID, result *JobResult, logger *slog.Logger) {
	err := e.store.RecordUsage(ctx, store.UsageRecord{
		RunID:  runID,
		JobKey: result.Key,
		Model:  result.Model,
		Status: string(result.Status),
		Tokens: result.Tokens,
	})
	if err != nil {
		logger.Warn("failed to record token usage", "error", err)
	}

	if result.Status != StatusAccepted {
		return
	}
	rec, err := draftRecord(runID, result)
	if err != nil {
		logger.Warn("failed to encode draft for archive", "error", err)
		return
	}
	if err := e.store.SaveDraft(ctx, rec); err != nil {
		logger.Warn("failed to archive draft", "error", err)
		return
	}
	result.DraftID = rec.ID
}

func draftRecord(runID uuid.UUID, result *JobResult) (store.DraftRecord, error) {
	draft, err := json.Marshal(result.Draft)
	if err != nil {
		return store.DraftRecord{}, err
	}
	outcome, err := json.Marshal(result.Outcome)
	if err != nil {
		return store.DraftRecord{}, err
	}
	rec := store.DraftRecord{
		ID:       uuid.New(),
		RunID:    runID,
		JobKey:   result.Key,
		Company:  result.Job.Company,
		JobTitle: result.Job.JobTitle,
		Draft:    draft,
		Outcome:  outcome,
	}
	if result.Scoring != nil {
		if rec.Scoring, err = json.Marshal(result.Scoring); err != nil {
			return store.DraftRecord{}, err
		}
	}
	return rec, nil
}

// RunBatch processes jobs strictly in order. An authentication failure aborts
// the batch with an error; budget exhaustion stops it without one. The report
// always covers the jobs processed so far.
func (e *Engine) RunBatch(ctx context.Context, jobs []types.GenerationRequest) (*BatchReport, error) {
	report := &BatchReport{RunID: uuid.New(), StartedAt: time.Now()}
	logger := e.logger.With("run_id", report.RunID)
	logger.Info("starting batch", "jobs", len(jobs), "model", e.modelName(), "tokens_today", e.budget.Total())

	defer func() {
		report.FinishedAt = time.Now()
		report.Pending = len(jobs) - len(report.Results)
		logger.Info("batch finished",
			"processed", len(report.Results),
			"accepted", report.Count(StatusAccepted),
			"rejected", report.Count(StatusRejected),
			"tokens_used", report.TokensUsed,
			"stopped", string(report.Stopped),
		)
	}()

	for i, job := range jobs {
		logger.Debug("processing job", "index", i+1, "of", len(jobs), "job", JobKey(job))

		result, err := e.tailor(ctx, report.RunID, job)
		if err != nil {
			switch {
			case errors.Is(err, budget.ErrBudgetExhausted):
				logger.Warn("token budget exhausted, stopping batch", "total", e.budget.Total())
				report.Stopped = StopBudget
				return report, nil
			case errors.Is(err, llm.ErrAuthentication):
				report.Stopped = StopAuthentication
				return report, err
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				report.Stopped = StopCancelled
				return report, err
			default:
				return report, err
			}
		}

		report.Results = append(report.Results, result)
		report.TokensUsed += result.Tokens
	}
	return report, nil
}

func (e *Engine) modelName() string {
	if e.client == nil {
		return ""
	}
	return e.client.Model()
}
