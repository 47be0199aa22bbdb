package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/resume-grounder/internal/budget"
	"github.com/jonathan/resume-grounder/internal/composing"
	"github.com/jonathan/resume-grounder/internal/config"
	"github.com/jonathan/resume-grounder/internal/db"
	"github.com/jonathan/resume-grounder/internal/evidence"
	"github.com/jonathan/resume-grounder/internal/llm"
	"github.com/jonathan/resume-grounder/internal/pipeline"
	"github.com/jonathan/resume-grounder/internal/store"
	"github.com/jonathan/resume-grounder/internal/types"
)

// app holds what every subcommand loads: config, logger, evidence library and store
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	lib    *types.EvidenceLibrary
	store  store.Store
}

func newLogger(w io.Writer, debug bool, format string) (*slog.Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// loadApp reads the config and evidence library. The store is opened only when withStore is set.
func loadApp(ctx context.Context, withStore bool) (*app, error) {
	logger, err := newLogger(os.Stderr, debug, logFormat)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	lib, err := evidence.Load(cfg.LibraryPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load evidence library: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, lib: lib, store: store.NewNopStore()}
	if withStore {
		if a.store, err = openStore(ctx, cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

// openStore picks the backend from the URL: postgres URLs use the pgx pool,
// "none" disables persistence and anything else is a SQLite file path.
func openStore(ctx context.Context, url string, logger *slog.Logger) (store.Store, error) {
	switch {
	case url == "" || url == "none":
		return store.NewNopStore(), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		database, err := db.Connect(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Debug("using postgres store")
		return database, nil
	default:
		path := strings.TrimPrefix(url, "sqlite://")
		sqlite, err := store.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("using sqlite store", "path", path)
		return sqlite, nil
	}
}

// newClient creates the model client for the selected profile
func (a *app) newClient(ctx context.Context) (llm.Client, error) {
	name, profile, err := a.cfg.Profile(modelName)
	if err != nil {
		return nil, err
	}
	apiKey, err := profile.APIKey()
	if err != nil {
		return nil, fmt.Errorf("model profile %s: %w", name, err)
	}
	client, err := llm.NewClient(ctx, profile.LLMConfig(), apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", profile.Provider, err)
	}
	a.logger.Debug("model client ready", "profile", name, "provider", profile.Provider, "model", client.Model())
	return client, nil
}

// newEngine builds the engine with the day's usage loaded from the store
func (a *app) newEngine(ctx context.Context, client llm.Client, onProgress pipeline.ProgressCallback) (*pipeline.Engine, error) {
	tracker, err := budget.Load(ctx, a.store, a.cfg.BudgetLimits(), time.Now(), a.logger)
	if err != nil {
		return nil, err
	}

	composerOpts := []composing.Option{composing.WithThresholds(a.cfg.ComposerThresholds())}
	if a.cfg.AnalyzerPrompt != "" {
		template, err := os.ReadFile(a.cfg.AnalyzerPrompt)
		if err != nil {
			return nil, fmt.Errorf("failed to read analyzer prompt: %w", err)
		}
		composerOpts = append(composerOpts, composing.WithTemplate(string(template)))
	}
	if a.cfg.MasterResumePath != "" {
		resume, err := os.ReadFile(a.cfg.MasterResumePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read master resume: %w", err)
		}
		composerOpts = append(composerOpts, composing.WithMasterResume(string(resume)))
	}

	policy := a.cfg.RetryPolicy()
	policy.Logger = a.logger
	return pipeline.NewEngine(a.lib, client, tracker, pipeline.Options{
		Composer:        a.cfg.ComposerSettings(),
		ComposerOptions: composerOpts,
		Retry:           policy,
		JobDelay:        a.cfg.JobDelay,
		Store:           a.store,
		OnProgress:      onProgress,
	}, a.logger)
}

// jobFile accepts a bare list of jobs or a mapping with a jobs key
type jobFile []types.GenerationRequest

func (j *jobFile) UnmarshalYAML(node *yaml.Node) error {
	var jobs []types.GenerationRequest
	if node.Kind == yaml.MappingNode {
		var wrapped struct {
			Jobs []types.GenerationRequest `yaml:"jobs"`
		}
		if err := node.Decode(&wrapped); err != nil {
			return err
		}
		jobs = wrapped.Jobs
	} else if err := node.Decode(&jobs); err != nil {
		return err
	}
	*j = jobs
	return nil
}

// readJobs loads a YAML or JSON job list and validates every entry
func readJobs(path string) ([]types.GenerationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}
	var jobs jobFile
	if err := yaml.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse jobs file %s: %w", path, err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("jobs file %s contains no jobs", path)
	}

	validate := validator.New()
	for i, job := range jobs {
		if err := validate.Struct(job); err != nil {
			return nil, fmt.Errorf("job %d (%s): %w", i+1, pipeline.JobKey(job), err)
		}
	}
	return jobs, nil
}

// readJob loads a single YAML or JSON job
func readJob(path string) (types.GenerationRequest, error) {
	var job types.GenerationRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return job, fmt.Errorf("failed to read job file: %w", err)
	}
	if err := yaml.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}
	if err := validator.New().Struct(job); err != nil {
		return job, fmt.Errorf("job file %s: %w", path, err)
	}
	return job, nil
}
