// Package config loads the tailoring engine configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/resume-grounder/internal/budget"
	"github.com/jonathan/resume-grounder/internal/composing"
	"github.com/jonathan/resume-grounder/internal/llm"
	"github.com/jonathan/resume-grounder/internal/retry"
)

// Defaults applied when a key is absent
const (
	DefaultLibraryPath = "assets/bullet_library.yaml"
	DefaultDatabaseURL = "grounder.db"
	DefaultServerPort  = 8080
	DefaultRateLimit   = 60 // requests per minute per client
)

// ModelProfile is one entry of the models map
type ModelProfile struct {
	Provider    llm.Provider  `validate:"required,oneof=anthropic gemini"`
	Model       string        `validate:"required"`
	MaxTokens   int64         `validate:"gt=0"`
	Temperature float64       `validate:"gte=0,lte=2"`
	EnvKey      string        `validate:"required"`
	EnvURL      string
	Timeout     time.Duration `validate:"gte=0"`
}

// PromptSettings controls what the composed prompt contains
type PromptSettings struct {
	JobDescriptionMaxChars int `validate:"gte=0"`
	MasterResumeMaxChars   int `validate:"gte=0"`
	ExperienceKeys         []string
	ProjectKeys            []string
	RedactInstructions     bool
}

// Thresholds are the recommendation score cut-offs
type Thresholds struct {
	ApplyNow int `validate:"gte=0,lte=10"`
	Apply    int `validate:"gte=0,lte=10"`
	Maybe    int `validate:"gte=0,lte=10"`
}

// BudgetConfig holds the daily token limits
type BudgetConfig struct {
	DailyLimit       int64 `validate:"gt=0"`
	WarningThreshold int64 `validate:"gte=0"`
}

// RetryConfig holds the provider retry schedule
type RetryConfig struct {
	MaxRetries    int           `validate:"gte=0,lte=10"`
	TransientBase time.Duration `validate:"gte=0"`
	RateLimitBase time.Duration `validate:"gte=0"`
	MaxJitter     time.Duration `validate:"gte=0"`
}

// ServerConfig holds the HTTP surface settings
type ServerConfig struct {
	Port      int `validate:"gt=0,lte=65535"`
	RateLimit int `validate:"gt=0"`
}

// Config is the validated engine configuration
type Config struct {
	ActiveModel      string                   `validate:"required"`
	Models           map[string]*ModelProfile `validate:"required,min=1,dive"`
	PromptSettings   PromptSettings
	AnalyzerPrompt   string
	Thresholds       Thresholds
	Budget           BudgetConfig
	Retry            RetryConfig
	JobDelay         time.Duration
	LibraryPath      string `validate:"required"`
	MasterResumePath string
	DatabaseURL      string
	Server           ServerConfig
}

type rawConfig struct {
	ActiveModel    string                     `yaml:"active_model"`
	Models         map[string]rawModelProfile `yaml:"models"`
	PromptSettings struct {
		JobDescriptionMaxChars int      `yaml:"job_description_max_chars"`
		MasterResumeMaxChars   int      `yaml:"master_resume_max_chars"`
		ExperienceKeys         []string `yaml:"experience_keys"`
		ProjectKeys            []string `yaml:"project_keys"`
		RedactInstructions     bool     `yaml:"redact_instructions"`
	} `yaml:"prompt_settings"`
	Prompts struct {
		Analyzer string `yaml:"analyzer"`
	} `yaml:"prompts"`
	Thresholds *struct {
		ApplyNow int `yaml:"apply_now"`
		Apply    int `yaml:"apply"`
		Maybe    int `yaml:"maybe"`
	} `yaml:"ai_recommendation_thresholds"`
	Budget struct {
		DailyLimit       int64 `yaml:"daily_limit"`
		WarningThreshold int64 `yaml:"warning_threshold"`
	} `yaml:"budget"`
	Retry struct {
		MaxRetries    *int   `yaml:"max_retries"`
		TransientBase string `yaml:"transient_base"`
		RateLimitBase string `yaml:"rate_limit_base"`
		MaxJitter     string `yaml:"max_jitter"`
	} `yaml:"retry"`
	Pacing struct {
		JobDelay string `yaml:"job_delay"`
	} `yaml:"pacing"`
	LibraryPath      string `yaml:"library_path"`
	MasterResumePath string `yaml:"master_resume_path"`
	DatabaseURL      string `yaml:"database_url"`
	Server           struct {
		Port      int `yaml:"port"`
		RateLimit int `yaml:"rate_limit"`
	} `yaml:"server"`
}

type rawModelProfile struct {
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	MaxTokens   int64    `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	EnvKey      string   `yaml:"env_key"`
	EnvURL      string   `yaml:"env_url"`
	Timeout     string   `yaml:"timeout"`
}

// Load reads, parses and validates the config file at path. Environment
// variables in the file are expanded before parsing. Relative paths inside the
// file resolve against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.LibraryPath = resolvePath(base, cfg.LibraryPath)
	cfg.MasterResumePath = resolvePath(base, cfg.MasterResumePath)
	cfg.AnalyzerPrompt = resolvePath(base, cfg.AnalyzerPrompt)
	return cfg, nil
}

// Parse builds a Config from YAML content
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	cfg := &Config{
		ActiveModel: raw.ActiveModel,
		Models:      make(map[string]*ModelProfile, len(raw.Models)),
		PromptSettings: PromptSettings{
			JobDescriptionMaxChars: raw.PromptSettings.JobDescriptionMaxChars,
			MasterResumeMaxChars:   raw.PromptSettings.MasterResumeMaxChars,
			ExperienceKeys:         raw.PromptSettings.ExperienceKeys,
			ProjectKeys:            raw.PromptSettings.ProjectKeys,
			RedactInstructions:     raw.PromptSettings.RedactInstructions,
		},
		AnalyzerPrompt: raw.Prompts.Analyzer,
		Budget: BudgetConfig{
			DailyLimit:       raw.Budget.DailyLimit,
			WarningThreshold: raw.Budget.WarningThreshold,
		},
		Retry: RetryConfig{
			MaxRetries: retry.DefaultMaxRetries,
		},
		LibraryPath:      raw.LibraryPath,
		MasterResumePath: raw.MasterResumePath,
		DatabaseURL:      raw.DatabaseURL,
		Server: ServerConfig{
			Port:      raw.Server.Port,
			RateLimit: raw.Server.RateLimit,
		},
	}

	for name, m := range raw.Models {
		profile, err := m.toProfile()
		if err != nil {
			return nil, fmt.Errorf("models.%s: %w", name, err)
		}
		cfg.Models[name] = profile
	}

	defaults := composing.DefaultThresholds()
	cfg.Thresholds = Thresholds{ApplyNow: defaults.ApplyNow, Apply: defaults.Apply, Maybe: defaults.Maybe}
	if raw.Thresholds != nil {
		cfg.Thresholds = Thresholds{ApplyNow: raw.Thresholds.ApplyNow, Apply: raw.Thresholds.Apply, Maybe: raw.Thresholds.Maybe}
	}

	if cfg.Budget.DailyLimit == 0 {
		cfg.Budget.DailyLimit = budget.DefaultDailyLimit
	}
	if cfg.Budget.WarningThreshold == 0 {
		cfg.Budget.WarningThreshold = budget.DefaultWarningThreshold
	}

	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	var err error
	if cfg.Retry.TransientBase, err = parseDuration(raw.Retry.TransientBase, retry.DefaultTransientBase); err != nil {
		return nil, fmt.Errorf("retry.transient_base: %w", err)
	}
	if cfg.Retry.RateLimitBase, err = parseDuration(raw.Retry.RateLimitBase, retry.DefaultRateLimitBase); err != nil {
		return nil, fmt.Errorf("retry.rate_limit_base: %w", err)
	}
	if cfg.Retry.MaxJitter, err = parseDuration(raw.Retry.MaxJitter, retry.DefaultMaxJitter); err != nil {
		return nil, fmt.Errorf("retry.max_jitter: %w", err)
	}
	// A zero job delay is meaningful (no pacing), so an explicit "0s" maps to
	// a negative delay for the engine.
	if raw.Pacing.JobDelay != "" {
		if cfg.JobDelay, err = time.ParseDuration(raw.Pacing.JobDelay); err != nil {
			return nil, fmt.Errorf("pacing.job_delay: %w", err)
		}
		if cfg.JobDelay == 0 {
			cfg.JobDelay = -1
		}
	}

	if cfg.LibraryPath == "" {
		cfg.LibraryPath = DefaultLibraryPath
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = DefaultDatabaseURL
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = DefaultRateLimit
	}
	return cfg, nil
}

func (m rawModelProfile) toProfile() (*ModelProfile, error) {
	profile := &ModelProfile{
		Provider:    llm.Provider(m.Provider),
		Model:       m.Model,
		MaxTokens:   m.MaxTokens,
		Temperature: llm.DefaultTemperature,
		EnvKey:      m.EnvKey,
		EnvURL:      m.EnvURL,
	}
	if profile.MaxTokens == 0 {
		profile.MaxTokens = llm.DefaultMaxTokens
	}
	if m.Temperature != nil {
		profile.Temperature = *m.Temperature
	}
	timeout, err := parseDuration(m.Timeout, llm.DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}
	profile.Timeout = timeout
	return profile, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Validate checks struct constraints and the cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	if _, ok := c.Models[c.ActiveModel]; !ok {
		return fmt.Errorf("active_model %q is not defined in models", c.ActiveModel)
	}
	if c.Budget.WarningThreshold > c.Budget.DailyLimit {
		return fmt.Errorf("budget.warning_threshold (%d) exceeds budget.daily_limit (%d)",
			c.Budget.WarningThreshold, c.Budget.DailyLimit)
	}
	t := c.Thresholds
	if !(t.ApplyNow >= t.Apply && t.Apply >= t.Maybe) {
		return fmt.Errorf("ai_recommendation_thresholds must satisfy apply_now >= apply >= maybe, got %d/%d/%d",
			t.ApplyNow, t.Apply, t.Maybe)
	}
	return nil
}

// Profile returns the named model profile, or the active one when name is empty
func (c *Config) Profile(name string) (string, *ModelProfile, error) {
	if name == "" {
		name = c.ActiveModel
	}
	profile, ok := c.Models[name]
	if !ok {
		return "", nil, fmt.Errorf("model profile %q is not defined", name)
	}
	return name, profile, nil
}

// LLMConfig converts a profile into the client configuration, reading the base
// URL override from the environment variable the profile names.
func (p *ModelProfile) LLMConfig() *llm.Config {
	cfg := &llm.Config{
		Provider:    p.Provider,
		Model:       p.Model,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		Timeout:     p.Timeout,
	}
	if p.EnvURL != "" {
		cfg.BaseURL = os.Getenv(p.EnvURL)
	}
	return cfg
}

// APIKey reads the profile's key from the environment
func (p *ModelProfile) APIKey() (string, error) {
	key := os.Getenv(p.EnvKey)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", p.EnvKey)
	}
	return key, nil
}

// RetryPolicy converts the retry section into a policy
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries: c.Retry.MaxRetries,
		Classify:   retry.ClassifyLLM,
		Backoff:    retry.ProviderSchedule(c.Retry.TransientBase, c.Retry.RateLimitBase, c.Retry.MaxJitter),
	}
}

// BudgetLimits converts the budget section
func (c *Config) BudgetLimits() budget.Limits {
	return budget.Limits{DailyLimit: c.Budget.DailyLimit, WarningThreshold: c.Budget.WarningThreshold}
}

// ComposerSettings converts the prompt settings
func (c *Config) ComposerSettings() composing.Settings {
	return composing.Settings{
		JobDescriptionMaxChars: c.PromptSettings.JobDescriptionMaxChars,
		MasterResumeMaxChars:   c.PromptSettings.MasterResumeMaxChars,
		ExperienceKeys:         c.PromptSettings.ExperienceKeys,
		ProjectKeys:            c.PromptSettings.ProjectKeys,
		RedactInstructions:     c.PromptSettings.RedactInstructions,
	}
}

// ComposerThresholds converts the recommendation thresholds
func (c *Config) ComposerThresholds() composing.Thresholds {
	return composing.Thresholds{ApplyNow: c.Thresholds.ApplyNow, Apply: c.Thresholds.Apply, Maybe: c.Thresholds.Maybe}
}
