package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-grounder/internal/observability"
	"github.com/jonathan/resume-grounder/internal/pipeline"
	"github.com/jonathan/resume-grounder/internal/types"
)

var (
	tailorJobsPath string
	tailorOutDir   string
	tailorVerbose  bool
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor a resume for every job in a batch",
	Long: `Runs each job through compose, generate, parse, ground, bio assembly and validation, one job at a time.

Accepted jobs are written to <out>/<job>.json with the grounded draft and its validation outcome.
Every other job is written to <out>/<job>.rejected.json. The command fails when the provider
rejects the API key; a spent daily token budget stops the batch early without failing it.`,
	RunE: runTailor,
}

func init() {
	tailorCmd.Flags().StringVarP(&tailorJobsPath, "jobs", "j", "", "Path to a YAML or JSON list of jobs")
	tailorCmd.Flags().StringVarP(&tailorOutDir, "out", "o", "output", "Output directory")
	tailorCmd.Flags().BoolVarP(&tailorVerbose, "verbose", "v", false, "Print progress and per-job results")
	_ = tailorCmd.MarkFlagRequired("jobs")
	rootCmd.AddCommand(tailorCmd)
}

func runTailor(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs, err := readJobs(tailorJobsPath)
	if err != nil {
		return err
	}

	a, err := loadApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var onProgress pipeline.ProgressCallback
	if tailorVerbose {
		onProgress = printer.PrintProgress
	}
	engine, err := a.newEngine(ctx, client, onProgress)
	if err != nil {
		return err
	}

	report, runErr := engine.RunBatch(ctx, jobs)
	if report != nil {
		if err := writeResults(tailorOutDir, report.Results); err != nil {
			return err
		}
		if tailorVerbose {
			for _, result := range report.Results {
				printer.PrintJobResult(result)
			}
		}
		printer.PrintBatchReport(report)
	}
	if runErr != nil {
		return fmt.Errorf("batch stopped: %w", runErr)
	}
	return nil
}

type acceptedFile struct {
	Job     types.GenerationRequest    `json:"job"`
	Draft   *types.TailoredResumeDraft `json:"draft"`
	Outcome *types.ValidationOutcome   `json:"outcome"`
	Scoring *types.Scoring             `json:"scoring,omitempty"`
}

// writeResults writes one file per job into dir. Jobs sharing a key get a
// numeric suffix so no result replaces another.
func writeResults(dir string, results []*pipeline.JobResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	seen := make(map[string]int, len(results))
	for _, result := range results {
		base := result.Key
		seen[base]++
		if n := seen[base]; n > 1 {
			base = fmt.Sprintf("%s-%d", base, n)
			for seen[base] > 0 {
				n++
				base = fmt.Sprintf("%s-%d", result.Key, n)
			}
			seen[base]++
		}

		var (
			name    string
			payload any
		)
		if result.Status == pipeline.StatusAccepted {
			name = base + ".json"
			payload = acceptedFile{Job: result.Job, Draft: result.Draft, Outcome: result.Outcome, Scoring: result.Scoring}
		} else {
			name = base + ".rejected.json"
			payload = result
		}
		if err := writeJSON(filepath.Join(dir, name), payload); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
