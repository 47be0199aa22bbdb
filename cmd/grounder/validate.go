package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-grounder/internal/observability"
	"github.com/jonathan/resume-grounder/internal/pipeline"
)

var (
	validateDraftPath string
	validateJobPath   string
	validateOutPath   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Ground and validate a saved model response without calling the model",
	Long: `Parses a raw model response, rewrites its bullets to verified evidence, assembles the bio
and runs every validation check against the job. Exits non-zero unless the draft is accepted.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateDraftPath, "draft", "", "Path to the raw model response")
	validateCmd.Flags().StringVar(&validateJobPath, "job", "", "Path to a YAML or JSON job")
	validateCmd.Flags().StringVarP(&validateOutPath, "out", "o", "", "Write the result as JSON to this path")
	_ = validateCmd.MarkFlagRequired("draft")
	_ = validateCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	job, err := readJob(validateJobPath)
	if err != nil {
		return err
	}
	response, err := os.ReadFile(validateDraftPath)
	if err != nil {
		return fmt.Errorf("failed to read draft: %w", err)
	}

	a, err := loadApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.newEngine(cmd.Context(), nil, nil)
	if err != nil {
		return err
	}
	result := engine.Evaluate(job, string(response))
	observability.NewPrinter(cmd.OutOrStdout()).PrintJobResult(result)

	if validateOutPath != "" {
		if err := writeJSON(validateOutPath, result); err != nil {
			return err
		}
	}
	if result.Status != pipeline.StatusAccepted {
		return fmt.Errorf("draft %s", result.Status)
	}
	return nil
}
