// Package main provides the grounder command line: batch tailoring, offline
// validation, prompt inspection and the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	modelName  string
	debug      bool
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "grounder",
	Short:         "Tailor resumes to job postings from verified evidence only",
	Long:          "grounder asks a language model to tailor a resume for each job posting, then rewrites every claim to verified evidence and rejects drafts that break the candidate's constraints.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "config/tailor.yaml", "Path to the engine config file")
	flags.StringVar(&modelName, "model", "", "Model profile to use (defaults to active_model)")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
