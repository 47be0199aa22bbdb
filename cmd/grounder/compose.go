package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var composeJobPath string

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Print the prompt that would be sent for a job",
	RunE:  runCompose,
}

func init() {
	composeCmd.Flags().StringVar(&composeJobPath, "job", "", "Path to a YAML or JSON job")
	_ = composeCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, _ []string) error {
	job, err := readJob(composeJobPath)
	if err != nil {
		return err
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
	prompt, err := engine.Compose(job)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
	return err
}
