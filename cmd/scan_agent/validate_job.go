package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-scanner/internal/observability"
	"github.com/jonathan/resume-scanner/internal/parsing"
)

var validateJobCmd = &cobra.Command{
	Use:   "validate-job <job_target.json>",
	Short: "Validate a job target file",
	Long:  "Validate a job target JSON file against the embedded schema and the struct rules the scanner applies before a scan.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateJob,
}

var validateJobQuiet bool

func init() {
	validateJobCmd.Flags().BoolVarP(&validateJobQuiet, "quiet", "q", false, "Only report failures")

	rootCmd.AddCommand(validateJobCmd)
}

func runValidateJob(cmd *cobra.Command, args []string) error {
	job, err := parsing.LoadJobTarget(args[0])
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if validateJobQuiet {
		return nil
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintJobTarget(job)
	fmt.Fprintf(cmd.OutOrStdout(), "Validation passed: %s\n", args[0])
	return nil
}
