package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-scanner/internal/fetch"
	"github.com/jonathan/resume-scanner/internal/ingestion"
	"github.com/jonathan/resume-scanner/internal/types"
)

var ingestJobCmd = &cobra.Command{
	Use:   "ingest-job",
	Short: "Build a job target from a text file or URL",
	Long:  "Ingest a job posting from either a text file or URL, split it into description paragraphs and write a job target JSON with metadata.",
	RunE:  runIngestJob,
}

var (
	ingestTextFile   string
	ingestURL        string
	ingestOutDir     string
	ingestTitle      string
	ingestCompany    string
	ingestJobURL     string
	ingestUseBrowser bool
	ingestTimeout    time.Duration
)

func init() {
	ingestJobCmd.Flags().StringVarP(&ingestTextFile, "text-file", "t", "", "Path to text file containing job posting")
	ingestJobCmd.Flags().StringVarP(&ingestURL, "url", "u", "", "URL to fetch job posting from")
	ingestJobCmd.Flags().StringVarP(&ingestOutDir, "out", "o", "", "Output directory (required)")
	ingestJobCmd.Flags().StringVar(&ingestTitle, "title", "", "Job title (defaults to the page title for --url)")
	ingestJobCmd.Flags().StringVar(&ingestCompany, "company", "", "Company name (required)")
	ingestJobCmd.Flags().StringVar(&ingestJobURL, "job-url", "", "Job listing URL recorded with a --text-file posting")
	ingestJobCmd.Flags().BoolVar(&ingestUseBrowser, "use-browser", false, "Render SPA postings in headless Chrome when plain HTTP returns too little")
	ingestJobCmd.Flags().DurationVar(&ingestTimeout, "timeout", 30*time.Second, "HTTP timeout for --url")

	_ = ingestJobCmd.MarkFlagRequired("out")
	_ = ingestJobCmd.MarkFlagRequired("company")

	rootCmd.AddCommand(ingestJobCmd)
}

func runIngestJob(cmd *cobra.Command, args []string) error {
	// Validate mutually exclusive flags
	if ingestTextFile == "" && ingestURL == "" {
		return fmt.Errorf("either --text-file or --url must be provided")
	}
	if ingestTextFile != "" && ingestURL != "" {
		return fmt.Errorf("--text-file and --url are mutually exclusive; provide only one")
	}

	details := ingestion.Details{Title: ingestTitle, Company: ingestCompany, URL: ingestJobURL}

	var (
		job      *types.JobTarget
		metadata *ingestion.Metadata
		err      error
	)
	if ingestTextFile != "" {
		job, metadata, err = ingestion.FromFile(ingestTextFile, details)
		if err != nil {
			return fmt.Errorf("failed to ingest from file: %w", err)
		}
	} else {
		fetchOpts := fetch.DefaultOptions()
		fetchOpts.Timeout = ingestTimeout
		job, metadata, err = ingestion.IngestURL(cmd.Context(), ingestURL, ingestion.URLOptions{
			Details:    details,
			UseBrowser: ingestUseBrowser,
			Fetch:      fetchOpts,
			Logger:     slog.Default(),
		})
		if err != nil {
			return fmt.Errorf("failed to ingest from URL: %w", err)
		}
	}

	path, err := ingestion.WriteOutput(ingestOutDir, job, metadata)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Successfully ingested job posting\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Job target: %s\n", path)
	fmt.Fprintf(cmd.OutOrStdout(), "Paragraphs: %d\n", len(job.DescriptionDetails))
	return nil
}
