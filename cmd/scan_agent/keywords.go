package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-scanner/internal/db"
	"github.com/jonathan/resume-scanner/internal/observability"
	"github.com/jonathan/resume-scanner/internal/parsing"
	"github.com/jonathan/resume-scanner/internal/types"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Print the keywords a tailoring step should work into the resume",
	Long: `Print the supported skills of a match report, the projection handed to the tailoring step.
The report is read from a file (--report) or from the database (--run-id, optionally --iteration).`,
	RunE: runKeywords,
}

var (
	keywordsReport      string
	keywordsRunID       string
	keywordsIteration   int
	keywordsJSON        bool
	keywordsUnsupported bool
)

func init() {
	keywordsCmd.Flags().StringVar(&keywordsReport, "report", "", "Path to a match report JSON file")
	keywordsCmd.Flags().StringVar(&keywordsRunID, "run-id", "", "Run ID of a stored scan")
	keywordsCmd.Flags().IntVar(&keywordsIteration, "iteration", 0, "Iteration of the stored scan (default: latest)")
	keywordsCmd.Flags().BoolVar(&keywordsJSON, "json", false, "Print JSON instead of a table")
	keywordsCmd.Flags().BoolVar(&keywordsUnsupported, "unsupported", false, "Also list skills the resume cannot claim")

	rootCmd.AddCommand(keywordsCmd)
}

type keywordsOutput struct {
	Iteration   int                                 `json:"iteration"`
	Score       int                                 `json:"score"`
	Keywords    map[types.SkillType][]types.Keyword `json:"keywords"`
	Unsupported map[types.SkillType][]types.Keyword `json:"unsupported,omitempty"`
}

func runKeywords(cmd *cobra.Command, args []string) error {
	if (keywordsReport == "") == (keywordsRunID == "") {
		return fmt.Errorf("exactly one of --report or --run-id must be provided")
	}

	var (
		report *types.MatchReport
		err    error
	)
	if keywordsReport != "" {
		report, err = parsing.LoadMatchReport(keywordsReport)
	} else {
		report, err = loadStoredReport(cmd, keywordsRunID, keywordsIteration)
	}
	if err != nil {
		return err
	}

	out := keywordsOutput{
		Iteration: report.Iteration,
		Score:     report.Score,
		Keywords:  report.KeywordsToPrompt(),
	}
	if keywordsUnsupported {
		out.Unsupported = report.UnsupportedKeywords()
	}

	if keywordsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "Match report #%d, score %s\n", report.Iteration, observability.ScoreString(report.Score))
	printer.PrintKeywords(out.Keywords)
	if keywordsUnsupported {
		fmt.Fprintln(cmd.OutOrStdout(), "Unsupported:")
		printer.PrintKeywords(out.Unsupported)
	}
	return nil
}

// loadStoredReport reads one iteration of a run, or its latest when iteration is 0.
func loadStoredReport(cmd *cobra.Command, runIDStr string, iteration int) (*types.MatchReport, error) {
	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid --run-id: %w", err)
	}
	settings, err := loadSettings(configPath)
	if err != nil {
		return nil, err
	}
	if settings.DatabaseURL == "" {
		return nil, fmt.Errorf("--run-id needs DATABASE_URL or database_url in the config")
	}

	database, err := db.Connect(cmd.Context(), settings.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	if iteration > 0 {
		report, err := database.GetMatchReport(cmd.Context(), runID, iteration)
		if err != nil {
			return nil, err
		}
		if report == nil {
			return nil, fmt.Errorf("run %s has no match report #%d", runID, iteration)
		}
		return report, nil
	}

	stored, err := database.ListMatchReports(cmd.Context(), runID)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("run %s has no match reports", runID)
	}
	return stored[len(stored)-1].Report()
}
