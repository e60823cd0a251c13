package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-scanner/internal/db"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent scan runs stored in the database",
	RunE:  runRuns,
}

var runsLimit int

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to list")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	if runsLimit < 1 {
		return fmt.Errorf("--limit must be positive")
	}
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	if settings.DatabaseURL == "" {
		return fmt.Errorf("runs needs DATABASE_URL or database_url in the config")
	}

	database, err := db.Connect(cmd.Context(), settings.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	renderRuns(cmd, runs)
	return nil
}

func renderRuns(cmd *cobra.Command, runs []db.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Company", "Job Title", "Status", "Created"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, r.Company, r.JobTitle, r.Status, r.CreatedAt.Format("2006-01-02 15:04")})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
