package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hollis/snipcheck/internal/config"
	"github.com/hollis/snipcheck/internal/history"
	"github.com/hollis/snipcheck/internal/models"
	"github.com/hollis/snipcheck/internal/report"
)

// NewHistoryCommand creates the history command with its subcommands
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past verification runs",
		Long: `History lists and inspects verification runs recorded in the
history database (.snipcheck/history.db by default).

Examples:
  snipcheck history
  snipcheck history --limit 50
  snipcheck history show <run-id>
  snipcheck history stats
  snipcheck history clear`,
		RunE: runHistoryList,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .snipcheck/config.yaml)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")

	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryStatsCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

// openStore loads the config and opens the history database.
func openStore(cmd *cobra.Command) (*history.Store, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}

// runHistoryList implements the default history listing
func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

// printRuns renders the run listing, most recent first.
func printRuns(out io.Writer, runs []history.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return
	}

	useColor := report.UseColor(out)
	for _, run := range runs {
		verdict := models.StatusPass
		if run.Failed > 0 || run.Partial {
			verdict = models.StatusFail
		}
		if useColor {
			if verdict == models.StatusPass {
				verdict = color.GreenString(verdict)
			} else {
				verdict = color.RedString(verdict)
			}
		}

		line := fmt.Sprintf("%s  %s  %s  %d passed, %d failed, %d skipped",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.ID[:8], run.Document,
			run.Passed, run.Failed, run.Skipped)
		if run.Partial {
			line += " (partial)"
		}
		fmt.Fprintf(out, "%s  %s\n", line, verdict)
	}
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-snippet results of one run",
		Long: `Show lists each snippet verdict recorded for the given run.
Run IDs are printed by "snipcheck history"; an unambiguous prefix works.`,
		Args: cobra.ExactArgs(1),
		RunE: runHistoryShow,
	}
}

// runHistoryShow implements the show subcommand
func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.ResolveRunID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	results, err := store.RunResults(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("failed to load run results: %w", err)
	}

	out := cmd.OutOrStdout()
	useColor := report.UseColor(out)
	for _, r := range results {
		mark := "✓"
		if r.Status != models.StatusPass {
			mark = "✗"
		}
		if useColor {
			if r.Status == models.StatusPass {
				mark = color.GreenString(mark)
			} else {
				mark = color.RedString(mark)
			}
		}

		location := fmt.Sprintf("lines %d-%d", r.StartLine, r.EndLine)
		if r.StartLine == r.EndLine {
			location = fmt.Sprintf("line %d", r.StartLine)
		}
		if r.Section != "" {
			location = fmt.Sprintf("%s (%s)", location, r.Section)
		}

		fmt.Fprintf(out, "%s %s: %s\n", mark, location, r.Expected)
		if r.Status != models.StatusPass && r.Detail != "" {
			fmt.Fprintf(out, "    %s\n", r.Detail)
		}
	}
	return nil
}

func newHistoryStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics over all recorded runs",
		RunE:  runHistoryStats,
	}
}

// runHistoryStats implements the stats subcommand
func runHistoryStats(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Runs:      %d\n", stats.Runs)
	fmt.Fprintf(out, "Documents: %d\n", stats.Documents)
	fmt.Fprintf(out, "Passed:    %d\n", stats.TotalPassed)
	fmt.Fprintf(out, "Failed:    %d\n", stats.TotalFailed)
	if !stats.LastRunAt.IsZero() {
		fmt.Fprintf(out, "Last run:  %s\n", stats.LastRunAt.Local().Format(time.RFC1123))
	}
	return nil
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		RunE:  runHistoryClear,
	}
}

// runHistoryClear implements the clear subcommand
func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}
