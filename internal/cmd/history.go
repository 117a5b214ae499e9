package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/logsift/internal/output"
	"github.com/atikulmunna/logsift/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List saved evaluation runs, or show one",
	Long: `List evaluation runs recorded in --history-db, newest first. With a run id,
print that run's full report.

Examples:
  logsift history --history-db runs.db
  logsift history 0b6f... --history-db runs.db -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.DB == "" {
		return errors.New("history is disabled: set --history-db or history.db")
	}

	st, err := store.Open(cfg.History.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	r := output.NewReportRenderer(cfg.Output, cmd.OutOrStdout())

	if len(args) == 1 {
		run, err := st.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return r.Report(run.Policy+" vs "+run.Labeler+" ("+run.Source+")", run.Report)
	}

	runs, err := st.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	return r.Runs(runs)
}
