package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/logsift/internal/output"
	"github.com/atikulmunna/logsift/internal/pipeline"
	"github.com/atikulmunna/logsift/internal/policy"
	"github.com/atikulmunna/logsift/internal/store"
)

var evaluateTrain string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <features.csv>",
	Short: "Score a prediction policy against ground-truth labels",
	Long: `Read a feature table, label every row with the configured labeler, predict
with the configured policy and print the confusion matrix with accuracy,
precision, recall and F1.

With --policy model the classifier service is fitted on --train (or on the
evaluated table itself when --train is empty) before predicting.

Examples:
  logsift evaluate features.csv
  logsift evaluate features.csv --labeler failed-login -o json
  logsift evaluate features.csv --policy model --model-url http://localhost:8000`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateTrain, "train", "", "feature table used to fit the model (policy=model)")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := args[0]
	vs, err := loadTable(path)
	if err != nil {
		return err
	}

	truth, err := policy.LabelerByName(cfg.Labeler)
	if err != nil {
		return err
	}

	train := vs
	if evaluateTrain != "" {
		if train, err = loadTable(evaluateTrain); err != nil {
			return fmt.Errorf("training table: %w", err)
		}
	}
	p, err := buildPredictor(ctx, cfg, truth, train, logger)
	if err != nil {
		return err
	}

	report, err := pipeline.Evaluate(ctx, vs, truth, p.Predictor)
	if err != nil {
		return err
	}
	report.Scores = p.scoreSummary()

	title := fmt.Sprintf("%s vs %s (%d rows)", cfg.Policy, cfg.Labeler, len(vs))
	if err := output.NewReportRenderer(cfg.Output, cmd.OutOrStdout()).Report(title, report); err != nil {
		return err
	}

	if cfg.History.DB == "" {
		return nil
	}

	st, err := store.Open(cfg.History.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	run := &store.Run{
		Source:  path,
		Policy:  cfg.Policy,
		Labeler: cfg.Labeler,
		Rows:    len(vs),
		Report:  report,
	}
	if err := st.Save(ctx, run); err != nil {
		return err
	}
	logger.Info("run saved", "id", run.ID, "db", cfg.History.DB)
	return nil
}
