package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/aggregator"
	"github.com/atikulmunna/logsift/internal/hub"
	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/output"
	"github.com/atikulmunna/logsift/internal/pipeline"
	"github.com/atikulmunna/logsift/internal/policy"
	"github.com/atikulmunna/logsift/internal/server"
	"github.com/atikulmunna/logsift/internal/tailer"
	"github.com/atikulmunna/logsift/internal/watcher"
)

var (
	levelFilter string
	flaggedOnly bool
	fromStart   bool
	watchTrain  string
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Follow log files and score new lines as they arrive",
	Long: `Watch one or more log files (or glob patterns) and score every appended
line with the configured policy. Scored lines stream to the terminal; with
--serve a stats API, Prometheus metrics and a WebSocket feed are exposed.

Examples:
  logsift watch /var/log/auth.log
  logsift watch "/var/log/**/*.log" --flagged
  logsift watch auth.log --serve --port 9090 -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	flags := watchCmd.Flags()
	flags.StringVarP(&levelFilter, "level", "l", "", "filter by severity (comma-separated: info,warn,error)")
	flags.BoolVar(&flaggedOnly, "flagged", false, "only print lines predicted suspicious")
	flags.BoolVar(&fromStart, "from-start", false, "read files without a checkpoint from the beginning")
	flags.StringVar(&watchTrain, "train", "", "feature table used to fit the model (policy=model)")
	flags.String("checkpoint", ".logsift-state.json", "file holding read offsets")
	flags.Bool("serve", false, "serve stats, metrics and a WebSocket stream over HTTP")
	flags.String("port", "8080", "HTTP port for --serve")

	cobra.CheckErr(viper.BindPFlag("watch.checkpoint", flags.Lookup("checkpoint")))
	cobra.CheckErr(viper.BindPFlag("watch.serve", flags.Lookup("serve")))
	cobra.CheckErr(viper.BindPFlag("watch.port", flags.Lookup("port")))

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Prediction policy ---
	truth, err := policy.LabelerByName(cfg.Labeler)
	if err != nil {
		return err
	}
	var train []model.FeatureVector
	if watchTrain != "" {
		if train, err = loadTable(watchTrain); err != nil {
			return fmt.Errorf("training table: %w", err)
		}
	}
	p, err := buildPredictor(ctx, cfg, truth, train, logger)
	if err != nil {
		return err
	}

	// --- Watcher and tailer ---
	w, err := watcher.New(args, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	watchedPaths := w.Paths()
	if len(watchedPaths) == 0 {
		return fmt.Errorf("no files matched the given patterns: %v", args)
	}

	fmt.Fprintf(os.Stderr, "logsift watching %d file(s) with policy %s:\n", len(watchedPaths), cfg.Policy)
	for _, path := range watchedPaths {
		fmt.Fprintf(os.Stderr, "   • %s\n", path)
	}
	fmt.Fprintln(os.Stderr)

	ckpt, err := tailer.NewCheckpoint(cfg.Watch.Checkpoint)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	t := tailer.New(w, ckpt, tailer.Options{FromStart: fromStart, Logger: logger})

	// --- Scoring hub and consumers ---
	h := hub.New(t.Lines(), pipeline.NewScorer(p.Predictor, truth), logger)
	printed := h.Subscribe()
	agg := aggregator.New(h.Subscribe(), h.Dropped, func() int { return len(watchedPaths) })

	renderer, err := output.New(cfg.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	levelSet := make(map[string]bool)
	if levelFilter != "" {
		for _, l := range strings.Split(levelFilter, ",") {
			levelSet[strings.ToUpper(strings.TrimSpace(l))] = true
		}
	}

	var wg sync.WaitGroup
	run := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}

	run(func() { w.Start(ctx) })
	run(func() { t.Start(ctx) })
	run(func() { h.Start(ctx) })
	run(func() { agg.Start(ctx) })

	if cfg.Watch.Serve {
		srv := server.New(h, agg, cfg.Watch.Port, logger)
		run(func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("http server stopped", "error", err)
				stop()
			}
		})
		fmt.Fprintf(os.Stderr, "serving on http://localhost:%s (/api/stats, /metrics, /ws)\n\n", cfg.Watch.Port)
	}

	// The hub closes subscriber channels when it stops.
	for s := range printed {
		if !shouldShow(s, levelSet, flaggedOnly) {
			continue
		}
		if err := renderer.Render(s); err != nil {
			logger.Error("render error", "error", err)
		}
	}

	stop()
	wg.Wait()

	final := agg.Snapshot()
	fmt.Fprintln(os.Stderr, "\nlogsift shutting down")
	return output.NewReportRenderer("text", os.Stderr).Report(
		fmt.Sprintf("%s vs %s (%d lines, %d parse errors)", cfg.Policy, cfg.Labeler, final.TotalLines, final.ParseErrors),
		final.Report,
	)
}

// shouldShow reports whether a scored line passes the level and flagged filters.
// Malformed lines have no level and only pass an empty level filter.
func shouldShow(s model.Scored, levelSet map[string]bool, flagged bool) bool {
	if flagged && s.Prediction != 1 {
		return false
	}
	if len(levelSet) == 0 {
		return true
	}
	return levelSet[strings.ToUpper(s.Record.Level)]
}
