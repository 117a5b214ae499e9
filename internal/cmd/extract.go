package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/logsift/internal/features"
	"github.com/atikulmunna/logsift/internal/metrics"
	"github.com/atikulmunna/logsift/internal/pipeline"
	"github.com/atikulmunna/logsift/internal/table"
	"github.com/atikulmunna/logsift/internal/watcher"
)

var (
	extractDest      string
	extractTextStats bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Extract a feature table from log files",
	Long: `Parse comma-delimited log lines and write one feature row per line as CSV.
Paths may be glob patterns; with no paths (or "-") lines are read from stdin.
Malformed lines become parse_error rows. No file is written when there is no input.

Examples:
  logsift extract auth.log --dest features.csv
  logsift extract "/var/log/**/*.log" > features.csv
  cat auth.log | logsift extract --text-stats`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractDest, "dest", "d", "", "output CSV path (default: stdout)")
	extractCmd.Flags().BoolVar(&extractTextStats, "text-stats", false, "report raw line length and 'failed' mentions on stderr")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dst io.Writer = cmd.OutOrStdout()
	var file *lazyFile
	if extractDest != "" {
		file = &lazyFile{path: extractDest}
		dst = file
	}

	ext := pipeline.NewExtractor(logger)
	var lengths []float64
	var failedMentions int
	if extractTextStats {
		ext.TextStats = func(_ string, _ string, s features.TextStats) {
			lengths = append(lengths, float64(s.Length))
			if s.ContainsFailed {
				failedMentions++
			}
		}
	}

	w := table.NewWriter(dst)
	sum, err := extractAll(ctx, ext, args, w, logger)
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if file != nil {
		if err != nil {
			file.Abort()
		} else {
			err = file.Commit()
		}
	}
	if err != nil {
		return err
	}

	if w.Rows() == 0 {
		logger.Warn("nothing to write", "error", table.ErrNoData)
		return nil
	}

	logger.Info("extraction complete", "lines", sum.Lines, "parse_errors", sum.ParseErrors, "dest", destName())

	if extractTextStats {
		if s, err := metrics.Summarize(lengths); err == nil {
			fmt.Fprintf(os.Stderr, "text stats: %d lines, length mean=%.1f min=%.0f max=%.0f, %d mention 'failed'\n",
				s.Count, s.Mean, s.Min, s.Max, failedMentions)
		}
	}
	return nil
}

// extractAll runs ext over stdin or every file matched by patterns, in order.
func extractAll(ctx context.Context, ext *pipeline.Extractor, patterns []string, sink pipeline.Sink, logger *slog.Logger) (pipeline.Summary, error) {
	if len(patterns) == 0 || (len(patterns) == 1 && patterns[0] == "-") {
		return ext.Run(ctx, os.Stdin, "stdin", sink)
	}

	paths, err := watcher.Expand(patterns)
	if err != nil {
		return pipeline.Summary{}, err
	}
	if len(paths) == 0 {
		return pipeline.Summary{}, fmt.Errorf("no files matched the given patterns: %v", patterns)
	}

	var total pipeline.Summary
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return total, err
		}
		sum, err := ext.Run(ctx, f, p, sink)
		f.Close()
		total.Add(sum)
		if err != nil {
			return total, err
		}
		logger.Debug("extracted file", "path", p, "lines", sum.Lines, "parse_errors", sum.ParseErrors)
	}
	return total, nil
}

func destName() string {
	if extractDest == "" {
		return "stdout"
	}
	return extractDest
}

// lazyFile writes to path+".tmp", created on the first write, and renames it
// into place on Commit. Empty input leaves no file behind, and a failed run
// leaves path untouched.
type lazyFile struct {
	path string
	f    *os.File
}

func (l *lazyFile) tmpPath() string {
	return l.path + ".tmp"
}

func (l *lazyFile) Write(p []byte) (int, error) {
	if l.f == nil {
		f, err := os.Create(l.tmpPath())
		if err != nil {
			return 0, err
		}
		l.f = f
	}
	return l.f.Write(p)
}

// Commit closes the temporary file and moves it to path.
func (l *lazyFile) Commit() error {
	if l.f == nil {
		return nil
	}
	if err := l.f.Close(); err != nil {
		os.Remove(l.tmpPath())
		return err
	}
	return os.Rename(l.tmpPath(), l.path)
}

// Abort discards anything written so far.
func (l *lazyFile) Abort() {
	if l.f == nil {
		return
	}
	l.f.Close()
	os.Remove(l.tmpPath())
}
