package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/atikulmunna/logsift/internal/metrics"
	"github.com/atikulmunna/logsift/internal/model"
)

// epsWindow is the sliding window used for the lines-per-second rate.
const epsWindow = 5 * time.Second

// Stats holds a point-in-time snapshot of follow-mode metrics.
type Stats struct {
	Uptime       string           `json:"uptime"`
	TotalLines   int64            `json:"total_lines"`
	ParseErrors  int64            `json:"parse_errors"`
	Flagged      int64            `json:"flagged"`
	EPS          float64          `json:"eps"`
	LevelCounts  map[string]int64 `json:"level_counts"`
	Report       metrics.Report   `json:"report"`
	InvalidPairs int64            `json:"invalid_pairs"`
	DroppedLines int64            `json:"dropped_lines"`
	FilesWatched int              `json:"files_watched"`
}

// Aggregator subscribes to the Hub and keeps running totals plus a live
// confusion matrix of predictions against labels.
type Aggregator struct {
	mu          sync.RWMutex
	startTime   time.Time
	totalLines  int64
	parseErrors int64
	flagged     int64
	levelCounts map[string]int64
	counts      metrics.Counts
	invalid     int64 // label/prediction pairs outside {0, 1}
	window      []time.Time // arrival times within epsWindow
	dropped     func() int64
	fileCount   func() int
	scored      <-chan model.Scored
}

// New creates an Aggregator that reads from the given Hub subscriber channel.
// droppedFn and fileCountFn provide live values from Hub and Watcher respectively.
func New(scored <-chan model.Scored, droppedFn func() int64, fileCountFn func() int) *Aggregator {
	return &Aggregator{
		startTime:   time.Now(),
		levelCounts: make(map[string]int64),
		dropped:     droppedFn,
		fileCount:   fileCountFn,
		scored:      scored,
	}
}

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[string]int64, len(a.levelCounts))
	for k, v := range a.levelCounts {
		counts[k] = v
	}

	cutoff := time.Now().Add(-epsWindow)
	var recent int
	for _, t := range a.window {
		if t.After(cutoff) {
			recent++
		}
	}

	return Stats{
		Uptime:       time.Since(a.startTime).Truncate(time.Second).String(),
		TotalLines:   a.totalLines,
		ParseErrors:  a.parseErrors,
		Flagged:      a.flagged,
		EPS:          float64(recent) / epsWindow.Seconds(),
		LevelCounts:  counts,
		Report:       metrics.NewReport(a.counts),
		InvalidPairs: a.invalid,
		DroppedLines: a.dropped(),
		FilesWatched: a.fileCount(),
	}
}

// Start begins consuming scored lines. Blocks until the context is cancelled
// or the channel is closed.
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-a.scored:
			if !ok {
				return
			}
			a.record(s)
		case <-ticker.C:
			a.prune()
		}
	}
}

func (a *Aggregator) record(s model.Scored) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalLines++
	a.window = append(a.window, time.Now())

	if s.Record.ParseError {
		a.parseErrors++
	} else {
		a.levelCounts[s.Record.Level]++
	}
	if s.Prediction == 1 {
		a.flagged++
	}
	// A custom labeler may answer outside {0, 1}; such pairs stay out of the report.
	if err := a.counts.Add(s.Label, s.Prediction); err != nil {
		a.invalid++
	}
}

// prune removes timestamps older than epsWindow.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-epsWindow)
	i := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			a.window[i] = t
			i++
		}
	}
	a.window = a.window[:i]
}
