package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/atikulmunna/logsift/internal/aggregator"
)

const namespace = "logsift"

// statsCollector exports aggregator snapshots as Prometheus metrics.
type statsCollector struct {
	agg *aggregator.Aggregator

	lines       *prometheus.Desc
	parseErrors *prometheus.Desc
	flagged     *prometheus.Desc
	dropped     *prometheus.Desc
	invalid     *prometheus.Desc
	outcomes    *prometheus.Desc
	levels      *prometheus.Desc
	eps         *prometheus.Desc
	files       *prometheus.Desc
}

func newStatsCollector(agg *aggregator.Aggregator) *statsCollector {
	return &statsCollector{
		agg:         agg,
		lines:       prometheus.NewDesc(namespace+"_lines_total", "Lines scored in follow mode.", nil, nil),
		parseErrors: prometheus.NewDesc(namespace+"_parse_errors_total", "Lines that failed to parse.", nil, nil),
		flagged:     prometheus.NewDesc(namespace+"_flagged_total", "Lines predicted suspicious.", nil, nil),
		dropped:     prometheus.NewDesc(namespace+"_dropped_total", "Scored lines dropped for slow consumers.", nil, nil),
		invalid:     prometheus.NewDesc(namespace+"_invalid_pairs_total", "Label/prediction pairs outside {0, 1}.", nil, nil),
		outcomes:    prometheus.NewDesc(namespace+"_outcomes_total", "Prediction outcomes against the labeler.", []string{"outcome"}, nil),
		levels:      prometheus.NewDesc(namespace+"_level_lines_total", "Parsed lines by level.", []string{"level"}, nil),
		eps:         prometheus.NewDesc(namespace+"_lines_per_second", "Line rate over the last five seconds.", nil, nil),
		files:       prometheus.NewDesc(namespace+"_files_watched", "Files being followed.", nil, nil),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lines
	ch <- c.parseErrors
	ch <- c.flagged
	ch <- c.dropped
	ch <- c.invalid
	ch <- c.outcomes
	ch <- c.levels
	ch <- c.eps
	ch <- c.files
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.agg.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.lines, prometheus.CounterValue, float64(st.TotalLines))
	ch <- prometheus.MustNewConstMetric(c.parseErrors, prometheus.CounterValue, float64(st.ParseErrors))
	ch <- prometheus.MustNewConstMetric(c.flagged, prometheus.CounterValue, float64(st.Flagged))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(st.DroppedLines))
	ch <- prometheus.MustNewConstMetric(c.invalid, prometheus.CounterValue, float64(st.InvalidPairs))

	counts := st.Report.Counts
	for outcome, n := range map[string]int{"tp": counts.TP, "tn": counts.TN, "fp": counts.FP, "fn": counts.FN} {
		ch <- prometheus.MustNewConstMetric(c.outcomes, prometheus.CounterValue, float64(n), outcome)
	}
	for level, n := range st.LevelCounts {
		ch <- prometheus.MustNewConstMetric(c.levels, prometheus.CounterValue, float64(n), level)
	}

	ch <- prometheus.MustNewConstMetric(c.eps, prometheus.GaugeValue, st.EPS)
	ch <- prometheus.MustNewConstMetric(c.files, prometheus.GaugeValue, float64(st.FilesWatched))
}

func newRegistry(agg *aggregator.Aggregator) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newStatsCollector(agg),
	)
	return reg
}
