package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/logsift/internal/metrics"
	"github.com/atikulmunna/logsift/internal/store"
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(11)
	styleValue = lipgloss.NewStyle().Bold(true)
	styleBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// ReportRenderer writes evaluation reports and run history.
type ReportRenderer struct {
	w    io.Writer
	json bool
}

// NewReportRenderer returns a ReportRenderer for format ("text" or "json").
func NewReportRenderer(format string, w io.Writer) *ReportRenderer {
	return &ReportRenderer{w: w, json: strings.EqualFold(format, "json")}
}

// Report writes one evaluation report under title.
func (r *ReportRenderer) Report(title string, rep metrics.Report) error {
	if r.json {
		return json.NewEncoder(r.w).Encode(rep)
	}

	c := rep.Counts
	rows := []string{
		styleTitle.Render(title),
		"",
		kv("TP", fmt.Sprint(c.TP)) + "  " + kv("FP", fmt.Sprint(c.FP)),
		kv("FN", fmt.Sprint(c.FN)) + "  " + kv("TN", fmt.Sprint(c.TN)),
		"",
		kv("accuracy", pct(rep.Accuracy)),
		kv("precision", pct(rep.Precision)),
		kv("recall", pct(rep.Recall)),
		kv("f1", pct(rep.F1)),
	}
	if s := rep.Scores; s != nil {
		rows = append(rows, "",
			kv("scores", fmt.Sprintf("n=%d mean=%.3f min=%.3f max=%.3f", s.Count, s.Mean, s.Min, s.Max)))
	}

	_, err := fmt.Fprintln(r.w, styleBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	return err
}

// Runs writes a history listing, newest first.
func (r *ReportRenderer) Runs(runs []*store.Run) error {
	if r.json {
		if runs == nil {
			runs = []*store.Run{}
		}
		return json.NewEncoder(r.w).Encode(runs)
	}

	if len(runs) == 0 {
		_, err := fmt.Fprintln(r.w, "no runs recorded")
		return err
	}

	header := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("%-36s  %-19s  %-6s  %-12s  %6s  %7s  %7s", "ID", "CREATED", "POLICY", "LABELER", "ROWS", "ACC", "F1"))
	if _, err := fmt.Fprintln(r.w, header); err != nil {
		return err
	}
	for _, run := range runs {
		_, err := fmt.Fprintf(r.w, "%-36s  %-19s  %-6s  %-12s  %6d  %7s  %7s\n",
			run.ID,
			run.CreatedAt.Local().Format(time.DateTime),
			run.Policy,
			run.Labeler,
			run.Rows,
			pct(run.Report.Accuracy),
			pct(run.Report.F1),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func kv(label, value string) string {
	return styleLabel.Render(label) + styleValue.Render(value)
}

func pct(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}
