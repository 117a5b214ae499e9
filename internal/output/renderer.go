package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/logsift/internal/model"
)

// Renderer writes scored lines to an output stream.
type Renderer interface {
	Render(s model.Scored) error
}

// New returns the renderer for format ("text" or "json").
func New(format string, w io.Writer) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextRenderer(w), nil
	case "json":
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleBadLine = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleFlagged = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true) // white on red
	styleSource = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true) // cyan
	styleAttrs  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

// TextRenderer prints scored lines with severity colors; flagged lines carry
// a highlighted marker.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(s model.Scored) error {
	mark := "  "
	if s.Prediction == 1 {
		mark = styleFlagged.Render("!!")
	}
	src := styleSource.Render(s.Record.Source)

	var line string
	if s.Record.ParseError {
		line = fmt.Sprintf("%s %s %s %s", mark, styleBadLine.Render("PARSE"), src, s.Record.Raw)
	} else {
		line = fmt.Sprintf("%s %s %s %s %s %s",
			mark, s.Record.Timestamp, styleLevelTag(s.Record.Level), src,
			s.Record.EventType, styleAttrs.Render(formatAttrs(s.Record.Attrs)))
	}

	_, err := fmt.Fprintln(r.w, strings.TrimRight(line, " "))
	return err
}

func styleLevelTag(level string) string {
	padded := fmt.Sprintf("%-5s", level)
	switch level {
	case "WARN":
		return styleWarn.Render(padded)
	case "ERROR":
		return styleError.Render(padded)
	default:
		return styleInfo.Render(padded)
	}
}

// formatAttrs renders attributes as sorted key=value pairs.
func formatAttrs(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + attrs[k]
	}
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each scored line as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(s model.Scored) error {
	return r.enc.Encode(s)
}
