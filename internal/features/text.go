package features

import "strings"

// TextStats are coarse features computed from an unparsed line.
type TextStats struct {
	Length         int  `json:"length"`
	ContainsFailed bool `json:"contains_failed"`
}

// Clean lowercases and trims a raw line before text-level inspection.
func Clean(line string) string {
	return strings.ToLower(strings.TrimSpace(line))
}

// Text computes TextStats for a raw line. It does not clean the input.
func Text(line string) TextStats {
	return TextStats{
		Length:         len(line),
		ContainsFailed: strings.Contains(line, "failed"),
	}
}
