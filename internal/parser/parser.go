package parser

import (
	"strings"

	"github.com/atikulmunna/logsift/internal/model"
)

// MinFields is the number of comma-separated tokens a well-formed line needs:
// timestamp, level, event type and at least one attribute slot.
const MinFields = 4

// Parser converts a raw log line into a structured Record.
type Parser interface {
	Parse(raw string, source string) model.Record
}

// DelimitedParser handles comma-delimited lines of the form
//
//	timestamp,level,event_type,key=value[,key=value...]
//
// Values are stored exactly as split; no trimming, case folding or
// validation is applied. Lines with fewer than MinFields tokens are returned
// as malformed records rather than errors.
type DelimitedParser struct {
	sep string
}

func NewDelimitedParser() *DelimitedParser { return &DelimitedParser{sep: ","} }

func (p *DelimitedParser) Parse(raw string, source string) model.Record {
	tokens := strings.Split(raw, p.sep)
	if len(tokens) < MinFields {
		return model.Record{Raw: raw, ParseError: true, Source: source}
	}

	rec := model.Record{
		Timestamp: tokens[0],
		Level:     tokens[1],
		EventType: tokens[2],
		Attrs:     make(map[string]string, len(tokens)-3),
		Source:    source,
	}

	// Later duplicates overwrite earlier ones.
	for _, tok := range tokens[3:] {
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		rec.Attrs[key] = value
	}

	return rec
}
