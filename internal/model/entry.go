package model

// RawLine is one unparsed log line and the file it was read from.
type RawLine struct {
	Text   string
	Source string
}

// Record represents a single parsed log line.
// When ParseError is set only Raw is populated.
type Record struct {
	Timestamp  string            `json:"timestamp,omitempty"`
	Level      string            `json:"level,omitempty"`
	EventType  string            `json:"event_type,omitempty"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	ParseError bool              `json:"parse_error"`
	Raw        string            `json:"raw,omitempty"` // original line text, kept only for malformed lines
	Source     string            `json:"source,omitempty"`
}

// Attr returns the attribute value for key, or "" when absent.
func (r Record) Attr(key string) string {
	return r.Attrs[key]
}

// Fields returns the flat name -> value view of the record.
// A malformed record yields exactly {raw, parse_error}.
func (r Record) Fields() map[string]string {
	if r.ParseError {
		return map[string]string{
			"raw":         r.Raw,
			"parse_error": "true",
		}
	}

	out := make(map[string]string, len(r.Attrs)+4)
	for k, v := range r.Attrs {
		out[k] = v
	}
	out["timestamp"] = r.Timestamp
	out["level"] = r.Level
	out["event_type"] = r.EventType
	out["parse_error"] = "false"
	return out
}
