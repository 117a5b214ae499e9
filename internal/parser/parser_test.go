package parser

import (
	"reflect"
	"testing"
)

func TestDelimitedParser(t *testing.T) {
	p := NewDelimitedParser()

	rec := p.Parse("2025-01-01 10:05:23,INFO,login,username=admin,ip=8.8.8.8,status=failed", "auth.log")

	if rec.ParseError {
		t.Fatal("expected well-formed record, got parse error")
	}
	if rec.Timestamp != "2025-01-01 10:05:23" {
		t.Errorf("expected timestamp '2025-01-01 10:05:23', got %q", rec.Timestamp)
	}
	if rec.Level != "INFO" {
		t.Errorf("expected level INFO, got %q", rec.Level)
	}
	if rec.EventType != "login" {
		t.Errorf("expected event type login, got %q", rec.EventType)
	}
	if rec.Attr("username") != "admin" {
		t.Errorf("expected username admin, got %q", rec.Attr("username"))
	}
	if rec.Attr("ip") != "8.8.8.8" {
		t.Errorf("expected ip 8.8.8.8, got %q", rec.Attr("ip"))
	}
	if rec.Attr("status") != "failed" {
		t.Errorf("expected status failed, got %q", rec.Attr("status"))
	}
	if rec.Source != "auth.log" {
		t.Errorf("expected source auth.log, got %q", rec.Source)
	}
}

func TestDelimitedParserPositionalTokens(t *testing.T) {
	p := NewDelimitedParser()

	lines := []string{
		"a,b,c,d",
		" t , WARN ,logout, x=1",
		"ts,,,",
		"1,2,3,k=v,k2=v2,k3=v3",
	}
	for _, line := range lines {
		rec := p.Parse(line, "")
		if rec.ParseError {
			t.Errorf("%q: expected no parse error", line)
			continue
		}
		want := splitComma(line)
		if rec.Timestamp != want[0] || rec.Level != want[1] || rec.EventType != want[2] {
			t.Errorf("%q: expected %q/%q/%q, got %q/%q/%q", line,
				want[0], want[1], want[2], rec.Timestamp, rec.Level, rec.EventType)
		}
	}
}

func TestDelimitedParserMalformed(t *testing.T) {
	p := NewDelimitedParser()

	for _, line := range []string{"", "just text", "a,b", "ts,INFO,login"} {
		rec := p.Parse(line, "x.log")
		if !rec.ParseError {
			t.Errorf("%q: expected parse error", line)
		}
		want := map[string]string{"raw": line, "parse_error": "true"}
		if got := rec.Fields(); !reflect.DeepEqual(got, want) {
			t.Errorf("%q: expected fields %v, got %v", line, want, got)
		}
		if rec.Timestamp != "" || rec.Level != "" || rec.EventType != "" || rec.Attrs != nil {
			t.Errorf("%q: expected only raw to be set, got %+v", line, rec)
		}
	}
}

func TestDelimitedParserValueWithEquals(t *testing.T) {
	p := NewDelimitedParser()

	rec := p.Parse("ts,INFO,api,query=a=b=c", "")

	if rec.Attr("query") != "a=b=c" {
		t.Errorf("expected value split on first '=' only, got %q", rec.Attr("query"))
	}
}

func TestDelimitedParserDropsBareTokens(t *testing.T) {
	p := NewDelimitedParser()

	rec := p.Parse("ts,INFO,login,noequals,user=bob", "")

	if rec.ParseError {
		t.Fatal("a bare token must not mark the line malformed")
	}
	if len(rec.Attrs) != 1 {
		t.Errorf("expected 1 attribute, got %d (%v)", len(rec.Attrs), rec.Attrs)
	}
	if _, ok := rec.Attrs["noequals"]; ok {
		t.Error("expected bare token to be dropped")
	}
}

func TestDelimitedParserDuplicateKeyLastWins(t *testing.T) {
	p := NewDelimitedParser()

	rec := p.Parse("ts,INFO,login,status=ok,status=failed", "")

	if rec.Attr("status") != "failed" {
		t.Errorf("expected last duplicate to win, got %q", rec.Attr("status"))
	}
}

func TestDelimitedParserNoTrimming(t *testing.T) {
	p := NewDelimitedParser()

	rec := p.Parse("ts, info ,login, status=failed", "")

	if rec.Level != " info " {
		t.Errorf("expected untouched level ' info ', got %q", rec.Level)
	}
	if _, ok := rec.Attrs[" status"]; !ok {
		t.Errorf("expected key ' status' kept verbatim, got %v", rec.Attrs)
	}
}

func TestDelimitedParserIdempotent(t *testing.T) {
	p := NewDelimitedParser()

	for _, line := range []string{
		"2025-01-01 10:05:23,ERROR,login,username=root,ip=10.0.0.5,status=failed",
		"broken",
	} {
		a := p.Parse(line, "f")
		b := p.Parse(line, "f")
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%q: expected identical records, got %+v and %+v", line, a, b)
		}
	}
}

func TestRecordFields(t *testing.T) {
	p := NewDelimitedParser()

	got := p.Parse("ts,WARN,login,ip=1.2.3.4", "").Fields()
	want := map[string]string{
		"timestamp":   "ts",
		"level":       "WARN",
		"event_type":  "login",
		"ip":          "1.2.3.4",
		"parse_error": "false",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
