package features

import (
	"reflect"
	"testing"

	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/parser"
)

func TestExtractEndToEnd(t *testing.T) {
	rec := parser.NewDelimitedParser().Parse("2025-01-01 10:05:23,INFO,login,username=admin,ip=8.8.8.8,status=failed", "auth.log")

	got := Extract(rec).Map()
	want := map[string]int{
		"is_failed_login": 1,
		"is_admin_user":   1,
		"is_external_ip":  1,
		"level_info":      1,
		"level_warn":      0,
		"level_error":     0,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExtractParseError(t *testing.T) {
	v := Extract(model.Record{Raw: "junk", ParseError: true})

	if !v.ParseError {
		t.Fatal("expected ParseError to be set")
	}
	want := map[string]int{"parse_error": 1}
	if got := v.Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExtractMissingAttributes(t *testing.T) {
	v := Extract(model.Record{Timestamp: "ts", Level: "DEBUG", EventType: "noop"})

	if v.FailedLogin != 0 || v.AdminUser != 0 {
		t.Errorf("expected missing status/username to give 0, got %+v", v)
	}
	// A missing ip is the empty string, which matches no private prefix.
	if v.ExternalIP != 1 {
		t.Errorf("expected missing ip to count as external, got %d", v.ExternalIP)
	}
	if v.LevelInfo+v.LevelWarn+v.LevelError != 0 {
		t.Errorf("expected all level flags 0 for DEBUG, got %+v", v)
	}
}

func TestExtractLevels(t *testing.T) {
	cases := []struct {
		level            string
		info, warn, errf int
	}{
		{"INFO", 1, 0, 0},
		{"WARN", 0, 1, 0},
		{"ERROR", 0, 0, 1},
		{"info", 0, 0, 0},
		{"WARNING", 0, 0, 0},
		{" ERROR", 0, 0, 0},
	}
	for _, c := range cases {
		v := Extract(model.Record{Level: c.level})
		if v.LevelInfo != c.info || v.LevelWarn != c.warn || v.LevelError != c.errf {
			t.Errorf("level %q: expected %d/%d/%d, got %d/%d/%d", c.level,
				c.info, c.warn, c.errf, v.LevelInfo, v.LevelWarn, v.LevelError)
		}
	}
}

func TestExtractExactMatches(t *testing.T) {
	v := Extract(model.Record{Attrs: map[string]string{"status": "Failed", "username": "admin "}})

	if v.FailedLogin != 0 {
		t.Error("expected case-sensitive status match")
	}
	if v.AdminUser != 0 {
		t.Error("expected exact username match")
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"10.0.0.5", "192.168.1.1", "172.16.0.1", "172.20.1.1", "172.31.255.255"}
	for _, ip := range private {
		if !IsPrivateIP(ip) {
			t.Errorf("expected %s to be private", ip)
		}
		if v := Extract(model.Record{Attrs: map[string]string{"ip": ip}}); v.ExternalIP != 0 {
			t.Errorf("expected is_external_ip=0 for %s, got %d", ip, v.ExternalIP)
		}
	}

	external := []string{"8.8.8.8", "172.32.0.1", "172.15.0.1", "1720.1.1.1", "192.169.0.1", ""}
	for _, ip := range external {
		if IsPrivateIP(ip) {
			t.Errorf("expected %s to be external", ip)
		}
		if v := Extract(model.Record{Attrs: map[string]string{"ip": ip}}); v.ExternalIP != 1 {
			t.Errorf("expected is_external_ip=1 for %q, got %d", ip, v.ExternalIP)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	rec := model.Record{
		Timestamp: "ts",
		Level:     "ERROR",
		EventType: "login",
		Attrs:     map[string]string{"status": "failed", "ip": "172.31.0.9"},
	}

	first := Extract(rec)
	for i := 0; i < 10; i++ {
		if got := Default.Extract(rec); got != first {
			t.Fatalf("expected %+v on every call, got %+v", first, got)
		}
	}
}

func TestValuesOrder(t *testing.T) {
	v := model.FeatureVector{FailedLogin: 1, ExternalIP: 1, LevelError: 1}

	got := v.Values()
	want := []float64{1, 0, 1, 0, 0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	for i, name := range model.FeatureNames {
		n, ok := v.Column(name)
		if !ok || float64(n) != got[i] {
			t.Errorf("column %s: expected %v, got %d (known=%v)", name, got[i], n, ok)
		}
	}
}

func TestTextStats(t *testing.T) {
	s := Text(Clean("  Login FAILED for admin \n"))

	if s.Length != len("login failed for admin") {
		t.Errorf("expected length %d, got %d", len("login failed for admin"), s.Length)
	}
	if !s.ContainsFailed {
		t.Error("expected cleaned line to contain 'failed'")
	}
	if Text("Login FAILED").ContainsFailed {
		t.Error("expected uncleaned match to be case-sensitive")
	}
}
