// Package features turns parsed log records into fixed-schema binary feature vectors.
package features

import (
	"strconv"
	"strings"

	"github.com/atikulmunna/logsift/internal/model"
)

// Attribute keys read by the extractor. Any other attribute is ignored.
const (
	AttrStatus   = "status"
	AttrUsername = "username"
	AttrIP       = "ip"
)

// privatePrefixes approximates RFC1918 with plain string prefixes.
// "172.16." through "172.31." are listed individually.
var privatePrefixes = func() []string {
	p := []string{"10.", "192.168."}
	for i := 16; i <= 31; i++ {
		p = append(p, "172."+strconv.Itoa(i)+".")
	}
	return p
}()

// Extractor converts records into feature vectors.
type Extractor interface {
	Extract(rec model.Record) model.FeatureVector
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(rec model.Record) model.FeatureVector

func (f ExtractorFunc) Extract(rec model.Record) model.FeatureVector { return f(rec) }

// Default is the standard login-risk extractor.
var Default Extractor = ExtractorFunc(Extract)

// Extract computes the login-risk features for a record. Malformed records
// short-circuit to a vector with only ParseError set.
func Extract(rec model.Record) model.FeatureVector {
	if rec.ParseError {
		return model.FeatureVector{ParseError: true}
	}

	ip := rec.Attr(AttrIP)

	return model.FeatureVector{
		FailedLogin: flag(rec.Attr(AttrStatus) == "failed"),
		AdminUser:   flag(rec.Attr(AttrUsername) == "admin"),
		ExternalIP:  flag(!IsPrivateIP(ip)),
		LevelInfo:   flag(rec.Level == "INFO"),
		LevelWarn:   flag(rec.Level == "WARN"),
		LevelError:  flag(rec.Level == "ERROR"),
	}
}

// IsPrivateIP reports whether ip starts with one of the private-range prefixes.
// This is a string test, not subnet containment: "172.32.0.1" is external and
// an empty string is external too.
func IsPrivateIP(ip string) bool {
	for _, prefix := range privatePrefixes {
		if strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
