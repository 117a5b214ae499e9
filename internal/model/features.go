package model

// Feature column names, in schema order.
const (
	FeatureFailedLogin = "is_failed_login"
	FeatureAdminUser   = "is_admin_user"
	FeatureExternalIP  = "is_external_ip"
	FeatureLevelInfo   = "level_info"
	FeatureLevelWarn   = "level_warn"
	FeatureLevelError  = "level_error"
	FeatureParseError  = "parse_error"
)

// FeatureNames is the fixed, ordered feature schema fed to classifiers.
var FeatureNames = []string{
	FeatureFailedLogin,
	FeatureAdminUser,
	FeatureExternalIP,
	FeatureLevelInfo,
	FeatureLevelWarn,
	FeatureLevelError,
}

// TableColumns is the persisted column layout: the features followed by parse_error.
var TableColumns = append(append([]string(nil), FeatureNames...), FeatureParseError)

// FeatureVector is the numeric encoding of one Record.
// All flag fields hold 0 or 1.
type FeatureVector struct {
	FailedLogin int  `json:"is_failed_login"`
	AdminUser   int  `json:"is_admin_user"`
	ExternalIP  int  `json:"is_external_ip"`
	LevelInfo   int  `json:"level_info"`
	LevelWarn   int  `json:"level_warn"`
	LevelError  int  `json:"level_error"`
	ParseError  bool `json:"parse_error"`
}

// Values returns the six features in FeatureNames order.
// A parse-error vector yields all zeros.
func (v FeatureVector) Values() []float64 {
	return []float64{
		float64(v.FailedLogin),
		float64(v.AdminUser),
		float64(v.ExternalIP),
		float64(v.LevelInfo),
		float64(v.LevelWarn),
		float64(v.LevelError),
	}
}

// Map returns the name -> value view. A parse-error vector degenerates to
// {parse_error: 1}.
func (v FeatureVector) Map() map[string]int {
	if v.ParseError {
		return map[string]int{FeatureParseError: 1}
	}
	return map[string]int{
		FeatureFailedLogin: v.FailedLogin,
		FeatureAdminUser:   v.AdminUser,
		FeatureExternalIP:  v.ExternalIP,
		FeatureLevelInfo:   v.LevelInfo,
		FeatureLevelWarn:   v.LevelWarn,
		FeatureLevelError:  v.LevelError,
	}
}

// Column returns the value for a TableColumns name and whether the name is known.
func (v FeatureVector) Column(name string) (int, bool) {
	switch name {
	case FeatureFailedLogin:
		return v.FailedLogin, true
	case FeatureAdminUser:
		return v.AdminUser, true
	case FeatureExternalIP:
		return v.ExternalIP, true
	case FeatureLevelInfo:
		return v.LevelInfo, true
	case FeatureLevelWarn:
		return v.LevelWarn, true
	case FeatureLevelError:
		return v.LevelError, true
	case FeatureParseError:
		if v.ParseError {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Scored is a record that has gone through extraction and prediction.
type Scored struct {
	Record     Record        `json:"record"`
	Features   FeatureVector `json:"features"`
	Prediction int           `json:"prediction"`
	Label      int           `json:"label"`
}
