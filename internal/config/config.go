// Package config loads and validates logsift settings from flags, environment
// and an optional YAML file using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/policy"
)

// EnvPrefix is prepended to every environment variable, e.g. LOGSIFT_LOG_LEVEL.
const EnvPrefix = "LOGSIFT"

// Config holds the resolved settings.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Output  string        `mapstructure:"output"`  // text or json
	Policy  string        `mapstructure:"policy"`  // rule or model
	Labeler string        `mapstructure:"labeler"` // ground-truth labeler name
	Model   ModelConfig   `mapstructure:"model"`
	History HistoryConfig `mapstructure:"history"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ModelConfig points at the external classifier service used by the model policy.
type ModelConfig struct {
	URL       string        `mapstructure:"url"`
	Name      string        `mapstructure:"name"`
	Threshold float64       `mapstructure:"threshold"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// HistoryConfig locates the run history database. Empty DB disables history.
type HistoryConfig struct {
	DB string `mapstructure:"db"`
}

// WatchConfig configures follow mode.
type WatchConfig struct {
	Checkpoint string `mapstructure:"checkpoint"`
	Serve      bool   `mapstructure:"serve"`
	Port       string `mapstructure:"port"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("output", "text")
	v.SetDefault("policy", "rule")
	v.SetDefault("labeler", "analyst")
	v.SetDefault("model.url", "")
	v.SetDefault("model.name", "login-risk")
	v.SetDefault("model.threshold", 0.5)
	v.SetDefault("model.timeout", 30*time.Second)
	v.SetDefault("history.db", "")
	v.SetDefault("watch.checkpoint", ".logsift-state.json")
	v.SetDefault("watch.serve", false)
	v.SetDefault("watch.port", "8080")
}

// BindEnv enables LOGSIFT_* environment overrides for nested keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and cross-field requirements.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output) {
	case "text", "json":
	default:
		return fmt.Errorf("config: output must be text or json, got %q", c.Output)
	}

	switch c.Policy {
	case "rule":
	case "model":
		if c.Model.URL == "" {
			return errors.New("config: model.url must be set when policy=model")
		}
		if c.Model.Name == "" {
			return errors.New("config: model.name must be set when policy=model")
		}
	default:
		return fmt.Errorf("config: policy must be rule or model, got %q", c.Policy)
	}

	if c.Model.Threshold < 0 || c.Model.Threshold > 1 {
		return fmt.Errorf("config: model.threshold must be within [0, 1], got %v", c.Model.Threshold)
	}

	if _, err := policy.LabelerByName(c.Labeler); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// Logger builds the process logger. Logs go to stderr so stdout carries data only.
func (c *Config) Logger() *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}

	if strings.ToLower(c.Log.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log.level %q", s)
	}
}
