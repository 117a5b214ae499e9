package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/config"
)

var cfgFile string

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "logsift",
	Short: "logsift: log feature extraction and detection scoring",
	Long: `logsift turns comma-delimited security logs into numeric feature tables,
labels them with a rule or an external classifier, and scores the predictions
against an analyst-style ground truth.

It runs as a batch tool (extract, evaluate, history) or follows live files
(watch) with an optional HTTP endpoint for stats, metrics and a WebSocket stream.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.logsift.yaml)")
	flags.StringP("output", "o", "text", "output format: text, json")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text, json")
	flags.String("policy", "rule", "prediction policy: rule, model")
	flags.String("labeler", "analyst", "ground-truth labeler: analyst, failed-login, rule")
	flags.String("model-url", "", "base URL of the classifier service (policy=model)")
	flags.String("model-name", "login-risk", "model name on the classifier service")
	flags.Float64("threshold", 0.5, "score threshold for a positive prediction")
	flags.String("history-db", "", "SQLite file for run history (empty disables)")

	bind := map[string]string{
		"output":          "output",
		"log.level":       "log-level",
		"log.format":      "log-format",
		"policy":          "policy",
		"labeler":         "labeler",
		"model.url":       "model-url",
		"model.name":      "model-name",
		"model.threshold": "threshold",
		"history.db":      "history-db",
	}
	for key, flag := range bind {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".logsift")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			cobra.CheckErr(fmt.Errorf("reading config: %w", err))
		}
	}
}

// loadConfig resolves the configuration and installs the process logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	logger := cfg.Logger()
	slog.SetDefault(logger)
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("using config file", "path", f)
	}
	return cfg, logger, nil
}
