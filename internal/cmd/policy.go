package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atikulmunna/logsift/internal/classifier"
	"github.com/atikulmunna/logsift/internal/config"
	"github.com/atikulmunna/logsift/internal/metrics"
	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/policy"
	"github.com/atikulmunna/logsift/internal/table"
)

// predictor is the configured prediction policy. client is set only for the
// model policy.
type predictor struct {
	policy.Predictor
	client *classifier.Client
}

// buildPredictor returns the configured policy. For policy=model the service is
// health-checked and, when train is non-empty, fitted on train labelled by truth.
func buildPredictor(ctx context.Context, cfg *config.Config, truth policy.Labeler, train []model.FeatureVector, logger *slog.Logger) (*predictor, error) {
	if cfg.Policy != "model" {
		return &predictor{Predictor: policy.Rule{}}, nil
	}

	client := classifier.NewClient(cfg.Model.URL, cfg.Model.Name,
		classifier.WithThreshold(cfg.Model.Threshold),
		classifier.WithTimeout(cfg.Model.Timeout),
	)

	health, err := client.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("classifier service: %w", err)
	}
	logger.Info("classifier service ready", "url", cfg.Model.URL, "status", health.Status)

	m := policy.NewModel(client)
	if len(train) > 0 {
		if err := m.Fit(ctx, train, policy.Labels(truth, train)); err != nil {
			return nil, fmt.Errorf("fitting %s: %w", cfg.Model.Name, err)
		}
		logger.Info("model fitted", "model", cfg.Model.Name, "rows", len(train))
	}

	return &predictor{Predictor: m, client: client}, nil
}

// scoreSummary summarizes the raw scores of the last model prediction.
func (p *predictor) scoreSummary() *metrics.Summary {
	if p.client == nil {
		return nil
	}
	s, err := metrics.Summarize(p.client.LastScores())
	if err != nil {
		return nil
	}
	return &s
}

// loadTable reads and decodes a feature table.
func loadTable(path string) ([]model.FeatureVector, error) {
	rows, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", path, table.ErrNoData)
	}
	return table.DecodeAll(rows)
}
