// Package pipeline composes parsing, feature extraction, prediction and
// scoring into sequential passes over log data.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atikulmunna/logsift/internal/features"
	"github.com/atikulmunna/logsift/internal/metrics"
	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/parser"
	"github.com/atikulmunna/logsift/internal/policy"
)

// Sink receives feature vectors in input order.
type Sink interface {
	Write(v model.FeatureVector) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(v model.FeatureVector) error

func (f SinkFunc) Write(v model.FeatureVector) error { return f(v) }

// Summary counts what an extraction pass saw.
type Summary struct {
	Lines       int `json:"lines"`
	ParseErrors int `json:"parse_errors"`
}

// Add merges other into s.
func (s *Summary) Add(other Summary) {
	s.Lines += other.Lines
	s.ParseErrors += other.ParseErrors
}

// Extractor runs the parse -> extract chain line by line.
type Extractor struct {
	Parser    parser.Parser
	Features  features.Extractor
	Logger    *slog.Logger
	TextStats func(source string, line string, s features.TextStats)
}

// NewExtractor returns an Extractor using the delimited parser and default features.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		Parser:   parser.NewDelimitedParser(),
		Features: features.Default,
		Logger:   logger,
	}
}

// Run streams r one line at a time, writing one vector per line to sink.
// Lines of any length are accepted. Malformed lines are counted, not treated
// as errors.
func (e *Extractor) Run(ctx context.Context, r io.Reader, source string, sink Sink) (Summary, error) {
	var sum Summary

	br := bufio.NewReader(r)
	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return sum, fmt.Errorf("reading %s: %w", source, readErr)
		}
		if raw == "" && readErr == io.EOF {
			break
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		line := strings.TrimRight(raw, "\r\n")
		sum.Lines++

		if e.TextStats != nil {
			e.TextStats(source, line, features.Text(features.Clean(line)))
		}

		rec := e.Parser.Parse(line, source)
		if rec.ParseError {
			sum.ParseErrors++
			e.Logger.Debug("malformed line", "source", source, "line", sum.Lines)
		}

		if err := sink.Write(e.Features.Extract(rec)); err != nil {
			return sum, fmt.Errorf("%s:%d: %w", source, sum.Lines, err)
		}

		if readErr == io.EOF {
			break
		}
	}

	return sum, nil
}

// Evaluate labels vs with truth, predicts them with p and scores the result.
func Evaluate(ctx context.Context, vs []model.FeatureVector, truth policy.Labeler, p policy.Predictor) (metrics.Report, error) {
	yTrue := policy.Labels(truth, vs)

	yPred, err := policy.PredictAll(ctx, p, vs)
	if err != nil {
		return metrics.Report{}, fmt.Errorf("predicting: %w", err)
	}

	return metrics.Evaluate(yTrue, yPred)
}

// Scorer turns single raw lines into scored records. It is the per-line form
// of Extractor plus Evaluate, used when following live files.
type Scorer struct {
	parser    parser.Parser
	extractor features.Extractor
	predictor policy.Predictor
	labeler   policy.Labeler
}

// NewScorer creates a Scorer. A nil labeler labels everything 0.
func NewScorer(p policy.Predictor, l policy.Labeler) *Scorer {
	if l == nil {
		l = func(model.FeatureVector) int { return 0 }
	}
	return &Scorer{
		parser:    parser.NewDelimitedParser(),
		extractor: features.Default,
		predictor: p,
		labeler:   l,
	}
}

// Score parses, extracts, predicts and labels one line.
func (s *Scorer) Score(ctx context.Context, raw model.RawLine) (model.Scored, error) {
	rec := s.parser.Parse(raw.Text, raw.Source)
	v := s.extractor.Extract(rec)

	pred, err := s.predictor.Predict(ctx, v)
	if err != nil {
		return model.Scored{}, err
	}

	return model.Scored{
		Record:     rec,
		Features:   v,
		Prediction: pred,
		Label:      s.labeler(v),
	}, nil
}
