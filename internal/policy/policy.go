// Package policy maps feature vectors to binary labels.
//
// A Predictor produces the label under test; a Labeler supplies the ground
// truth it is scored against. Both are chosen by the caller.
package policy

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/atikulmunna/logsift/internal/model"
)

// ErrBadPrediction is returned when a classifier answers outside {0, 1} or
// with the wrong number of labels.
var ErrBadPrediction = errors.New("policy: classifier returned an invalid prediction")

// Predictor maps one feature vector to 0 or 1.
type Predictor interface {
	Predict(ctx context.Context, v model.FeatureVector) (int, error)
}

// BatchPredictor is implemented by predictors that are cheaper to call once
// per dataset than once per row.
type BatchPredictor interface {
	PredictBatch(ctx context.Context, vs []model.FeatureVector) ([]int, error)
}

// PredictAll predicts every vector, batching when p supports it.
func PredictAll(ctx context.Context, p Predictor, vs []model.FeatureVector) ([]int, error) {
	if bp, ok := p.(BatchPredictor); ok {
		return bp.PredictBatch(ctx, vs)
	}

	out := make([]int, len(vs))
	for i, v := range vs {
		y, err := p.Predict(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = y
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Rule
// ---------------------------------------------------------------------------

// Rule flags a failed login coming from an external address.
type Rule struct{}

func (Rule) Predict(_ context.Context, v model.FeatureVector) (int, error) {
	return RuleLabel(v), nil
}

// RuleLabel is the Rule decision as a plain function.
func RuleLabel(v model.FeatureVector) int {
	if v.FailedLogin == 1 && v.ExternalIP == 1 {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Trained model
// ---------------------------------------------------------------------------

// Classifier is an externally trained binary classifier. Rows of X follow
// model.FeatureNames order.
type Classifier interface {
	Fit(ctx context.Context, X [][]float64, y []int) error
	Predict(ctx context.Context, X [][]float64) ([]int, error)
}

// Model adapts a Classifier to the Predictor interface.
type Model struct {
	clf Classifier
}

func NewModel(clf Classifier) *Model { return &Model{clf: clf} }

// Fit trains the underlying classifier on vs labelled by y.
func (m *Model) Fit(ctx context.Context, vs []model.FeatureVector, y []int) error {
	if len(vs) != len(y) {
		return fmt.Errorf("fit: %d vectors, %d labels", len(vs), len(y))
	}
	return m.clf.Fit(ctx, Matrix(vs), y)
}

func (m *Model) Predict(ctx context.Context, v model.FeatureVector) (int, error) {
	ys, err := m.PredictBatch(ctx, []model.FeatureVector{v})
	if err != nil {
		return 0, err
	}
	return ys[0], nil
}

func (m *Model) PredictBatch(ctx context.Context, vs []model.FeatureVector) ([]int, error) {
	ys, err := m.clf.Predict(ctx, Matrix(vs))
	if err != nil {
		return nil, err
	}
	if len(ys) != len(vs) {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrBadPrediction, len(ys), len(vs))
	}
	for i, y := range ys {
		if y != 0 && y != 1 {
			return nil, fmt.Errorf("%w: row %d got %d", ErrBadPrediction, i+1, y)
		}
	}
	return ys, nil
}

// Classifier returns the wrapped classifier.
func (m *Model) Classifier() Classifier {
	return m.clf
}

// Matrix converts vectors to classifier input rows.
func Matrix(vs []model.FeatureVector) [][]float64 {
	X := make([][]float64, len(vs))
	for i, v := range vs {
		X[i] = v.Values()
	}
	return X
}

// ---------------------------------------------------------------------------
// Ground truth
// ---------------------------------------------------------------------------

// Labeler derives the ground-truth label for a vector.
type Labeler func(v model.FeatureVector) int

// AnalystLabel marks any failed login, or an admin login from outside, as
// suspicious.
func AnalystLabel(v model.FeatureVector) int {
	if v.FailedLogin == 1 || (v.AdminUser == 1 && v.ExternalIP == 1) {
		return 1
	}
	return 0
}

// FailedLoginLabel marks every failed login as suspicious.
func FailedLoginLabel(v model.FeatureVector) int {
	return v.FailedLogin
}

var labelers = map[string]Labeler{
	"analyst":      AnalystLabel,
	"failed-login": FailedLoginLabel,
	"rule":         RuleLabel,
}

// LabelerByName returns a built-in labeler.
func LabelerByName(name string) (Labeler, error) {
	l, ok := labelers[name]
	if !ok {
		return nil, fmt.Errorf("unknown labeler %q (supported: %v)", name, LabelerNames())
	}
	return l, nil
}

// LabelerNames lists the built-in labelers in sorted order.
func LabelerNames() []string {
	names := make([]string, 0, len(labelers))
	for n := range labelers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Labels applies l to every vector.
func Labels(l Labeler, vs []model.FeatureVector) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = l(v)
	}
	return out
}
