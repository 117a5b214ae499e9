package policy

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/atikulmunna/logsift/internal/model"
)

// fakeClassifier answers with a fixed label slice and records its input.
type fakeClassifier struct {
	fitX    [][]float64
	fitY    []int
	predX   [][]float64
	answer  func(X [][]float64) []int
	predErr error
}

func (f *fakeClassifier) Fit(_ context.Context, X [][]float64, y []int) error {
	f.fitX, f.fitY = X, y
	return nil
}

func (f *fakeClassifier) Predict(_ context.Context, X [][]float64) ([]int, error) {
	f.predX = X
	if f.predErr != nil {
		return nil, f.predErr
	}
	return f.answer(X), nil
}

// countingPredictor only implements the per-row interface.
type countingPredictor struct{ calls int }

func (c *countingPredictor) Predict(_ context.Context, v model.FeatureVector) (int, error) {
	c.calls++
	return v.AdminUser, nil
}

func TestRule(t *testing.T) {
	cases := []struct {
		v    model.FeatureVector
		want int
	}{
		{model.FeatureVector{FailedLogin: 1, ExternalIP: 1}, 1},
		{model.FeatureVector{FailedLogin: 1}, 0},
		{model.FeatureVector{ExternalIP: 1, AdminUser: 1}, 0},
		{model.FeatureVector{ParseError: true}, 0},
	}
	for _, c := range cases {
		got, err := Rule{}.Predict(context.Background(), c.v)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("%+v: expected %d, got %d", c.v, c.want, got)
		}
	}
}

func TestModelDelegatesBatch(t *testing.T) {
	clf := &fakeClassifier{answer: func(X [][]float64) []int {
		out := make([]int, len(X))
		for i, row := range X {
			out[i] = int(row[0]) // is_failed_login
		}
		return out
	}}
	m := NewModel(clf)

	vs := []model.FeatureVector{{FailedLogin: 1}, {AdminUser: 1}}
	got, err := PredictAll(context.Background(), m, vs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{1, 0}) {
		t.Errorf("expected [1 0], got %v", got)
	}
	if len(clf.predX) != 2 || len(clf.predX[0]) != len(model.FeatureNames) {
		t.Errorf("expected a 2x%d matrix, got %v", len(model.FeatureNames), clf.predX)
	}

	one, err := m.Predict(context.Background(), model.FeatureVector{FailedLogin: 1})
	if err != nil || one != 1 {
		t.Errorf("expected single prediction 1, got %d (%v)", one, err)
	}
}

func TestModelFit(t *testing.T) {
	clf := &fakeClassifier{}
	m := NewModel(clf)

	vs := []model.FeatureVector{{FailedLogin: 1, ExternalIP: 1}, {}}
	if err := m.Fit(context.Background(), vs, []int{1, 0}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(clf.fitX[0], []float64{1, 0, 1, 0, 0, 0}) {
		t.Errorf("unexpected first training row %v", clf.fitX[0])
	}
	if err := m.Fit(context.Background(), vs, []int{1}); err == nil {
		t.Error("expected error for mismatched labels")
	}
}

func TestModelRejectsBadOutput(t *testing.T) {
	vs := []model.FeatureVector{{}, {}}

	short := NewModel(&fakeClassifier{answer: func([][]float64) []int { return []int{1} }})
	if _, err := short.PredictBatch(context.Background(), vs); !errors.Is(err, ErrBadPrediction) {
		t.Errorf("expected ErrBadPrediction for short output, got %v", err)
	}

	outOfRange := NewModel(&fakeClassifier{answer: func([][]float64) []int { return []int{0, 3} }})
	if _, err := outOfRange.PredictBatch(context.Background(), vs); !errors.Is(err, ErrBadPrediction) {
		t.Errorf("expected ErrBadPrediction for label 3, got %v", err)
	}

	boom := errors.New("service down")
	failing := NewModel(&fakeClassifier{predErr: boom})
	if _, err := failing.PredictBatch(context.Background(), vs); !errors.Is(err, boom) {
		t.Errorf("expected classifier error to surface, got %v", err)
	}
}

func TestPredictAllPerRow(t *testing.T) {
	p := &countingPredictor{}

	got, err := PredictAll(context.Background(), p, []model.FeatureVector{{AdminUser: 1}, {}, {AdminUser: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{1, 0, 1}) {
		t.Errorf("expected [1 0 1], got %v", got)
	}
	if p.calls != 3 {
		t.Errorf("expected 3 calls, got %d", p.calls)
	}
}

func TestLabelers(t *testing.T) {
	vs := []model.FeatureVector{
		{FailedLogin: 1},
		{AdminUser: 1, ExternalIP: 1},
		{AdminUser: 1},
		{FailedLogin: 1, ExternalIP: 1},
	}

	if got := Labels(AnalystLabel, vs); !reflect.DeepEqual(got, []int{1, 1, 0, 1}) {
		t.Errorf("analyst: got %v", got)
	}
	if got := Labels(FailedLoginLabel, vs); !reflect.DeepEqual(got, []int{1, 0, 0, 1}) {
		t.Errorf("failed-login: got %v", got)
	}
	if got := Labels(RuleLabel, vs); !reflect.DeepEqual(got, []int{0, 0, 0, 1}) {
		t.Errorf("rule: got %v", got)
	}
}

func TestLabelerByName(t *testing.T) {
	for _, name := range LabelerNames() {
		if _, err := LabelerByName(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := LabelerByName("oracle"); err == nil {
		t.Error("expected error for unknown labeler")
	}
	if got := LabelerNames(); !reflect.DeepEqual(got, []string{"analyst", "failed-login", "rule"}) {
		t.Errorf("unexpected names %v", got)
	}
}
