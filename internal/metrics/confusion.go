// Package metrics scores binary predictions against true labels.
package metrics

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when label sequences are not positionally paired.
	ErrLengthMismatch = errors.New("metrics: true and predicted labels differ in length")

	// ErrInvalidLabel is returned for a label outside {0, 1}.
	ErrInvalidLabel = errors.New("metrics: label must be 0 or 1")
)

// Counts is a binary confusion matrix.
type Counts struct {
	TP int `json:"tp"`
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// CountOutcomes tallies each (truth, prediction) pair. It returns no counts on
// error.
func CountOutcomes(yTrue, yPred []int) (Counts, error) {
	if len(yTrue) != len(yPred) {
		return Counts{}, fmt.Errorf("%w: %d true, %d predicted", ErrLengthMismatch, len(yTrue), len(yPred))
	}

	var c Counts
	for i := range yTrue {
		if err := c.Add(yTrue[i], yPred[i]); err != nil {
			return Counts{}, fmt.Errorf("position %d: %w", i, err)
		}
	}
	return c, nil
}

// Add records one pair.
func (c *Counts) Add(truth, pred int) error {
	switch {
	case truth == 1 && pred == 1:
		c.TP++
	case truth == 0 && pred == 0:
		c.TN++
	case truth == 0 && pred == 1:
		c.FP++
	case truth == 1 && pred == 0:
		c.FN++
	default:
		return fmt.Errorf("%w: truth=%d pred=%d", ErrInvalidLabel, truth, pred)
	}
	return nil
}

// Total returns the number of compared pairs.
func (c Counts) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

// Accuracy is (TP+TN)/total, or 0 when there are no pairs.
func (c Counts) Accuracy() float64 {
	return ratio(c.TP+c.TN, c.Total())
}

// Precision is TP/(TP+FP), or 0 when nothing was predicted positive.
func (c Counts) Precision() float64 {
	return ratio(c.TP, c.TP+c.FP)
}

// Recall is TP/(TP+FN), or 0 when there are no actual positives.
func (c Counts) Recall() float64 {
	return ratio(c.TP, c.TP+c.FN)
}

// F1 is the harmonic mean of precision and recall, or 0 when both are 0.
func (c Counts) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// Report is a confusion matrix together with its derived metrics.
type Report struct {
	Counts    Counts  `json:"counts"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	// Scores summarizes raw classifier scores when the policy exposes them.
	Scores *Summary `json:"scores,omitempty"`
}

// NewReport derives all metrics from c.
func NewReport(c Counts) Report {
	return Report{
		Counts:    c,
		Accuracy:  c.Accuracy(),
		Precision: c.Precision(),
		Recall:    c.Recall(),
		F1:        c.F1(),
	}
}

// Evaluate counts outcomes and derives the report in one step.
func Evaluate(yTrue, yPred []int) (Report, error) {
	c, err := CountOutcomes(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	return NewReport(c), nil
}
