package metrics

import "errors"

// ErrEmpty is returned by the descriptive statistics for an empty input.
var ErrEmpty = errors.New("metrics: empty input")

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Min returns the smallest value.
func Min(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m, nil
}

// Max returns the largest value.
func Max(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m, nil
}

// Summary describes a set of scores.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Summarize computes a Summary, failing with ErrEmpty on no input.
func Summarize(values []float64) (Summary, error) {
	mean, err := Mean(values)
	if err != nil {
		return Summary{}, err
	}
	lo, _ := Min(values)
	hi, _ := Max(values)
	return Summary{Count: len(values), Mean: mean, Min: lo, Max: hi}, nil
}
