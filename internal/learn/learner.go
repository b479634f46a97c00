// Package learn fits regression models to feature records, scores them with
// K-fold cross-validation, and selects the best candidate.
package learn

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyDataset is returned when there are no rows to train on.
	ErrEmptyDataset = errors.New("learn: empty dataset")
	// ErrNoModel is returned when every candidate learner failed.
	ErrNoModel = errors.New("learn: no candidate produced a model")
	// ErrUnknownKind is returned when decoding a regressor of an unregistered kind.
	ErrUnknownKind = errors.New("learn: unknown regressor kind")
)

// Regressor predicts a scalar from one feature vector. Implementations are
// immutable after fitting and safe for concurrent use.
type Regressor interface {
	// Kind identifies the parameter encoding, e.g. "linear", "gbt".
	Kind() string
	// Width is the feature vector length the regressor was fitted on.
	Width() int
	// Predict returns the estimate for x. len(x) must equal Width().
	Predict(x []float64) float64
}

// Learner fits a Regressor to a row-major design matrix and targets.
type Learner interface {
	Name() string
	Fit(x [][]float64, y []float64) (Regressor, error)
}

// DefaultLearners returns the candidate set in declaration order.
// Ties in cross-validated R² go to the earlier entry.
func DefaultLearners() []Learner {
	return []Learner{
		NewGBT(DefaultGBTConfig()),
		NewRidge(1.0),
		NewOLS(),
	}
}

// ParseLearners maps a comma-separated list of learner names ("gbt,ridge,linear")
// to learners, preserving order. Empty input returns DefaultLearners.
func ParseLearners(s string) ([]Learner, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultLearners(), nil
	}
	var out []Learner
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "gbt":
			out = append(out, NewGBT(DefaultGBTConfig()))
		case "ridge":
			out = append(out, NewRidge(1.0))
		case "linear", "ols":
			out = append(out, NewOLS())
		case "":
		default:
			return nil, fmt.Errorf("unknown learner %q", name)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no learners configured")
	}
	return out, nil
}

// Decode rebuilds a regressor from its kind and JSON parameters.
func Decode(kind string, params json.RawMessage) (Regressor, error) {
	switch kind {
	case kindLinear:
		var m LinearModel
		if err := json.Unmarshal(params, &m); err != nil {
			return nil, fmt.Errorf("decode linear params: %w", err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case kindGBT:
		var m GBTModel
		if err := json.Unmarshal(params, &m); err != nil {
			return nil, fmt.Errorf("decode gbt params: %w", err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func checkXY(x [][]float64, y []float64) (rows, width int, err error) {
	if len(x) == 0 {
		return 0, 0, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("learn: %d rows but %d targets", len(x), len(y))
	}
	width = len(x[0])
	for i, row := range x {
		if len(row) != width {
			return 0, 0, fmt.Errorf("learn: row %d has %d features, want %d", i, len(row), width)
		}
	}
	return len(x), width, nil
}
