// Package artifact persists trained models together with the feature schema
// they were fitted on. An artifact whose schema differs from the running
// feature builder is rejected at load time.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"stockforecast/internal/features"
	"stockforecast/internal/learn"
)

var (
	// ErrSchemaMismatch means the artifact was trained on different features.
	ErrSchemaMismatch = errors.New("artifact: feature schema mismatch")
	// ErrNotFound means no artifact exists at the store location.
	ErrNotFound = errors.New("artifact: not found")
)

// Candidate summarizes one learner's cross-validation scores.
type Candidate struct {
	Learner string `json:"learner"`
	Scores  Scores `json:"scores"`
	Error   string `json:"error,omitempty"`
}

// Scores holds regression metrics. Non-finite values are stored as null.
type Scores struct {
	R2   *float64 `json:"r2"`
	MAE  *float64 `json:"mae"`
	MSE  *float64 `json:"mse"`
	RMSE *float64 `json:"rmse"`
}

// Artifact is a trained model plus everything needed to validate and use it.
// It is read-only once built or loaded and safe to share across goroutines.
type Artifact struct {
	Schema     []string        `json:"schema"`
	Horizon    int             `json:"horizon"`
	Learner    string          `json:"learner"`
	Kind       string          `json:"kind"`
	Params     json.RawMessage `json:"params"`
	Scores     Scores          `json:"scores"`
	Candidates []Candidate     `json:"candidates"`
	Policy     string          `json:"policy"`
	Folds      int             `json:"folds"`
	Rows       int             `json:"rows"`
	TrainedAt  time.Time       `json:"trained_at"`

	model learn.Regressor
}

// New builds an artifact from a successful training result.
func New(res *learn.Result, trainedAt time.Time) (*Artifact, error) {
	if res == nil || res.Best == nil || res.Model == nil {
		return nil, learn.ErrNoModel
	}
	params, err := json.Marshal(res.Model)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", res.Model.Kind(), err)
	}

	a := &Artifact{
		Schema:    features.Schema(),
		Horizon:   features.Horizon,
		Learner:   res.Best.Learner,
		Kind:      res.Model.Kind(),
		Params:    params,
		Scores:    scores(res.Best.Metrics),
		Policy:    string(res.Policy),
		Folds:     res.Folds,
		Rows:      res.Rows,
		TrainedAt: trainedAt.UTC(),
		model:     res.Model,
	}
	for _, c := range res.Candidates {
		s := Candidate{Learner: c.Learner, Scores: scores(c.Metrics)}
		if c.Err != nil {
			s.Error = c.Err.Error()
			s.Scores = Scores{}
		}
		a.Candidates = append(a.Candidates, s)
	}
	return a, nil
}

// Marshal encodes the artifact as indented JSON.
func (a *Artifact) Marshal() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// Unmarshal decodes and validates an artifact. A schema or horizon that
// differs from the current feature builder yields ErrSchemaMismatch.
func Unmarshal(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	m, err := learn.Decode(a.Kind, a.Params)
	if err != nil {
		return nil, err
	}
	if m.Width() != len(a.Schema) {
		return nil, fmt.Errorf("%w: model expects %d features, schema has %d", ErrSchemaMismatch, m.Width(), len(a.Schema))
	}
	a.model = m
	return &a, nil
}

// Validate checks the schema and horizon against the current feature builder.
func (a *Artifact) Validate() error {
	want := features.Schema()
	if len(a.Schema) != len(want) {
		return fmt.Errorf("%w: %d columns, want %d", ErrSchemaMismatch, len(a.Schema), len(want))
	}
	for i := range want {
		if a.Schema[i] != want[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrSchemaMismatch, i, a.Schema[i], want[i])
		}
	}
	if a.Horizon != features.Horizon {
		return fmt.Errorf("%w: horizon %d, want %d", ErrSchemaMismatch, a.Horizon, features.Horizon)
	}
	return nil
}

// Predict returns the model's percent-change estimate for a feature vector.
func (a *Artifact) Predict(vector []float64) float64 {
	return a.model.Predict(vector)
}

// Metrics returns the selected model's scores, with NaN for missing values.
func (a *Artifact) Metrics() learn.Metrics {
	get := func(p *float64) float64 {
		if p == nil {
			return math.NaN()
		}
		return *p
	}
	return learn.Metrics{R2: get(a.Scores.R2), MAE: get(a.Scores.MAE), MSE: get(a.Scores.MSE), RMSE: get(a.Scores.RMSE)}
}

func scores(m learn.Metrics) Scores {
	ptr := func(v float64) *float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	return Scores{R2: ptr(m.R2), MAE: ptr(m.MAE), MSE: ptr(m.MSE), RMSE: ptr(m.RMSE)}
}
