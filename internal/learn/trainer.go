package learn

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"stockforecast/internal/features"
)

// Candidate is one learner's cross-validation outcome.
type Candidate struct {
	Learner string    `json:"learner"`
	Metrics Metrics   `json:"metrics"`
	Folds   []Metrics `json:"folds,omitempty"`
	Err     error     `json:"-"`
	Elapsed time.Duration `json:"elapsed"`

	model Regressor
}

// Failed reports whether the learner could not be scored.
func (c *Candidate) Failed() bool { return c.Err != nil }

// Result is the outcome of a training run.
type Result struct {
	Candidates []Candidate
	Best       *Candidate
	Model      Regressor
	Rows       int
	Policy     FoldPolicy
	Folds      int
}

// Trainer cross-validates a set of learners and keeps the best one.
type Trainer struct {
	Learners []Learner
	Folds    int
	Policy   FoldPolicy
	Logger   *slog.Logger
}

// NewTrainer creates a trainer with the default learners, 10 folds and the
// averaging policy.
func NewTrainer() *Trainer {
	return &Trainer{
		Learners: DefaultLearners(),
		Folds:    10,
		Policy:   PolicyAverage,
		Logger:   slog.Default(),
	}
}

// Train scores every learner on records and selects the highest R².
// Ties keep the earlier learner. A NaN R² only wins when no candidate has a
// finite one. A learner that fails is recorded and skipped. Returns
// ErrEmptyDataset for no records and ErrNoModel when no learner could be scored.
func (t *Trainer) Train(ctx context.Context, records []features.Record) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	log := t.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "trainer"))

	x, y := features.Matrix(records)
	res := &Result{Rows: len(records), Policy: t.Policy, Folds: t.Folds}

	for _, l := range t.Learners {
		start := time.Now()
		cv, err := CrossValidate(ctx, l, x, y, t.Folds, t.Policy)
		c := Candidate{Learner: l.Name(), Err: err, Elapsed: time.Since(start)}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Warn("learner failed", slog.String("learner", l.Name()), slog.String("error", err.Error()))
		} else {
			c.Metrics, c.Folds, c.model = cv.Metrics, cv.Folds, cv.Model
			log.Info("learner scored",
				slog.String("learner", l.Name()),
				slog.Float64("r2", c.Metrics.R2),
				slog.Float64("rmse", c.Metrics.RMSE),
				slog.Duration("elapsed", c.Elapsed),
			)
		}
		res.Candidates = append(res.Candidates, c)
	}

	bestR2 := math.Inf(-1)
	for i := range res.Candidates {
		c := &res.Candidates[i]
		if c.Failed() || math.IsNaN(c.Metrics.R2) {
			continue
		}
		if res.Best == nil || c.Metrics.R2 > bestR2 {
			res.Best, bestR2 = c, c.Metrics.R2
		}
	}
	if res.Best == nil {
		for i := range res.Candidates {
			if !res.Candidates[i].Failed() {
				res.Best = &res.Candidates[i]
				break
			}
		}
	}
	if res.Best == nil {
		return nil, ErrNoModel
	}
	res.Model = res.Best.model
	return res, nil
}
