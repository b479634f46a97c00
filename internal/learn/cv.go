package learn

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// FoldPolicy decides which model and scores a cross-validation run reports.
type FoldPolicy string

const (
	// PolicyAverage reports scores averaged across folds and refits the
	// learner on every row.
	PolicyAverage FoldPolicy = "average"
	// PolicyBestFold keeps the fold model with the highest R² and that
	// fold's scores.
	PolicyBestFold FoldPolicy = "best-fold"
)

// ParseFoldPolicy accepts "average" (default when empty) or "best-fold".
func ParseFoldPolicy(s string) (FoldPolicy, error) {
	switch FoldPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAverage:
		return PolicyAverage, nil
	case PolicyBestFold, "best":
		return PolicyBestFold, nil
	}
	return "", fmt.Errorf("unknown fold policy %q", s)
}

// Fold is a contiguous half-open range of held-out rows.
type Fold struct{ Start, End int }

// Folds splits n rows into k contiguous folds whose sizes differ by at most
// one. k is clamped to [2, n]. Fewer than two rows yields no folds.
func Folds(n, k int) []Fold {
	if n < 2 {
		return nil
	}
	if k > n {
		k = n
	}
	if k < 2 {
		k = 2
	}
	folds := make([]Fold, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		folds[i] = Fold{Start: start, End: start + size}
		start += size
	}
	return folds
}

// CVResult is the outcome of cross-validating one learner.
type CVResult struct {
	Metrics  Metrics   // reported scores under the policy
	Folds    []Metrics // per-fold held-out scores
	BestFold int       // index of the highest-R² fold
	Model    Regressor // final model under the policy
}

// CrossValidate scores learner with k contiguous folds and returns the model
// chosen by policy. Any fold failing to fit fails the whole run.
func CrossValidate(ctx context.Context, learner Learner, x [][]float64, y []float64, k int, policy FoldPolicy) (*CVResult, error) {
	if len(x) == 0 {
		return nil, ErrEmptyDataset
	}
	folds := Folds(len(x), k)
	if len(folds) == 0 {
		return nil, fmt.Errorf("cross-validation needs at least 2 rows, have %d", len(x))
	}

	res := &CVResult{Folds: make([]Metrics, len(folds)), BestFold: -1}
	var bestModel Regressor
	bestR2 := math.Inf(-1)

	for fi, f := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		trainX := make([][]float64, 0, len(x)-(f.End-f.Start))
		trainY := make([]float64, 0, cap(trainX))
		trainX = append(append(trainX, x[:f.Start]...), x[f.End:]...)
		trainY = append(append(trainY, y[:f.Start]...), y[f.End:]...)

		m, err := learner.Fit(trainX, trainY)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fi, err)
		}

		pred := make([]float64, f.End-f.Start)
		for i := range pred {
			pred[i] = m.Predict(x[f.Start+i])
		}
		res.Folds[fi] = Evaluate(y[f.Start:f.End], pred)

		if r2 := res.Folds[fi].R2; r2 > bestR2 {
			bestR2, res.BestFold, bestModel = r2, fi, m
		}
	}

	if policy == PolicyBestFold && bestModel != nil {
		res.Metrics = res.Folds[res.BestFold]
		res.Model = bestModel
		return res, nil
	}

	res.Metrics = meanMetrics(res.Folds)
	full, err := learner.Fit(x, y)
	if err != nil {
		return nil, fmt.Errorf("refit: %w", err)
	}
	res.Model = full
	return res, nil
}
