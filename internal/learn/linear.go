package learn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const kindLinear = "linear"

// LinearLearner fits y = b + w·z on standardized features z by solving the
// ridge normal equations (ZᵀZ + λI)w = Zᵀ(y - ȳ) with a Cholesky factorization.
type LinearLearner struct {
	name   string
	lambda float64
}

// NewOLS returns an ordinary least squares learner. A tiny ridge term keeps
// the normal equations solvable when features are collinear.
func NewOLS() *LinearLearner { return &LinearLearner{name: "linear", lambda: 1e-6} }

// NewRidge returns an L2-regularized least squares learner.
func NewRidge(lambda float64) *LinearLearner { return &LinearLearner{name: "ridge", lambda: lambda} }

func (l *LinearLearner) Name() string { return l.name }

func (l *LinearLearner) Fit(x [][]float64, y []float64) (Regressor, error) {
	n, d, err := checkXY(x, y)
	if err != nil {
		return nil, err
	}

	mean := make([]float64, d)
	std := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		m, s := stat.MeanStdDev(col, nil)
		if !(s > 0) {
			s = 1
		}
		mean[j], std[j] = m, s
	}

	z := mat.NewDense(n, d, nil)
	for i, row := range x {
		for j, v := range row {
			z.Set(i, j, (v-mean[j])/std[j])
		}
	}
	yMean := stat.Mean(y, nil)
	yc := mat.NewVecDense(n, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, z.T())
	for j := 0; j < d; j++ {
		gram.SetSym(j, j, gram.At(j, j)+l.lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(z.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, errors.New("linear: normal equations are not positive definite")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return nil, fmt.Errorf("linear: solve: %w", err)
	}

	weights := make([]float64, d)
	for j := range weights {
		weights[j] = w.AtVec(j)
	}
	return &LinearModel{Intercept: yMean, Weights: weights, Mean: mean, Std: std, Lambda: l.lambda}, nil
}

// LinearModel is a fitted linear regressor over standardized features.
type LinearModel struct {
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`
	Mean      []float64 `json:"mean"`
	Std       []float64 `json:"std"`
	Lambda    float64   `json:"lambda"`
}

func (m *LinearModel) Kind() string { return kindLinear }
func (m *LinearModel) Width() int   { return len(m.Weights) }

func (m *LinearModel) Predict(x []float64) float64 {
	out := m.Intercept
	for j, w := range m.Weights {
		out += w * (x[j] - m.Mean[j]) / m.Std[j]
	}
	return out
}

func (m *LinearModel) validate() error {
	if len(m.Weights) == 0 || len(m.Mean) != len(m.Weights) || len(m.Std) != len(m.Weights) {
		return errors.New("linear: inconsistent parameter lengths")
	}
	for _, s := range m.Std {
		if s == 0 {
			return errors.New("linear: zero standard deviation")
		}
	}
	return nil
}
