package learn

import (
	"errors"
	"fmt"
	"sort"
)

const kindGBT = "gbt"

// GBTConfig controls the gradient boosted tree learner.
type GBTConfig struct {
	Rounds       int     `json:"rounds"`
	MaxDepth     int     `json:"max_depth"`
	MinLeaf      int     `json:"min_leaf"`
	Bins         int     `json:"bins"`
	LearningRate float64 `json:"learning_rate"`
}

// DefaultGBTConfig mirrors common LightGBM regression defaults scaled down
// for datasets of a few thousand rows.
func DefaultGBTConfig() GBTConfig {
	return GBTConfig{Rounds: 50, MaxDepth: 3, MinLeaf: 20, Bins: 32, LearningRate: 0.1}
}

// GBTLearner fits an ensemble of shallow regression trees to squared-error
// residuals. Split search runs over per-feature quantile histograms.
type GBTLearner struct {
	cfg GBTConfig
}

// NewGBT creates a boosted tree learner. Zero fields fall back to defaults.
func NewGBT(cfg GBTConfig) *GBTLearner {
	def := DefaultGBTConfig()
	if cfg.Rounds <= 0 {
		cfg.Rounds = def.Rounds
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = def.MinLeaf
	}
	if cfg.Bins < 2 || cfg.Bins > 256 {
		cfg.Bins = def.Bins
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	return &GBTLearner{cfg: cfg}
}

func (g *GBTLearner) Name() string { return "gbt" }

// TreeNode is one node of a fitted tree. Leaves have Feature == -1.
type TreeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// GBTModel is a fitted boosted tree ensemble.
type GBTModel struct {
	Init     float64      `json:"init"`
	Features int          `json:"features"`
	Trees    [][]TreeNode `json:"trees"`
	Config   GBTConfig    `json:"config"`
}

func (m *GBTModel) Kind() string { return kindGBT }
func (m *GBTModel) Width() int   { return m.Features }

func (m *GBTModel) Predict(x []float64) float64 {
	out := m.Init
	for _, tree := range m.Trees {
		out += predictTree(tree, x)
	}
	return out
}

func predictTree(tree []TreeNode, x []float64) float64 {
	i := 0
	for tree[i].Feature >= 0 {
		n := tree[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return tree[i].Value
}

func (m *GBTModel) validate() error {
	if m.Features <= 0 {
		return errors.New("gbt: missing feature count")
	}
	for t, tree := range m.Trees {
		if len(tree) == 0 {
			return fmt.Errorf("gbt: tree %d is empty", t)
		}
		for i, n := range tree {
			if n.Feature < 0 {
				continue
			}
			if n.Feature >= m.Features || n.Left <= i || n.Right <= i || n.Left >= len(tree) || n.Right >= len(tree) {
				return fmt.Errorf("gbt: tree %d node %d is malformed", t, i)
			}
		}
	}
	return nil
}

func (g *GBTLearner) Fit(x [][]float64, y []float64) (Regressor, error) {
	n, d, err := checkXY(x, y)
	if err != nil {
		return nil, err
	}

	cuts := make([][]float64, d)
	bins := make([][]uint8, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		cuts[j] = quantileCuts(col, g.cfg.Bins)
		bins[j] = make([]uint8, n)
		for i, v := range col {
			bins[j][i] = uint8(sort.SearchFloat64s(cuts[j], v))
		}
	}

	init := 0.0
	for _, v := range y {
		init += v
	}
	init /= float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = init
	}
	resid := make([]float64, n)
	rows := make([]int, n)

	model := &GBTModel{Init: init, Features: d, Config: g.cfg}
	for round := 0; round < g.cfg.Rounds; round++ {
		for i := range resid {
			resid[i] = y[i] - pred[i]
			rows[i] = i
		}
		b := treeBuilder{cfg: g.cfg, cuts: cuts, bins: bins, resid: resid}
		b.grow(rows, 0)
		for i := range pred {
			pred[i] += predictTree(b.nodes, x[i])
		}
		model.Trees = append(model.Trees, b.nodes)
	}
	return model, nil
}

// quantileCuts returns increasing split thresholds such that a value v falls
// in bin SearchFloat64s(cuts, v). At most bins-1 cuts are produced, and every
// cut leaves at least one value on each side.
func quantileCuts(col []float64, bins int) []float64 {
	sorted := make([]float64, len(col))
	copy(sorted, col)
	sort.Float64s(sorted)
	n := len(sorted)

	cuts := make([]float64, 0, bins-1)
	for b := 1; b < bins; b++ {
		idx := b * n / bins
		if idx <= 0 || idx >= n {
			continue
		}
		v := sorted[idx-1]
		if v >= sorted[n-1] {
			break
		}
		if len(cuts) == 0 || v > cuts[len(cuts)-1] {
			cuts = append(cuts, v)
		}
	}
	return cuts
}

type treeBuilder struct {
	cfg   GBTConfig
	cuts  [][]float64
	bins  [][]uint8
	resid []float64
	nodes []TreeNode
}

// grow appends the subtree for rows and returns its root index.
func (b *treeBuilder) grow(rows []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: -1})

	total := 0.0
	for _, r := range rows {
		total += b.resid[r]
	}
	count := len(rows)
	b.nodes[idx].Value = b.cfg.LearningRate * total / float64(count)

	if depth >= b.cfg.MaxDepth || count < 2*b.cfg.MinLeaf {
		return idx
	}

	feature, split, ok := b.bestSplit(rows, total)
	if !ok {
		return idx
	}

	left := make([]int, 0, count)
	right := make([]int, 0, count)
	for _, r := range rows {
		if int(b.bins[feature][r]) <= split {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = b.cuts[feature][split]
	b.nodes[idx].Value = 0
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Left, b.nodes[idx].Right = l, r
	return idx
}

// bestSplit scans per-feature residual histograms for the split with the
// largest squared-error reduction. split is the last bin sent left.
func (b *treeBuilder) bestSplit(rows []int, total float64) (feature, split int, ok bool) {
	n := float64(len(rows))
	parent := total * total / n
	bestGain := 1e-12

	for f := range b.cuts {
		nb := len(b.cuts[f]) + 1
		if nb < 2 {
			continue
		}
		sum := make([]float64, nb)
		cnt := make([]int, nb)
		for _, r := range rows {
			bin := b.bins[f][r]
			sum[bin] += b.resid[r]
			cnt[bin]++
		}

		ls, lc := 0.0, 0
		for s := 0; s < nb-1; s++ {
			ls += sum[s]
			lc += cnt[s]
			rc := len(rows) - lc
			if lc < b.cfg.MinLeaf {
				continue
			}
			if rc < b.cfg.MinLeaf {
				break
			}
			rs := total - ls
			gain := ls*ls/float64(lc) + rs*rs/float64(rc) - parent
			if gain > bestGain {
				bestGain, feature, split, ok = gain, f, s, true
			}
		}
	}
	return feature, split, ok
}
