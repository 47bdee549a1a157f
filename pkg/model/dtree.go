package model

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeRegressor is a CART regression tree using the squared-error
// criterion.
type DecisionTreeRegressor struct {
	// Hyperparameters / options
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	MaxFeatures         int     // 0 => use all features, >0 => number of features to sample at each node
	MinImpurityDecrease float64 // minimal weighted impurity decrease to accept a split
	RandomState         int64   // seed for feature subsampling

	// internals
	root        *dtNode
	nFeatures   int
	nodeCount   int
	importances []float64
}

// dtNode holds a node in the tree.
type dtNode struct {
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold => left
	nanLeft   bool    // missing values go left
	left      *dtNode
	right     *dtNode

	n     int
	value float64 // mean target of the samples reaching this node
}

// TreeOption functional config
type TreeOption func(*DecisionTreeRegressor)

func WithMaxDepth(d int) TreeOption { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) TreeOption { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }
func WithMinImpurityDecrease(v float64) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinImpurityDecrease = v }
}
func WithRandomState(seed int64) TreeOption {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor returns a fully grown tree by default.
func NewDecisionTreeRegressor(opts ...TreeOption) *DecisionTreeRegressor {
	d := &DecisionTreeRegressor{
		MaxDepth:            0,
		MinSamplesSplit:     2,
		MinSamplesLeaf:      1,
		MaxFeatures:         0,
		MinImpurityDecrease: 0.0,
		RandomState:         time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---------------------------
// Public API
// ---------------------------

// Fit grows the tree on X (n x p) and y. Missing values in X must be
// math.NaN(); at every split they are sent to whichever side lowers the
// error most.
func (t *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	if _, err := validate(X, y); err != nil {
		return err
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.fitSample(X, y, idx)
	return nil
}

// fitSample grows the tree on the rows listed in idx. Repeated indices act
// as sample weights, which is how the forest fits bootstrap samples without
// copying X.
func (t *DecisionTreeRegressor) fitSample(X [][]float64, y []float64, idx []int) {
	p := len(X[0])
	t.nFeatures = p
	t.nodeCount = 0
	t.importances = make([]float64, p)

	// Targets are centered so running sums of squares keep their precision.
	mean := 0.0
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))
	centered := make([]float64, len(y))
	for i, v := range y {
		centered[i] = v - mean
	}

	b := &treeBuilder{
		t:      t,
		X:      X,
		y:      centered,
		offset: mean,
		p:      p,
		nRoot:  float64(len(idx)),
		rnd:    rand.New(rand.NewSource(t.RandomState)),
	}
	t.root = b.build(idx, 0)

	total := 0.0
	for _, v := range t.importances {
		total += v
	}
	if total > 0 {
		for j := range t.importances {
			t.importances[j] /= total
		}
	}
}

// Predict returns the leaf mean reached by every row of X.
func (t *DecisionTreeRegressor) Predict(X [][]float64) ([]float64, error) {
	if t.root == nil {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, t.nFeatures); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i := range X {
		out[i] = t.predictSingle(X[i])
	}
	return out, nil
}

// FeatureImportances returns the total squared-error reduction contributed
// by each feature, normalized to sum to 1. A tree that never split returns
// all zeros.
func (t *DecisionTreeRegressor) FeatureImportances() []float64 {
	return append([]float64(nil), t.importances...)
}

// NodeCount returns the number of nodes, leaves included.
func (t *DecisionTreeRegressor) NodeCount() int { return t.nodeCount }

// Depth returns the length of the longest root-to-leaf path.
func (t *DecisionTreeRegressor) Depth() int { return depth(t.root) }

func depth(n *dtNode) int {
	if n == nil || n.isLeaf {
		return 0
	}
	return 1 + max(depth(n.left), depth(n.right))
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

// Nodes with at least this many samples search features concurrently.
const parallelSplitMin = 4096

// moments accumulates count, sum and sum of squares of targets.
type moments struct {
	n     int
	sum   float64
	sumSq float64
}

func (m *moments) add(v float64) {
	m.n++
	m.sum += v
	m.sumSq += v * v
}

func (m moments) plus(o moments) moments {
	return moments{n: m.n + o.n, sum: m.sum + o.sum, sumSq: m.sumSq + o.sumSq}
}

func (m moments) minus(o moments) moments {
	return moments{n: m.n - o.n, sum: m.sum - o.sum, sumSq: m.sumSq - o.sumSq}
}

// sse is the sum of squared deviations from the mean.
func (m moments) sse() float64 {
	if m.n == 0 {
		return 0
	}
	return math.Max(m.sumSq-m.sum*m.sum/float64(m.n), 0)
}

// splitResult holds the best split found on a single feature.
type splitResult struct {
	gain      float64 // reduction in sum of squared errors
	feature   int
	threshold float64
	nanLeft   bool
	sawNaN    bool
}

// pair is a feature value and its row index.
type pair struct {
	v float64
	i int
}

type treeBuilder struct {
	t      *DecisionTreeRegressor
	X      [][]float64
	y      []float64
	offset float64
	p      int
	nRoot  float64
	rnd    *rand.Rand
}

func (b *treeBuilder) build(idx []int, depth int) *dtNode {
	t := b.t
	t.nodeCount++

	var total moments
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		v := b.y[i]
		total.add(v)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	node := &dtNode{n: len(idx), value: total.sum/float64(total.n) + b.offset, isLeaf: true}

	if lo == hi ||
		len(idx) < t.MinSamplesSplit ||
		len(idx) < 2*max(t.MinSamplesLeaf, 1) ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return node
	}

	// determine features to try
	featIndices := make([]int, b.p)
	for j := range featIndices {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < b.p {
		for i := 0; i < t.MaxFeatures; i++ {
			j := i + b.rnd.Intn(b.p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:t.MaxFeatures]
	}

	results := make([]splitResult, len(featIndices))
	if len(idx) >= parallelSplitMin && len(featIndices) > 1 {
		var wg sync.WaitGroup
		for k, f := range featIndices {
			wg.Add(1)
			go func(k, f int) {
				defer wg.Done()
				results[k] = b.bestSplit(idx, f, total)
			}(k, f)
		}
		wg.Wait()
	} else {
		for k, f := range featIndices {
			results[k] = b.bestSplit(idx, f, total)
		}
	}

	best := splitResult{feature: -1}
	for _, r := range results {
		if r.feature < 0 {
			continue
		}
		if best.feature < 0 || r.gain > best.gain || (r.gain == best.gain && r.feature < best.feature) {
			best = r
		}
	}

	// Float noise can leave a tiny positive gain on useless splits.
	if best.feature < 0 || best.gain <= 1e-12*total.sse() || best.gain/b.nRoot < t.MinImpurityDecrease {
		return node
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		v := b.X[i][best.feature]
		if (math.IsNaN(v) && best.nanLeft) || v <= best.threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if !best.sawNaN {
		best.nanLeft = len(leftIdx) >= len(rightIdx)
	}

	t.importances[best.feature] += best.gain

	node.isLeaf = false
	node.feature = best.feature
	node.threshold = best.threshold
	node.nanLeft = best.nanLeft
	node.left = b.build(leftIdx, depth+1)
	node.right = b.build(rightIdx, depth+1)
	return node
}

// bestSplit scans the sorted values of feature f once, using running
// moments, and tries missing values on both sides of each threshold.
func (b *treeBuilder) bestSplit(idx []int, f int, total moments) splitResult {
	result := splitResult{feature: -1}
	minLeaf := max(b.t.MinSamplesLeaf, 1)

	valid := make([]pair, 0, len(idx))
	var nan moments
	for _, i := range idx {
		v := b.X[i][f]
		if math.IsNaN(v) {
			nan.add(b.y[i])
			continue
		}
		valid = append(valid, pair{v, i})
	}
	if len(valid) < 2 {
		return result
	}
	sort.Slice(valid, func(a, c int) bool { return valid[a].v < valid[c].v })
	if valid[0].v == valid[len(valid)-1].v {
		return result
	}

	parent := total.sse()
	observed := total.minus(nan)
	var left moments
	for s := 1; s < len(valid); s++ {
		left.add(b.y[valid[s-1].i])
		if valid[s].v == valid[s-1].v {
			continue
		}
		right := observed.minus(left)

		for _, nanLeft := range []bool{true, false} {
			l, r := left, right
			switch {
			case nan.n == 0 && !nanLeft:
				continue
			case nan.n > 0 && nanLeft:
				l = l.plus(nan)
			case nan.n > 0:
				r = r.plus(nan)
			}
			if l.n < minLeaf || r.n < minLeaf {
				continue
			}
			gain := parent - l.sse() - r.sse()
			if result.feature < 0 || gain > result.gain {
				thr := valid[s-1].v + (valid[s].v-valid[s-1].v)/2
				if thr >= valid[s].v {
					thr = valid[s-1].v
				}
				result = splitResult{gain: gain, feature: f, threshold: thr, nanLeft: nanLeft, sawNaN: nan.n > 0}
			}
		}
	}
	return result
}

// ---------------------------
// Prediction helper
// ---------------------------

func (t *DecisionTreeRegressor) predictSingle(x []float64) float64 {
	node := t.root
	for !node.isLeaf {
		val := x[node.feature]
		switch {
		case math.IsNaN(val):
			if node.nanLeft {
				node = node.left
			} else {
				node = node.right
			}
		case val <= node.threshold:
			node = node.left
		default:
			node = node.right
		}
	}
	return node.value
}
