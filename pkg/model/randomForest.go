package model

import (
	"math/rand"
	"runtime"
	"sync"
	"time"
)

// RandomForestRegressor averages bootstrap-trained regression trees.
type RandomForestRegressor struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Bootstrap       bool
	RandomState     int64
	Workers         int // 0 => GOMAXPROCS

	// Internal state
	Trees       []*DecisionTreeRegressor
	nFeatures   int
	importances []float64
}

// ForestOption functional config for RandomForestRegressor
type ForestOption func(*RandomForestRegressor)

func WithNEstimators(n int) ForestOption { return func(rf *RandomForestRegressor) { rf.NEstimators = n } }
func WithBootstrap(b bool) ForestOption { return func(rf *RandomForestRegressor) { rf.Bootstrap = b } }
func WithForestMaxDepth(d int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = d }
}
func WithForestMinSamplesSplit(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesSplit = n }
}
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n }
}
func WithForestMaxFeatures(k int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = k }
}
func WithForestRandomState(seed int64) ForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}
func WithWorkers(n int) ForestOption { return func(rf *RandomForestRegressor) { rf.Workers = n } }

// NewRandomForestRegressor initializes the forest with 100 fully grown trees
// considering every feature at each split.
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the trees on a bounded worker pool. Tree i draws its bootstrap
// sample and feature subsets from seed RandomState+i, so results do not
// depend on scheduling.
func (rf *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	p, err := validate(X, y)
	if err != nil {
		return err
	}
	n := len(X)
	nTrees := max(rf.NEstimators, 1)
	workers := rf.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, nTrees)

	rf.Trees = make([]*DecisionTreeRegressor, nTrees)
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				seed := rf.RandomState + int64(i)
				treeRand := rand.New(rand.NewSource(seed))

				// Bootstrap sampling: an index slice, not a copy of the data.
				sample := make([]int, n)
				for j := range sample {
					if rf.Bootstrap {
						sample[j] = treeRand.Intn(n)
					} else {
						sample[j] = j
					}
				}

				tree := NewDecisionTreeRegressor(
					WithMaxDepth(rf.MaxDepth),
					WithMinSamplesSplit(rf.MinSamplesSplit),
					WithMinSamplesLeaf(rf.MinSamplesLeaf),
					WithMaxFeatures(rf.MaxFeatures),
					WithRandomState(seed),
				)
				tree.fitSample(X, y, sample)
				rf.Trees[i] = tree
			}
		}()
	}
	for i := 0; i < nTrees; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	rf.nFeatures = p
	rf.importances = forestImportances(rf.Trees, p)
	return nil
}

// forestImportances averages the importances of trees that split at least
// once and renormalizes the mean to sum to 1.
func forestImportances(trees []*DecisionTreeRegressor, p int) []float64 {
	out := make([]float64, p)
	used := 0
	for _, t := range trees {
		if t.NodeCount() <= 1 {
			continue
		}
		used++
		for j, v := range t.importances {
			out[j] += v
		}
	}
	if used == 0 {
		return out
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for j := range out {
			out[j] /= total
		}
	}
	return out
}

// Predict returns the mean prediction of all trees.
func (rf *RandomForestRegressor) Predict(X [][]float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, rf.nFeatures); err != nil {
		return nil, err
	}

	// Fan out one goroutine per tree.
	all := make([][]float64, len(rf.Trees))
	errs := make([]error, len(rf.Trees))
	var wg sync.WaitGroup
	for k, tree := range rf.Trees {
		wg.Add(1)
		go func(k int, t *DecisionTreeRegressor) {
			defer wg.Done()
			all[k], errs[k] = t.Predict(X)
		}(k, tree)
	}
	wg.Wait()

	out := make([]float64, len(X))
	for k, preds := range all {
		if errs[k] != nil {
			return nil, errs[k]
		}
		for i, v := range preds {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float64(len(rf.Trees))
	}
	return out, nil
}

// FeatureImportances returns the mean normalized tree importances.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	return append([]float64(nil), rf.importances...)
}
