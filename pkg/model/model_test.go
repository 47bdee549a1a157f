package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torontodeveloper/co2-emission-ML/pkg/loss"
)

// stepData has y = 10 when x0 > 10, else 0. x1 is unrelated noise.
func stepData() ([][]float64, []float64) {
	var X [][]float64
	var y []float64
	for i := 1; i <= 20; i++ {
		X = append(X, []float64{float64(i), float64((i * 7) % 5)})
		if i > 10 {
			y = append(y, 10)
		} else {
			y = append(y, 0)
		}
	}
	return X, y
}

func TestValidate(t *testing.T) {
	_, err := validate(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyX)
	_, err = validate([][]float64{{1}}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = validate([][]float64{{1}, {1, 2}}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrRaggedX)
	_, err = validate([][]float64{{1}}, []float64{math.NaN()})
	assert.ErrorIs(t, err, ErrNonFinite)
	p, err := validate([][]float64{{1, 2}}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 2, p)
}

func TestLinearRegressionSVD(t *testing.T) {
	t.Run("exact fit", func(t *testing.T) {
		X := [][]float64{{0, 1}, {1, 0}, {2, 3}, {3, 1}, {4, 4}}
		y := make([]float64, len(X))
		for i, r := range X {
			y[i] = 3 + 2*r[0] - r[1]
		}
		m := NewLinearRegression()
		require.NoError(t, m.Fit(X, y))
		assert.InDeltaSlice(t, []float64{2, -1}, m.Coef, 1e-9)
		assert.InDelta(t, 3, m.Intercept, 1e-9)
		assert.InDeltaSlice(t, []float64{2, -1}, m.FeatureImportances(), 1e-9)

		pred, err := m.Predict([][]float64{{10, 10}})
		require.NoError(t, err)
		assert.InDelta(t, 13, pred[0], 1e-9)
	})

	t.Run("collinear columns get the minimum-norm solution", func(t *testing.T) {
		X := [][]float64{{1, 2}, {2, 4}, {3, 6}, {4, 8}}
		y := []float64{5, 10, 15, 20}
		m := NewLinearRegression()
		require.NoError(t, m.Fit(X, y))
		assert.InDeltaSlice(t, []float64{1, 2}, m.Coef, 1e-9)
		assert.InDelta(t, 0, m.Intercept, 1e-9)
	})

	t.Run("constant column", func(t *testing.T) {
		X := [][]float64{{1, 7}, {2, 7}, {3, 7}}
		y := []float64{2, 4, 6}
		m := NewLinearRegression()
		require.NoError(t, m.Fit(X, y))
		assert.InDeltaSlice(t, []float64{2, 0}, m.Coef, 1e-9)
	})

	t.Run("all columns constant", func(t *testing.T) {
		m := NewLinearRegression()
		require.NoError(t, m.Fit([][]float64{{1}, {1}}, []float64{3, 5}))
		assert.Equal(t, []float64{0}, m.Coef)
		assert.InDelta(t, 4, m.Intercept, 1e-12)
	})

	t.Run("errors", func(t *testing.T) {
		m := NewLinearRegression()
		_, err := m.Predict([][]float64{{1}})
		assert.ErrorIs(t, err, ErrNotFitted)
		assert.ErrorIs(t, m.Fit([][]float64{{math.NaN()}}, []float64{1}), ErrNonFinite)

		require.NoError(t, m.Fit([][]float64{{1}, {2}}, []float64{1, 2}))
		_, err = m.Predict([][]float64{{1, 2}})
		assert.ErrorIs(t, err, ErrRaggedX)
	})
}

func TestLinearRegressionSGD(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i <= 40; i++ {
		x := -1 + float64(i)/20
		X = append(X, []float64{x})
		y = append(y, 1+2*x)
	}

	t.Run("mse", func(t *testing.T) {
		m := NewLinearRegression(WithSGD(0.1, 500, 8), WithLinearRandomState(7))
		require.NoError(t, m.Fit(X, y))
		assert.InDelta(t, 2, m.Coef[0], 1e-3)
		assert.InDelta(t, 1, m.Intercept, 1e-3)
	})

	t.Run("huber with momentum", func(t *testing.T) {
		m := NewLinearRegression(WithSGD(0.1, 500, 8), WithLoss(loss.Huber(1)), WithMomentum(0.5))
		require.NoError(t, m.Fit(X, y))
		assert.InDelta(t, 2, m.Coef[0], 1e-2)
		assert.InDelta(t, 1, m.Intercept, 1e-2)
	})

	t.Run("deterministic", func(t *testing.T) {
		a := NewLinearRegression(WithSGD(0.05, 3, 4), WithLinearRandomState(1))
		b := NewLinearRegression(WithSGD(0.05, 3, 4), WithLinearRandomState(1))
		require.NoError(t, a.Fit(X, y))
		require.NoError(t, b.Fit(X, y))
		assert.Equal(t, a.Coef, b.Coef)
		assert.Equal(t, a.Intercept, b.Intercept)
	})

	t.Run("decay slows later steps", func(t *testing.T) {
		plain := NewLinearRegression(WithSGD(0.1, 5, 8), WithLinearRandomState(3))
		decayed := NewLinearRegression(WithSGD(0.1, 5, 8), WithLinearRandomState(3), WithDecay(0.5))
		require.NoError(t, plain.Fit(X, y))
		require.NoError(t, decayed.Fit(X, y))
		assert.Equal(t, 0.5, decayed.Decay)
		assert.NotEqual(t, plain.Coef, decayed.Coef)
		assert.Less(t, math.Abs(2-plain.Coef[0]), math.Abs(2-decayed.Coef[0]))
	})

	t.Run("bad schedule", func(t *testing.T) {
		m := NewLinearRegression(WithSGD(0, 10, 4))
		assert.Error(t, m.Fit(X, y))
	})
}

func TestParseSolver(t *testing.T) {
	for in, want := range map[string]Solver{"": SolverSVD, "SVD": SolverSVD, "ols": SolverSVD, "sgd": SolverSGD} {
		got, err := ParseSolver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	assert.Equal(t, "sgd", SolverSGD.String())
	_, err := ParseSolver("qr")
	assert.Error(t, err)
}

func TestDecisionTreeRegressor(t *testing.T) {
	X, y := stepData()

	t.Run("stump", func(t *testing.T) {
		tree := NewDecisionTreeRegressor(WithMaxDepth(1), WithRandomState(1))
		require.NoError(t, tree.Fit(X, y))
		assert.Equal(t, 3, tree.NodeCount())
		assert.Equal(t, 1, tree.Depth())
		assert.Equal(t, 0, tree.root.feature)
		assert.Equal(t, 10.5, tree.root.threshold)

		pred, err := tree.Predict([][]float64{{3, 0}, {15, 0}})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 10}, pred)
		assert.InDeltaSlice(t, []float64{1, 0}, tree.FeatureImportances(), 1e-12)
	})

	t.Run("fully grown tree memorizes", func(t *testing.T) {
		var Xs [][]float64
		var ys []float64
		for i := 0; i < 15; i++ {
			x := float64(i)
			Xs = append(Xs, []float64{x})
			ys = append(ys, x*x)
		}
		tree := NewDecisionTreeRegressor()
		require.NoError(t, tree.Fit(Xs, ys))
		pred, err := tree.Predict(Xs)
		require.NoError(t, err)
		assert.InDeltaSlice(t, ys, pred, 1e-9)
	})

	t.Run("missing values follow the learned side", func(t *testing.T) {
		nan := math.NaN()
		Xn := [][]float64{{1}, {2}, {3}, {4}, {nan}, {nan}}
		yn := []float64{0, 0, 10, 10, 10, 10}
		tree := NewDecisionTreeRegressor(WithMaxDepth(1))
		require.NoError(t, tree.Fit(Xn, yn))
		assert.False(t, tree.root.nanLeft)
		pred, err := tree.Predict([][]float64{{nan}, {1.5}})
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 0}, pred)
	})

	t.Run("unseen missing values go to the larger child", func(t *testing.T) {
		Xs := [][]float64{{1}, {2}, {3}, {4}, {5}}
		ys := []float64{0, 0, 0, 0, 9}
		tree := NewDecisionTreeRegressor(WithMaxDepth(1))
		require.NoError(t, tree.Fit(Xs, ys))
		pred, err := tree.Predict([][]float64{{math.NaN()}})
		require.NoError(t, err)
		assert.Equal(t, []float64{0}, pred)
	})

	t.Run("stopping rules", func(t *testing.T) {
		leaf := NewDecisionTreeRegressor(WithMinSamplesLeaf(11))
		require.NoError(t, leaf.Fit(X, y))
		assert.Equal(t, 1, leaf.NodeCount())
		assert.Equal(t, []float64{0, 0}, leaf.FeatureImportances())

		strict := NewDecisionTreeRegressor(WithMinImpurityDecrease(100))
		require.NoError(t, strict.Fit(X, y))
		assert.Equal(t, 1, strict.NodeCount())

		pure := NewDecisionTreeRegressor()
		require.NoError(t, pure.Fit(X, make([]float64, len(X))))
		assert.Equal(t, 1, pure.NodeCount())
		pred, err := pure.Predict(X[:1])
		require.NoError(t, err)
		assert.Equal(t, []float64{0}, pred)
	})

	t.Run("errors", func(t *testing.T) {
		tree := NewDecisionTreeRegressor()
		_, err := tree.Predict(X)
		assert.ErrorIs(t, err, ErrNotFitted)
		assert.ErrorIs(t, tree.Fit(X, y[:3]), ErrLengthMismatch)
	})
}

func TestRandomForestRegressor(t *testing.T) {
	X, y := stepData()

	rf := NewRandomForestRegressor(WithNEstimators(20), WithForestRandomState(42), WithWorkers(4))
	require.NoError(t, rf.Fit(X, y))
	assert.Len(t, rf.Trees, 20)

	pred, err := rf.Predict([][]float64{{3, 0}, {15, 0}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 10}, pred, 1e-9)
	assert.InDeltaSlice(t, []float64{1, 0}, rf.FeatureImportances(), 1e-9)

	t.Run("same seed same forest regardless of workers", func(t *testing.T) {
		a := NewRandomForestRegressor(WithNEstimators(8), WithForestRandomState(3), WithForestMaxFeatures(1), WithWorkers(1))
		b := NewRandomForestRegressor(WithNEstimators(8), WithForestRandomState(3), WithForestMaxFeatures(1), WithWorkers(8))
		require.NoError(t, a.Fit(X, y))
		require.NoError(t, b.Fit(X, y))
		pa, err := a.Predict(X)
		require.NoError(t, err)
		pb, err := b.Predict(X)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
		assert.Equal(t, a.FeatureImportances(), b.FeatureImportances())
	})

	t.Run("importances sum to one", func(t *testing.T) {
		noisy := make([]float64, len(y))
		for i := range y {
			noisy[i] = y[i] + X[i][1]
		}
		f := NewRandomForestRegressor(WithNEstimators(10), WithForestRandomState(1), WithBootstrap(false))
		require.NoError(t, f.Fit(X, noisy))
		imp := f.FeatureImportances()
		assert.InDelta(t, 1, imp[0]+imp[1], 1e-9)
		assert.Greater(t, imp[0], imp[1])
	})

	t.Run("not fitted", func(t *testing.T) {
		_, err := NewRandomForestRegressor().Predict(X)
		assert.ErrorIs(t, err, ErrNotFitted)
	})
}

func TestMetrics(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}
	yPred := []float64{1, 3, 3, 2}
	assert.InDelta(t, 1.25, MSE(yTrue, yPred), 1e-12)
	assert.InDelta(t, 0.75, MAE(yTrue, yPred), 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), RMSE(yTrue, yPred), 1e-12)
	// ssTot = 5, ssRes = 5
	assert.InDelta(t, 0, R2(yTrue, yPred), 1e-12)
	assert.Equal(t, 1.0, R2(yTrue, yTrue))

	assert.InDelta(t, 1-(1-0.9)*9.0/7.0, AdjustedR2(0.9, 10, 2), 1e-12)
	assert.True(t, math.IsNaN(AdjustedR2(0.9, 3, 2)))
}
