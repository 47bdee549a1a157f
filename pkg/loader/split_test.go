package loader

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	Y := make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = []float64{float64(i)}
		Y[i] = float64(i) * 10
	}
	return X, Y
}

func TestTrainTestSplit(t *testing.T) {
	X, Y := rows(10)

	t.Run("sizes and alignment", func(t *testing.T) {
		xTr, xTe, yTr, yTe, err := TrainTestSplit(X, Y, 0.2, 42)
		require.NoError(t, err)
		assert.Len(t, xTe, 2)
		assert.Len(t, yTe, 2)
		assert.Len(t, xTr, 8)
		assert.Len(t, yTr, 8)
		for i := range xTr {
			assert.Equal(t, xTr[i][0]*10, yTr[i])
		}

		seen := map[float64]bool{}
		for _, r := range append(append([][]float64{}, xTr...), xTe...) {
			seen[r[0]] = true
		}
		assert.Len(t, seen, 10)
	})

	t.Run("deterministic for a seed", func(t *testing.T) {
		_, a, _, _, err := TrainTestSplit(X, Y, 0.3, 7)
		require.NoError(t, err)
		_, b, _, _, err := TrainTestSplit(X, Y, 0.3, 7)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, _, _, _, err := TrainTestSplit(X, Y[:3], 0.2, 1)
		assert.Error(t, err)
		_, _, _, _, err = TrainTestSplit(X, Y, 1.5, 1)
		assert.Error(t, err)
		x1, y1 := rows(1)
		_, _, _, _, err = TrainTestSplit(x1, y1, 0.2, 1)
		assert.Error(t, err)
	})
}

func TestKFoldSplit(t *testing.T) {
	folds, err := KFoldSplit(11, 3, 42)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	var all []int
	for _, f := range folds {
		all = append(all, f...)
	}
	sort.Ints(all)
	for i := 0; i < 11; i++ {
		assert.Equal(t, i, all[i])
	}

	_, err = KFoldSplit(3, 5, 1)
	assert.Error(t, err)
}
