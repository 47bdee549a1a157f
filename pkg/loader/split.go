package loader

import (
	"errors"
	"math"
	"math/rand"
)

// TrainTestSplit splits X, Y into train and test sets by ratio. The shuffle is
// driven by seed, so the same seed always yields the same partition.
// The test set holds ceil(n*testRatio) rows.
func TrainTestSplit(X [][]float64, Y []float64, testRatio float64, seed int64) (XTrain, XTest [][]float64, YTrain, YTest []float64, err error) {
	n := len(X)
	if n != len(Y) {
		return nil, nil, nil, nil, errors.New("loader: X and Y length mismatch")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, nil, nil, errors.New("loader: test ratio must be in (0, 1)")
	}
	nTest := int(math.Ceil(float64(n) * testRatio))
	if n < 2 || nTest >= n {
		return nil, nil, nil, nil, errors.New("loader: not enough rows to split")
	}

	indices := rand.New(rand.NewSource(seed)).Perm(n)
	XTrain = make([][]float64, 0, n-nTest)
	YTrain = make([]float64, 0, n-nTest)
	XTest = make([][]float64, 0, nTest)
	YTest = make([]float64, 0, nTest)
	for i, idx := range indices {
		if i < nTest {
			XTest = append(XTest, X[idx])
			YTest = append(YTest, Y[idx])
		} else {
			XTrain = append(XTrain, X[idx])
			YTrain = append(YTrain, Y[idx])
		}
	}
	return
}

// KFoldSplit yields k folds of row indices covering 0..n-1 exactly once.
func KFoldSplit(n, k int, seed int64) ([][]int, error) {
	if k < 2 || k > n {
		return nil, errors.New("loader: k must be in [2, n]")
	}
	indices := rand.New(rand.NewSource(seed)).Perm(n)
	folds := make([][]int, k)
	for i := 0; i < n; i++ {
		folds[i%k] = append(folds[i%k], indices[i])
	}
	return folds, nil
}
