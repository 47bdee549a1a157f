package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyX         = errors.New("model: empty X")
	ErrLengthMismatch = errors.New("model: X and y length mismatch")
	ErrRaggedX        = errors.New("model: inconsistent number of features in X rows")
	ErrNonFinite      = errors.New("model: non-finite value")
	ErrNotFitted      = errors.New("model: not fitted")
)

// Regressor is a supervised model predicting a continuous target.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// Importancer exposes one importance score per feature, in column order.
type Importancer interface {
	FeatureImportances() []float64
}

// Model is what feature ranking needs: a fitted regressor that can score
// its inputs.
type Model interface {
	Regressor
	Importancer
}

// validate checks X is a non-empty rectangle matching y and that every
// target is finite. It returns the number of features.
func validate(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyX
	}
	if len(y) != len(X) {
		return 0, fmt.Errorf("%w: %d rows, %d targets", ErrLengthMismatch, len(X), len(y))
	}
	p := len(X[0])
	if p == 0 {
		return 0, ErrEmptyX
	}
	for i := range X {
		if len(X[i]) != p {
			return 0, fmt.Errorf("%w: row %d", ErrRaggedX, i)
		}
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: y[%d]", ErrNonFinite, i)
		}
	}
	return p, nil
}

func checkWidth(X [][]float64, p int) error {
	for i := range X {
		if len(X[i]) != p {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrRaggedX, i, len(X[i]), p)
		}
	}
	return nil
}
