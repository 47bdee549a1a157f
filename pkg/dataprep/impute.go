package dataprep

import (
	"errors"
	"fmt"
	"math"

	"github.com/torontodeveloper/co2-emission-ML/pkg/stats"
)

// Imputation strategies.
const (
	StrategyMean   = "mean"
	StrategyMedian = "median"
)

// SimpleImputer replaces NaN cells with a per-column statistic learned from
// the training rows. Columns with no observed values are filled with 0.
type SimpleImputer struct {
	Strategy   string
	Statistics []float64
}

func NewSimpleImputer(strategy string) (*SimpleImputer, error) {
	switch strategy {
	case StrategyMean, StrategyMedian:
		return &SimpleImputer{Strategy: strategy}, nil
	}
	return nil, fmt.Errorf("dataprep: unknown imputation strategy %q", strategy)
}

func (m *SimpleImputer) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("dataprep: cannot fit imputer on empty X")
	}
	cols := len(X[0])
	m.Statistics = make([]float64, cols)
	for j := 0; j < cols; j++ {
		observed := stats.DropNaN(stats.Column(X, j))
		if len(observed) == 0 {
			continue
		}
		if m.Strategy == StrategyMedian {
			m.Statistics[j] = stats.Median(observed)
		} else {
			m.Statistics[j] = stats.Mean(observed)
		}
	}
	return nil
}

func (m *SimpleImputer) Transform(X [][]float64) ([][]float64, error) {
	if m.Statistics == nil {
		return nil, stats.ErrNotFitted
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Statistics) {
			return nil, errors.New("dataprep: imputer column count mismatch")
		}
		filled := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				v = m.Statistics[j]
			}
			filled[j] = v
		}
		out[i] = filled
	}
	return out, nil
}
