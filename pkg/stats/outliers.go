package stats

import (
	"errors"
	"math"
)

// Clipper winsorizes each column to percentiles learned on the training data.
// NaN values are ignored while fitting and passed through unchanged.
type Clipper struct {
	Lower, Upper float64 // percentiles in [0, 100]
	lows, highs  []float64
}

func NewClipper(lower, upper float64) *Clipper {
	return &Clipper{Lower: lower, Upper: upper}
}

func (c *Clipper) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("stats: cannot fit clipper on empty X")
	}
	if c.Lower < 0 || c.Upper > 100 || c.Lower >= c.Upper {
		return errors.New("stats: clipper percentiles must satisfy 0 <= lower < upper <= 100")
	}
	cols := len(X[0])
	c.lows = make([]float64, cols)
	c.highs = make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := DropNaN(Column(X, j))
		if len(col) == 0 {
			c.lows[j], c.highs[j] = math.Inf(-1), math.Inf(1)
			continue
		}
		c.lows[j] = Percentile(col, c.Lower)
		c.highs[j] = Percentile(col, c.Upper)
	}
	return nil
}

func (c *Clipper) Transform(X [][]float64) ([][]float64, error) {
	if c.lows == nil {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(X))
	for i := range X {
		if len(X[i]) != len(c.lows) {
			return nil, errors.New("stats: clipper column count mismatch")
		}
		out[i] = make([]float64, len(X[i]))
		for j, v := range X[i] {
			switch {
			case v < c.lows[j]:
				out[i][j] = c.lows[j]
			case v > c.highs[j]:
				out[i][j] = c.highs[j]
			default:
				out[i][j] = v
			}
		}
	}
	return out, nil
}
