package loss

import (
	"fmt"
	"math"
	"strings"
)

// Func returns the mean loss over a batch and its gradient with respect to
// each prediction.
type Func func(yTrue, yPred []float64) (float64, []float64)

// MSE is the mean squared error and its gradient.
func MSE(yTrue, yPred []float64) (float64, []float64) {
	n := len(yTrue)
	s := 0.0
	grad := make([]float64, n)

	for i := 0; i < n; i++ {
		e := yPred[i] - yTrue[i]
		s += e * e
		grad[i] = 2 * e / float64(n)
	}
	return s / float64(n), grad
}

// Huber is quadratic for residuals up to delta and linear beyond it, which
// keeps a handful of very large emitters from dominating the gradient.
func Huber(delta float64) Func {
	return func(yTrue, yPred []float64) (float64, []float64) {
		n := len(yTrue)
		s := 0.0
		grad := make([]float64, n)

		for i := 0; i < n; i++ {
			e := yPred[i] - yTrue[i]
			if math.Abs(e) <= delta {
				s += 0.5 * e * e
				grad[i] = e / float64(n)
				continue
			}
			s += delta * (math.Abs(e) - 0.5*delta)
			grad[i] = delta * math.Copysign(1, e) / float64(n)
		}
		return s / float64(n), grad
	}
}

// Parse returns the loss named "mse" (or empty) or "huber". delta is the
// Huber threshold and must be positive when name is "huber".
func Parse(name string, delta float64) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mse":
		return MSE, nil
	case "huber":
		if delta <= 0 {
			return nil, fmt.Errorf("loss: huber delta must be positive, got %v", delta)
		}
		return Huber(delta), nil
	}
	return nil, fmt.Errorf("loss: unknown loss %q", name)
}
