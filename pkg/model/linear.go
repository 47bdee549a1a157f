package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/torontodeveloper/co2-emission-ML/pkg/data"
	"github.com/torontodeveloper/co2-emission-ML/pkg/loss"
	"github.com/torontodeveloper/co2-emission-ML/pkg/optim"
)

// Solver selects how LinearRegression estimates its coefficients.
type Solver int

const (
	// SolverSVD solves ordinary least squares exactly through a thin SVD of
	// the centered design matrix. Rank-deficient inputs get the minimum-norm
	// solution.
	SolverSVD Solver = iota
	// SolverSGD runs mini-batch gradient descent.
	SolverSGD
)

// ParseSolver maps "svd" (or "ols", or empty) and "sgd" to a Solver.
func ParseSolver(s string) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svd", "ols":
		return SolverSVD, nil
	case "sgd":
		return SolverSGD, nil
	}
	return SolverSVD, fmt.Errorf("model: unknown solver %q", s)
}

func (s Solver) String() string {
	if s == SolverSGD {
		return "sgd"
	}
	return "svd"
}

// LinearRegression is y = X*Coef + Intercept.
type LinearRegression struct {
	Coef      []float64
	Intercept float64
	Solver    Solver

	// mini-batch settings, used by SolverSGD only
	Lr          float64
	Epochs      int
	BatchSize   int
	Momentum    float64
	Decay       float64
	Loss        loss.Func
	RandomState int64

	fitted bool
}

type LinearOption func(*LinearRegression)

func WithSolver(s Solver) LinearOption { return func(m *LinearRegression) { m.Solver = s } }

// WithSGD switches to SolverSGD with the given schedule.
func WithSGD(lr float64, epochs, batchSize int) LinearOption {
	return func(m *LinearRegression) {
		m.Solver = SolverSGD
		m.Lr = lr
		m.Epochs = epochs
		m.BatchSize = batchSize
	}
}

func WithMomentum(mu float64) LinearOption { return func(m *LinearRegression) { m.Momentum = mu } }
func WithDecay(d float64) LinearOption { return func(m *LinearRegression) { m.Decay = d } }
func WithLoss(f loss.Func) LinearOption { return func(m *LinearRegression) { m.Loss = f } }
func WithLinearRandomState(seed int64) LinearOption {
	return func(m *LinearRegression) { m.RandomState = seed }
}

func NewLinearRegression(opts ...LinearOption) *LinearRegression {
	m := &LinearRegression{
		Solver:      SolverSVD,
		Lr:          0.01,
		Epochs:      100,
		BatchSize:   32,
		Loss:        loss.MSE,
		RandomState: 42,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	p, err := validate(X, y)
	if err != nil {
		return err
	}
	for i, row := range X {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: X[%d][%d]", ErrNonFinite, i, j)
			}
		}
	}
	switch m.Solver {
	case SolverSGD:
		err = m.fitSGD(X, y, p)
	default:
		err = m.fitSVD(X, y, p)
	}
	if err != nil {
		return err
	}
	m.fitted = true
	return nil
}

func (m *LinearRegression) fitSVD(X [][]float64, y []float64, p int) error {
	n := len(X)
	xMean := make([]float64, p)
	yMean := 0.0
	for i, row := range X {
		for j, v := range row {
			xMean[j] += v
		}
		yMean += y[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	A := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	for i, row := range X {
		for j, v := range row {
			A.Set(i, j, v-xMean[j])
		}
		b.SetVec(i, y[i]-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThin); !ok {
		return errors.New("model: SVD factorization failed")
	}
	rcond := math.Nextafter(1, 2) - 1
	rcond *= float64(max(n, p))

	m.Coef = make([]float64, p)
	if rank := svd.Rank(rcond); rank > 0 {
		var beta mat.VecDense
		svd.SolveVecTo(&beta, b, rank)
		for j := range m.Coef {
			m.Coef[j] = beta.AtVec(j)
		}
	}

	m.Intercept = yMean
	for j, c := range m.Coef {
		m.Intercept -= c * xMean[j]
	}
	return nil
}

// fitSGD streams shuffled rows through data.Batcher each epoch and applies
// the loss gradient with optim.SGD. The bias is the last optimized parameter.
func (m *LinearRegression) fitSGD(X [][]float64, y []float64, p int) error {
	if m.Epochs < 1 || m.Lr <= 0 {
		return errors.New("model: SGD needs positive epochs and learning rate")
	}
	lossFn := m.Loss
	if lossFn == nil {
		lossFn = loss.MSE
	}
	rnd := rand.New(rand.NewSource(m.RandomState))
	params := make([]float64, p+1)
	for j := 0; j < p; j++ {
		params[j] = rnd.NormFloat64() * 0.01
	}
	opt := &optim.SGD{LearningRate: m.Lr, Momentum: m.Momentum, Decay: m.Decay}

	for ep := 0; ep < m.Epochs; ep++ {
		done := make(chan struct{})
		batches := make(chan data.Batch)
		stop := data.Batcher(data.StreamRows(X, y, rnd.Perm(len(X)), done), m.BatchSize, batches)

		for batch := range batches {
			yhat := make([]float64, len(batch.X))
			for i, row := range batch.X {
				yhat[i] = dot(params[:p], row) + params[p]
			}
			_, dy := lossFn(batch.Y, yhat)
			grads := make([]float64, p+1)
			for i, row := range batch.X {
				d := dy[i]
				for j, xij := range row {
					grads[j] += d * xij
				}
				grads[p] += d
			}
			opt.Step(params, grads)
		}
		close(stop)
		close(done)
	}

	for _, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("model: SGD diverged, lower the learning rate")
		}
	}
	m.Coef = params[:p]
	m.Intercept = params[p]
	return nil
}

func dot(w, x []float64) float64 {
	s := 0.0
	for j, v := range x {
		s += w[j] * v
	}
	return s
}

// Predict returns predictions for rows in X, spreading rows across
// GOMAXPROCS goroutines.
func (m *LinearRegression) Predict(X [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, len(m.Coef)); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, nil
	}
	pred := make([]float64, len(X))
	var wg sync.WaitGroup

	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := min(s+rowsPerWorker, len(X))
		if s >= e {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				pred[i] = m.Intercept + dot(m.Coef, X[i])
			}
		}(s, e)
	}
	wg.Wait()
	return pred, nil
}

// FeatureImportances returns the signed coefficients. They are comparable
// across features only when the inputs were standardized.
func (m *LinearRegression) FeatureImportances() []float64 {
	return append([]float64(nil), m.Coef...)
}
