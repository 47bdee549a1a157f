package importance

import (
	"fmt"
	"strings"

	"github.com/torontodeveloper/co2-emission-ML/pkg/loss"
	"github.com/torontodeveloper/co2-emission-ML/pkg/model"
)

// Kind names the model used to score features.
type Kind string

const (
	Linear       Kind = "linear"
	Tree         Kind = "tree"
	RandomForest Kind = "forest"
)

// ParseKind accepts the Kind names plus a few long forms.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear", "linear_regression", "ols":
		return Linear, nil
	case "tree", "decision_tree", "dtree":
		return Tree, nil
	case "forest", "random_forest", "rf":
		return RandomForest, nil
	}
	return "", fmt.Errorf("importance: unknown model %q", s)
}

// Options are the hyperparameters passed on to the model. Zero values keep
// the model defaults.
type Options struct {
	RandomState    int64
	NEstimators    int
	MaxDepth       int
	MinSamplesLeaf int
	MaxFeatures    int
	Workers        int

	// Linear only. The SGD schedule applies when Solver is model.SolverSGD.
	Solver       model.Solver
	Loss         loss.Func
	LearningRate float64
	Epochs       int
	BatchSize    int
	Momentum     float64
	Decay        float64
}

func DefaultOptions() Options {
	return Options{
		RandomState:  42,
		NEstimators:  100,
		Solver:       model.SolverSVD,
		Loss:         loss.MSE,
		LearningRate: 0.01,
		Epochs:       100,
		BatchSize:    32,
	}
}

func linearOptions(opts Options) []model.LinearOption {
	lin := []model.LinearOption{
		model.WithLinearRandomState(opts.RandomState),
		model.WithSolver(opts.Solver),
	}
	if opts.Solver != model.SolverSGD {
		return lin
	}
	def := model.NewLinearRegression()
	lr, epochs, batch := def.Lr, def.Epochs, def.BatchSize
	if opts.LearningRate > 0 {
		lr = opts.LearningRate
	}
	if opts.Epochs > 0 {
		epochs = opts.Epochs
	}
	if opts.BatchSize > 0 {
		batch = opts.BatchSize
	}
	lin = append(lin,
		model.WithSGD(lr, epochs, batch),
		model.WithMomentum(opts.Momentum),
		model.WithDecay(opts.Decay),
	)
	if opts.Loss != nil {
		lin = append(lin, model.WithLoss(opts.Loss))
	}
	return lin
}

// NewModel builds an unfitted model of the given kind.
func NewModel(kind Kind, opts Options) (model.Model, error) {
	switch kind {
	case Linear:
		return model.NewLinearRegression(linearOptions(opts)...), nil
	case Tree:
		tree := []model.TreeOption{
			model.WithRandomState(opts.RandomState),
			model.WithMaxDepth(opts.MaxDepth),
			model.WithMaxFeatures(opts.MaxFeatures),
		}
		if opts.MinSamplesLeaf > 0 {
			tree = append(tree, model.WithMinSamplesLeaf(opts.MinSamplesLeaf))
		}
		return model.NewDecisionTreeRegressor(tree...), nil
	case RandomForest:
		forest := []model.ForestOption{
			model.WithForestRandomState(opts.RandomState),
			model.WithForestMaxDepth(opts.MaxDepth),
			model.WithForestMaxFeatures(opts.MaxFeatures),
			model.WithWorkers(opts.Workers),
		}
		if opts.NEstimators > 0 {
			forest = append(forest, model.WithNEstimators(opts.NEstimators))
		}
		if opts.MinSamplesLeaf > 0 {
			forest = append(forest, model.WithForestMinSamplesLeaf(opts.MinSamplesLeaf))
		}
		return model.NewRandomForestRegressor(forest...), nil
	}
	return nil, fmt.Errorf("importance: unknown model %q", kind)
}
