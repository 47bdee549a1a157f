package pipeline

import "fmt"

// Transformer learns parameters from training rows and applies them to any
// rows with the same columns.
type Transformer interface {
	Fit(X [][]float64) error
	Transform(X [][]float64) ([][]float64, error)
}

// Pipeline chains multiple transformers.
type Pipeline struct {
	steps []Transformer
}

func NewPipeline(steps ...Transformer) *Pipeline {
	return &Pipeline{steps: steps}
}

// Fit fits each step on the output of the previous one.
func (p *Pipeline) Fit(X [][]float64) error {
	_, err := p.FitTransform(X)
	return err
}

func (p *Pipeline) FitTransform(X [][]float64) ([][]float64, error) {
	for i, step := range p.steps {
		if err := step.Fit(X); err != nil {
			return nil, fmt.Errorf("pipeline: fit step %d (%T): %w", i, step, err)
		}
		var err error
		if X, err = step.Transform(X); err != nil {
			return nil, fmt.Errorf("pipeline: transform step %d (%T): %w", i, step, err)
		}
	}
	return X, nil
}

func (p *Pipeline) Transform(X [][]float64) ([][]float64, error) {
	for i, step := range p.steps {
		var err error
		if X, err = step.Transform(X); err != nil {
			return nil, fmt.Errorf("pipeline: transform step %d (%T): %w", i, step, err)
		}
	}
	return X, nil
}

// Steps returns the transformers in application order.
func (p *Pipeline) Steps() []Transformer { return p.steps }
