package optim

// SGD is stochastic gradient descent with optional momentum and an inverse
// time learning-rate decay.
type SGD struct {
	LearningRate float64
	Momentum     float64
	Decay        float64

	steps    int
	velocity []float64
}

func NewSGD(lr float64) *SGD { return &SGD{LearningRate: lr} }

// Rate is the learning rate used by the next Step.
func (o *SGD) Rate() float64 {
	return o.LearningRate / (1 + o.Decay*float64(o.steps))
}

// Step updates weights in place. weights and grads must have equal length
// across calls.
func (o *SGD) Step(weights, grads []float64) {
	lr := o.Rate()
	o.steps++
	if o.Momentum == 0 {
		for i := range weights {
			weights[i] -= lr * grads[i]
		}
		return
	}
	if len(o.velocity) != len(weights) {
		o.velocity = make([]float64, len(weights))
	}
	for i := range weights {
		o.velocity[i] = o.Momentum*o.velocity[i] - lr*grads[i]
		weights[i] += o.velocity[i]
	}
}

// Reset clears the step count and momentum state.
func (o *SGD) Reset() {
	o.steps = 0
	o.velocity = nil
}
