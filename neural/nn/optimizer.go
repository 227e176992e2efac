package nn

import (
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/tensor"
)

// Param pairs a dense parameter with its gradient accumulator.
type Param struct {
	Value *tensor.Tensor
	Grad  *tensor.Tensor
}

// Optimizer interface defines the contract for optimizers.
type Optimizer interface {
	Step() error
	ZeroGrad()
}

// SGD applies plain stochastic gradient descent.
type SGD struct {
	parameters   []Param
	learningRate float64
}

// NewOptimizer creates an SGD optimizer over parameters.
func NewOptimizer(parameters []Param, learningRate float64) *SGD {
	return &SGD{parameters: parameters, learningRate: learningRate}
}

// Step performs a single optimization step and resets the gradients. A
// non-finite gradient aborts the step before any parameter is touched.
func (o *SGD) Step() error {
	for _, p := range o.parameters {
		if !tensor.Finite(p.Grad.Data) {
			return nerror.Overflow("weight gradient")
		}
	}
	for _, p := range o.parameters {
		tensor.AddScaled(p.Value.Data, p.Grad.Data, -o.learningRate)
	}
	o.ZeroGrad()
	return nil
}

// ZeroGrad resets the gradients of all parameters.
func (o *SGD) ZeroGrad() {
	for _, p := range o.parameters {
		clear(p.Grad.Data)
	}
}
