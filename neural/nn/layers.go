package nn

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/golangast/nlpnet/neural/tensor"
)

// Linear represents a fully connected layer computing W·x + b, with W
// shaped [outputDim, inputDim]. Gradients are accumulated until Params are
// stepped by an optimizer.
type Linear struct {
	Weights *tensor.Tensor
	Biases  *tensor.Tensor

	gradW *tensor.Tensor
	gradB *tensor.Tensor
}

// NewLinear creates a layer with He-scaled random weights and zero biases.
func NewLinear(rng *rand.Rand, inputDim, outputDim int) *Linear {
	stdDev := math.Sqrt(2.0 / float64(inputDim))
	weights := tensor.NewTensor([]int{outputDim, inputDim}, nil)
	for i := range weights.Data {
		weights.Data[i] = rng.NormFloat64() * stdDev
	}
	return &Linear{Weights: weights, Biases: tensor.NewTensor([]int{outputDim}, nil)}
}

// InputDim returns the size of the expected input.
func (l *Linear) InputDim() int {
	return l.Weights.Cols()
}

// OutputDim returns the size of the output.
func (l *Linear) OutputDim() int {
	return l.Weights.Rows()
}

// Forward writes W·x + b into out.
func (l *Linear) Forward(x, out []float64) {
	tensor.MatVec(l.Weights, x, out)
	for i, b := range l.Biases.Data {
		out[i] += b
	}
}

// Backward accumulates the parameter gradients for an input x given the
// gradient g of the output. When gIn is not nil the input gradient Wᵀ·g is
// added to it, using the weights as they were before any update.
func (l *Linear) Backward(x, g, gIn []float64) {
	l.ensureGrads()
	if gIn != nil {
		tensor.MatTVecAdd(l.Weights, g, gIn)
	}
	tensor.AddOuter(l.gradW, g, x, 1)
	tensor.AddScaled(l.gradB.Data, g, 1)
}

func (l *Linear) ensureGrads() {
	if l.gradW == nil {
		l.gradW = tensor.NewTensor(l.Weights.Shape, nil)
		l.gradB = tensor.NewTensor(l.Biases.Shape, nil)
	}
}

// Params returns the layer parameters paired with their gradients.
func (l *Linear) Params() []Param {
	l.ensureGrads()
	return []Param{{Value: l.Weights, Grad: l.gradW}, {Value: l.Biases, Grad: l.gradB}}
}

// HardTanh clips every value into [-1, 1] in place.
func HardTanh(x []float64) {
	for i, v := range x {
		switch {
		case v < -1:
			x[i] = -1
		case v > 1:
			x[i] = 1
		}
	}
}

// HardTanhBackward zeroes the gradient entries whose activation y is
// saturated.
func HardTanhBackward(y, g []float64) {
	for i, v := range y {
		if v <= -1 || v >= 1 {
			g[i] = 0
		}
	}
}
