package tensor

import (
	"math"
)

// Softmax writes the softmax of values into out, which may alias values.
func Softmax(values, out []float64) {
	maxVal := math.Inf(-1)
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}

	sumExp := 0.0
	for i, v := range values {
		out[i] = math.Exp(v - maxVal)
		sumExp += out[i]
	}

	for i := range out {
		out[i] /= sumExp
	}
}
