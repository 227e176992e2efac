package nn

import (
	"golang.org/x/exp/rand"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/tensor"
)

// initLimit bounds the uniform initialization of embedding rows.
const initLimit = 0.1

// FeatureTable is the embedding matrix of one discrete feature, shaped
// [NumValues, Width]. Rows are only modified through ApplySparse.
type FeatureTable struct {
	Spec    metadata.FeatureSpec
	Weights *tensor.Tensor
}

// NewFeatureTable creates a table with random rows.
func NewFeatureTable(spec metadata.FeatureSpec, rng *rand.Rand) *FeatureTable {
	return &FeatureTable{
		Spec:    spec,
		Weights: tensor.Uniform(rng, initLimit, spec.NumValues, spec.Width),
	}
}

// NewFeatureTableFrom wraps existing weights, checking them against spec.
func NewFeatureTableFrom(spec metadata.FeatureSpec, weights *tensor.Tensor) (*FeatureTable, error) {
	if len(weights.Shape) != 2 || weights.Rows() != spec.NumValues || weights.Cols() != spec.Width {
		return nil, nerror.NewConfigError("feature table %s has shape %v, expected [%d %d]",
			spec.Key(), weights.Shape, spec.NumValues, spec.Width)
	}
	return &FeatureTable{Spec: spec, Weights: weights}, nil
}

// Width returns the length of a row.
func (ft *FeatureTable) Width() int {
	return ft.Weights.Cols()
}

// NumValues returns the number of rows.
func (ft *FeatureTable) NumValues() int {
	return ft.Weights.Rows()
}

// Row returns the embedding of code i. The slice shares the table storage.
func (ft *FeatureTable) Row(i int) []float64 {
	return ft.Weights.Row(i)
}

// SparseGrad accumulates gradients of the rows touched by one example.
type SparseGrad map[int][]float64

// Add accumulates grad into row.
func (sg SparseGrad) Add(row int, grad []float64) {
	acc, ok := sg[row]
	if !ok {
		acc = make([]float64, len(grad))
		sg[row] = acc
	}
	for i, g := range grad {
		acc[i] += g
	}
}

// Finite reports whether every accumulated value is a finite number.
func (sg SparseGrad) Finite() bool {
	for _, g := range sg {
		if !tensor.Finite(g) {
			return false
		}
	}
	return true
}

// ApplySparse adds scale times each accumulated delta to its row. Rows
// missing from updates are left untouched. Updates are additive, so
// applying several gradients touching the same row keeps all of them.
func (ft *FeatureTable) ApplySparse(updates SparseGrad, scale float64) {
	for row, delta := range updates {
		tensor.AddScaled(ft.Row(row), delta, scale)
	}
}
