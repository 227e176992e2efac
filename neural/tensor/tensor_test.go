package tensor

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestMatVecAndTranspose(t *testing.T) {
	w := NewTensor([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	out := make([]float64, 2)
	MatVec(w, []float64{1, 0, -1}, out)
	assert.Equal(t, []float64{-2, -2}, out)

	back := make([]float64, 3)
	MatTVecAdd(w, []float64{1, 1}, back)
	assert.Equal(t, []float64{5, 7, 9}, back)
}

func TestAddOuter(t *testing.T) {
	w := NewTensor([]int{2, 2}, nil)
	AddOuter(w, []float64{1, 0}, []float64{2, 3}, 0.5)
	assert.Equal(t, []float64{1, 1.5, 0, 0}, w.Data)
}

func TestRowSharesStorage(t *testing.T) {
	w := NewTensor([]int{3, 2}, []float64{0, 1, 2, 3, 4, 5})
	row := w.Row(1)
	row[0] = 9
	assert.Equal(t, 9.0, w.At(1, 0))
}

func TestGobRoundTrip(t *testing.T) {
	orig := Uniform(rand.New(rand.NewSource(1)), 0.1, 4, 3)
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(orig))
	var decoded Tensor
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	assert.Equal(t, orig.Shape, decoded.Shape)
	assert.Equal(t, orig.Data, decoded.Data)
}

func TestFiniteAndArgMax(t *testing.T) {
	assert.True(t, Finite([]float64{1, 2}))
	assert.False(t, Finite([]float64{1, math.NaN()}))
	assert.False(t, Finite([]float64{math.Inf(1)}))
	assert.Equal(t, 1, ArgMax([]float64{0, 3, 3, 1}))
}

func TestSoftmax(t *testing.T) {
	values := []float64{1, 1, 1, 1}
	Softmax(values, values)
	for _, v := range values {
		assert.InDelta(t, 0.25, v, 1e-12)
	}
	out := make([]float64, 2)
	Softmax([]float64{1000, 0}, out)
	assert.InDelta(t, 1, out[0], 1e-9)
	assert.True(t, Finite(out))
}
