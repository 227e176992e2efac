package tensor

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// Tensor is a dense row-major array of float64 values.
// Networks only use rank 1 (vectors) and rank 2 (matrices) tensors.
type Tensor struct {
	Data  []float64
	Shape []int
}

// GobEncode implements the gob.GobEncoder interface.
func (t *Tensor) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(t.Shape); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.Data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface.
func (t *Tensor) GobDecode(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)

	if err := dec.Decode(&t.Shape); err != nil {
		return err
	}
	if err := dec.Decode(&t.Data); err != nil {
		return err
	}
	if len(t.Data) != size(t.Shape) {
		return fmt.Errorf("tensor data length %d does not match shape %v", len(t.Data), t.Shape)
	}
	return nil
}

func size(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

// NewTensor creates a new Tensor with the given shape and optional data.
// A nil data slice allocates zeros.
func NewTensor(shape []int, data []float64) *Tensor {
	if data == nil {
		data = make([]float64, size(shape))
	}
	return &Tensor{
		Data:  data,
		Shape: shape,
	}
}

// Uniform creates a tensor filled with values drawn uniformly from
// [-limit, limit).
func Uniform(rng *rand.Rand, limit float64, shape ...int) *Tensor {
	t := NewTensor(shape, nil)
	for i := range t.Data {
		t.Data[i] = (rng.Float64()*2 - 1) * limit
	}
	return t
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	newData := make([]float64, len(t.Data))
	copy(newData, t.Data)
	newShape := make([]int, len(t.Shape))
	copy(newShape, t.Shape)
	return &Tensor{Data: newData, Shape: newShape}
}

// Rows returns the first dimension.
func (t *Tensor) Rows() int {
	return t.Shape[0]
}

// Cols returns the second dimension of a matrix (1 for vectors).
func (t *Tensor) Cols() int {
	if len(t.Shape) < 2 {
		return 1
	}
	return t.Shape[1]
}

// Row returns row i of a matrix as a slice sharing the tensor's storage.
func (t *Tensor) Row(i int) []float64 {
	cols := t.Cols()
	return t.Data[i*cols : (i+1)*cols]
}

// At returns the element at row i, column j.
func (t *Tensor) At(i, j int) float64 {
	return t.Data[i*t.Cols()+j]
}

// Set stores value at row i, column j.
func (t *Tensor) Set(i, j int, value float64) {
	t.Data[i*t.Cols()+j] = value
}

// SameShape reports whether both tensors have identical shapes.
func (t *Tensor) SameShape(other *Tensor) bool {
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}

// MatVec computes out = W·x where W is [rows, cols] and x has cols elements.
func MatVec(w *Tensor, x []float64, out []float64) {
	cols := w.Cols()
	for i := range out {
		row := w.Data[i*cols : (i+1)*cols]
		sum := 0.0
		for j, v := range x {
			sum += row[j] * v
		}
		out[i] = sum
	}
}

// MatTVecAdd accumulates out += Wᵀ·g.
func MatTVecAdd(w *Tensor, g []float64, out []float64) {
	cols := w.Cols()
	for i, gi := range g {
		if gi == 0 {
			continue
		}
		row := w.Data[i*cols : (i+1)*cols]
		for j := range out {
			out[j] += row[j] * gi
		}
	}
}

// AddOuter performs W += scale * g ⊗ x.
func AddOuter(w *Tensor, g, x []float64, scale float64) {
	cols := w.Cols()
	for i, gi := range g {
		if gi == 0 {
			continue
		}
		row := w.Data[i*cols : (i+1)*cols]
		f := scale * gi
		for j, xj := range x {
			row[j] += f * xj
		}
	}
}

// AddScaled performs dst += scale * src.
func AddScaled(dst, src []float64, scale float64) {
	for i, v := range src {
		dst[i] += scale * v
	}
}

// ArgMax returns the index of the largest value, the first one on ties.
func ArgMax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// Finite reports whether no element is NaN or infinite.
func Finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
