// Package tensor provides the dense float tensor consumed by the probkit
// containers and flow layers.
//
// Tensors are strided views over shared float64 storage. View operations
// (Permute, Unsqueeze, Select, Detach) never copy; Contiguous, Reshape of a
// non-contiguous tensor, IndexSelect and SumDims allocate new storage.
//
// The package records a light gradient history: every operation applied to a
// tensor that requires gradients produces a tensor whose GradFn names the
// operation. Detach cuts that history without copying data.
package tensor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Errors returned by tensor operations.
var (
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrInvalidAxis      = errors.New("invalid axis")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrUnsupportedValue = errors.New("unsupported value")
)

// Tensor is an n-dimensional array of float64 values.
//
// Example:
//
//	x := tensor.Arange(16, 1, 1, 4, 4)
//	y, err := x.Permute(0, 2, 3, 1)
type Tensor struct {
	data   []float64 // Shared storage
	shape  Shape
	stride []int
	offset int

	requiresGrad bool
	history      *node // Producing operation, nil for leaves
}

// node records the operation that produced a tensor.
type node struct {
	op     string
	inputs []*Tensor
}

// newContiguous wraps data (already in row-major order) as a tensor of shape.
func newContiguous(data []float64, shape Shape) *Tensor {
	return &Tensor{
		data:   data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape.Clone()
}

// Dim returns the number of dimensions.
func (t *Tensor) Dim() int {
	return len(t.shape)
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// IsContiguous reports whether the tensor is laid out in row-major order
// without gaps.
func (t *Tensor) IsContiguous() bool {
	expected := t.shape.ComputeStrides()
	for i := range t.shape {
		if t.shape[i] != 1 && t.stride[i] != expected[i] {
			return false
		}
	}
	return true
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) At(indices ...int) float64 {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}

	offset := t.offset
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * t.stride[i]
	}
	return t.data[offset]
}

// Item returns the scalar value of a single-element tensor.
// Panics if the tensor has more than one element.
func (t *Tensor) Item() float64 {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() only works for single-element tensors, got shape %v", t.shape))
	}
	return t.data[t.offset]
}

// Data returns the elements in row-major order. The slice is a copy.
func (t *Tensor) Data() []float64 {
	out := make([]float64, t.NumElements())
	i := 0
	t.walk(func(pos int) {
		out[i] = t.data[pos]
		i++
	})
	return out
}

// walk calls fn with the storage position of every element in row-major order.
func (t *Tensor) walk(fn func(pos int)) {
	n := t.NumElements()
	if n == 0 {
		return
	}
	rank := len(t.shape)
	index := make([]int, rank)
	pos := t.offset
	for count := 0; count < n; count++ {
		fn(pos)
		for d := rank - 1; d >= 0; d-- {
			index[d]++
			pos += t.stride[d]
			if index[d] < t.shape[d] {
				break
			}
			pos -= index[d] * t.stride[d]
			index[d] = 0
		}
	}
}

// Equal reports whether t and other have the same shape and exactly the same values.
func (t *Tensor) Equal(other *Tensor) bool {
	if other == nil || !t.shape.Equal(other.shape) {
		return false
	}
	return floats.Equal(t.Data(), other.Data())
}

// AllClose reports whether t and other have the same shape and values within tol.
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if other == nil || !t.shape.Equal(other.shape) {
		return false
	}
	return floats.EqualApprox(t.Data(), other.Data(), tol)
}

// Clone creates a deep, contiguous copy of the tensor without gradient history.
func (t *Tensor) Clone() *Tensor {
	return newContiguous(t.Data(), t.shape)
}

// Detach returns a tensor that shares the same data but doesn't track gradients.
//
// The returned tensor shares the underlying storage (zero-copy) but has no
// history, so nothing computed from it links back to t.
func (t *Tensor) Detach() *Tensor {
	return &Tensor{
		data:   t.data,
		shape:  t.shape.Clone(),
		stride: append([]int(nil), t.stride...),
		offset: t.offset,
	}
}

// RequireGrad marks this tensor for gradient tracking and returns it.
func (t *Tensor) RequireGrad() *Tensor {
	t.requiresGrad = true
	return t
}

// RequiresGrad reports whether the tensor was marked with RequireGrad or was
// produced from one that was.
func (t *Tensor) RequiresGrad() bool {
	return t.requiresGrad || t.history != nil
}

// GradFn returns the name of the operation that produced this tensor, or ""
// for leaf tensors.
func (t *Tensor) GradFn() string {
	if t.history == nil {
		return ""
	}
	return t.history.op
}

// IsLeaf reports whether the tensor has no recorded producing operation.
func (t *Tensor) IsLeaf() bool {
	return t.history == nil
}

// Inputs returns the tensors the producing operation consumed.
func (t *Tensor) Inputs() []*Tensor {
	if t.history == nil {
		return nil
	}
	return append([]*Tensor(nil), t.history.inputs...)
}

// track records op as the producer of out when any input carries gradients.
func track(out *Tensor, op string, inputs ...*Tensor) *Tensor {
	for _, in := range inputs {
		if in.RequiresGrad() {
			out.history = &node{op: op, inputs: inputs}
			break
		}
	}
	return out
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	var sb strings.Builder
	sb.WriteString("tensor(")
	data := t.Data()
	if len(t.shape) == 0 {
		fmt.Fprintf(&sb, "%g", data[0])
	} else {
		writeNested(&sb, data, t.shape)
	}
	if fn := t.GradFn(); fn != "" {
		fmt.Fprintf(&sb, ", grad_fn=%s", fn)
	}
	sb.WriteString(")")
	return sb.String()
}

func writeNested(sb *strings.Builder, data []float64, shape Shape) {
	sb.WriteString("[")
	if len(shape) == 1 {
		for i, v := range data {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%g", v)
		}
	} else {
		step := len(data) / shape[0]
		for i := 0; i < shape[0]; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeNested(sb, data[i*step:(i+1)*step], shape[1:])
		}
	}
	sb.WriteString("]")
}
