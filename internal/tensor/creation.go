package tensor

import (
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	return newContiguous(append([]float64(nil), data...), shape), nil
}

// Scalar creates a 0-D tensor holding v.
func Scalar(v float64) *Tensor {
	return newContiguous([]float64{v}, Shape{})
}

// Zeros creates a tensor filled with zeros.
// Panics if the shape is invalid.
func Zeros(shape Shape) *Tensor {
	return Full(shape, 0)
}

// Full creates a tensor filled with value.
// Panics if the shape is invalid.
func Full(shape Shape, value float64) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(err.Error())
	}
	data := make([]float64, shape.NumElements())
	if value != 0 {
		for i := range data {
			data[i] = value
		}
	}
	return newContiguous(data, shape)
}

// Arange creates a 1D tensor with values from start to end (exclusive), step 1.
//
// Example:
//
//	x := tensor.Arange(1, 17) // [1, 2, ..., 16]
func Arange(start, end float64) *Tensor {
	var data []float64
	for v := start; v < end; v++ {
		data = append(data, v)
	}
	if len(data) == 0 {
		panic("arange: empty range")
	}
	return newContiguous(data, Shape{len(data)})
}

// From converts v into a float tensor.
//
// Accepted values: *Tensor (returned unchanged), Go integer and float
// scalars, float16.Float16, slices of those, and [][]float64 matrices.
// Scalars become 0-D tensors and slices become 1-D tensors.
func From(v any) (*Tensor, error) {
	switch x := v.(type) {
	case *Tensor:
		if x == nil {
			return nil, errors.Wrap(ErrUnsupportedValue, "nil tensor")
		}
		return x, nil
	case float64:
		return Scalar(x), nil
	case float32:
		return Scalar(float64(x)), nil
	case int:
		return Scalar(float64(x)), nil
	case int32:
		return Scalar(float64(x)), nil
	case int64:
		return Scalar(float64(x)), nil
	case float16.Float16:
		return Scalar(float64(x.Float32())), nil
	case []float64:
		return vector(x)
	case []float32:
		return vector(widen(x))
	case []int:
		return vector(widen(x))
	case []int32:
		return vector(widen(x))
	case []int64:
		return vector(widen(x))
	case []float16.Float16:
		out := make([]float64, len(x))
		for i, h := range x {
			out[i] = float64(h.Float32())
		}
		return vector(out)
	case [][]float64:
		return matrix(x)
	default:
		return nil, errors.Wrapf(ErrUnsupportedValue, "cannot convert %T to a tensor", v)
	}
}

func vector(data []float64) (*Tensor, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrUnsupportedValue, "empty slice")
	}
	return FromSlice(data, Shape{len(data)})
}

func matrix(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.Wrap(ErrUnsupportedValue, "empty matrix")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.Wrapf(ErrShapeMismatch, "row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return FromSlice(data, Shape{len(rows), cols})
}

func widen[S constraints.Integer | constraints.Float](in []S) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
