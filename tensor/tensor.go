// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/probkit/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a dense float64 tensor.
type Tensor = tensor.Tensor

// Errors returned by tensor operations.
var (
	ErrShapeMismatch    = tensor.ErrShapeMismatch
	ErrInvalidAxis      = tensor.ErrInvalidAxis
	ErrIndexOutOfRange  = tensor.ErrIndexOutOfRange
	ErrUnsupportedValue = tensor.ErrUnsupportedValue
)

// Creation functions

// FromSlice creates a tensor from a copy of data.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Scalar creates a 0-D tensor.
func Scalar(v float64) *Tensor {
	return tensor.Scalar(v)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// Arange creates a 1D tensor with values from start to end (exclusive).
//
// Example:
//
//	x := tensor.Arange(0, 10)  // [0, 1, 2, ..., 9]
func Arange(start, end float64) *Tensor {
	return tensor.Arange(start, end)
}

// From converts v to a tensor. See the package documentation for the
// accepted values.
func From(v any) (*Tensor, error) {
	return tensor.From(v)
}
