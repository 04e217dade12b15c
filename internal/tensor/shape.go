package tensor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return errors.Wrapf(ErrShapeMismatch, "invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// String formats the shape as "(d0, d1, ...)".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// normalizeAxis maps a possibly negative axis into [0, rank).
func normalizeAxis(axis, rank int) (int, error) {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, errors.Wrapf(ErrInvalidAxis, "axis %d out of range for rank %d", axis, rank)
	}
	return axis, nil
}

// inferShape resolves a single -1 entry of newShape against numElements.
func inferShape(newShape Shape, numElements int) (Shape, error) {
	out := newShape.Clone()
	inferred := -1
	known := 1
	for i, d := range out {
		switch {
		case d == -1:
			if inferred >= 0 {
				return nil, errors.Wrapf(ErrShapeMismatch, "more than one -1 in shape %v", newShape)
			}
			inferred = i
		case d <= 0:
			return nil, errors.Wrapf(ErrShapeMismatch, "invalid dimension %d in shape %v", d, newShape)
		default:
			known *= d
		}
	}
	if inferred >= 0 {
		if known == 0 || numElements%known != 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "cannot infer -1 in %v for %d elements", newShape, numElements)
		}
		out[inferred] = numElements / known
	}
	if out.NumElements() != numElements {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot reshape %d elements into %v", numElements, newShape)
	}
	return out, nil
}
