package sample

import (
	"fmt"

	"github.com/born-ml/probkit/internal/tensor"
	"github.com/pkg/errors"
)

// Sample is a sampled value together with the meaning of its dimensions.
//
// The segment lengths of the ShapeDict always add up to the rank of the value.
type Sample struct {
	value *tensor.Tensor
	shape *ShapeDict
}

// NewSample wraps value (anything tensor.From accepts) with a ShapeDict.
//
// A nil or empty shape infers the default: no segments for a scalar,
// {feature} for a vector, and {batch: first dim, feature: the rest} otherwise.
func NewSample(value any, shape *ShapeDict) (*Sample, error) {
	v, err := tensor.From(value)
	if err != nil {
		return nil, errors.WithMessage(err, "sample")
	}
	if shape == nil || shape.Len() == 0 {
		return &Sample{value: v, shape: defaultShape(v)}, nil
	}
	if shape.NumDims() != v.Dim() {
		return nil, errors.Wrapf(ErrDimMismatch, "shape %s covers %d dims, value has %d", shape, shape.NumDims(), v.Dim())
	}
	return &Sample{value: v, shape: shape}, nil
}

func defaultShape(v *tensor.Tensor) *ShapeDict {
	dims := v.Shape()
	switch len(dims) {
	case 0:
		return NewShapeDict()
	case 1:
		return NewShapeDict(Segment{SegmentFeature, dims})
	default:
		return NewShapeDict(Segment{SegmentBatch, dims[:1]}, Segment{SegmentFeature, dims[1:]})
	}
}

// Value returns the wrapped tensor.
func (s *Sample) Value() *tensor.Tensor {
	return s.value
}

// ShapeDict returns the segment layout. It is shared, not copied.
func (s *Sample) ShapeDict() *ShapeDict {
	return s.shape
}

// ShapeDims returns the tensor dimensions covered by a segment.
func (s *Sample) ShapeDims(name string) ([]int, error) {
	return s.shape.ShapeDims(name)
}

// Detach returns a Sample whose value is cut from gradient history.
// The ShapeDict is shared with s.
func (s *Sample) Detach() *Sample {
	return &Sample{value: s.value.Detach(), shape: s.shape}
}

// Slice indexes the dimensions of a segment, one index per extent, and drops
// the segment. An empty name selects the "time" segment. Other dimensions
// keep their full range.
//
// Example:
//
//	// value shape (T, B, F) with shape [time:[T] batch:[B] feature:[F]]
//	step, _ := s.Slice("time", 3) // shape (B, F), [batch:[B] feature:[F]]
func (s *Sample) Slice(name string, index ...int) (*Sample, error) {
	if name == "" {
		name = SegmentTime
	}
	dims, err := s.shape.ShapeDims(name)
	if err != nil {
		return nil, err
	}
	if len(index) != len(dims) {
		return nil, errors.Wrapf(ErrDimMismatch, "segment %q has %d dims, got %d indices", name, len(dims), len(index))
	}
	value, err := s.value.Select(dims, index)
	if err != nil {
		return nil, errors.WithMessagef(err, "slice %q", name)
	}
	shape := s.shape.Copy()
	shape.Delete(name)
	return &Sample{value: value, shape: shape}, nil
}

// FeatureShape returns the extents of the "feature" segment.
func (s *Sample) FeatureShape() ([]int, error) {
	extents, ok := s.shape.Get(SegmentFeature)
	if !ok {
		return nil, errors.Wrapf(ErrSegmentNotFound, "%q not in %s", SegmentFeature, s.shape)
	}
	return extents, nil
}

// NBatch returns the first extent of the "batch" segment.
func (s *Sample) NBatch() (int, error) {
	extents, ok := s.shape.Get(SegmentBatch)
	if !ok {
		return 0, errors.Wrapf(ErrSegmentNotFound, "%q not in %s", SegmentBatch, s.shape)
	}
	if len(extents) == 0 {
		return 0, errors.Wrapf(ErrDimMismatch, "%q segment is empty", SegmentBatch)
	}
	return extents[0], nil
}

// Sum sums the value over the dimensions of a segment and returns the result.
//
// Sum mutates s: afterwards s holds the reduced value and its ShapeDict no
// longer has the segment. Use Reduce to keep s unchanged.
func (s *Sample) Sum(name string) (*tensor.Tensor, error) {
	reduced, err := s.Reduce(name)
	if err != nil {
		return nil, err
	}
	s.value, s.shape = reduced.value, reduced.shape
	return s.value, nil
}

// Reduce returns a new Sample holding the value summed over the dimensions
// of a segment, with the segment removed.
func (s *Sample) Reduce(name string) (*Sample, error) {
	dims, err := s.shape.ShapeDims(name)
	if err != nil {
		return nil, err
	}
	value, err := s.value.SumDims(dims...)
	if err != nil {
		return nil, errors.WithMessagef(err, "sum %q", name)
	}
	shape := s.shape.Copy()
	shape.Delete(name)
	return &Sample{value: value, shape: shape}, nil
}

// String formats the sample as "<value> --(shape=<segments>)".
func (s *Sample) String() string {
	return fmt.Sprintf("%s --(shape=%s)", s.value, s.shape)
}
