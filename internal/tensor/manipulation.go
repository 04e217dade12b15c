package tensor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Permute reorders the dimensions of the tensor.
//
// axes[i] names the source dimension that becomes dimension i of the result.
// Negative axes count from the end. This is a view operation (no data copy).
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{2, 3, 4})
//	y, _ := x.Permute(2, 0, 1) // Shape: (4, 2, 3)
func (t *Tensor) Permute(axes ...int) (*Tensor, error) {
	rank := len(t.shape)
	if len(axes) != rank {
		return nil, errors.Wrapf(ErrInvalidAxis, "permute: got %d axes for rank %d", len(axes), rank)
	}
	seen := make([]bool, rank)
	shape := make(Shape, rank)
	stride := make([]int, rank)
	for i, a := range axes {
		axis, err := normalizeAxis(a, rank)
		if err != nil {
			return nil, errors.WithMessage(err, "permute")
		}
		if seen[axis] {
			return nil, errors.Wrapf(ErrInvalidAxis, "permute: axis %d repeated in %v", axis, axes)
		}
		seen[axis] = true
		shape[i] = t.shape[axis]
		stride[i] = t.stride[axis]
	}
	out := &Tensor{data: t.data, shape: shape, stride: stride, offset: t.offset}
	return track(out, "permute", t), nil
}

// Unsqueeze adds a dimension of size 1 at the specified position.
//
// Valid positions are [-(rank+1), rank]; negative positions count from the end.
// This is a view operation (no data copy).
func (t *Tensor) Unsqueeze(dim int) (*Tensor, error) {
	rank := len(t.shape)
	if dim < 0 {
		dim += rank + 1
	}
	if dim < 0 || dim > rank {
		return nil, errors.Wrapf(ErrInvalidAxis, "unsqueeze: dimension %d out of range for %dD tensor (valid: [0, %d])", dim, rank, rank)
	}

	shape := make(Shape, 0, rank+1)
	stride := make([]int, 0, rank+1)
	shape = append(shape, t.shape[:dim]...)
	stride = append(stride, t.stride[:dim]...)
	newStride := 1
	if dim < rank {
		newStride = t.stride[dim] * t.shape[dim]
	}
	shape = append(append(shape, 1), t.shape[dim:]...)
	stride = append(append(stride, newStride), t.stride[dim:]...)

	out := &Tensor{data: t.data, shape: shape, stride: stride, offset: t.offset}
	return track(out, "unsqueeze", t), nil
}

// UnsqueezeLeading inserts n leading dimensions of size 1.
func (t *Tensor) UnsqueezeLeading(n int) (*Tensor, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidAxis, "unsqueeze: negative count %d", n)
	}
	if n == 0 {
		return t, nil
	}
	shape := make(Shape, n, n+len(t.shape))
	stride := make([]int, n, n+len(t.stride))
	for i := range shape {
		shape[i] = 1
		stride[i] = 1
	}
	out := &Tensor{
		data:   t.data,
		shape:  append(shape, t.shape...),
		stride: append(stride, t.stride...),
		offset: t.offset,
	}
	return track(out, "unsqueeze", t), nil
}

// Select indexes the tensor with one integer per entry of dims and removes
// those dimensions. Dimensions not listed keep their full range. Negative
// indices count from the end of their dimension.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{2, 5, 3})
//	y, _ := x.Select([]int{1}, []int{4}) // Shape: (2, 3)
func (t *Tensor) Select(dims, index []int) (*Tensor, error) {
	if len(dims) != len(index) {
		return nil, errors.Wrapf(ErrShapeMismatch, "select: %d dims but %d indices", len(dims), len(index))
	}
	rank := len(t.shape)
	selected := make(map[int]int, len(dims))
	for i, d := range dims {
		axis, err := normalizeAxis(d, rank)
		if err != nil {
			return nil, errors.WithMessage(err, "select")
		}
		if _, dup := selected[axis]; dup {
			return nil, errors.Wrapf(ErrInvalidAxis, "select: axis %d repeated", axis)
		}
		idx := index[i]
		if idx < 0 {
			idx += t.shape[axis]
		}
		if idx < 0 || idx >= t.shape[axis] {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "select: index %d out of range for dimension %d (size %d)", index[i], axis, t.shape[axis])
		}
		selected[axis] = idx
	}

	out := &Tensor{data: t.data, offset: t.offset}
	for axis := 0; axis < rank; axis++ {
		if idx, ok := selected[axis]; ok {
			out.offset += idx * t.stride[axis]
			continue
		}
		out.shape = append(out.shape, t.shape[axis])
		out.stride = append(out.stride, t.stride[axis])
	}
	if out.shape == nil {
		out.shape = Shape{}
		out.stride = []int{}
	}
	return track(out, "select", t), nil
}

// Contiguous returns t if it is already laid out in row-major order, or a
// row-major copy otherwise.
func (t *Tensor) Contiguous() *Tensor {
	if t.IsContiguous() {
		return t
	}
	return track(newContiguous(t.Data(), t.shape), "contiguous", t)
}

// Reshape returns a tensor with the same elements in row-major order and a
// new shape. A single -1 dimension is inferred. Contiguous tensors are
// reshaped as views; others are copied first.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	newShape, err := inferShape(shape, t.NumElements())
	if err != nil {
		return nil, errors.WithMessage(err, "reshape")
	}
	var out *Tensor
	if t.IsContiguous() {
		out = &Tensor{data: t.data, shape: newShape, stride: newShape.ComputeStrides(), offset: t.offset}
	} else {
		out = newContiguous(t.Data(), newShape)
	}
	return track(out, "reshape", t), nil
}

// IndexSelect gathers the slices at indices along dim into a new tensor.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{1, 4, 2, 2})
//	y, _ := x.IndexSelect(1, []int{3, 2, 1, 0}) // channels reversed
func (t *Tensor) IndexSelect(dim int, indices []int) (*Tensor, error) {
	axis, err := normalizeAxis(dim, len(t.shape))
	if err != nil {
		return nil, errors.WithMessage(err, "index_select")
	}
	if len(indices) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "index_select: no indices")
	}
	size := t.shape[axis]
	for _, idx := range indices {
		if idx < 0 || idx >= size {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "index_select: index %d out of range for dimension %d (size %d)", idx, axis, size)
		}
	}

	outer := t.shape[:axis].NumElements()
	inner := t.shape[axis+1:].NumElements()
	src := t.Data()
	out := make([]float64, outer*len(indices)*inner)
	for o := 0; o < outer; o++ {
		for k, idx := range indices {
			dst := (o*len(indices) + k) * inner
			from := (o*size + idx) * inner
			copy(out[dst:dst+inner], src[from:from+inner])
		}
	}

	shape := t.shape.Clone()
	shape[axis] = len(indices)
	return track(newContiguous(out, shape), "index_select", t), nil
}

// SumDims sums over the given dimensions and removes them from the shape.
// Summing over every dimension yields a 0-D tensor. An empty dims list
// returns a copy.
func (t *Tensor) SumDims(dims ...int) (*Tensor, error) {
	rank := len(t.shape)
	reduced := make([]bool, rank)
	for _, d := range dims {
		axis, err := normalizeAxis(d, rank)
		if err != nil {
			return nil, errors.WithMessage(err, "sum")
		}
		if reduced[axis] {
			return nil, errors.Wrapf(ErrInvalidAxis, "sum: axis %d repeated", axis)
		}
		reduced[axis] = true
	}
	if len(dims) == 0 {
		return track(t.Clone(), "sum", t), nil
	}

	// Move kept axes first so every output element owns a contiguous block.
	order := make([]int, 0, rank)
	outShape := Shape{}
	block := 1
	for axis := 0; axis < rank; axis++ {
		if !reduced[axis] {
			order = append(order, axis)
			outShape = append(outShape, t.shape[axis])
		}
	}
	for axis := 0; axis < rank; axis++ {
		if reduced[axis] {
			order = append(order, axis)
			block *= t.shape[axis]
		}
	}
	moved := &Tensor{data: t.data, offset: t.offset}
	for _, axis := range order {
		moved.shape = append(moved.shape, t.shape[axis])
		moved.stride = append(moved.stride, t.stride[axis])
	}
	src := moved.Data()

	out := make([]float64, outShape.NumElements())
	for i := range out {
		out[i] = floats.Sum(src[i*block : (i+1)*block])
	}
	return track(newContiguous(out, outShape), "sum", t), nil
}
