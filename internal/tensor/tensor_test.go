package tensor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

// mustArange builds a counting tensor 0..n-1 with the given shape.
func mustArange(t *testing.T, shape ...int) *Tensor {
	t.Helper()
	n := Shape(shape).NumElements()
	x, err := Arange(0, float64(n)).Reshape(shape)
	require.NoError(t, err)
	return x
}

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.Equal(t, "(2, 3, 4)", s.String())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.True(t, s.Equal(s.Clone()))
	assert.False(t, s.Equal(Shape{2, 3}))

	err := Shape{2, 0}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, x.Dim())
	assert.Equal(t, 6.0, x.At(1, 2))
	assert.Equal(t, 2.0, x.At(0, 1))

	_, err = FromSlice([]float64{1, 2, 3}, Shape{2, 2})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestString(t *testing.T) {
	assert.Equal(t, "tensor(2)", Scalar(2).String())

	x, err := FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, "tensor([[1, 2], [3, 4]])", x.String())
}

func TestFrom(t *testing.T) {
	tests := []struct {
		name  string
		value any
		shape Shape
		data  []float64
	}{
		{"int", 3, Shape{}, []float64{3}},
		{"float32", float32(0.5), Shape{}, []float64{0.5}},
		{"float16", float16.Fromfloat32(1.5), Shape{}, []float64{1.5}},
		{"float64 slice", []float64{1, 2}, Shape{2}, []float64{1, 2}},
		{"int slice", []int{4, 5, 6}, Shape{3}, []float64{4, 5, 6}},
		{"float16 slice", []float16.Float16{float16.Fromfloat32(2), float16.Fromfloat32(-1)}, Shape{2}, []float64{2, -1}},
		{"int32 slice", []int32{4, 5}, Shape{2}, []float64{4, 5}},
		{"matrix", [][]float64{{1, 2}, {3, 4}}, Shape{2, 2}, []float64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := From(tt.value)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.shape, x.Shape()); diff != "" {
				t.Errorf("shape mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.data, x.Data())
		})
	}

	t.Run("tensor passes through", func(t *testing.T) {
		x := Scalar(1)
		got, err := From(x)
		require.NoError(t, err)
		assert.Same(t, x, got)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := From("x")
		assert.True(t, errors.Is(err, ErrUnsupportedValue))

		_, err = From([][]float64{{1, 2}, {3}})
		assert.True(t, errors.Is(err, ErrShapeMismatch))
	})
}

func TestDetach(t *testing.T) {
	x := mustArange(t, 2, 3).RequireGrad()
	require.True(t, x.IsLeaf())

	y, err := x.Permute(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "permute", y.GradFn())
	assert.True(t, y.RequiresGrad())
	assert.Equal(t, []*Tensor{x}, y.Inputs())

	d := y.Detach()
	assert.True(t, d.IsLeaf())
	assert.False(t, d.RequiresGrad())
	assert.True(t, d.Equal(y))

	z, err := d.SumDims(0)
	require.NoError(t, err)
	assert.True(t, z.IsLeaf(), "ops on detached tensors must not record history")
}

func TestClone(t *testing.T) {
	x := mustArange(t, 2, 3).RequireGrad()
	p, err := x.Permute(1, 0)
	require.NoError(t, err)

	c := p.Clone()
	assert.True(t, c.IsContiguous())
	assert.True(t, c.IsLeaf())
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, c.Data())
}

func TestAllClose(t *testing.T) {
	a, err := FromSlice([]float64{1, 2}, Shape{2})
	require.NoError(t, err)
	b, err := FromSlice([]float64{1, 2.0000001}, Shape{2})
	require.NoError(t, err)

	assert.False(t, a.Equal(b))
	assert.True(t, a.AllClose(b, 1e-6))
	assert.False(t, a.AllClose(Scalar(1), 1e-6))
}
