package tensor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermute(t *testing.T) {
	x := mustArange(t, 2, 3)

	p, err := x.Permute(1, 0)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, p.Shape())
	assert.False(t, p.IsContiguous())
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, p.Data())

	back, err := p.Permute(-1, 0)
	require.NoError(t, err)
	assert.True(t, back.Equal(x))

	t.Run("errors", func(t *testing.T) {
		_, err := x.Permute(0, 0)
		assert.True(t, errors.Is(err, ErrInvalidAxis))
		_, err = x.Permute(0)
		assert.True(t, errors.Is(err, ErrInvalidAxis))
		_, err = x.Permute(0, 2)
		assert.True(t, errors.Is(err, ErrInvalidAxis))
	})
}

func TestUnsqueeze(t *testing.T) {
	x := mustArange(t, 2, 3)

	tests := []struct {
		dim  int
		want Shape
	}{
		{0, Shape{1, 2, 3}},
		{1, Shape{2, 1, 3}},
		{2, Shape{2, 3, 1}},
		{-1, Shape{2, 3, 1}},
		{-3, Shape{1, 2, 3}},
	}
	for _, tt := range tests {
		got, err := x.Unsqueeze(tt.dim)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Shape(), "dim %d", tt.dim)
		assert.Equal(t, x.Data(), got.Data(), "dim %d", tt.dim)
	}

	_, err := x.Unsqueeze(3)
	assert.True(t, errors.Is(err, ErrInvalidAxis))

	lead, err := x.UnsqueezeLeading(2)
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 1, 2, 3}, lead.Shape())
	assert.Equal(t, x.Data(), lead.Data())
	assert.True(t, lead.IsContiguous())

	same, err := x.UnsqueezeLeading(0)
	require.NoError(t, err)
	assert.Same(t, x, same)
}

func TestSelect(t *testing.T) {
	x := mustArange(t, 2, 3, 4)

	y, err := x.Select([]int{1}, []int{2})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 4}, y.Shape())
	assert.Equal(t, []float64{8, 9, 10, 11, 20, 21, 22, 23}, y.Data())

	z, err := x.Select([]int{0, 2}, []int{1, -1})
	require.NoError(t, err)
	assert.Equal(t, Shape{3}, z.Shape())
	assert.Equal(t, []float64{15, 19, 23}, z.Data())

	s, err := x.Select([]int{0, 1, 2}, []int{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, Shape{}, s.Shape())
	assert.Equal(t, 17.0, s.Item())

	_, err = x.Select([]int{1}, []int{3})
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = x.Select([]int{1, 1}, []int{0, 0})
	assert.True(t, errors.Is(err, ErrInvalidAxis))
	_, err = x.Select([]int{1}, nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestReshape(t *testing.T) {
	x := mustArange(t, 2, 3, 4)

	y, err := x.Reshape(Shape{-1, 4})
	require.NoError(t, err)
	assert.Equal(t, Shape{6, 4}, y.Shape())
	assert.Equal(t, x.Data(), y.Data())

	p, err := mustArange(t, 2, 3).Permute(1, 0)
	require.NoError(t, err)
	flat, err := p.Reshape(Shape{6})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, flat.Data())

	_, err = x.Reshape(Shape{5, -1})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	_, err = x.Reshape(Shape{-1, -1})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestIndexSelect(t *testing.T) {
	x := mustArange(t, 2, 4)

	y, err := x.IndexSelect(1, []int{3, 0})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 2}, y.Shape())
	assert.Equal(t, []float64{3, 0, 7, 4}, y.Data())

	rows, err := x.IndexSelect(0, []int{1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6, 7, 4, 5, 6, 7, 0, 1, 2, 3}, rows.Data())

	_, err = x.IndexSelect(1, []int{4})
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestSumDims(t *testing.T) {
	x := mustArange(t, 2, 3, 4)

	tests := []struct {
		name  string
		dims  []int
		shape Shape
		data  []float64
	}{
		{"middle", []int{1}, Shape{2, 4}, []float64{12, 15, 18, 21, 48, 51, 54, 57}},
		{"outer and inner", []int{0, 2}, Shape{3}, []float64{60, 92, 124}},
		{"negative", []int{-2}, Shape{2, 4}, []float64{12, 15, 18, 21, 48, 51, 54, 57}},
		{"all", []int{0, 1, 2}, Shape{}, []float64{276}},
		{"none", nil, Shape{2, 3, 4}, x.Data()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.SumDims(tt.dims...)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, got.Shape())
			assert.Equal(t, tt.data, got.Data())
		})
	}

	t.Run("strided view", func(t *testing.T) {
		p, err := mustArange(t, 2, 3).Permute(1, 0)
		require.NoError(t, err)
		got, err := p.SumDims(1)
		require.NoError(t, err)
		assert.Equal(t, []float64{3, 5, 7}, got.Data())
	})

	t.Run("history", func(t *testing.T) {
		g := mustArange(t, 2, 2).RequireGrad()
		s, err := g.SumDims(0)
		require.NoError(t, err)
		assert.Equal(t, "sum", s.GradFn())
	})

	_, err := x.SumDims(1, 1)
	assert.True(t, errors.Is(err, ErrInvalidAxis))
	_, err = x.SumDims(3)
	assert.True(t, errors.Is(err, ErrInvalidAxis))
}
