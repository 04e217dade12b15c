package flows

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/born-ml/probkit/internal/tensor"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counting returns 1, 2, ... laid out in the given shape.
func counting(t *testing.T, shape ...int) *tensor.Tensor {
	t.Helper()
	n := tensor.Shape(shape).NumElements()
	x, err := tensor.Arange(1, float64(n+1)).Reshape(shape)
	require.NoError(t, err)
	return x
}

func TestSqueeze(t *testing.T) {
	x := counting(t, 1, 1, 4, 4)
	f := NewSqueeze()

	z, err := f.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 4, 2, 2}, z.Shape())
	want := []float64{
		1, 3, 9, 11,
		2, 4, 10, 12,
		5, 7, 13, 15,
		6, 8, 14, 16,
	}
	if diff := cmp.Diff(want, z.Data()); diff != "" {
		t.Errorf("Forward mismatch (-want +got):\n%s", diff)
	}

	back, err := f.Inverse(z)
	require.NoError(t, err)
	assert.True(t, back.Equal(x))
	assert.Zero(t, f.LogDetJacobian())
	assert.Zero(t, f.InFeatures())
}

func TestUnsqueeze(t *testing.T) {
	x := counting(t, 1, 4, 2, 2)
	f := NewUnsqueeze()

	z, err := f.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 4, 4}, z.Shape())
	want := []float64{
		1, 5, 2, 6,
		9, 13, 10, 14,
		3, 7, 4, 8,
		11, 15, 12, 16,
	}
	if diff := cmp.Diff(want, z.Data()); diff != "" {
		t.Errorf("Forward mismatch (-want +got):\n%s", diff)
	}

	back, err := f.Inverse(z)
	require.NoError(t, err)
	assert.True(t, back.Equal(x))
}

func TestSqueezeRoundTrip(t *testing.T) {
	shapes := []tensor.Shape{
		{1, 1, 2, 2},
		{2, 3, 4, 6},
		{3, 2, 8, 2},
	}
	for _, shape := range shapes {
		t.Run(shape.String(), func(t *testing.T) {
			x := counting(t, shape...)

			z, err := NewSqueeze().Forward(x)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{shape[0], shape[1] * 4, shape[2] / 2, shape[3] / 2}, z.Shape())
			back, err := NewSqueeze().Inverse(z)
			require.NoError(t, err)
			assert.True(t, back.Equal(x))

			up, err := NewUnsqueeze().Inverse(x)
			require.NoError(t, err)
			assert.True(t, up.Equal(z), "Unsqueeze.Inverse is Squeeze.Forward")
		})
	}
}

func TestSqueezeErrors(t *testing.T) {
	_, err := NewSqueeze().Forward(counting(t, 1, 1, 3, 4))
	assert.True(t, errors.Is(err, ErrOddSpatial))
	_, err = NewSqueeze().Forward(counting(t, 1, 1, 4, 5))
	assert.True(t, errors.Is(err, ErrOddSpatial))

	_, err = NewUnsqueeze().Forward(counting(t, 1, 3, 2, 2))
	assert.True(t, errors.Is(err, ErrChannelsNotDivisible))
	_, err = NewSqueeze().Inverse(counting(t, 1, 6, 2, 2))
	assert.True(t, errors.Is(err, ErrChannelsNotDivisible))

	_, err = NewSqueeze().Forward(counting(t, 4, 4))
	assert.True(t, errors.Is(err, ErrNot4D))
}

func TestPermutation(t *testing.T) {
	x := counting(t, 1, 4, 2, 2)
	p, err := NewPermutation([]int{0, 3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 1}, p.InverseIndices())
	assert.Equal(t, 4, p.InFeatures())

	z, err := p.Forward(x)
	require.NoError(t, err)
	want := []float64{
		1, 2, 3, 4,
		13, 14, 15, 16,
		5, 6, 7, 8,
		9, 10, 11, 12,
	}
	if diff := cmp.Diff(want, z.Data()); diff != "" {
		t.Errorf("Forward mismatch (-want +got):\n%s", diff)
	}

	back, err := p.Inverse(z)
	require.NoError(t, err)
	assert.True(t, back.Equal(x))
	assert.Zero(t, p.LogDetJacobian())
}

func TestPermutationErrors(t *testing.T) {
	for _, indices := range [][]int{nil, {0, 0}, {1, 2}, {-1, 0}} {
		_, err := NewPermutation(indices)
		assert.True(t, errors.Is(err, ErrInvalidPermutation), "indices %v", indices)
	}

	p, err := NewReverse(3)
	require.NoError(t, err)
	_, err = p.Forward(counting(t, 1, 4, 2, 2))
	assert.True(t, errors.Is(err, ErrChannelMismatch))
	_, err = p.Inverse(counting(t, 3, 2, 2))
	assert.True(t, errors.Is(err, ErrNot4D))
}

func TestReverse(t *testing.T) {
	p, err := NewReverse(4)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1, 0}, p.Indices())
	assert.Equal(t, []int{3, 2, 1, 0}, p.InverseIndices())

	x := counting(t, 2, 4, 1, 1)
	z, err := p.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 3, 2, 1, 8, 7, 6, 5}, z.Data())
}

func TestShuffle(t *testing.T) {
	a, err := NewShuffle(8, rand.New(rand.NewPCG(7, 11)))
	require.NoError(t, err)
	b, err := NewShuffle(8, rand.New(rand.NewPCG(7, 11)))
	require.NoError(t, err)
	assert.Equal(t, a.Indices(), b.Indices(), "same seed, same permutation")

	sorted := slices.Sorted(slices.Values(a.Indices()))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, sorted)

	x := counting(t, 2, 8, 2, 2)
	z1, err := a.Forward(x)
	require.NoError(t, err)
	z2, err := a.Forward(x)
	require.NoError(t, err)
	assert.True(t, z1.Equal(z2), "the permutation is fixed at construction")
	back, err := a.Inverse(z1)
	require.NoError(t, err)
	assert.True(t, back.Equal(x))

	unseeded, err := NewShuffle(5, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, unseeded.InFeatures())

	_, err = NewShuffle(0, nil)
	assert.True(t, errors.Is(err, ErrInvalidPermutation))
}

func TestChain(t *testing.T) {
	rev, err := NewReverse(4)
	require.NoError(t, err)
	c := NewChain(NewSqueeze(), rev, NewUnsqueeze())
	assert.Len(t, c.Flows(), 3)
	assert.Zero(t, c.LogDetJacobian())
	assert.Zero(t, c.InFeatures())

	x := counting(t, 2, 1, 4, 4)
	z, err := c.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, x.Shape(), z.Shape())
	assert.False(t, z.Equal(x))

	back, err := c.Inverse(z)
	require.NoError(t, err)
	assert.True(t, back.Equal(x))

	_, err = c.Forward(counting(t, 1, 2, 4, 4))
	assert.True(t, errors.Is(err, ErrChannelMismatch))

	assert.Zero(t, NewChain().InFeatures())
}

func TestFlowsKeepHistory(t *testing.T) {
	x := counting(t, 1, 4, 2, 2).RequireGrad()

	z, err := NewSqueeze().Forward(x)
	require.NoError(t, err)
	assert.Equal(t, "permute", z.GradFn())

	p, err := NewReverse(4)
	require.NoError(t, err)
	z, err = p.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, "index_select", z.GradFn())
	assert.Same(t, x, z.Inputs()[0])
}
