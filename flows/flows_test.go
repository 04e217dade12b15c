// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package flows_test

import (
	"math/rand/v2"
	"testing"

	"github.com/born-ml/probkit/flows"
	"github.com/born-ml/probkit/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks.
var (
	_ flows.Flow = (*flows.Squeeze)(nil)
	_ flows.Flow = (*flows.Unsqueeze)(nil)
	_ flows.Flow = (*flows.Permutation)(nil)
	_ flows.Flow = (*flows.Chain)(nil)
)

func TestChainRoundTrip(t *testing.T) {
	x, err := tensor.Arange(0, 64).Reshape(tensor.Shape{2, 2, 4, 4})
	require.NoError(t, err)

	shuffle, err := flows.NewShuffle(8, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	f := flows.NewChain(flows.NewSqueeze(), shuffle, flows.NewUnsqueeze())

	z, err := f.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, x.Shape(), z.Shape())

	back, err := f.Inverse(z)
	require.NoError(t, err)
	assert.True(t, back.Equal(x))
	assert.Zero(t, f.LogDetJacobian())
}
