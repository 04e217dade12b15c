// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package flows provides invertible channel and spatial rearrangement layers
// for normalizing flows over [batch, channels, height, width] tensors.
//
// Example:
//
//	rev, _ := flows.NewReverse(4)
//	f := flows.NewChain(flows.NewSqueeze(), rev, flows.NewUnsqueeze())
//	z, _ := f.Forward(x)
//	back, _ := f.Inverse(z) // equals x
package flows

import (
	"math/rand/v2"

	"github.com/born-ml/probkit/internal/flows"
)

// Errors returned by flow layers.
var (
	ErrNot4D                = flows.ErrNot4D
	ErrOddSpatial           = flows.ErrOddSpatial
	ErrChannelsNotDivisible = flows.ErrChannelsNotDivisible
	ErrChannelMismatch      = flows.ErrChannelMismatch
	ErrInvalidPermutation   = flows.ErrInvalidPermutation
)

// Flow is a bijective layer with a log-determinant of its Jacobian.
type Flow = flows.Flow

// Squeeze folds each 2x2 spatial block into 4 channels.
type Squeeze = flows.Squeeze

// Unsqueeze unfolds each group of 4 channels into a 2x2 spatial block.
type Unsqueeze = flows.Unsqueeze

// Permutation reorders channels by a fixed permutation.
type Permutation = flows.Permutation

// Chain composes flows in order.
type Chain = flows.Chain

// NewSqueeze creates a squeeze layer.
func NewSqueeze() *Squeeze {
	return flows.NewSqueeze()
}

// NewUnsqueeze creates an unsqueeze layer.
func NewUnsqueeze() *Unsqueeze {
	return flows.NewUnsqueeze()
}

// NewPermutation creates a layer that maps output channel k to input
// channel indices[k].
func NewPermutation(indices []int) (*Permutation, error) {
	return flows.NewPermutation(indices)
}

// NewReverse creates a layer that reverses the channel order.
func NewReverse(channels int) (*Permutation, error) {
	return flows.NewReverse(channels)
}

// NewShuffle creates a layer with a random channel order drawn once from rng.
// A nil rng is seeded from the runtime source.
func NewShuffle(channels int, rng *rand.Rand) (*Permutation, error) {
	return flows.NewShuffle(channels, rng)
}

// NewChain creates a chain of flows.
func NewChain(layers ...Flow) *Chain {
	return flows.NewChain(layers...)
}
