// Package flows implements volume-preserving invertible layers for
// normalizing flows over (batch, channel, height, width) tensors.
//
// Every layer maps x to z with Forward and back with Inverse, and reports the
// log-determinant of its Jacobian for density bookkeeping:
//
//	log p(x) = log p(z) + LogDetJacobian()
//
// The layers here only rearrange elements, so their log-determinant is 0.
package flows

import (
	"github.com/born-ml/probkit/internal/tensor"
	"github.com/pkg/errors"
)

// Errors returned by flow layers.
var (
	ErrNot4D                = errors.New("expected 4D input [N,C,H,W]")
	ErrOddSpatial           = errors.New("height and width must be even")
	ErrChannelsNotDivisible = errors.New("channel count must be divisible by 4")
	ErrChannelMismatch      = errors.New("channel count does not match permutation")
	ErrInvalidPermutation   = errors.New("invalid permutation")
)

// Flow is a bijective layer.
type Flow interface {
	// Forward maps an input x to its latent z.
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)

	// Inverse maps a latent z back to x. Inverse(Forward(x)) equals x.
	Inverse(z *tensor.Tensor) (*tensor.Tensor, error)

	// LogDetJacobian returns log|det J| of Forward.
	LogDetJacobian() float64

	// InFeatures returns the channel count the layer is built for, or 0 if
	// it accepts any.
	InFeatures() int
}

// dims4 unpacks a 4D shape.
func dims4(op string, x *tensor.Tensor) (n, c, h, w int, err error) {
	s := x.Shape()
	if len(s) != 4 {
		return 0, 0, 0, 0, errors.Wrapf(ErrNot4D, "%s: got %dD input %v", op, len(s), s)
	}
	return s[0], s[1], s[2], s[3], nil
}

// Chain composes flows. Forward applies them in order and Inverse in reverse
// order; the log-determinants add up.
//
// Example:
//
//	rev, _ := flows.NewReverse(4)
//	f := flows.NewChain(flows.NewSqueeze(), rev, flows.NewUnsqueeze())
//	z, err := f.Forward(x)
type Chain struct {
	flows []Flow
}

// NewChain creates a chain of flows.
func NewChain(flows ...Flow) *Chain {
	return &Chain{flows: flows}
}

// Flows returns the chained layers.
func (c *Chain) Flows() []Flow {
	return append([]Flow(nil), c.flows...)
}

// Forward implements Flow.
func (c *Chain) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	out := x
	for i, f := range c.flows {
		var err error
		if out, err = f.Forward(out); err != nil {
			return nil, errors.WithMessagef(err, "chain: forward layer %d", i)
		}
	}
	return out, nil
}

// Inverse implements Flow.
func (c *Chain) Inverse(z *tensor.Tensor) (*tensor.Tensor, error) {
	out := z
	for i := len(c.flows) - 1; i >= 0; i-- {
		var err error
		if out, err = c.flows[i].Inverse(out); err != nil {
			return nil, errors.WithMessagef(err, "chain: inverse layer %d", i)
		}
	}
	return out, nil
}

// LogDetJacobian implements Flow.
func (c *Chain) LogDetJacobian() float64 {
	var sum float64
	for _, f := range c.flows {
		sum += f.LogDetJacobian()
	}
	return sum
}

// InFeatures returns the input channel count of the first layer.
func (c *Chain) InFeatures() int {
	if len(c.flows) == 0 {
		return 0
	}
	return c.flows[0].InFeatures()
}
