package flows

import (
	"math/rand/v2"

	"github.com/born-ml/probkit/internal/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"k8s.io/klog/v2"
)

// Permutation reorders channels by a fixed index permutation. Output channel
// k is input channel indices[k].
//
// Example:
//
//	p, _ := flows.NewPermutation([]int{0, 3, 1, 2})
//	z, _ := p.Forward(x) // channels 0, 3, 1, 2 of x
type Permutation struct {
	indices []int
	inverse []int
}

// NewPermutation creates a permutation layer. indices must contain every
// channel index in [0, len(indices)) exactly once.
func NewPermutation(indices []int) (*Permutation, error) {
	if len(indices) == 0 {
		return nil, errors.Wrap(ErrInvalidPermutation, "permutation: no indices")
	}
	seen := make([]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(indices) || seen[idx] {
			return nil, errors.Wrapf(ErrInvalidPermutation, "permutation: %v", indices)
		}
		seen[idx] = true
	}
	return &Permutation{
		indices: append([]int(nil), indices...),
		inverse: argsort(indices),
	}, nil
}

// NewReverse creates a permutation layer that reverses the channel order.
func NewReverse(channels int) (*Permutation, error) {
	indices := make([]int, channels)
	for i := range indices {
		indices[i] = channels - 1 - i
	}
	return NewPermutation(indices)
}

// NewShuffle creates a permutation layer with a uniformly random channel
// order, drawn once from rng. A nil rng is seeded from the runtime source.
func NewShuffle(channels int, rng *rand.Rand) (*Permutation, error) {
	if channels <= 0 {
		return nil, errors.Wrapf(ErrInvalidPermutation, "shuffle: %d channels", channels)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	indices := rng.Perm(channels)
	klog.V(1).Infof("flows: shuffle permutation over %d channels: %v", channels, indices)
	return NewPermutation(indices)
}

// argsort returns the inverse of the permutation p.
func argsort(p []int) []int {
	keys := make([]float64, len(p))
	for i, v := range p {
		keys[i] = float64(v)
	}
	inv := make([]int, len(p))
	floats.Argsort(keys, inv)
	return inv
}

// Indices returns the forward permutation.
func (p *Permutation) Indices() []int {
	return append([]int(nil), p.indices...)
}

// InverseIndices returns the inverse permutation.
func (p *Permutation) InverseIndices() []int {
	return append([]int(nil), p.inverse...)
}

// Forward implements Flow.
func (p *Permutation) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	return p.apply("permutation", x, p.indices)
}

// Inverse implements Flow.
func (p *Permutation) Inverse(z *tensor.Tensor) (*tensor.Tensor, error) {
	return p.apply("permutation inverse", z, p.inverse)
}

func (p *Permutation) apply(op string, x *tensor.Tensor, indices []int) (*tensor.Tensor, error) {
	_, c, _, _, err := dims4(op, x)
	if err != nil {
		return nil, err
	}
	if c != len(indices) {
		return nil, errors.Wrapf(ErrChannelMismatch, "%s: got %d channels, want %d", op, c, len(indices))
	}
	return x.IndexSelect(1, indices)
}

// LogDetJacobian implements Flow.
func (p *Permutation) LogDetJacobian() float64 { return 0 }

// InFeatures implements Flow.
func (p *Permutation) InFeatures() int { return len(p.indices) }
