package flows

import (
	"github.com/born-ml/probkit/internal/tensor"
	"github.com/pkg/errors"
)

// Squeeze trades spatial resolution for channels: every 2x2 spatial block
// becomes 4 channels.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, 4*channels, height/2, width/2]
//
// Output channel 4*c + 2*i + j holds input channel c at spatial offset (i, j)
// within each block.
type Squeeze struct{}

// NewSqueeze creates a squeeze layer.
func NewSqueeze() *Squeeze {
	return &Squeeze{}
}

// Forward implements Flow. Height and width must be even.
func (s *Squeeze) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	n, c, h, w, err := dims4("squeeze", x)
	if err != nil {
		return nil, err
	}
	if h%2 != 0 || w%2 != 0 {
		return nil, errors.Wrapf(ErrOddSpatial, "squeeze: got %dx%d", h, w)
	}
	return rearrange(x,
		[]int{0, 2, 3, 1},
		tensor.Shape{n, h / 2, 2, w / 2, 2, c},
		[]int{0, 1, 3, 5, 2, 4},
		tensor.Shape{n, h / 2, w / 2, c * 4},
	)
}

// Inverse implements Flow. The channel count must be divisible by 4.
func (s *Squeeze) Inverse(z *tensor.Tensor) (*tensor.Tensor, error) {
	n, c, h, w, err := dims4("squeeze inverse", z)
	if err != nil {
		return nil, err
	}
	if c%4 != 0 {
		return nil, errors.Wrapf(ErrChannelsNotDivisible, "squeeze inverse: got %d channels", c)
	}
	return rearrange(z,
		[]int{0, 2, 3, 1},
		tensor.Shape{n, h, w, c / 4, 2, 2},
		[]int{0, 1, 4, 2, 5, 3},
		tensor.Shape{n, 2 * h, 2 * w, c / 4},
	)
}

// LogDetJacobian implements Flow.
func (s *Squeeze) LogDetJacobian() float64 { return 0 }

// InFeatures implements Flow.
func (s *Squeeze) InFeatures() int { return 0 }

// rearrange moves channels last, splits into blocks, reorders the block axes,
// merges them and moves channels back to axis 1.
func rearrange(x *tensor.Tensor, toLast []int, split tensor.Shape, order []int, merged tensor.Shape) (*tensor.Tensor, error) {
	y, err := x.Permute(toLast...)
	if err != nil {
		return nil, err
	}
	if y, err = y.Reshape(split); err != nil {
		return nil, err
	}
	if y, err = y.Permute(order...); err != nil {
		return nil, err
	}
	if y, err = y.Reshape(merged); err != nil {
		return nil, err
	}
	return y.Permute(0, 3, 1, 2)
}

// Unsqueeze is the inverse of Squeeze: every 4 channels become a 2x2 spatial
// block.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels/4, 2*height, 2*width]
type Unsqueeze struct {
	squeeze Squeeze
}

// NewUnsqueeze creates an unsqueeze layer.
func NewUnsqueeze() *Unsqueeze {
	return &Unsqueeze{}
}

// Forward implements Flow. The channel count must be divisible by 4.
func (u *Unsqueeze) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	return u.squeeze.Inverse(x)
}

// Inverse implements Flow. Height and width must be even.
func (u *Unsqueeze) Inverse(z *tensor.Tensor) (*tensor.Tensor, error) {
	return u.squeeze.Forward(z)
}

// LogDetJacobian implements Flow.
func (u *Unsqueeze) LogDetJacobian() float64 { return 0 }

// InFeatures implements Flow.
func (u *Unsqueeze) InFeatures() int { return 0 }
