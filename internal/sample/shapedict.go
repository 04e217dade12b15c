// Package sample implements segment-tagged sample containers.
//
// A ShapeDict partitions the dimensions of a tensor into named, ordered
// segments such as "batch", "feature" or "time". A Sample pairs a tensor with
// its ShapeDict, and a SampleDict maps variable names to Samples so that
// distributions can exchange sampled values together with the meaning of
// each dimension.
package sample

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Well-known segment names.
const (
	SegmentBatch   = "batch"
	SegmentFeature = "feature"
	SegmentTime    = "time"
)

// Errors returned by the sample containers.
var (
	ErrSegmentNotFound  = errors.New("shape segment not found")
	ErrDimMismatch      = errors.New("dimension count mismatch")
	ErrInvalidShapeDict = errors.New("invalid shape dict")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrKeyNotFound      = errors.New("variable not found")
	ErrKeyCollision     = errors.New("variable name collision")
	ErrShapeConflict    = errors.New("incompatible shapes")
)

// Segment is one named run of dimensions.
type Segment struct {
	Name    string
	Extents []int
}

// ShapeDict is an ordered mapping from segment name to extents.
//
// Insertion order is dimension order: the first segment covers the leading
// dimensions of the owning tensor.
type ShapeDict struct {
	segments *orderedmap.OrderedMap[string, []int]
}

// NewShapeDict creates a ShapeDict from segments in dimension order.
// A repeated name keeps its first position and takes the last extents.
func NewShapeDict(segments ...Segment) *ShapeDict {
	d := &ShapeDict{segments: orderedmap.New[string, []int]()}
	for _, seg := range segments {
		d.Set(seg.Name, seg.Extents)
	}
	return d
}

// Set assigns the extents of a segment. New segments are appended last.
func (d *ShapeDict) Set(name string, extents []int) {
	d.segments.Set(name, append([]int{}, extents...))
}

// Get returns the extents of a segment.
func (d *ShapeDict) Get(name string) ([]int, bool) {
	extents, ok := d.segments.Get(name)
	if !ok {
		return nil, false
	}
	return append([]int{}, extents...), true
}

// Has reports whether the segment exists.
func (d *ShapeDict) Has(name string) bool {
	_, ok := d.segments.Get(name)
	return ok
}

// Delete removes a segment and reports whether it existed.
func (d *ShapeDict) Delete(name string) bool {
	_, ok := d.segments.Delete(name)
	return ok
}

// Len returns the number of segments.
func (d *ShapeDict) Len() int {
	return d.segments.Len()
}

// Names returns the segment names in dimension order.
func (d *ShapeDict) Names() []string {
	names := make([]string, 0, d.Len())
	for pair := d.segments.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Segments returns a copy of the segments in dimension order.
func (d *ShapeDict) Segments() []Segment {
	segs := make([]Segment, 0, d.Len())
	for pair := d.segments.Oldest(); pair != nil; pair = pair.Next() {
		segs = append(segs, Segment{Name: pair.Key, Extents: append([]int{}, pair.Value...)})
	}
	return segs
}

// Copy returns an independent ShapeDict with the same segments and order.
func (d *ShapeDict) Copy() *ShapeDict {
	return NewShapeDict(d.Segments()...)
}

// Equal reports whether both dicts hold the same segments in the same order.
func (d *ShapeDict) Equal(other *ShapeDict) bool {
	if other == nil || d.Len() != other.Len() {
		return false
	}
	a, b := d.segments.Oldest(), other.segments.Oldest()
	for ; a != nil; a, b = a.Next(), b.Next() {
		if a.Key != b.Key || !equalInts(a.Value, b.Value) {
			return false
		}
	}
	return true
}

// NumDims returns the total number of dimensions covered by all segments.
func (d *ShapeDict) NumDims() int {
	n := 0
	for pair := d.segments.Oldest(); pair != nil; pair = pair.Next() {
		n += len(pair.Value)
	}
	return n
}

// ShapeDims returns the tensor dimensions covered by a segment.
//
// Example:
//
//	d := NewShapeDict(Segment{"batch", []int{8}}, Segment{"feature", []int{3, 4}})
//	dims, _ := d.ShapeDims("feature") // [1, 2]
func (d *ShapeDict) ShapeDims(name string) ([]int, error) {
	start := 0
	for pair := d.segments.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == name {
			dims := make([]int, len(pair.Value))
			for i := range dims {
				dims[i] = start + i
			}
			return dims, nil
		}
		start += len(pair.Value)
	}
	return nil, errors.Wrapf(ErrSegmentNotFound, "%q not in %s", name, d)
}

// String formats the dict as "[name:[extents] ...]".
func (d *ShapeDict) String() string {
	parts := make([]string, 0, d.Len())
	for pair := d.segments.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, fmt.Sprintf("%s:%v", pair.Key, pair.Value))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
