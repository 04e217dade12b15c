package sample

import (
	"iter"
	"slices"
	"sort"
	"strings"

	"github.com/born-ml/probkit/internal/tensor"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entry is a named value used to build a SampleDict.
// Value is a *Sample or anything tensor.From accepts.
type Entry struct {
	Name  string
	Value any
}

// SampleDict maps variable names to Samples in insertion order.
//
// Derived dicts returned by filtering, slicing and renaming are independent
// containers; they may share Sample values with their source.
type SampleDict struct {
	samples *orderedmap.OrderedMap[string, *Sample]
}

// NewSampleDict builds a SampleDict from entries. Values that are not
// Samples are wrapped with their default ShapeDict.
func NewSampleDict(entries ...Entry) (*SampleDict, error) {
	d := &SampleDict{samples: orderedmap.New[string, *Sample]()}
	for _, e := range entries {
		if err := d.Set(e.Name, e.Value); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// FromMap builds a SampleDict from a map. Keys are inserted in sorted order.
func FromMap(m map[string]any) (*SampleDict, error) {
	return NewSampleDict(mapEntries(m)...)
}

func mapEntries(m map[string]any) []Entry {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = Entry{Name: k, Value: m[k]}
	}
	return entries
}

func newEmpty() *SampleDict {
	return &SampleDict{samples: orderedmap.New[string, *Sample]()}
}

func toSample(value any) (*Sample, error) {
	if s, ok := value.(*Sample); ok && s != nil {
		return s, nil
	}
	return NewSample(value, nil)
}

// Copy returns a new SampleDict holding the same Samples.
func (d *SampleDict) Copy() *SampleDict {
	return d.filter(func(string) bool { return true })
}

// Set stores value under name, wrapping it in a Sample with the default
// ShapeDict unless it already is one.
func (d *SampleDict) Set(name string, value any) error {
	s, err := toSample(value)
	if err != nil {
		return errors.WithMessagef(err, "variable %q", name)
	}
	d.samples.Set(name, s)
	return nil
}

// Get returns the tensor stored under name.
func (d *SampleDict) Get(name string) (*tensor.Tensor, bool) {
	s, ok := d.samples.Get(name)
	if !ok {
		return nil, false
	}
	return s.value, true
}

// Sample returns the Sample stored under name.
func (d *SampleDict) Sample(name string) (*Sample, bool) {
	return d.samples.Get(name)
}

// Shape returns the ShapeDict of the Sample stored under name.
func (d *SampleDict) Shape(name string) (*ShapeDict, bool) {
	s, ok := d.samples.Get(name)
	if !ok {
		return nil, false
	}
	return s.shape, true
}

// Has reports whether name is stored.
func (d *SampleDict) Has(name string) bool {
	_, ok := d.samples.Get(name)
	return ok
}

// Len returns the number of variables.
func (d *SampleDict) Len() int {
	return d.samples.Len()
}

// Keys returns the variable names in insertion order.
func (d *SampleDict) Keys() []string {
	keys := make([]string, 0, d.Len())
	for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// All iterates over variable names and tensors in insertion order.
func (d *SampleDict) All() iter.Seq2[string, *tensor.Tensor] {
	return func(yield func(string, *tensor.Tensor) bool) {
		for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value.value) {
				return
			}
		}
	}
}

// Values returns the tensors in insertion order.
func (d *SampleDict) Values() []*tensor.Tensor {
	values := make([]*tensor.Tensor, 0, d.Len())
	for _, v := range d.All() {
		values = append(values, v)
	}
	return values
}

// Equal reports whether both dicts map the same names to the same Samples.
// Order is not significant.
func (d *SampleDict) Equal(other *SampleDict) bool {
	if other == nil || d.Len() != other.Len() {
		return false
	}
	for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
		s, ok := other.samples.Get(pair.Key)
		if !ok || s != pair.Value {
			return false
		}
	}
	return true
}

// String formats the dict as "{name: sample, ...}".
func (d *SampleDict) String() string {
	parts := make([]string, 0, d.Len())
	for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, pair.Key+": "+pair.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Add stores value under name with an explicit shape.
//
// shape may be nil (default inference), a *ShapeDict or a []Segment.
func (d *SampleDict) Add(name string, value any, shape any) error {
	var sd *ShapeDict
	switch s := shape.(type) {
	case nil:
	case *ShapeDict:
		sd = s
	case []Segment:
		sd = NewShapeDict(s...)
	default:
		return errors.Wrapf(ErrInvalidShapeDict, "variable %q: cannot use %T as a shape dict", name, shape)
	}
	s, err := NewSample(value, sd)
	if err != nil {
		return errors.WithMessagef(err, "variable %q", name)
	}
	d.samples.Set(name, s)
	return nil
}

// Update merges variables into d, overwriting on name collision.
//
// variables may be a *SampleDict, a map[string]any or a []Entry. No entry is
// stored unless every value converts.
func (d *SampleDict) Update(variables any) error {
	var other *SampleDict
	var err error
	switch v := variables.(type) {
	case *SampleDict:
		if v == nil {
			return errors.Wrap(ErrInvalidArgument, "cannot update from a nil SampleDict")
		}
		other = v
	case map[string]any:
		other, err = FromMap(v)
	case []Entry:
		other, err = NewSampleDict(v...)
	default:
		return errors.Wrapf(ErrInvalidArgument, "cannot update from %T", variables)
	}
	if err != nil {
		return err
	}
	for pair := other.samples.Oldest(); pair != nil; pair = pair.Next() {
		d.samples.Set(pair.Key, pair.Value)
	}
	return nil
}

// Detach returns a new SampleDict with every Sample detached.
func (d *SampleDict) Detach() *SampleDict {
	out := newEmpty()
	for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
		out.samples.Set(pair.Key, pair.Value.Detach())
	}
	return out
}

// Slice applies Sample.Slice to every variable. It fails if any variable
// lacks the segment.
func (d *SampleDict) Slice(name string, index ...int) (*SampleDict, error) {
	out := newEmpty()
	for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
		s, err := pair.Value.Slice(name, index...)
		if err != nil {
			return nil, errors.WithMessagef(err, "variable %q", pair.Key)
		}
		out.samples.Set(pair.Key, s)
	}
	return out, nil
}

// DictFromKeys returns the variables named in names, in d's order.
// Names that are not stored are skipped.
//
// Example:
//
//	d, _ := FromMap(map[string]any{"a": 1, "b": 2, "c": 3})
//	d.DictFromKeys([]string{"b", "d"}) // {b: tensor(2) --(shape=[])}
func (d *SampleDict) DictFromKeys(names []string) *SampleDict {
	return d.filter(func(k string) bool { return slices.Contains(names, k) })
}

// TensorsFromKeys returns the tensors of the variables named in names, in d's
// order. Names that are not stored are skipped.
func (d *SampleDict) TensorsFromKeys(names []string) []*tensor.Tensor {
	return d.DictFromKeys(names).Values()
}

// DictExceptForKeys returns the variables not named in names.
func (d *SampleDict) DictExceptForKeys(names []string) *SampleDict {
	return d.filter(func(k string) bool { return !slices.Contains(names, k) })
}

func (d *SampleDict) filter(keep func(string) bool) *SampleDict {
	out := newEmpty()
	for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
		if keep(pair.Key) {
			out.samples.Set(pair.Key, pair.Value)
		}
	}
	return out
}

// DictWithReplacedKeys renames the variables found in replace and keeps the
// others unchanged. Two variables ending up with the same name is an error.
//
// Example:
//
//	d.DictWithReplacedKeys(map[string]string{"a": "x", "e": "y"}) // {x, b, c}
func (d *SampleDict) DictWithReplacedKeys(replace map[string]string) (*SampleDict, error) {
	out := newEmpty()
	for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
		name := pair.Key
		if renamed, ok := replace[name]; ok {
			name = renamed
		}
		if err := out.insertUnique(name, pair.Key, pair.Value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SplitByReplaceKeys returns the variables found in replace under their new
// names, and the remaining variables under their original names.
func (d *SampleDict) SplitByReplaceKeys(replace map[string]string) (replaced, remain *SampleDict, err error) {
	replaced, remain = newEmpty(), newEmpty()
	for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
		renamed, ok := replace[pair.Key]
		if !ok {
			remain.samples.Set(pair.Key, pair.Value)
			continue
		}
		if err := replaced.insertUnique(renamed, pair.Key, pair.Value); err != nil {
			return nil, nil, err
		}
	}
	return replaced, remain, nil
}

func (d *SampleDict) insertUnique(name, from string, s *Sample) error {
	if d.Has(name) {
		return errors.Wrapf(ErrKeyCollision, "renaming %q to %q", from, name)
	}
	d.samples.Set(name, s)
	return nil
}

// MaxShape reconciles the ShapeDicts of all variables, aligned from the last
// segment backwards.
//
// Variables with fewer segments simply do not take part at the leading
// positions. At every shared position the segment names must agree. A
// zero-length segment on either side takes the other side's extents. Equal
// length extents merge to their element-wise maximum, not to the first
// variable's extents. Any other length difference is an error.
//
// Example:
//
//	// [feature:[5]] and [batch:[1] feature:[5]]
//	d.MaxShape() // [batch:[1] feature:[5]]
func (d *SampleDict) MaxShape() (*ShapeDict, error) {
	var result []Segment // result[i] is the i-th segment from the right
	for pair := d.samples.Oldest(); pair != nil; pair = pair.Next() {
		segs := pair.Value.shape.Segments()
		for i := range segs {
			seg := segs[len(segs)-1-i]
			if len(result) <= i {
				result = append(result, seg)
				continue
			}
			merged, err := mergeSegment(result[i], seg)
			if err != nil {
				return nil, errors.WithMessagef(err, "variable %q", pair.Key)
			}
			result[i] = merged
		}
	}
	slices.Reverse(result)
	return NewShapeDict(result...), nil
}

func mergeSegment(have, next Segment) (Segment, error) {
	if have.Name != next.Name {
		return Segment{}, errors.Wrapf(ErrShapeConflict, "segment %q aligned with %q", next.Name, have.Name)
	}
	switch {
	case len(have.Extents) == 0:
		return next, nil
	case len(next.Extents) == 0:
		return have, nil
	case len(have.Extents) != len(next.Extents):
		return Segment{}, errors.Wrapf(ErrShapeConflict, "segment %q has extents %v and %v", have.Name, have.Extents, next.Extents)
	}
	extents := make([]int, len(have.Extents))
	for i := range extents {
		extents[i] = max(have.Extents[i], next.Extents[i])
	}
	return Segment{Name: have.Name, Extents: extents}, nil
}

// FeatureShape returns the feature extents of a variable.
func (d *SampleDict) FeatureShape(name string) ([]int, error) {
	s, ok := d.samples.Get(name)
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "%q", name)
	}
	return s.FeatureShape()
}

// NBatch returns the batch size of a variable.
func (d *SampleDict) NBatch(name string) (int, error) {
	s, ok := d.samples.Get(name)
	if !ok {
		return 0, errors.Wrapf(ErrKeyNotFound, "%q", name)
	}
	return s.NBatch()
}
