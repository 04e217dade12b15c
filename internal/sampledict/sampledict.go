// Package sampledict implements a sample container with one shared sample
// shape.
//
// The sample shape is the stack of leading sampling dimensions (Monte-Carlo
// draws, time steps, ...) that applies to every stored tensor. Merging
// containers sampled under different depths broadcasts entries by inserting
// leading singleton dimensions, so all entries always have at least the rank
// of the sample shape in their leading dimensions.
package sampledict

import (
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"

	"github.com/born-ml/probkit/internal/tensor"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"k8s.io/klog/v2"
)

// Errors returned by SampleDict operations.
var (
	ErrNotBroadcastable = errors.New("not broadcastable to sample shape")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrMissingKeys      = errors.New("missing required variables")
	ErrKeyNotFound      = errors.New("variable not found")
	ErrKeyCollision     = errors.New("variable name collision")
	ErrFromKeysDisabled = errors.New("FromKeys is not supported, use FromVariables")
	ErrNoBatchDim       = errors.New("no batch dimension")
)

// Entry is a named value. Value is anything tensor.From accepts.
type Entry struct {
	Name  string
	Value any
}

// SampleDict maps variable names to tensors that share a sample shape.
type SampleDict struct {
	values      *orderedmap.OrderedMap[string, *tensor.Tensor]
	sampleShape tensor.Shape
}

// New creates an empty SampleDict with the given sample shape.
func New(sampleShape tensor.Shape) *SampleDict {
	return &SampleDict{
		values:      orderedmap.New[string, *tensor.Tensor](),
		sampleShape: sampleShape.Clone(),
	}
}

// FromEntries creates a SampleDict and stores entries with Set.
func FromEntries(sampleShape tensor.Shape, entries ...Entry) (*SampleDict, error) {
	d := New(sampleShape)
	for _, e := range entries {
		if err := d.Set(e.Name, e.Value); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// FromMap creates a SampleDict from a map. Keys are inserted in sorted order.
func FromMap(sampleShape tensor.Shape, m map[string]any) (*SampleDict, error) {
	return FromEntries(sampleShape, mapEntries(m)...)
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

// Copy returns a new SampleDict with the same sample shape and tensors.
func (d *SampleDict) Copy() *SampleDict {
	return d.filter(func(string) bool { return true })
}

// WithSampleShape returns a copy of d under an explicit sample shape. Every
// entry must be broadcastable to it.
func (d *SampleDict) WithSampleShape(sampleShape tensor.Shape) (*SampleDict, error) {
	out := New(sampleShape)
	for name, v := range d.All() {
		if err := out.Set(name, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SampleShape returns the shared sample shape.
func (d *SampleDict) SampleShape() tensor.Shape {
	return d.sampleShape.Clone()
}

// IsBroadcastableTo reports whether from can broadcast to to.
//
// Dimensions are paired from the end; each pair must be equal or have a
// source dimension of 1. Unpaired leading dimensions are not checked.
func IsBroadcastableTo(from, to tensor.Shape) bool {
	for i, j := len(from)-1, len(to)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
		if from[i] != to[j] && from[i] != 1 {
			return false
		}
	}
	return true
}

// leading returns the first n dims of shape, or all of them if there are fewer.
func leading(shape tensor.Shape, n int) tensor.Shape {
	return shape[:min(n, len(shape))]
}

// Set converts value to a tensor and stores it under name.
//
// The leading dimensions of the value must be broadcastable to the sample
// shape. Set does not insert missing leading dimensions; use Add for that.
func (d *SampleDict) Set(name string, value any) error {
	v, err := tensor.From(value)
	if err != nil {
		return errors.WithMessagef(err, "variable %q", name)
	}
	if from := leading(v.Shape(), len(d.sampleShape)); !IsBroadcastableTo(from, d.sampleShape) {
		return errors.Wrapf(ErrNotBroadcastable, "variable %q: leading dims %v vs sample shape %v", name, from, d.sampleShape)
	}
	d.values.Set(name, v)
	return nil
}

// Add stores a single value sampled without sampling dimensions, inserting
// leading singleton dimensions to match the sample shape.
func (d *SampleDict) Add(name string, value any) error {
	return d.UpdateEntries(Entry{Name: name, Value: value})
}

// Get returns the tensor stored under name.
func (d *SampleDict) Get(name string) (*tensor.Tensor, bool) {
	return d.values.Get(name)
}

// Has reports whether name is stored.
func (d *SampleDict) Has(name string) bool {
	_, ok := d.values.Get(name)
	return ok
}

// Delete removes name and reports whether it was stored.
func (d *SampleDict) Delete(name string) bool {
	_, ok := d.values.Delete(name)
	return ok
}

// Len returns the number of variables.
func (d *SampleDict) Len() int {
	return d.values.Len()
}

// Keys returns the variable names in insertion order.
func (d *SampleDict) Keys() []string {
	keys := make([]string, 0, d.Len())
	for name := range d.All() {
		keys = append(keys, name)
	}
	return keys
}

// All iterates over variable names and tensors in insertion order.
func (d *SampleDict) All() iter.Seq2[string, *tensor.Tensor] {
	return func(yield func(string, *tensor.Tensor) bool) {
		for pair := d.values.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Update merges other into d.
//
// If other has a deeper sample shape, every entry of d gains leading
// singleton dimensions and d's sample shape grows to other's leading
// dimensions followed by d's own. If d is deeper, the incoming entries gain
// the leading singleton dimensions instead. Incoming leading dimensions must
// broadcast to the matching trailing part of the sample shape.
//
// Update is atomic: on error d is left unchanged. A nil other is a no-op.
func (d *SampleDict) Update(other *SampleDict) error {
	if other == nil {
		return nil
	}
	entries := make([]Entry, 0, other.Len())
	for name, v := range other.All() {
		entries = append(entries, Entry{Name: name, Value: v})
	}
	return d.update(other.sampleShape, entries)
}

// UpdateEntries merges values sampled without sampling dimensions.
func (d *SampleDict) UpdateEntries(entries ...Entry) error {
	return d.update(nil, entries)
}

// UpdateMap merges a map of values sampled without sampling dimensions.
func (d *SampleDict) UpdateMap(m map[string]any) error {
	return d.update(nil, mapEntries(m))
}

func (d *SampleDict) update(incoming tensor.Shape, entries []Entry) error {
	nUnsqueeze := len(d.sampleShape) - len(incoming)

	sampleShape := d.sampleShape
	if nUnsqueeze < 0 {
		sampleShape = append(incoming[:-nUnsqueeze].Clone(), d.sampleShape...)
	}
	frame := sampleShape[len(sampleShape)-len(incoming):]

	staged := make([]*tensor.Tensor, len(entries))
	for i, e := range entries {
		v, err := tensor.From(e.Value)
		if err != nil {
			return errors.WithMessagef(err, "variable %q", e.Name)
		}
		if from := leading(v.Shape(), len(incoming)); !IsBroadcastableTo(from, frame) {
			return errors.Wrapf(ErrNotBroadcastable, "variable %q: leading dims %v vs sample shape %v", e.Name, from, frame)
		}
		if nUnsqueeze > 0 {
			if v, err = v.UnsqueezeLeading(nUnsqueeze); err != nil {
				return err
			}
		}
		staged[i] = v
	}

	if nUnsqueeze < 0 {
		grown := make([]*tensor.Tensor, 0, d.Len())
		for _, v := range d.All() {
			v, err := v.UnsqueezeLeading(-nUnsqueeze)
			if err != nil {
				return err
			}
			grown = append(grown, v)
		}
		i := 0
		for pair := d.values.Oldest(); pair != nil; pair = pair.Next() {
			d.values.Set(pair.Key, grown[i])
			i++
		}
		klog.V(2).Infof("sampledict: sample shape %v -> %v, unsqueezed %d entries", d.sampleShape, sampleShape, d.Len())
		d.sampleShape = sampleShape.Clone()
	}
	for i, e := range entries {
		d.values.Set(e.Name, staged[i])
	}
	return nil
}

// FromArg normalizes arg into a SampleDict holding at least requiredKeys.
//
// arg may be:
//   - a *SampleDict, returned as is;
//   - nil, giving an empty SampleDict when no keys are required;
//   - a single tensor or number, bound to the only required key;
//   - a slice of values, bound positionally to requiredKeys;
//   - a map[string]any or map[string]*tensor.Tensor.
func FromArg(arg any, requiredKeys []string) (*SampleDict, error) {
	switch a := arg.(type) {
	case nil:
		if len(requiredKeys) > 0 {
			return nil, errors.Wrapf(ErrMissingKeys, "got nil, need %v", requiredKeys)
		}
		return New(nil), nil
	case *SampleDict:
		if a == nil {
			return FromArg(nil, requiredKeys)
		}
		if err := checkKeys(a.Has, requiredKeys); err != nil {
			return nil, err
		}
		return a, nil
	case map[string]any:
		if err := checkKeys(mapHas(a), requiredKeys); err != nil {
			return nil, err
		}
		d, err := FromMap(nil, a)
		if err != nil {
			return nil, invalidArgument(err)
		}
		return d, nil
	case map[string]*tensor.Tensor:
		m := make(map[string]any, len(a))
		for k, v := range a {
			m[k] = v
		}
		return FromArg(m, requiredKeys)
	case []any:
		return positional(a, requiredKeys)
	case []*tensor.Tensor:
		return positional(toAny(a), requiredKeys)
	case []float64:
		return positional(toAny(a), requiredKeys)
	case []float32:
		return positional(toAny(a), requiredKeys)
	case []int:
		return positional(toAny(a), requiredKeys)
	}
	if _, err := tensor.From(arg); err != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "cannot build a SampleDict from %T", arg)
	}
	return positional([]any{arg}, requiredKeys)
}

func positional(values []any, keys []string) (*SampleDict, error) {
	if len(values) != len(keys) {
		return nil, errors.Wrapf(ErrInvalidArgument, "got %d values for variables %v", len(values), keys)
	}
	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = Entry{Name: k, Value: values[i]}
	}
	d, err := FromEntries(nil, entries...)
	if err != nil {
		return nil, invalidArgument(err)
	}
	return d, nil
}

// invalidArgument marks err as ErrInvalidArgument and keeps it in the chain.
func invalidArgument(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
}

func checkKeys(has func(string) bool, keys []string) error {
	var missing []string
	for _, k := range keys {
		if !has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrMissingKeys, "%v", missing)
	}
	return nil
}

func mapHas(m map[string]any) func(string) bool {
	return func(k string) bool {
		_, ok := m[k]
		return ok
	}
}

func toAny[S any](in []S) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// FromKeys is not supported. Build a SampleDict with FromEntries or derive
// one with FromVariables.
func (d *SampleDict) FromKeys([]string, any) (*SampleDict, error) {
	return nil, ErrFromKeysDisabled
}

// FromVariables returns the variables named in names, in d's order.
// Names that are not stored are skipped.
func (d *SampleDict) FromVariables(names []string) *SampleDict {
	return d.filter(func(k string) bool { return slices.Contains(names, k) })
}

// Split returns the variables named in names and the remaining ones.
func (d *SampleDict) Split(names []string) (selected, rest *SampleDict) {
	return d.FromVariables(names), d.filter(func(k string) bool { return !slices.Contains(names, k) })
}

func (d *SampleDict) filter(keep func(string) bool) *SampleDict {
	out := New(d.sampleShape)
	for name, v := range d.All() {
		if keep(name) {
			out.values.Set(name, v)
		}
	}
	return out
}

// ReplacedDict renames the variables found in replace and keeps the others.
// Two variables ending up with the same name is an error.
func (d *SampleDict) ReplacedDict(replace map[string]string) (*SampleDict, error) {
	out := New(d.sampleShape)
	for name, v := range d.All() {
		target := name
		if renamed, ok := replace[name]; ok {
			target = renamed
		}
		if err := out.insertUnique(target, name, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SplitByReplaceKeys returns the variables found in replace under their new
// names and the remaining variables under their original names.
func (d *SampleDict) SplitByReplaceKeys(replace map[string]string) (replaced, remain *SampleDict, err error) {
	replaced, remain = New(d.sampleShape), New(d.sampleShape)
	for name, v := range d.All() {
		renamed, ok := replace[name]
		if !ok {
			remain.values.Set(name, v)
			continue
		}
		if err := replaced.insertUnique(renamed, name, v); err != nil {
			return nil, nil, err
		}
	}
	return replaced, remain, nil
}

func (d *SampleDict) insertUnique(name, from string, v *tensor.Tensor) error {
	if d.Has(name) {
		return errors.Wrapf(ErrKeyCollision, "renaming %q to %q", from, name)
	}
	d.values.Set(name, v)
	return nil
}

// Detach returns a new SampleDict with every tensor detached from gradient
// history.
func (d *SampleDict) Detach() *SampleDict {
	out := New(d.sampleShape)
	for name, v := range d.All() {
		out.values.Set(name, v.Detach())
	}
	return out
}

// FeatureShape returns the dimensions of a variable after the sample shape,
// excluding its last dimension.
func (d *SampleDict) FeatureShape(name string) (tensor.Shape, error) {
	v, ok := d.values.Get(name)
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "%q", name)
	}
	shape := v.Shape()
	start, end := len(d.sampleShape), len(shape)-1
	if end <= start {
		return tensor.Shape{}, nil
	}
	return shape[start:end], nil
}

// BatchSize returns the dimension of a variable at the last sample-shape
// position.
func (d *SampleDict) BatchSize(name string) (int, error) {
	v, ok := d.values.Get(name)
	if !ok {
		return 0, errors.Wrapf(ErrKeyNotFound, "%q", name)
	}
	idx := len(d.sampleShape) - 1
	if idx < 0 || idx >= v.Dim() {
		return 0, errors.Wrapf(ErrNoBatchDim, "variable %q with shape %v, sample shape %v", name, v.Shape(), d.sampleShape)
	}
	return v.Shape()[idx], nil
}

// String formats the dict as "{name: tensor, ...} --(sample_shape=(...))".
func (d *SampleDict) String() string {
	parts := make([]string, 0, d.Len())
	for name, v := range d.All() {
		parts = append(parts, name+": "+v.String())
	}
	return "{" + strings.Join(parts, ", ") + "} --(sample_shape=" + d.sampleShape.String() + ")"
}
