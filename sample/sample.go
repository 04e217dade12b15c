// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sample provides shape-tagged samples and the SampleDict that
// passes them between probabilistic distributions.
//
// Every Sample pairs a tensor with a ShapeDict: an ordered list of named
// segments ("time", "batch", "feature", ...) that partitions the tensor's
// dimensions from left to right.
//
// Example:
//
//	x, _ := tensor.Arange(0, 30).Reshape(tensor.Shape{5, 2, 3})
//	d, _ := sample.NewSampleDict()
//	_ = d.Add("x", x, []sample.Segment{
//	    {Name: sample.SegmentTime, Extents: []int{5}},
//	    {Name: sample.SegmentBatch, Extents: []int{2}},
//	    {Name: sample.SegmentFeature, Extents: []int{3}},
//	})
//	step, _ := d.Slice("", 1) // time step 1, x has shape (2, 3)
package sample

import (
	"github.com/born-ml/probkit/internal/sample"
)

// Segment names with built-in meaning.
const (
	SegmentBatch   = sample.SegmentBatch
	SegmentFeature = sample.SegmentFeature
	SegmentTime    = sample.SegmentTime
)

// Errors returned by samples and sample dicts.
var (
	ErrSegmentNotFound  = sample.ErrSegmentNotFound
	ErrDimMismatch      = sample.ErrDimMismatch
	ErrInvalidShapeDict = sample.ErrInvalidShapeDict
	ErrInvalidArgument  = sample.ErrInvalidArgument
	ErrKeyNotFound      = sample.ErrKeyNotFound
	ErrKeyCollision     = sample.ErrKeyCollision
	ErrShapeConflict    = sample.ErrShapeConflict
)

// Segment is a named run of dimension extents.
type Segment = sample.Segment

// ShapeDict is an ordered mapping from segment names to extents.
type ShapeDict = sample.ShapeDict

// Sample is a tensor paired with its ShapeDict.
type Sample = sample.Sample

// Entry is a named value for NewSampleDict.
type Entry = sample.Entry

// SampleDict maps variable names to samples.
type SampleDict = sample.SampleDict

// NewShapeDict creates a ShapeDict holding segments in order.
func NewShapeDict(segments ...Segment) *ShapeDict {
	return sample.NewShapeDict(segments...)
}

// NewSample creates a Sample. A nil or empty shape selects the default layout
// for the value's rank.
func NewSample(value any, shape *ShapeDict) (*Sample, error) {
	return sample.NewSample(value, shape)
}

// NewSampleDict creates a SampleDict from entries in order.
func NewSampleDict(entries ...Entry) (*SampleDict, error) {
	return sample.NewSampleDict(entries...)
}

// FromMap creates a SampleDict from m, inserting keys in sorted order.
func FromMap(m map[string]any) (*SampleDict, error) {
	return sample.FromMap(m)
}
