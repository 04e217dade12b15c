// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sampledict provides a sample container whose entries share one
// sample shape.
//
// The sample shape is the stack of leading sampling dimensions applied to
// every entry. Merging containers of different depths inserts leading
// singleton dimensions so that all entries stay aligned.
//
// Example:
//
//	prior, _ := sampledict.FromEntries(nil, sampledict.Entry{Name: "z", Value: tensor.Zeros(tensor.Shape{2, 3, 4})})
//	draws, _ := sampledict.FromEntries(tensor.Shape{3, 4}, sampledict.Entry{Name: "x", Value: tensor.Zeros(tensor.Shape{3, 4, 2, 3, 4})})
//	_ = prior.Update(draws) // sample shape (3, 4); z now has shape (1, 1, 2, 3, 4)
package sampledict

import (
	"github.com/born-ml/probkit/internal/sampledict"
	"github.com/born-ml/probkit/internal/tensor"
)

// Errors returned by SampleDict operations.
var (
	ErrNotBroadcastable = sampledict.ErrNotBroadcastable
	ErrInvalidArgument  = sampledict.ErrInvalidArgument
	ErrMissingKeys      = sampledict.ErrMissingKeys
	ErrKeyNotFound      = sampledict.ErrKeyNotFound
	ErrKeyCollision     = sampledict.ErrKeyCollision
	ErrFromKeysDisabled = sampledict.ErrFromKeysDisabled
	ErrNoBatchDim       = sampledict.ErrNoBatchDim
)

// Entry is a named value.
type Entry = sampledict.Entry

// SampleDict maps variable names to tensors that share a sample shape.
type SampleDict = sampledict.SampleDict

// New creates an empty SampleDict with the given sample shape.
func New(sampleShape tensor.Shape) *SampleDict {
	return sampledict.New(sampleShape)
}

// FromEntries creates a SampleDict holding entries in order.
func FromEntries(sampleShape tensor.Shape, entries ...Entry) (*SampleDict, error) {
	return sampledict.FromEntries(sampleShape, entries...)
}

// FromMap creates a SampleDict from m, inserting keys in sorted order.
func FromMap(sampleShape tensor.Shape, m map[string]any) (*SampleDict, error) {
	return sampledict.FromMap(sampleShape, m)
}

// FromArg normalizes a distribution argument into a SampleDict holding at
// least requiredKeys.
func FromArg(arg any, requiredKeys []string) (*SampleDict, error) {
	return sampledict.FromArg(arg, requiredKeys)
}

// IsBroadcastableTo reports whether from can broadcast to to.
func IsBroadcastableTo(from, to tensor.Shape) bool {
	return sampledict.IsBroadcastableTo(from, to)
}
