// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float64 tensors that probkit containers
// and flows operate on.
//
// # Overview
//
// Tensors use shared strided storage. Permute, Unsqueeze, Select and Detach
// return views over the same data; Reshape is a view when the source is
// contiguous and a copy otherwise.
//
// # Basic Usage
//
//	x, _ := tensor.Arange(0, 24).Reshape(tensor.Shape{2, 3, 4})
//	y, _ := x.Permute(2, 0, 1)  // Shape: (4, 2, 3)
//	s, _ := x.SumDims(1, 2)     // Shape: (2)
//
// # Gradient History
//
// Tensors marked with RequireGrad record the operation that produced every
// derived tensor (GradFn, Inputs). Detach drops that history while sharing
// the data. There is no backward pass.
//
// # Value Coercion
//
// From converts Go numbers, half-precision values and numeric slices into
// tensors, and returns tensors unchanged:
//
//	a, _ := tensor.From(3)                  // 0-D
//	b, _ := tensor.From([]float32{1, 2})    // Shape: (2)
//	c, _ := tensor.From([][]float64{{1}, {2}}) // Shape: (2, 1)
package tensor
