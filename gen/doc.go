// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package gen contains generators for common
// kinds of formulas.
//
// Package gen also generates random graphs, distance atoms and
// 0L-systems, for testing theories against brute force.
package gen
