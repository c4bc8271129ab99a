// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package calculator provides the integer arithmetic exercised by the
// coverage tooling.
//
// All functions are pure and safe for concurrent use. Sums and quotients
// follow Go's two's-complement wraparound for int32: Add(math.MaxInt32, 1)
// is math.MinInt32. Use CheckedAdd when overflow must be detected.
package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned by CheckedAdd when the sum does not fit in an int32.
var ErrOverflow = errors.New("int32 overflow")

// Add returns the sum of a and b, wrapping on overflow.
func Add(a, b int32) int32 {
	return a + b
}

// MaybeDiv returns the quotient of a and b truncated toward zero.
// The boolean is false when b is zero.
func MaybeDiv(a, b int32) (int32, bool) {
	if b == 0 {
		return 0, false
	}
	return a / b, true
}

// CheckedAdd returns the sum of a and b, or ErrOverflow if it is outside the int32 range.
func CheckedAdd(a, b int32) (int32, error) {
	sum := int64(a) + int64(b)
	if sum > math.MaxInt32 || sum < math.MinInt32 {
		return 0, fmt.Errorf("add %d + %d: %w", a, b, ErrOverflow)
	}
	return int32(sum), nil
}
