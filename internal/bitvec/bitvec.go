// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package bitvec defines a bit vector type used to track
// slot occupancy (e.g., live particles and id tables).
package bitvec

import (
	"iter"
	"math/bits"
	"unsafe"
)

// Uint represents the granularity of a bit vector.
type Uint interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// V is a growable bit vector with custom granularity.
type V[T Uint] struct {
	s   []T
	rem int
}

// nbit returns the number of bits in T.
func (*V[T]) nbit() int { return int(unsafe.Sizeof(T(0))) * 8 }

// Len returns the number of bits in the vector.
func (v *V[_]) Len() int { return len(v.s) * v.nbit() }

// Rem returns the number of unset bits in the vector.
func (v *V[_]) Rem() int { return v.rem }

// Count returns the number of set bits in the vector.
func (v *V[_]) Count() int { return v.Len() - v.rem }

// Grow resizes the vector to contain nplus additional Uints.
// The new extent is appended as a range of unset bits.
// It returns the value of v.Len prior to the call.
func (v *V[T]) Grow(nplus int) (index int) {
	index = v.Len()
	if nplus > 0 {
		v.rem += nplus * v.nbit()
		v.s = append(v.s, make([]T, nplus)...)
	}
	return
}

// Reset discards the contents of the vector and resizes it
// to hold at least nbit bits, all of which will be unset.
// The backing storage is reused when large enough.
func (v *V[T]) Reset(nbit int) {
	n := (max(nbit, 0) + v.nbit() - 1) / v.nbit()
	if cap(v.s) >= n {
		v.s = v.s[:n]
		clear(v.s)
	} else {
		v.s = make([]T, n)
	}
	v.rem = v.Len()
}

// Set sets a given bit.
func (v *V[T]) Set(index int) {
	n := v.nbit()
	i := index / n
	b := T(1) << (index & (n - 1))
	if v.s[i]&b == 0 {
		v.s[i] |= b
		v.rem--
	}
}

// Unset unsets a given bit.
func (v *V[T]) Unset(index int) {
	n := v.nbit()
	i := index / n
	b := T(1) << (index & (n - 1))
	if v.s[i]&b != 0 {
		v.s[i] &^= b
		v.rem++
	}
}

// Assign sets or unsets a given bit.
func (v *V[T]) Assign(index int, set bool) {
	if set {
		v.Set(index)
	} else {
		v.Unset(index)
	}
}

// IsSet checks whether a given bit is set.
func (v *V[T]) IsSet(index int) bool {
	n := v.nbit()
	i := index / n
	b := T(1) << (index & (n - 1))
	return v.s[i]&b != 0
}

// Search attempts to locate an unset bit in the vector.
// If ok is true, then index is a value suitable for use in
// a call to v.Set.
// This method will fail only when v.Rem() == 0.
func (v *V[T]) Search() (index int, ok bool) {
	if v.Rem() == 0 {
		return
	}
	for i, x := range v.s {
		if x == ^T(0) {
			continue
		}
		index = i*v.nbit() + bits.TrailingZeros64(uint64(^x))
		ok = true
		break
	}
	return
}

// Clear unsets every bit in the vector.
func (v *V[T]) Clear() {
	n := v.Len()
	if n == v.Rem() {
		return
	}
	clear(v.s)
	v.rem = n
}

// All returns an iterator over all bits of the vector.
// The first value in the pair represents the index of the
// bit, while the second indicates whether the bit is set.
func (v *V[T]) All() iter.Seq2[int, bool] {
	return func(yield func(int, bool) bool) {
		n := v.nbit()
		for i, x := range v.s {
			for b := range n {
				if !yield(i*n+b, x&(1<<b) != 0) {
					return
				}
			}
		}
	}
}
