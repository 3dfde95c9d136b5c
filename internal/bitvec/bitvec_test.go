// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bitvec

import (
	"testing"
	"unsafe"
)

func TestNbit(t *testing.T) {
	for _, x := range [...][2]int{
		{int(unsafe.Sizeof(uint(0))) * 8, (&V[uint]{}).nbit()},
		{int(unsafe.Sizeof(uint8(0))) * 8, (&V[uint8]{}).nbit()},
		{int(unsafe.Sizeof(uint16(0))) * 8, (&V[uint16]{}).nbit()},
		{int(unsafe.Sizeof(uint32(0))) * 8, (&V[uint32]{}).nbit()},
		{int(unsafe.Sizeof(uint64(0))) * 8, (&V[uint64]{}).nbit()},
	} {
		if x[0] != x[1] {
			t.Fatalf("V[T].nbit:\nhave %d\nwant %d", x[0], x[1])
		}
	}
}

func TestZero(t *testing.T) {
	var v16 V[uint16]
	if n := v16.Len(); n != 0 {
		t.Fatalf("v16.Len:\nhave %d\nwant 0", n)
	}
	if n := v16.Rem(); n != 0 {
		t.Fatalf("v16.Rem:\nhave %d\nwant 0", n)
	}
	if _, ok := v16.Search(); ok {
		t.Fatal("v16.Search:\nhave true\nwant false")
	}
}

func TestGrow(t *testing.T) {
	var v32 V[uint32]
	for _, x := range [...]struct {
		nplus, wantLen int
	}{
		{1, 32},
		{2, 96},
		{0, 96},
		{-1, 96},
		{16, 608},
	} {
		if n, i := v32.Len(), v32.Grow(x.nplus); n != i {
			t.Fatalf("v32.Grow:\nhave %d\nwant %d", i, n)
		}
		if n := v32.Len(); n != x.wantLen {
			t.Fatalf("v32.Grow: Len:\nhave %d\nwant %d", n, x.wantLen)
		}
		if n := v32.Rem(); n != x.wantLen {
			t.Fatalf("v32.Grow: Rem:\nhave %d\nwant %d", n, x.wantLen)
		}
	}
}

func TestReset(t *testing.T) {
	var v8 V[uint8]
	for _, x := range [...]struct {
		nbit, wantLen int
	}{
		{0, 0},
		{1, 8},
		{8, 8},
		{9, 16},
		{100, 104},
		{3, 8},
		{-5, 0},
	} {
		v8.Reset(x.nbit)
		if n := v8.Len(); n != x.wantLen {
			t.Fatalf("v8.Reset(%d): Len:\nhave %d\nwant %d", x.nbit, n, x.wantLen)
		}
		if n := v8.Rem(); n != x.wantLen {
			t.Fatalf("v8.Reset(%d): Rem:\nhave %d\nwant %d", x.nbit, n, x.wantLen)
		}
		if v8.Len() > 0 {
			v8.Set(v8.Len() - 1)
		}
	}
}

func TestSetUnset(t *testing.T) {
	var v8 V[uint8]
	v8.Grow(2)
	v8.Set(6)
	if v8.s[0] != 0x40 {
		t.Fatalf("v8.s[0]:\nhave 0x%x\nwant 0x40", v8.s[0])
	}
	v8.Set(6)
	v8.Set(9)
	if v8.s[1] != 0x02 {
		t.Fatalf("v8.s[1]:\nhave 0x%x\nwant 0x02", v8.s[1])
	}
	if n := v8.Count(); n != 2 {
		t.Fatalf("v8.Count:\nhave %d\nwant 2", n)
	}
	v8.Unset(6)
	v8.Unset(6)
	if n := v8.Rem(); n != 15 {
		t.Fatalf("v8.Rem:\nhave %d\nwant 15", n)
	}
	v8.Assign(3, true)
	v8.Assign(9, false)
	if !v8.IsSet(3) || v8.IsSet(9) {
		t.Fatal("v8.Assign: unexpected bit state")
	}
}

func TestSearch(t *testing.T) {
	var v64 V[uint64]
	v64.Grow(2)
	for i := range 70 {
		idx, ok := v64.Search()
		if !ok || idx != i {
			t.Fatalf("v64.Search:\nhave %d, %t\nwant %d, true", idx, ok, i)
		}
		v64.Set(idx)
	}
	v64.Unset(5)
	if idx, _ := v64.Search(); idx != 5 {
		t.Fatalf("v64.Search:\nhave %d\nwant 5", idx)
	}
	for i := range v64.Len() {
		v64.Set(i)
	}
	if _, ok := v64.Search(); ok {
		t.Fatal("v64.Search: full vector\nhave true\nwant false")
	}
}

func TestClearAll(t *testing.T) {
	var v16 V[uint16]
	v16.Grow(2)
	want := map[int]bool{0: true, 7: true, 15: true, 31: true}
	for i := range want {
		v16.Set(i)
	}
	for i, set := range v16.All() {
		if set != want[i] {
			t.Fatalf("v16.All: bit %d\nhave %t\nwant %t", i, set, want[i])
		}
	}
	v16.Clear()
	if n := v16.Rem(); n != v16.Len() {
		t.Fatalf("v16.Clear: Rem:\nhave %d\nwant %d", n, v16.Len())
	}
	for i, set := range v16.All() {
		if set {
			t.Fatalf("v16.Clear: bit %d still set", i)
		}
	}
}
