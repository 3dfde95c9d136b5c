// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package idmap implements storage of values addressed by
// stable identifiers.
// Values are kept contiguous so that iteration is cheap;
// identifiers remain valid until removed.
package idmap

import (
	"github.com/gviegas/gfxbench/internal/bitvec"
)

// entry is what a Map stores.
type entry[D any] struct {
	data D
	id   int
}

// Map stores data of type D with identifiers of type I.
// The zero value is an empty map ready for use.
type Map[I ~int, D any] struct {
	ids   []int
	idMap bitvec.V[uint32]
	data  []entry[D]
}

// Insert inserts data into m.
// It returns an I value that identifies data in m.
// Identifiers are reused after removal, lowest first.
func (m *Map[I, D]) Insert(data D) I {
	if m.idMap.Rem() == 0 {
		n := max(1, len(m.ids)/32)
		m.ids = append(m.ids, make([]int, n*32)...)
		m.idMap.Grow(n)
	}
	idx, ok := m.idMap.Search()
	if !ok {
		// Should never happen.
		panic("idmap: unexpected failure from bitvec.V.Search")
	}
	m.idMap.Set(idx)
	m.ids[idx] = len(m.data)
	m.data = append(m.data, entry[D]{data, idx})
	return I(idx)
}

// Remove removes the data identified by id.
// It returns the removed data.
// id must belong to m.
func (m *Map[I, D]) Remove(id I) D {
	d := m.ids[id]
	data := m.data[d].data
	last := len(m.data) - 1
	if d < last {
		swap := m.data[last].id
		m.ids[swap] = d
		m.data[d] = m.data[last]
	}
	m.ids[id] = -1
	m.idMap.Unset(int(id))
	m.data[last] = entry[D]{}
	m.data = m.data[:last]
	return data
}

// Contains returns whether id belongs to m.
func (m *Map[I, _]) Contains(id I) bool {
	return id >= 0 && int(id) < m.idMap.Len() && m.idMap.IsSet(int(id))
}

// Get returns a pointer to the data identified by id.
// id must belong to m.
func (m *Map[I, D]) Get(id I) *D { return &m.data[m.ids[id]].data }

// Len returns the number of values stored in m.
func (m *Map[_, _]) Len() int { return len(m.data) }

// All calls f for every value in m, in storage order,
// until f returns false.
// Storage order is insertion order as long as nothing
// is removed.
func (m *Map[I, D]) All(f func(I, *D) bool) {
	for i := range m.data {
		if !f(I(m.data[i].id), &m.data[i].data) {
			return
		}
	}
}
