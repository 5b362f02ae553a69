/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package table

import (
	"hash/fnv"
	"io"

	"gitlab.com/stackedboxes/lumalang/pkg/bytecode"
)

const (
	// minCapacity is the capacity the entry array grows to on the first
	// insertion.
	minCapacity = 8

	// maxLoadFactor is the fraction of the entry array that can be filled
	// before we grow it.
	maxLoadFactor = 0.75
)

// A Table is a hash table mapping string keys to Luma values. It is used for
// the VM's globals. The implementation is open addressing with linear probing
// and an FNV-1a hash of the key.
//
// Keys are borrowed: the table assumes they outlive it, which holds for
// globals because every global name is a constant pool string owned by a
// chunk.
type Table struct {
	// count is the number of keys stored in the table.
	count int

	// entries is the entry array. Its length is the table capacity, which is
	// always a power of two (or zero, before the first insertion).
	entries []entry
}

// entry is one slot of the entry array.
type entry struct {
	key    string
	value  bytecode.Value
	filled bool
}

// New creates a new, empty Table.
func New() *Table {
	return &Table{}
}

// Len returns the number of keys stored in the table.
func (t *Table) Len() int {
	return t.count
}

// Get looks up a key. Returns the stored value and whether the key was found
// at all.
func (t *Table) Get(key string) (bytecode.Value, bool) {
	if t.count == 0 {
		return bytecode.Value{}, false
	}

	e := &t.entries[t.findEntry(t.entries, key)]
	if !e.filled {
		return bytecode.Value{}, false
	}

	return e.value, true
}

// Set stores a value under a key, overwriting any previous value. Returns
// whether the key is new (that is, whether it was absent before this call).
func (t *Table) Set(key string, value bytecode.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoadFactor {
		capacity := minCapacity
		if len(t.entries) >= minCapacity {
			capacity = len(t.entries) * 2
		}
		t.adjustCapacity(capacity)
	}

	e := &t.entries[t.findEntry(t.entries, key)]
	isNewKey := !e.filled
	if isNewKey {
		t.count++
	}

	e.key = key
	e.value = value
	e.filled = true
	return isNewKey
}

// findEntry returns the index into entries where key is stored or, if key is
// absent, the index of the empty slot where it would be inserted. Assumes that
// entries has at least one empty slot (guaranteed by the load factor cap).
func (t *Table) findEntry(entries []entry, key string) int {
	index := int(hashString(key) % uint32(len(entries)))

	for {
		e := &entries[index]
		if !e.filled || e.key == key {
			return index
		}
		index = (index + 1) % len(entries)
	}
}

// adjustCapacity grows the entry array to a given capacity, reinserting every
// filled entry. The old array is discarded.
func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)

	for i := range t.entries {
		src := &t.entries[i]
		if !src.filled {
			continue
		}
		dest := &entries[t.findEntry(entries, src.key)]
		*dest = *src
	}

	t.entries = entries
}

// hashString computes the FNV-1a hash of a string (32-bit flavor: offset basis
// 2166136261, prime 16777619).
func hashString(key string) uint32 {
	h := fnv.New32a()
	_, _ = io.WriteString(h, key)
	return h.Sum32()
}
