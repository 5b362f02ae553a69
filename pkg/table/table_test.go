/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package table

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/stackedboxes/lumalang/pkg/bytecode"
)

// Tests basic setting and getting.
func TestTableSetGet(t *testing.T) {
	tbl := New()
	assert.Equal(t, 0, tbl.Len())

	_, ok := tbl.Get("x")
	assert.False(t, ok)

	isNew := tbl.Set("x", bytecode.NewValueNumber(171.0))
	assert.True(t, isNew)
	assert.Equal(t, 1, tbl.Len())

	v, ok := tbl.Get("x")
	require.True(t, ok)
	assert.Equal(t, 171.0, v.AsNumber())

	// Overwriting is not a new key.
	isNew = tbl.Set("x", bytecode.NewValueString("turtles"))
	assert.False(t, isNew)
	assert.Equal(t, 1, tbl.Len())

	v, ok = tbl.Get("x")
	require.True(t, ok)
	assert.Equal(t, "turtles", v.AsString())

	// A key that was never set remains absent.
	_, ok = tbl.Get("y")
	assert.False(t, ok)
}

// Tests that nil values are storable and distinguishable from absent keys.
func TestTableNilValue(t *testing.T) {
	tbl := New()
	tbl.Set("x", bytecode.NewValueNil())

	v, ok := tbl.Get("x")
	assert.True(t, ok)
	assert.True(t, v.IsNil())

	_, ok = tbl.Get("y")
	assert.False(t, ok)
}

// Tests lookup correctness under resizing: insert lots of distinct keys, then
// read them all back. Each must yield the last-written value.
func TestTableResize(t *testing.T) {
	const numKeys = 1000

	tbl := New()
	for i := 0; i < numKeys; i++ {
		isNew := tbl.Set(fmt.Sprintf("key%v", i), bytecode.NewValueNumber(float64(i)))
		assert.True(t, isNew)
	}
	require.Equal(t, numKeys, tbl.Len())

	// Overwrite a scattering of them.
	for i := 0; i < numKeys; i += 7 {
		isNew := tbl.Set(fmt.Sprintf("key%v", i), bytecode.NewValueNumber(float64(-i)))
		assert.False(t, isNew)
	}
	require.Equal(t, numKeys, tbl.Len())

	for i := 0; i < numKeys; i++ {
		v, ok := tbl.Get(fmt.Sprintf("key%v", i))
		require.True(t, ok)

		expected := float64(i)
		if i%7 == 0 {
			expected = float64(-i)
		}
		assert.Equal(t, expected, v.AsNumber())
	}
}

// Tests that insertion order doesn't matter.
func TestTableInsertionOrder(t *testing.T) {
	keys := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
		"golf", "hotel", "india", "juliett", "kilo", "lima"}

	forward := New()
	for i, k := range keys {
		forward.Set(k, bytecode.NewValueNumber(float64(i)))
	}

	backward := New()
	for i := len(keys) - 1; i >= 0; i-- {
		backward.Set(keys[i], bytecode.NewValueNumber(float64(i)))
	}

	for i, k := range keys {
		vf, okf := forward.Get(k)
		vb, okb := backward.Get(k)
		require.True(t, okf)
		require.True(t, okb)
		assert.Equal(t, float64(i), vf.AsNumber())
		assert.Equal(t, float64(i), vb.AsNumber())
	}
}
