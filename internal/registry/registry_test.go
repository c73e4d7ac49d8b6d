package registry

import (
	"fmt"
	"testing"

	"packview/internal/layout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_EmptyHasNoSideEffect(t *testing.T) {
	r := New()
	n, err := r.Resolve(layout.Empty)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, r.Len())

	n, err = r.Resolve("abc")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "empty lookups must not consume ids")
}

func TestResolve_IdempotentAndInjective(t *testing.T) {
	r := New()
	seen := make(map[int]layout.BoxID)
	for i := 0; i < 50; i++ {
		id := layout.BoxID(fmt.Sprintf("BOX-%04X", i*7919))
		first, err := r.Resolve(id)
		require.NoError(t, err)
		second, err := r.Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		if prev, ok := seen[first]; ok {
			t.Fatalf("display id %d issued to both %q and %q", first, prev, id)
		}
		seen[first] = id
		assert.Equal(t, i+1, first, "ids are sequential in first-seen order")
	}
}

func TestLookup(t *testing.T) {
	r := New()
	_, _ = r.Resolve("abc")
	_, _ = r.Resolve("xyz")

	box, ok := r.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, layout.BoxID("xyz"), box)

	_, ok = r.Lookup(0)
	assert.False(t, ok)
	_, ok = r.Lookup(3)
	assert.False(t, ok)
}

func TestReset_RestartsAtOne(t *testing.T) {
	// Scenario C: abc->1, xyz->2, reset, xyz->1.
	r := New()
	a, _ := r.Resolve("abc")
	x, _ := r.Resolve("xyz")
	require.Equal(t, 1, a)
	require.Equal(t, 2, x)

	r.Reset()
	assert.Equal(t, 0, r.Len())
	x, err := r.Resolve("xyz")
	require.NoError(t, err)
	assert.Equal(t, 1, x)
	_, ok := r.Lookup(2)
	assert.False(t, ok)
}

func TestResolve_ExhaustionFailsLoudly(t *testing.T) {
	r := NewWithLimit(2)
	_, err := r.Resolve("a")
	require.NoError(t, err)
	_, err = r.Resolve("b")
	require.NoError(t, err)

	_, err = r.Resolve("c")
	assert.ErrorIs(t, err, ErrRegistryExhausted)
	assert.Equal(t, 2, r.Len())

	// known boxes still resolve
	n, err := r.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
