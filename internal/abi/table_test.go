package abi

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownSymbol(t *testing.T) {
	sig, ok := Lookup("zaco_try_push")
	require.True(t, ok)
	assert.Empty(t, sig.Params)
	assert.Equal(t, 8, sig.Ret.Size())
}

func TestLookupUnknownSymbol(t *testing.T) {
	_, ok := Lookup("zaco_does_not_exist")
	assert.False(t, ok)
}

func TestIsKnownMatchesLookup(t *testing.T) {
	for _, name := range []string{"zaco_alloc", "zaco_box_new", "zaco_generator_new"} {
		assert.True(t, IsKnown(name))
	}
	assert.False(t, IsKnown("zaco_not_a_thing"))
}

func TestNamesCoversExceptionProtocol(t *testing.T) {
	names := Names()
	sort.Strings(names)
	want := []string{"zaco_clear_error", "zaco_get_error", "zaco_throw", "zaco_try_pop", "zaco_try_push"}
	for _, w := range want {
		idx := sort.SearchStrings(names, w)
		require.True(t, idx < len(names) && names[idx] == w, "missing %s", w)
	}
}
