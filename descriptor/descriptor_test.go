package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAddAndGet(t *testing.T) {
	arena := NewArena()
	d1 := &MessageDescriptor{Name: "MSG0_A"}
	d2 := &MessageDescriptor{Name: "MSG1_B"}

	h1 := arena.Add(d1)
	h2 := arena.Add(d2)

	assert.Same(t, d1, arena.Get(h1))
	assert.Same(t, d2, arena.Get(h2))
	assert.Equal(t, 2, arena.Len())
	assert.Len(t, arena.All(), 2)
}

func TestTableSetAndLookupSharedHandle(t *testing.T) {
	tbl := NewTable(9)
	arena := NewArena()
	h := arena.Add(&MessageDescriptor{Name: "MSG2_A"})

	require.True(t, tbl.IsFree(4, 4))
	tbl.Set(4, 4, h)

	for id := 4; id < 8; id++ {
		got, ok := tbl.Lookup(id)
		require.True(t, ok)
		assert.Equal(t, h, got)
	}
	assert.False(t, tbl.IsFree(4, 4))

	_, ok := tbl.Lookup(3)
	assert.False(t, ok, "slot outside the reservation must stay unbound")
}

func TestTableLookupOutOfRange(t *testing.T) {
	tbl := NewTable(9)
	_, ok := tbl.Lookup(-1)
	assert.False(t, ok)
	_, ok = tbl.Lookup(tbl.Size())
	assert.False(t, ok)
}

func TestTableSize(t *testing.T) {
	assert.Equal(t, 1<<9, NewTable(9).Size())
	assert.Equal(t, 1<<16, NewTable(16).Size())
}
