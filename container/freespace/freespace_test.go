package freespace_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/mcroute/mcroute/container/freespace"
	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/stretchr/testify/assert"
)

func TestAllocateAligned(t *testing.T) {
	assert, require := makeAR(t)

	tr := freespace.New(0, 1024)
	start, e := tr.Allocate(100, 16)
	require.NoError(e)
	assert.EqualValues(0, start)
	assert.Equal([]freespace.Range{{100, 924}}, tr.Ranges())

	start, e = tr.Allocate(50, 16)
	require.NoError(e)
	assert.EqualValues(112, start)
	assert.Equal([]freespace.Range{{100, 12}, {162, 862}}, tr.Ranges())

	// [0,100) is adjacent to the free gap [100,112) and merges with it; allocated [112,162) stays.
	require.NoError(tr.Free(0, 100))
	assert.Equal([]freespace.Range{{0, 112}, {162, 862}}, tr.Ranges())
	assert.False(tr.IsFree(112, 1))
	assert.True(tr.IsFree(0, 112))
	assert.EqualValues(1024-50, tr.FreeSize())

	require.NoError(tr.Free(112, 50))
	assert.Equal([]freespace.Range{{0, 1024}}, tr.Ranges())
}

func TestAllocateErrors(t *testing.T) {
	assert, require := makeAR(t)

	tr := freespace.New(0, 64)
	_, e := tr.Allocate(8, 3)
	assert.ErrorIs(e, freespace.ErrAlignment)
	_, e = tr.Allocate(0, 1)
	assert.ErrorIs(e, freespace.ErrNoSpace)
	_, e = tr.Allocate(65, 0)
	assert.ErrorIs(e, freespace.ErrNoSpace)

	require.NoError(tr.AllocateAt(8, 8))
	assert.ErrorIs(tr.AllocateAt(12, 8), freespace.ErrNotFree)
	_, e = tr.Allocate(16, 16)
	assert.NoError(e)
	_, e = tr.Allocate(16, 64)
	assert.ErrorIs(e, freespace.ErrNoSpace)

	assert.ErrorIs(tr.Free(0, 4), freespace.ErrDoubleFree)
	assert.ErrorIs(tr.Free(60, 8), freespace.ErrOutside)
	assert.NoError(tr.Free(8, 0))
}

func TestFullKeySpace(t *testing.T) {
	assert, require := makeAR(t)

	tr := freespace.New(0, rtdef.KeySpaceSize)
	start, e := tr.Allocate(1<<31, 1<<31)
	require.NoError(e)
	assert.EqualValues(0, start)
	start, e = tr.Allocate(1<<31, 1<<31)
	require.NoError(e)
	assert.EqualValues(1<<31, start)
	assert.Empty(tr.Ranges())
	_, e = tr.Allocate(1, 1)
	assert.ErrorIs(e, freespace.ErrNoSpace)
	require.NoError(tr.Free(0, rtdef.KeySpaceSize))
	assert.Equal([]freespace.Range{{0, rtdef.KeySpaceSize}}, tr.Ranges())
}

func checkInvariants(assert *assert.Assertions, tr *freespace.Tracker, allocated map[uint64]uint64) {
	free := tr.Ranges()
	for i := 1; i < len(free); i++ {
		assert.Less(free[i-1].End(), free[i].Start, "free ranges overlap or adjacent")
	}

	var all []freespace.Range
	all = append(all, free...)
	for start, size := range allocated {
		all = append(all, freespace.Range{Start: start, Size: size})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })
	pos := tr.Space().Start
	for _, r := range all {
		assert.Equal(pos, r.Start, "gap or overlap at %d", pos)
		pos = r.End()
	}
	assert.Equal(tr.Space().End(), pos)
}

func TestRandomSequence(t *testing.T) {
	assert, _ := makeAR(t)
	rng := rand.New(rand.NewSource(1))

	tr := freespace.New(1000, 4096)
	allocated := map[uint64]uint64{}
	for i := 0; i < 2000; i++ {
		if len(allocated) > 0 && rng.Intn(3) == 0 {
			for start, size := range allocated {
				assert.NoError(tr.Free(start, size))
				delete(allocated, start)
				break
			}
		} else {
			size := uint64(1 + rng.Intn(64))
			alignment := uint64(1) << rng.Intn(6)
			start, e := tr.Allocate(size, alignment)
			if e == nil {
				assert.Zero(start % alignment)
				allocated[start] = size
			} else {
				assert.ErrorIs(e, freespace.ErrNoSpace)
			}
		}
		checkInvariants(assert, tr, allocated)
	}
}
