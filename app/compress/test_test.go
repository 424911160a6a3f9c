package compress_test

import (
	"testing"

	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/core/testenv"
	"github.com/mcroute/mcroute/mesh"
)

var makeAR = testenv.MakeAR

var (
	routeA = mesh.RouteOf([]mesh.Link{mesh.East}, nil)
	routeB = mesh.RouteOf([]mesh.Link{mesh.North}, nil)
	routeC = mesh.RouteOf(nil, []int{3})
)

func entry(key, mask uint32, route mesh.Route) rtdef.Entry {
	return rtdef.Entry{KeyAndMask: rtdef.NewKeyAndMask(key, mask), Route: route}
}

func defaultable(key, mask uint32, route mesh.Route) rtdef.Entry {
	e := entry(key, mask, route)
	e.Defaultable = true
	return e
}

// checkEquivalent verifies that every key in [0,nKeys) matched by original resolves to the same route in compressed.
// A key of a defaultable entry may become unmatched.
func checkEquivalent(t testing.TB, original, compressed rtdef.Table, nKeys uint32) {
	t.Helper()
	assert, _ := makeAR(t)
	for key := uint32(0); key < nKeys; key++ {
		want, wi := original.Lookup(key)
		if wi < 0 {
			continue
		}
		got, gi := compressed.Lookup(key)
		if gi < 0 {
			assert.True(want.Defaultable, "key %08X unmatched, was %s", key, want)
			continue
		}
		assert.Equal(want.Route, got.Route, "key %08X matched %s, was %s", key, got, want)
	}
}
