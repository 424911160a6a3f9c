package mesh_test

import (
	"encoding/json"
	"testing"

	"github.com/mcroute/mcroute/mesh"
)

func TestLink(t *testing.T) {
	assert, _ := makeAR(t)

	for l := mesh.Link(0); l < mesh.NLinks; l++ {
		assert.Equal(l, l.Opposite().Opposite())
		dx, dy := l.Delta()
		ox, oy := l.Opposite().Delta()
		assert.Equal(0, dx+ox)
		assert.Equal(0, dy+oy)
	}
	assert.Equal(mesh.West, mesh.East.Opposite())
	assert.Equal(mesh.SouthWest, mesh.NorthEast.Opposite())
	assert.Equal("NE", mesh.NorthEast.String())
	assert.False(mesh.Link(6).Valid())
}

func TestRoute(t *testing.T) {
	assert, require := makeAR(t)

	r := mesh.RouteOf([]mesh.Link{mesh.East, mesh.North}, []int{3, 17})
	assert.True(r.HasLink(mesh.East))
	assert.False(r.HasLink(mesh.West))
	assert.True(r.HasProcessor(3))
	assert.False(r.HasProcessor(4))
	assert.Equal(4, r.Count())
	assert.Equal([]mesh.Link{mesh.East, mesh.North}, r.Links())
	assert.Equal([]int{3, 17}, r.Processors())
	assert.Equal("E+N+p3+p17", r.String())
	assert.Equal("-", mesh.Route(0).String())
	assert.Equal(mesh.Route(0), r&^(mesh.RouteLinkMask|mesh.RouteProcessorMask))

	j, e := json.Marshal(r)
	require.NoError(e)
	var decoded mesh.Route
	require.NoError(json.Unmarshal(j, &decoded))
	assert.Equal(r, decoded)

	require.NoError(json.Unmarshal([]byte(`5`), &decoded))
	assert.Equal(mesh.RouteOf([]mesh.Link{mesh.East, mesh.North}, nil), decoded)

	assert.Error(json.Unmarshal([]byte(`{"processors":[18]}`), &decoded))
	assert.Panics(func() { r.WithProcessor(-1) })
}

func TestMachinePath(t *testing.T) {
	assert, _ := makeAR(t)

	m := mesh.Machine{Width: 8, Height: 8}
	assert.NoError(m.Validate())
	assert.Error(mesh.Machine{}.Validate())

	src, dst := mesh.Coords{1, 1}, mesh.Coords{4, 2}
	path := m.Path(src, dst)
	assert.Equal([]mesh.Link{mesh.NorthEast, mesh.East, mesh.East}, path)
	assert.Equal(3, m.Distance(src, dst))

	c := src
	for _, l := range path {
		next, ok := m.Neighbor(c, l)
		assert.True(ok)
		c = next
	}
	assert.Equal(dst, c)

	assert.Equal(4, m.Distance(mesh.Coords{0, 2}, mesh.Coords{2, 0}))
	assert.Empty(m.Path(src, src))

	_, ok := m.Neighbor(mesh.Coords{0, 0}, mesh.West)
	assert.False(ok)
}

func TestMachineTorus(t *testing.T) {
	assert, _ := makeAR(t)

	m := mesh.Machine{Width: 8, Height: 8, Torus: true}
	n, ok := m.Neighbor(mesh.Coords{0, 0}, mesh.SouthWest)
	assert.True(ok)
	assert.Equal(mesh.Coords{7, 7}, n)

	src, dst := mesh.Coords{0, 0}, mesh.Coords{7, 7}
	assert.Equal(1, m.Distance(src, dst))
	assert.Equal([]mesh.Link{mesh.SouthWest}, m.Path(src, dst))
}
