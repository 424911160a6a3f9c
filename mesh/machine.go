package mesh

import (
	"errors"
	"fmt"

	mathpkg "github.com/pkg/math"
)

// Machine describes mesh dimensions.
// Every link is assumed alive; liveness is determined elsewhere.
type Machine struct {
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Torus  bool `json:"torus,omitempty"`
}

// Validate checks machine dimensions.
func (m Machine) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return errors.New("machine dimensions must be positive")
	}
	return nil
}

// Contains determines whether c is a chip of the machine.
func (m Machine) Contains(c Coords) bool {
	return c.X >= 0 && c.X < m.Width && c.Y >= 0 && c.Y < m.Height
}

// Neighbor returns the chip reached by leaving c through link l.
// ok is false if the link leaves the mesh on a non-torus machine.
func (m Machine) Neighbor(c Coords, l Link) (n Coords, ok bool) {
	dx, dy := l.Delta()
	n = Coords{c.X + dx, c.Y + dy}
	if m.Torus {
		n.X = (n.X + m.Width) % m.Width
		n.Y = (n.Y + m.Height) % m.Height
		return n, true
	}
	return n, m.Contains(n)
}

// Vector returns the shortest hexagonal displacement from src to dst.
func (m Machine) Vector(src, dst Coords) (dx, dy int) {
	dx, dy = dst.X-src.X, dst.Y-src.Y
	if !m.Torus {
		return dx, dy
	}
	best := -1
	bx, by := dx, dy
	for _, cx := range [3]int{dx - m.Width, dx, dx + m.Width} {
		for _, cy := range [3]int{dy - m.Height, dy, dy + m.Height} {
			if d := hexDistance(cx, cy); best < 0 || d < best {
				best, bx, by = d, cx, cy
			}
		}
	}
	return bx, by
}

// Distance returns the number of hops on the shortest path from src to dst.
func (m Machine) Distance(src, dst Coords) int {
	return hexDistance(m.Vector(src, dst))
}

// Path returns the links of a shortest path from src to dst.
// Diagonal hops are taken first, then horizontal, then vertical.
func (m Machine) Path(src, dst Coords) (links []Link) {
	if !m.Contains(src) || !m.Contains(dst) {
		panic(fmt.Errorf("path %s->%s outside machine", src, dst))
	}
	dx, dy := m.Vector(src, dst)
	for dx > 0 && dy > 0 {
		links = append(links, NorthEast)
		dx--
		dy--
	}
	for dx < 0 && dy < 0 {
		links = append(links, SouthWest)
		dx++
		dy++
	}
	for ; dx > 0; dx-- {
		links = append(links, East)
	}
	for ; dx < 0; dx++ {
		links = append(links, West)
	}
	for ; dy > 0; dy-- {
		links = append(links, North)
	}
	for ; dy < 0; dy++ {
		links = append(links, South)
	}
	return links
}

func hexDistance(dx, dy int) int {
	if (dx >= 0) == (dy >= 0) {
		return mathpkg.MaxInt(absInt(dx), absInt(dy))
	}
	return absInt(dx) + absInt(dy)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
