// Package mesh describes the fixed-topology machine: a two-dimensional mesh of router chips,
// each with six inter-chip links and a set of processors.
package mesh

import (
	"fmt"

	"go.uber.org/zap"
)

// Limits.
const (
	NLinks      = 6
	NProcessors = 18
)

// Coords identifies a router chip.
type Coords struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coords) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// ZapField returns a zap.Field for logging.
func (c Coords) ZapField(key string) zap.Field {
	return zap.Stringer(key, c)
}

// Less orders coordinates by X then Y.
func (c Coords) Less(other Coords) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Y < other.Y
}

// Link identifies an inter-chip link.
type Link int

// Link directions.
const (
	East Link = iota
	NorthEast
	North
	West
	SouthWest
	South
)

var linkStrings = [NLinks]string{"E", "NE", "N", "W", "SW", "S"}

// Valid determines whether l is a valid link.
func (l Link) Valid() bool {
	return l >= 0 && l < NLinks
}

// Opposite returns the link pointing in the opposite direction.
func (l Link) Opposite() Link {
	return (l + 3) % NLinks
}

// Delta returns the coordinate change when leaving a chip through l.
func (l Link) Delta() (dx, dy int) {
	switch l {
	case East:
		return 1, 0
	case NorthEast:
		return 1, 1
	case North:
		return 0, 1
	case West:
		return -1, 0
	case SouthWest:
		return -1, -1
	case South:
		return 0, -1
	}
	panic(fmt.Errorf("invalid link %d", l))
}

func (l Link) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Link(%d)", int(l))
	}
	return linkStrings[l]
}
