// Package graph describes a placed application graph: vertices assigned to processors,
// and outgoing partitions carrying multicast traffic to destination vertices.
package graph

import (
	"fmt"
	"strings"

	"github.com/mcroute/mcroute/container/constraint"
	"github.com/mcroute/mcroute/mesh"
	"go.uber.org/multierr"
)

// PartitionID identifies an outgoing partition.
type PartitionID struct {
	Vertex string `json:"vertex"`
	Name   string `json:"name"`
}

func (id PartitionID) String() string {
	return id.Vertex + "/" + id.Name
}

// ParsePartitionID parses "vertex/name".
func ParsePartitionID(s string) (id PartitionID, e error) {
	i := strings.LastIndexByte(s, '/')
	if i <= 0 || i == len(s)-1 {
		return id, fmt.Errorf("invalid partition ID %q", s)
	}
	return PartitionID{Vertex: s[:i], Name: s[i+1:]}, nil
}

// MarshalText implements encoding.TextMarshaler interface.
func (id PartitionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler interface.
func (id *PartitionID) UnmarshalText(text []byte) (e error) {
	*id, e = ParsePartitionID(string(text))
	return e
}

// Placement is the processor assigned to a vertex.
type Placement struct {
	Chip mesh.Coords `json:"chip"`
	Core int         `json:"core"`
}

func (p Placement) String() string {
	return fmt.Sprintf("%s:%d", p.Chip, p.Core)
}

// Partition is a set of edges leaving one source vertex that share a key and mask.
type Partition struct {
	ID PartitionID `json:"id"`

	// NKeys is the number of keys required, known before allocation.
	NKeys int `json:"nKeys"`

	// Constraints is an ordered list of constraints, of any tag.
	Constraints constraint.List `json:"constraints,omitempty"`

	// Destinations are vertices receiving packets of this partition.
	Destinations []string `json:"destinations,omitempty"`
}

// Graph is a placed application graph.
type Graph struct {
	Placements map[string]Placement `json:"placements"`
	Partitions []Partition          `json:"partitions"`
}

// Validate checks that every vertex referenced by a partition is placed on the machine,
// and partition IDs are unique.
func (g Graph) Validate(m mesh.Machine) error {
	errs := []error{}
	for vertex, p := range g.Placements {
		if !m.Contains(p.Chip) {
			errs = append(errs, fmt.Errorf("vertex %s placed on %s outside machine", vertex, p.Chip))
		}
		if p.Core < 0 || p.Core >= mesh.NProcessors {
			errs = append(errs, fmt.Errorf("vertex %s placed on invalid core %d", vertex, p.Core))
		}
	}

	seen := map[PartitionID]bool{}
	for _, p := range g.Partitions {
		if seen[p.ID] {
			errs = append(errs, fmt.Errorf("duplicate partition %s", p.ID))
		}
		seen[p.ID] = true

		if _, ok := g.Placements[p.ID.Vertex]; !ok {
			errs = append(errs, fmt.Errorf("partition %s source vertex is not placed", p.ID))
		}
		for _, dst := range p.Destinations {
			if _, ok := g.Placements[dst]; !ok {
				errs = append(errs, fmt.Errorf("partition %s destination %s is not placed", p.ID, dst))
			}
		}
		if p.NKeys < 0 {
			errs = append(errs, fmt.Errorf("partition %s has negative nKeys", p.ID))
		}
	}
	return multierr.Combine(errs...)
}
