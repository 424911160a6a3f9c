// Package constraint defines allocation constraints as a tagged variant.
// Each constraint carries the capability tag of the algorithm that honors it;
// consumers dispatch on the tag and ignore constraints meant for others.
package constraint

import (
	"encoding/json"
	"fmt"

	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/mesh"
)

// Tag identifies the algorithm capability that consumes a constraint.
type Tag string

// Tags.
const (
	TagPlacer       Tag = "Placer"
	TagRouter       Tag = "Router"
	TagPartitioner  Tag = "Partitioner"
	TagTagAllocator Tag = "TagAllocator"
	TagKeyAllocator Tag = "KeyAllocator"
)

// Kind identifies a constraint variant.
type Kind string

// Constraint kinds.
const (
	FixedKeyAndMask Kind = "FixedKeyAndMask"
	FixedMask       Kind = "FixedMask"
	FixedField      Kind = "FixedField"
	FixedNKeys      Kind = "FixedNKeys"
	ContiguousRange Kind = "ContiguousRange"
	Alignment       Kind = "Alignment"

	ChipAndCore    Kind = "ChipAndCore"
	MaxVertexAtoms Kind = "MaxVertexAtoms"
	ReverseIPTag   Kind = "ReverseIPTag"
)

type kindInfo struct {
	tag  Tag
	rank int
}

// kinds maps each kind to its tag and rank; a higher rank leaves fewer degrees of freedom.
var kinds = map[Kind]kindInfo{
	FixedKeyAndMask: {TagKeyAllocator, 6},
	FixedMask:       {TagKeyAllocator, 5},
	FixedField:      {TagKeyAllocator, 4},
	ContiguousRange: {TagKeyAllocator, 3},
	Alignment:       {TagKeyAllocator, 2},
	FixedNKeys:      {TagKeyAllocator, 1},
	ChipAndCore:     {TagPlacer, 1},
	MaxVertexAtoms:  {TagPartitioner, 1},
	ReverseIPTag:    {TagTagAllocator, 1},
}

// Constraint is a tagged-variant constraint.
// Only the fields relevant to Kind are meaningful.
type Constraint struct {
	Kind Kind `json:"kind"`

	Key       uint32        `json:"key,omitempty"`
	Mask      uint32        `json:"mask,omitempty"`
	Fields    []rtdef.Field `json:"fields,omitempty"`
	NKeys     int           `json:"nKeys,omitempty"`
	Alignment uint32        `json:"alignment,omitempty"`
	Chip      *mesh.Coords  `json:"chip,omitempty"`
	Core      int           `json:"core,omitempty"`
	Atoms     int           `json:"atoms,omitempty"`
	Port      int           `json:"port,omitempty"`
}

// Tag returns the capability tag.
func (c Constraint) Tag() Tag {
	return kinds[c.Kind].tag
}

// Rank returns the constraint strength.
func (c Constraint) Rank() int {
	return kinds[c.Kind].rank
}

// Validate checks that Kind is known and kind-specific fields are well-formed.
func (c Constraint) Validate() error {
	if _, ok := kinds[c.Kind]; !ok {
		return fmt.Errorf("unknown constraint kind %q", c.Kind)
	}
	switch c.Kind {
	case FixedKeyAndMask:
		if c.Key&^c.Mask != 0 {
			return fmt.Errorf("key %08X has bits outside mask %08X", c.Key, c.Mask)
		}
	case FixedField:
		if len(c.Fields) == 0 {
			return fmt.Errorf("%s without fields", c.Kind)
		}
		return rtdef.FieldSet(c.Fields).Validate()
	case FixedNKeys:
		if c.NKeys <= 0 {
			return fmt.Errorf("%s requires positive nKeys", c.Kind)
		}
	case Alignment:
		if c.Alignment == 0 || c.Alignment&(c.Alignment-1) != 0 {
			return fmt.Errorf("alignment %d is not a power of two", c.Alignment)
		}
	case ChipAndCore:
		if c.Chip == nil {
			return fmt.Errorf("%s without chip", c.Kind)
		}
	}
	return nil
}

func (c Constraint) String() string {
	j, _ := json.Marshal(c)
	return string(j)
}

// List is an ordered list of constraints.
type List []Constraint

// WithTag returns constraints with the specified tag, in original order.
func (list List) WithTag(tag Tag) (filtered List) {
	for _, c := range list {
		if c.Tag() == tag {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Constructors.

// NewFixedKeyAndMask creates a FixedKeyAndMask constraint.
func NewFixedKeyAndMask(key, mask uint32) Constraint {
	return Constraint{Kind: FixedKeyAndMask, Key: key, Mask: mask}
}

// NewFixedMask creates a FixedMask constraint.
func NewFixedMask(mask uint32) Constraint {
	return Constraint{Kind: FixedMask, Mask: mask}
}

// NewFixedField creates a FixedField constraint.
func NewFixedField(fields ...rtdef.Field) Constraint {
	return Constraint{Kind: FixedField, Fields: fields}
}

// NewFixedNKeys creates a FixedNKeys constraint.
func NewFixedNKeys(n int) Constraint {
	return Constraint{Kind: FixedNKeys, NKeys: n}
}

// NewContiguousRange creates a ContiguousRange constraint.
func NewContiguousRange() Constraint {
	return Constraint{Kind: ContiguousRange}
}

// NewAlignment creates an Alignment constraint.
func NewAlignment(alignment uint32) Constraint {
	return Constraint{Kind: Alignment, Alignment: alignment}
}

// NewChipAndCore creates a ChipAndCore placement constraint.
func NewChipAndCore(chip mesh.Coords, core int) Constraint {
	return Constraint{Kind: ChipAndCore, Chip: &chip, Core: core}
}
