package rtdef

import (
	"fmt"

	"github.com/mcroute/mcroute/mesh"
)

// Entry is a multicast routing table entry.
type Entry struct {
	KeyAndMask
	Route mesh.Route `json:"route"`

	// Defaultable indicates the entry may be dropped because default routing
	// forwards unmatched packets to the same destination.
	Defaultable bool `json:"defaultable,omitempty"`
}

func (entry Entry) String() string {
	d := ""
	if entry.Defaultable {
		d = " (defaultable)"
	}
	return fmt.Sprintf("%s -> %s%s", entry.KeyAndMask, entry.Route, d)
}

// Table is an ordered list of routing entries on one router.
// The first matching entry wins.
type Table struct {
	Router  mesh.Coords `json:"router"`
	Entries []Entry     `json:"entries"`
}

// Len returns number of entries.
func (t Table) Len() int {
	return len(t.Entries)
}

// Lookup finds the first entry matching key.
// index is -1 if no entry matches.
func (t Table) Lookup(key uint32) (entry Entry, index int) {
	for i, entry := range t.Entries {
		if entry.Matches(key) {
			return entry, i
		}
	}
	return Entry{}, -1
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	return Table{
		Router:  t.Router,
		Entries: append([]Entry(nil), t.Entries...),
	}
}
