// Package mcrt collects multicast routing entries per router and per partition.
package mcrt

import (
	"fmt"

	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/core/logging"
	"github.com/mcroute/mcroute/graph"
	"github.com/mcroute/mcroute/mesh"
	"go.uber.org/zap"
)

var logger = logging.New("mcrt")

// RouterEntries contains entries on one router, keyed by partition, in insertion order.
type RouterEntries struct {
	order []graph.PartitionID
	m     map[graph.PartitionID]rtdef.Entry
}

func newRouterEntries() *RouterEntries {
	return &RouterEntries{m: map[graph.PartitionID]rtdef.Entry{}}
}

// Len returns number of partitions.
func (re *RouterEntries) Len() int {
	if re == nil {
		return 0
	}
	return len(re.order)
}

// Partitions returns partition IDs in insertion order.
func (re *RouterEntries) Partitions() []graph.PartitionID {
	if re == nil {
		return nil
	}
	return append([]graph.PartitionID(nil), re.order...)
}

// Get returns the entry of a partition.
func (re *RouterEntries) Get(id graph.PartitionID) (entry rtdef.Entry, ok bool) {
	if re == nil {
		return entry, false
	}
	entry, ok = re.m[id]
	return
}

// Entries returns entries in insertion order.
func (re *RouterEntries) Entries() (list []rtdef.Entry) {
	for _, id := range re.Partitions() {
		list = append(list, re.m[id])
	}
	return list
}

// TableByPartition is a multicast routing table under construction,
// holding at most one entry per (router, partition).
type TableByPartition struct {
	routers []mesh.Coords
	tables  map[mesh.Coords]*RouterEntries
}

// New creates an empty TableByPartition.
func New() *TableByPartition {
	return &TableByPartition{tables: map[mesh.Coords]*RouterEntries{}}
}

// AddPathEntry inserts entry on router (x,y) for partition, or merges it into the existing entry.
// Merging unions the routes and ANDs the defaultable flags.
// Panics if the existing entry has a different key and mask.
func (t *TableByPartition) AddPathEntry(entry rtdef.Entry, x, y int, partition graph.PartitionID) {
	router := mesh.Coords{X: x, Y: y}
	re := t.tables[router]
	if re == nil {
		re = newRouterEntries()
		t.tables[router] = re
		t.routers = append(t.routers, router)
	}

	old, ok := re.m[partition]
	if !ok {
		re.order = append(re.order, partition)
		re.m[partition] = entry
		return
	}

	if old.KeyAndMask != entry.KeyAndMask {
		panic(fmt.Errorf("router %s partition %s: merging %s into %s", router, partition, entry.KeyAndMask, old.KeyAndMask))
	}
	old.Route |= entry.Route
	old.Defaultable = old.Defaultable && entry.Defaultable
	re.m[partition] = old
	logger.Debug("merged path entry",
		router.ZapField("router"),
		zap.Stringer("partition", partition),
		zap.Stringer("entry", old),
	)
}

// GetEntriesForRouter returns entries on router (x,y).
// The result is empty, not nil, if the router has no entry.
func (t *TableByPartition) GetEntriesForRouter(x, y int) *RouterEntries {
	if re := t.tables[mesh.Coords{X: x, Y: y}]; re != nil {
		return re
	}
	return newRouterEntries()
}

// Routers returns routers with at least one entry, in first-insertion order.
func (t *TableByPartition) Routers() []mesh.Coords {
	return append([]mesh.Coords(nil), t.routers...)
}

// NEntries returns total number of entries across all routers.
func (t *TableByPartition) NEntries() (n int) {
	for _, re := range t.tables {
		n += re.Len()
	}
	return n
}

// Tables converts to per-router tables, in first-insertion order of routers.
// Entries within each table are in partition insertion order.
func (t *TableByPartition) Tables() (tables []rtdef.Table) {
	for _, router := range t.routers {
		tables = append(tables, rtdef.Table{
			Router:  router,
			Entries: t.tables[router].Entries(),
		})
	}
	return tables
}
