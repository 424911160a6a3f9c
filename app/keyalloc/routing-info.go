package keyalloc

import (
	"encoding/json"
	"fmt"

	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/graph"
)

// RoutingInfo maps each partition to its allocated key and mask.
// Iteration order is allocation order.
type RoutingInfo struct {
	order []graph.PartitionID
	m     map[graph.PartitionID]rtdef.KeyAndMask
}

// NewRoutingInfo creates an empty RoutingInfo.
func NewRoutingInfo() *RoutingInfo {
	return &RoutingInfo{
		m: map[graph.PartitionID]rtdef.KeyAndMask{},
	}
}

// Add records an allocation.
// Panics if the partition already has an allocation.
func (ri *RoutingInfo) Add(id graph.PartitionID, km rtdef.KeyAndMask) {
	if _, ok := ri.m[id]; ok {
		panic(fmt.Errorf("partition %s allocated twice", id))
	}
	ri.order = append(ri.order, id)
	ri.m[id] = km
}

// Get returns the key and mask of a partition.
func (ri *RoutingInfo) Get(id graph.PartitionID) (km rtdef.KeyAndMask, ok bool) {
	km, ok = ri.m[id]
	return
}

// Len returns number of partitions.
func (ri *RoutingInfo) Len() int {
	return len(ri.order)
}

// Partitions returns partition IDs in allocation order.
func (ri *RoutingInfo) Partitions() []graph.PartitionID {
	return append([]graph.PartitionID(nil), ri.order...)
}

// Overlaps returns pairs of partitions whose key spaces intersect.
// A correct allocation has none.
func (ri *RoutingInfo) Overlaps() (pairs [][2]graph.PartitionID) {
	for i, a := range ri.order {
		for _, b := range ri.order[i+1:] {
			if ri.m[a].Intersects(ri.m[b]) {
				pairs = append(pairs, [2]graph.PartitionID{a, b})
			}
		}
	}
	return pairs
}

// Assignment is one RoutingInfo record.
type Assignment struct {
	Partition graph.PartitionID `json:"partition"`
	rtdef.KeyAndMask
}

// List returns assignments in allocation order.
func (ri *RoutingInfo) List() (list []Assignment) {
	for _, id := range ri.order {
		list = append(list, Assignment{Partition: id, KeyAndMask: ri.m[id]})
	}
	return list
}

// MarshalJSON implements json.Marshaler interface.
func (ri *RoutingInfo) MarshalJSON() ([]byte, error) {
	list := ri.List()
	if list == nil {
		list = []Assignment{}
	}
	return json.Marshal(list)
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (ri *RoutingInfo) UnmarshalJSON(j []byte) error {
	var list []Assignment
	if e := json.Unmarshal(j, &list); e != nil {
		return e
	}
	*ri = *NewRoutingInfo()
	for _, a := range list {
		if _, ok := ri.m[a.Partition]; ok {
			return fmt.Errorf("duplicate partition %s", a.Partition)
		}
		ri.Add(a.Partition, a.KeyAndMask)
	}
	return nil
}
