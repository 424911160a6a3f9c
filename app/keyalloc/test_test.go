package keyalloc_test

import (
	"github.com/mcroute/mcroute/core/testenv"
	"github.com/mcroute/mcroute/graph"
)

var makeAR = testenv.MakeAR

func pid(vertex, name string) graph.PartitionID {
	return graph.PartitionID{Vertex: vertex, Name: name}
}
