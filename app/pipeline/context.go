package pipeline

import (
	"github.com/mcroute/mcroute/app/compress"
	"github.com/mcroute/mcroute/app/keyalloc"
	"github.com/mcroute/mcroute/container/mcrt"
	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/graph"
	"github.com/mcroute/mcroute/mesh"
)

// Item identifies a data item passed between algorithms.
type Item string

// Data items.
const (
	ItemMachine           Item = "Machine"
	ItemGraph             Item = "Graph"
	ItemRoutingInfo       Item = "RoutingInfo"
	ItemTablesByPartition Item = "TablesByPartition"
	ItemTables            Item = "Tables"
	ItemCompressedTables  Item = "CompressedTables"
	ItemCompressionReport Item = "CompressionReport"
)

// Config contains algorithm configuration.
type Config struct {
	KeyAlloc keyalloc.Config `json:"keyAlloc"`
	Compress compress.Config `json:"compress"`
}

// Context is the record threaded through a pipeline.
// Inputs are set by the caller; every algorithm fills the items it produces.
type Context struct {
	Config Config

	Machine           *mesh.Machine
	Graph             *graph.Graph
	RoutingInfo       *keyalloc.RoutingInfo
	TablesByPartition *mcrt.TableByPartition
	Tables            []rtdef.Table
	CompressedTables  map[mesh.Coords]compress.Result
	CompressionReport *compress.Report
}

// Provided returns items currently available in the context.
func (c *Context) Provided() (items []Item) {
	for _, it := range []struct {
		item Item
		ok   bool
	}{
		{ItemMachine, c.Machine != nil},
		{ItemGraph, c.Graph != nil},
		{ItemRoutingInfo, c.RoutingInfo != nil},
		{ItemTablesByPartition, c.TablesByPartition != nil},
		{ItemTables, c.Tables != nil},
		{ItemCompressedTables, c.CompressedTables != nil},
		{ItemCompressionReport, c.CompressionReport != nil},
	} {
		if it.ok {
			items = append(items, it.item)
		}
	}
	return items
}

// FinalTables returns compressed tables if available, otherwise uncompressed tables.
// Tables are ordered as in c.Tables.
func (c *Context) FinalTables() (tables []rtdef.Table) {
	for _, t := range c.Tables {
		if res, ok := c.CompressedTables[t.Router]; ok {
			t = res.Table
		}
		tables = append(tables, t)
	}
	return tables
}
