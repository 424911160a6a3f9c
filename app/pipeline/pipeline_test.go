package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mcroute/mcroute/app/pipeline"
	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/graph"
	"github.com/mcroute/mcroute/mesh"
	"go.uber.org/multierr"
)

func makeContext() *pipeline.Context {
	return &pipeline.Context{
		Machine: &mesh.Machine{Width: 4, Height: 4},
		Graph: &graph.Graph{
			Placements: map[string]graph.Placement{
				"s":  {Chip: mesh.Coords{X: 0, Y: 0}, Core: 0},
				"d1": {Chip: mesh.Coords{X: 1, Y: 0}, Core: 1},
				"d2": {Chip: mesh.Coords{X: 1, Y: 0}, Core: 2},
			},
			Partitions: []graph.Partition{
				{ID: graph.PartitionID{Vertex: "s", Name: "p1"}, NKeys: 1, Destinations: []string{"d1"}},
				{ID: graph.PartitionID{Vertex: "s", Name: "p2"}, NKeys: 1, Destinations: []string{"d2"}},
			},
		},
	}
}

func TestRegistry(t *testing.T) {
	assert, require := makeAR(t)

	names := []string{}
	for _, a := range pipeline.Algorithms() {
		names = append(names, a.Name)
	}
	assert.Equal([]string{"GraphValidator", "KeyAllocator", "RouteGenerator", "RouterCompressor", "TableCapacityCheck"}, names)

	a, ok := pipeline.Lookup(pipeline.RouteGenerator)
	require.True(ok)
	assert.ElementsMatch([]pipeline.Item{pipeline.ItemMachine, pipeline.ItemGraph, pipeline.ItemRoutingInfo}, a.Requires)

	assert.Equal([]pipeline.Item{
		pipeline.ItemRoutingInfo,
		pipeline.ItemTablesByPartition,
		pipeline.ItemTables,
		pipeline.ItemCompressedTables,
		pipeline.ItemCompressionReport,
	}, pipeline.Produces(pipeline.DefaultPipeline))
}

func TestValidate(t *testing.T) {
	assert, _ := makeAR(t)

	assert.NoError(pipeline.Validate(pipeline.DefaultPipeline, []pipeline.Item{pipeline.ItemMachine, pipeline.ItemGraph}))
	assert.NoError(pipeline.Validate([]string{pipeline.RouterCompressor}, []pipeline.Item{pipeline.ItemTables}))

	e := pipeline.Validate([]string{pipeline.RouteGenerator, "Unknown", pipeline.KeyAllocator}, []pipeline.Item{pipeline.ItemMachine})
	errs := multierr.Errors(e)
	assert.Len(errs, 4) // Graph and RoutingInfo for RouteGenerator, Unknown, Graph for KeyAllocator
	assert.ErrorIs(e, pipeline.ErrMissingInput)
	assert.ErrorIs(e, pipeline.ErrUnknownAlgorithm)

	c := makeContext()
	c.Graph = nil
	assert.ErrorIs(pipeline.Run(context.Background(), pipeline.DefaultPipeline, c), pipeline.ErrMissingInput)
	assert.Nil(c.RoutingInfo)
}

func TestRun(t *testing.T) {
	assert, require := makeAR(t)

	c := makeContext()
	c.Config.Compress.TargetLength = 2
	require.NoError(pipeline.Run(context.Background(), pipeline.DefaultPipeline, c))

	require.NotNil(c.RoutingInfo)
	assert.Equal(2, c.RoutingInfo.Len())
	assert.Empty(c.RoutingInfo.Overlaps())
	require.Len(c.Tables, 2)
	assert.Equal(4, c.TablesByPartition.NEntries())
	require.NotNil(c.CompressionReport)
	assert.Equal(2, c.CompressionReport.Routers)
	assert.Empty(c.CompressionReport.Failed)

	final := c.FinalTables()
	assert.Equal(mesh.Coords{X: 0, Y: 0}, final[0].Router)
	assert.Equal(1, final[0].Len())
	assert.Equal(2, final[1].Len())
}

func TestCapacity(t *testing.T) {
	assert, _ := makeAR(t)

	c := makeContext()
	c.Config.Compress.TargetLength = 1
	e := pipeline.Run(context.Background(), pipeline.DefaultPipeline, c)
	var mfe *rtdef.MinimisationFailedError
	if assert.True(errors.As(e, &mfe)) {
		assert.Equal(mesh.Coords{X: 1, Y: 0}, mfe.Router)
		assert.Equal(2, mfe.FinalLength)
	}
	assert.Equal([]mesh.Coords{{X: 1, Y: 0}}, c.CompressionReport.Failed)
	assert.Equal(1, c.CompressedTables[mesh.Coords{X: 0, Y: 0}].Table.Len())

	c = makeContext()
	c.Config.Compress.TargetLength = 1
	e = pipeline.Run(context.Background(), []string{
		pipeline.KeyAllocator, pipeline.RouteGenerator, pipeline.TableCapacityCheck,
	}, c)
	assert.Len(multierr.Errors(errors.Unwrap(errors.Unwrap(e))), 2)
	assert.ErrorAs(e, &mfe)
}
