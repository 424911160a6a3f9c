package compress_test

import (
	"context"
	"testing"

	"github.com/mcroute/mcroute/app/compress"
	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/mesh"
	"go.uber.org/multierr"
)

func TestPool(t *testing.T) {
	assert, require := makeAR(t)

	mergeable := []rtdef.Entry{
		entry(0b0000, 0b1110, routeA),
		entry(0b0010, 0b1110, routeA),
		entry(0b0100, 0b1110, routeB),
		entry(0b0110, 0b1110, routeB),
	}
	distinct := []rtdef.Entry{
		entry(0b0000, 0b1111, routeA),
		entry(0b0001, 0b1111, routeB),
		entry(0b0010, 0b1111, routeC),
	}
	r0, r1, r2 := mesh.Coords{X: 0, Y: 0}, mesh.Coords{X: 1, Y: 0}, mesh.Coords{X: 0, Y: 1}
	tables := []rtdef.Table{
		{Router: r1, Entries: distinct},
		{Router: r0, Entries: mergeable},
		{Router: r2, Entries: distinct},
	}

	pool := compress.NewPool(compress.Config{TargetLength: 2, Workers: 2})
	results, report, e := pool.CompressAll(context.Background(), tables)
	require.Error(e)
	assert.Len(multierr.Errors(e), 2)

	require.Len(results, 3)
	assert.Equal(2, results[r0].Table.Len())
	assert.Equal(3, results[r1].Table.Len())
	assert.Equal(r2, results[r2].Table.Router)

	assert.Equal(3, report.Routers)
	assert.ElementsMatch([]mesh.Coords{r1, r2}, report.Failed)
	assert.EqualValues(3, report.Before.Count)
	if assert.NotNil(report.Before.Max) {
		assert.EqualValues(4, *report.Before.Max)
	}
	if assert.NotNil(report.After.Min) {
		assert.EqualValues(2, *report.After.Min)
	}
	assert.EqualValues(3, report.Duration.Count)
	assert.NotNil(report.Duration.Max)
}

func TestPoolDuplicate(t *testing.T) {
	assert, _ := makeAR(t)

	tables := []rtdef.Table{
		{Router: router, Entries: []rtdef.Entry{entry(0, 0xFFFFFFFF, routeA)}},
		{Router: router, Entries: []rtdef.Entry{entry(1, 0xFFFFFFFF, routeA)}},
	}
	_, _, e := compress.NewPool(compress.Config{}).CompressAll(context.Background(), tables)
	assert.ErrorIs(e, compress.ErrDuplicateRouter)
}
