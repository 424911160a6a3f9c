package pipeline

import (
	"context"
	"fmt"

	"github.com/mcroute/mcroute/app/compress"
	"github.com/mcroute/mcroute/app/keyalloc"
	"github.com/mcroute/mcroute/app/routegen"
	"github.com/mcroute/mcroute/container/rtdef"
	"go.uber.org/multierr"
)

// Algorithm names.
const (
	GraphValidator     = "GraphValidator"
	KeyAllocator       = "KeyAllocator"
	RouteGenerator     = "RouteGenerator"
	RouterCompressor   = "RouterCompressor"
	TableCapacityCheck = "TableCapacityCheck"
)

// DefaultPipeline compiles a placed graph into compressed routing tables.
var DefaultPipeline = []string{GraphValidator, KeyAllocator, RouteGenerator, RouterCompressor, TableCapacityCheck}

func init() {
	register(Algorithm{
		Name:     GraphValidator,
		Requires: []Item{ItemMachine, ItemGraph},
		Run: func(ctx context.Context, c *Context) error {
			if e := c.Machine.Validate(); e != nil {
				return e
			}
			return c.Graph.Validate(*c.Machine)
		},
	})

	register(Algorithm{
		Name:     KeyAllocator,
		Requires: []Item{ItemGraph},
		Produces: []Item{ItemRoutingInfo},
		Run: func(ctx context.Context, c *Context) (e error) {
			c.RoutingInfo, e = keyalloc.New(c.Config.KeyAlloc).Allocate(c.Graph.Partitions)
			return e
		},
	})

	register(Algorithm{
		Name:     RouteGenerator,
		Requires: []Item{ItemMachine, ItemGraph, ItemRoutingInfo},
		Produces: []Item{ItemTablesByPartition, ItemTables},
		Run: func(ctx context.Context, c *Context) (e error) {
			if c.TablesByPartition, e = routegen.Generate(*c.Machine, *c.Graph, c.RoutingInfo); e != nil {
				return e
			}
			c.Tables = c.TablesByPartition.Tables()
			if c.Tables == nil {
				c.Tables = []rtdef.Table{}
			}
			return nil
		},
	})

	register(Algorithm{
		Name:     RouterCompressor,
		Requires: []Item{ItemTables},
		Produces: []Item{ItemCompressedTables, ItemCompressionReport},
		Run: func(ctx context.Context, c *Context) error {
			results, report, e := compress.NewPool(c.Config.Compress).CompressAll(ctx, c.Tables)
			c.CompressedTables, c.CompressionReport = results, &report
			return e
		},
	})

	register(Algorithm{
		Name:     TableCapacityCheck,
		Requires: []Item{ItemTables},
		Optional: []Item{ItemCompressedTables},
		Run: func(ctx context.Context, c *Context) error {
			cfg := c.Config.Compress
			cfg.ApplyDefaults()
			errs := []error{}
			for _, t := range c.FinalTables() {
				if t.Len() > cfg.TargetLength {
					errs = append(errs, &rtdef.MinimisationFailedError{
						TargetLength: cfg.TargetLength,
						FinalLength:  t.Len(),
						Router:       t.Router,
					})
				}
			}
			if e := multierr.Combine(errs...); e != nil {
				return fmt.Errorf("%d routers exceed table capacity: %w", len(errs), e)
			}
			return nil
		},
	})
}
