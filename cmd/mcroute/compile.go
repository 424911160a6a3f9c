package main

import (
	"github.com/mcroute/mcroute/app/compress"
	"github.com/mcroute/mcroute/app/keyalloc"
	"github.com/mcroute/mcroute/app/pipeline"
	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/graph"
	"github.com/mcroute/mcroute/mesh"
	"github.com/urfave/cli/v2"
)

type compileInput struct {
	Machine mesh.Machine `json:"machine"`
	Graph   graph.Graph  `json:"graph"`
}

type compileOutput struct {
	RoutingInfo *keyalloc.RoutingInfo `json:"routingInfo"`
	Tables      []rtdef.Table         `json:"tables"`
	Report      *compress.Report      `json:"report,omitempty"`
}

func init() {
	var (
		capacity   int
		workers    int
		noCompress bool
	)
	defineInputCommand(inputCommand{
		Name:       "compile",
		Usage:      "Allocate keys, generate routes, and compress routing tables",
		SchemaName: "compile",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "capacity",
				Usage:       "router table capacity `N` (overrides config)",
				Destination: &capacity,
			},
			&cli.IntFlag{
				Name:        "workers",
				Usage:       "number of routers compressed in parallel",
				Destination: &workers,
			},
			&cli.BoolFlag{
				Name:        "no-compress",
				Usage:       "skip router compression",
				Destination: &noCompress,
			},
		},
		Action: func(c *cli.Context, decode func(ptr any) error) error {
			var input compileInput
			if e := decode(&input); e != nil {
				return e
			}

			pc := &pipeline.Context{
				Config:  cfg,
				Machine: &input.Machine,
				Graph:   &input.Graph,
			}
			if capacity > 0 {
				pc.Config.Compress.TargetLength = capacity
			}
			if workers > 0 {
				pc.Config.Compress.Workers = workers
			}

			names := pipeline.DefaultPipeline
			if noCompress {
				names = []string{pipeline.GraphValidator, pipeline.KeyAllocator, pipeline.RouteGenerator, pipeline.TableCapacityCheck}
			}
			if e := pipeline.Run(c.Context, names, pc); e != nil {
				return e
			}

			return printJSON(c.App.Writer, compileOutput{
				RoutingInfo: pc.RoutingInfo,
				Tables:      pc.FinalTables(),
				Report:      pc.CompressionReport,
			})
		},
	})
}
