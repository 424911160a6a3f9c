package main

import (
	"github.com/mcroute/mcroute/app/compress"
	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/urfave/cli/v2"
)

type compressInput struct {
	Tables []rtdef.Table `json:"tables"`
}

type compressOutput struct {
	Tables []rtdef.Table   `json:"tables"`
	Report compress.Report `json:"report"`
}

func init() {
	var capacity int
	defineInputCommand(inputCommand{
		Name:       "compress",
		Usage:      "Compress router tables",
		SchemaName: "compress",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "capacity",
				Usage:       "router table capacity `N` (overrides config)",
				Destination: &capacity,
			},
		},
		Action: func(c *cli.Context, decode func(ptr any) error) error {
			var input compressInput
			if e := decode(&input); e != nil {
				return e
			}

			cc := cfg.Compress
			if capacity > 0 {
				cc.TargetLength = capacity
			}
			results, report, e := compress.NewPool(cc).CompressAll(c.Context, input.Tables)
			if results == nil {
				return e
			}

			var output compressOutput
			output.Report = report
			for _, t := range input.Tables {
				output.Tables = append(output.Tables, results[t.Router].Table)
			}
			if pe := printJSON(c.App.Writer, output); pe != nil {
				return pe
			}
			return e
		},
	})
}
