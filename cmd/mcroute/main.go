// Command mcroute allocates multicast keys and compiles compressed routing tables for a placed graph.
package main

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sort"

	"github.com/mcroute/mcroute/app/pipeline"
	"github.com/mcroute/mcroute/core/logging"
	"github.com/mcroute/mcroute/core/yamlflag"
	"github.com/mcroute/mcroute/mk/version"
	"github.com/urfave/cli/v2"
)

var cfg pipeline.Config

var app = &cli.App{
	Version: version.Get().String(),
	Usage:   "Compile multicast routing keys and tables.",
	Flags: []cli.Flag{
		&cli.GenericFlag{
			Name:  "config",
			Usage: "algorithm configuration `YAML` (prefix with @ to read from file)",
			Value: yamlflag.New(&cfg),
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "log `LEVEL` of every package (V, D, I, W, E, F), overriding MCROUTE_LOG",
		},
	},
	Before: func(c *cli.Context) error {
		if c.IsSet("log") {
			logging.SetAllLevels(c.String("log"))
		}
		return nil
	},
	After: func(c *cli.Context) error {
		logging.Sync()
		return nil
	},
}

func defineCommand(command *cli.Command) {
	app.Commands = append(app.Commands, command)
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func main() {
	sort.Sort(cli.CommandsByName(app.Commands))
	e := app.Run(os.Args)
	if e != nil {
		log.Fatal(e)
	}
}

func init() {
	defineCommand(&cli.Command{
		Name:  "algorithms",
		Usage: "List pipeline algorithms",
		Action: func(c *cli.Context) error {
			type algorithmInfo struct {
				Name     string          `json:"name"`
				Requires []pipeline.Item `json:"requires"`
				Optional []pipeline.Item `json:"optional,omitempty"`
				Produces []pipeline.Item `json:"produces,omitempty"`
			}
			list := []algorithmInfo{}
			for _, a := range pipeline.Algorithms() {
				list = append(list, algorithmInfo{a.Name, a.Requires, a.Optional, a.Produces})
			}
			return printJSON(c.App.Writer, list)
		},
	})
}
