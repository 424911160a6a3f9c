package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mcroute/mcroute/app/pipeline"
	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/core/logging"
	"github.com/mcroute/mcroute/core/testenv"
)

var makeAR = testenv.MakeAR

func runApp(t testing.TB, args ...string) (output []byte, e error) {
	cfg = pipeline.Config{}
	var buf bytes.Buffer
	app.Writer = &buf
	e = app.Run(append([]string{"mcroute"}, args...))
	return buf.Bytes(), e
}

const graphYAML = `
machine:
  width: 2
  height: 2
graph:
  placements:
    s: {chip: {x: 0, y: 0}, core: 0}
    d: {chip: {x: 3, y: 1}, core: 2}
  partitions:
    - id: s/out
      nKeys: 5
      constraints:
        - kind: FixedField
          fields: [{name: app, lo: 24, hi: 31, value: 7}]
        - kind: ChipAndCore
          chip: {x: 0, y: 0}
      destinations: [d]
`

func TestCompile(t *testing.T) {
	assert, require := makeAR(t)

	base := testenv.WriteTempFile(t, "graph.yaml", graphYAML)
	override := testenv.WriteTempFile(t, "wide.json", `{"machine":{"width":4}}`)

	output, e := runApp(t, "compile", "--input", base, "--input", override)
	require.NoError(e)

	var result struct {
		RoutingInfo []struct {
			Partition string `json:"partition"`
			Key       uint32 `json:"key"`
			Mask      uint32 `json:"mask"`
		} `json:"routingInfo"`
		Tables []rtdef.Table `json:"tables"`
		Report struct {
			Routers int `json:"routers"`
		} `json:"report"`
	}
	require.NoError(json.Unmarshal(output, &result))
	require.Len(result.RoutingInfo, 1)
	assert.Equal("s/out", result.RoutingInfo[0].Partition)
	assert.Equal(uint32(0x07000000), result.RoutingInfo[0].Key)
	assert.Equal(uint32(0xFFFFFFF8), result.RoutingInfo[0].Mask)
	assert.Len(result.Tables, 4)
	assert.Equal(4, result.Report.Routers)
	for _, table := range result.Tables {
		assert.Len(table.Entries, 1)
	}
}

func TestCompileSchema(t *testing.T) {
	assert, _ := makeAR(t)

	base := testenv.WriteTempFile(t, "graph.yaml", graphYAML)
	bad := testenv.WriteTempFile(t, "bad.yaml", "machine:\n  width: 0\n")
	_, e := runApp(t, "compile", "--input", base, "--input", bad)
	var se schemaError
	if assert.True(errors.As(e, &se)) {
		assert.Contains(se.Error(), "width")
	}

	extra := testenv.WriteTempFile(t, "extra.yaml", "machine:\n  depth: 3\n")
	_, e = runApp(t, "compile", "--skip-schema", "--input", base, "--input", extra)
	assert.ErrorContains(e, "depth")

	_, e = runApp(t, "compile", "--input", base+".missing")
	assert.Error(e)
}

func TestCompileCapacity(t *testing.T) {
	assert, _ := makeAR(t)

	input := testenv.WriteTempFile(t, "graph.yaml", graphYAML+`
    - id: s/ctl
      nKeys: 1
      destinations: [s]
`)
	// the source chip holds two entries with different routes
	_, e := runApp(t, "compile", "--no-compress", "--capacity", "1", "--input", input)
	var mfe *rtdef.MinimisationFailedError
	assert.ErrorAs(e, &mfe)
}

func TestCompress(t *testing.T) {
	assert, require := makeAR(t)

	input := testenv.WriteTempFile(t, "tables.json", `{
		"tables": [
			{
				"router": {"x": 0, "y": 0},
				"entries": [
					{"key": 0, "mask": 14, "route": {"links": [0]}},
					{"key": 2, "mask": 14, "route": {"links": [0]}},
					{"key": 4, "mask": 14, "route": 4},
					{"key": 6, "mask": 14, "route": 4}
				]
			},
			{
				"router": {"x": 1, "y": 0},
				"entries": [
					{"key": 0, "mask": 15, "route": 1},
					{"key": 1, "mask": 15, "route": 2},
					{"key": 2, "mask": 15, "route": 4}
				]
			}
		]
	}`)

	output, e := runApp(t, "--config", "compress:\n  targetLength: 2\n", "compress", "--input", input)
	var mfe *rtdef.MinimisationFailedError
	if assert.ErrorAs(e, &mfe) {
		assert.Equal(3, mfe.FinalLength)
	}

	var result compressOutput
	require.NoError(json.Unmarshal(output, &result))
	require.Len(result.Tables, 2)
	assert.Len(result.Tables[0].Entries, 2)
	assert.Len(result.Tables[1].Entries, 3)
	assert.Len(result.Report.Failed, 1)

	output, e = runApp(t, "compress", "--capacity", "3", "--input", input)
	require.NoError(e)
	require.NoError(json.Unmarshal(output, &result))
	assert.Len(result.Tables[0].Entries, 3)
}

func TestAlgorithms(t *testing.T) {
	assert, require := makeAR(t)

	output, e := runApp(t, "algorithms")
	require.NoError(e)
	var list []struct {
		Name string `json:"name"`
	}
	require.NoError(json.Unmarshal(output, &list))
	assert.Len(list, len(pipeline.Algorithms()))
}

func TestLogFlag(t *testing.T) {
	assert, require := makeAR(t)
	t.Cleanup(func() { logging.SetAllLevels("") })

	_, e := runApp(t, "--log", "E", "algorithms")
	require.NoError(e)
	for _, pkg := range []string{"keyalloc", "compress", "pipeline"} {
		pl := logging.FindLevel(pkg)
		if assert.NotNil(pl, pkg) {
			assert.EqualValues('E', pl.Level(), pkg)
		}
	}
}
