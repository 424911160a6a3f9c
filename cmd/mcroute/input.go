package main

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/mcroute/mcroute/core/jsonhelper"
	"github.com/peterbourgon/mergemap"
	"github.com/urfave/cli/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed schema/*.schema.json
var schemaFS embed.FS

type schemaError struct {
	*gojsonschema.Result
	SchemaName string
}

func (e schemaError) Error() string {
	var b strings.Builder
	fmt.Fprintln(&b, "input document failed schema validation:")
	for _, desc := range e.Result.Errors() {
		fmt.Fprintln(&b, "-", desc)
	}
	fmt.Fprintln(&b, "Schema", e.SchemaName)
	return b.String()
}

func checkSchema(doc map[string]any, schemaName string) error {
	schema, e := schemaFS.ReadFile("schema/" + schemaName + ".schema.json")
	if e != nil {
		return e
	}

	result, e := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewGoLoader(doc))
	if e != nil {
		return fmt.Errorf("JSON schema validator error: %w", e)
	}
	if !result.Valid() {
		return schemaError{Result: result, SchemaName: schemaName}
	}
	return nil
}

// loadDocuments reads YAML or JSON documents and merges them in order.
// Later documents override scalar values of earlier documents; nested objects are merged.
// Documents are parsed as YAML 1.2, so that keys such as y and n stay strings.
func loadDocuments(filenames []string) (doc map[string]any, e error) {
	doc = map[string]any{}
	errs := []error{}
	for _, filename := range filenames {
		body, e := os.ReadFile(filename)
		if e != nil {
			errs = append(errs, e)
			continue
		}
		var m map[string]any
		if e := yaml.Unmarshal(body, &m); e != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filename, e))
			continue
		}
		doc = mergemap.Merge(doc, stringKeys(m).(map[string]any))
	}
	return doc, multierr.Combine(errs...)
}

// stringKeys converts mappings with non-string keys, such as numeric vertex names, into JSON-compatible objects.
func stringKeys(input any) any {
	switch input := input.(type) {
	case map[string]any:
		m := make(map[string]any, len(input))
		for k, v := range input {
			m[k] = stringKeys(v)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(input))
		for k, v := range input {
			m[fmt.Sprint(k)] = stringKeys(v)
		}
		return m
	case []any:
		a := make([]any, len(input))
		for i, v := range input {
			a[i] = stringKeys(v)
		}
		return a
	default:
		return input
	}
}

// decodeInput loads documents, validates them against a schema, and decodes into ptr.
func decodeInput(filenames []string, schemaName string, skipSchema bool, ptr any) error {
	doc, e := loadDocuments(filenames)
	if e != nil {
		return e
	}
	if !skipSchema {
		if e := checkSchema(doc, schemaName); e != nil {
			return e
		}
	}

	return jsonhelper.Roundtrip(doc, ptr, jsonhelper.DisallowUnknownFields)
}

type inputCommand struct {
	Name       string
	Usage      string
	SchemaName string
	Flags      []cli.Flag
	Action     func(c *cli.Context, decode func(ptr any) error) error
}

func defineInputCommand(opts inputCommand) {
	var skipSchema bool
	defineCommand(&cli.Command{
		Name:  opts.Name,
		Usage: opts.Usage,
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "input `FILE` in YAML or JSON (repeatable, merged in order)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:        "skip-schema",
				Usage:       "do not check JSON schema",
				Value:       false,
				Destination: &skipSchema,
			},
		}, opts.Flags...),
		Action: func(c *cli.Context) error {
			return opts.Action(c, func(ptr any) error {
				return decodeInput(c.StringSlice("input"), opts.SchemaName, skipSchema, ptr)
			})
		},
	})
}
