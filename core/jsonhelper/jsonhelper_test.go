package jsonhelper_test

import (
	"testing"

	"github.com/mcroute/mcroute/core/jsonhelper"
)

type record struct {
	A int    `json:"a"`
	B string `json:"b"`
}

func TestRoundtrip(t *testing.T) {
	assert, require := makeAR(t)

	var r record
	require.NoError(jsonhelper.Roundtrip(map[string]any{"a": 4, "b": "x"}, &r))
	assert.Equal(record{A: 4, B: "x"}, r)

	doc := map[string]any{"a": 1, "c": true}
	assert.NoError(jsonhelper.Roundtrip(doc, &r))
	assert.Error(jsonhelper.Roundtrip(doc, &r, jsonhelper.DisallowUnknownFields))

	assert.Error(jsonhelper.Roundtrip(map[string]any{"a": "x"}, &r))
}
