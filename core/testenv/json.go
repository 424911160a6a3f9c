package testenv

import (
	"bytes"
	"encoding/json"
)

// FromJSON unmarshals from JSON string, rejecting unknown fields.
// Error causes panic.
func FromJSON(j string, ptr any) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(j)))
	decoder.DisallowUnknownFields()
	if e := decoder.Decode(ptr); e != nil {
		panic(e)
	}
}

// ToJSON marshals a value as JSON string.
func ToJSON(v any) string {
	j, e := json.Marshal(v)
	if e != nil {
		return "ERROR: " + e.Error()
	}
	return string(j)
}
