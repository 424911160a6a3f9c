// Package nnduration provides JSON-friendly duration types.
// A value can be written as a non-negative integer in the type's unit, or as a string accepted by time.ParseDuration.
package nnduration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func parse(input string, unit time.Duration) (value uint64, e error) {
	if d, e := time.ParseDuration(input); e == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative duration %s", d)
		}
		return uint64(d / unit), nil
	}
	return strconv.ParseUint(input, 10, 64)
}

// Milliseconds is a duration in milliseconds.
type Milliseconds uint64

// Duration converts to time.Duration.
func (d Milliseconds) Duration() time.Duration {
	return time.Duration(d) * time.Millisecond
}

// DurationOr converts to time.Duration, or returns dflt milliseconds if d is zero.
func (d Milliseconds) DurationOr(dflt Milliseconds) time.Duration {
	if d == 0 {
		return dflt.Duration()
	}
	return d.Duration()
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (d *Milliseconds) UnmarshalJSON(p []byte) error {
	value, e := parse(strings.Trim(string(p), `"`), time.Millisecond)
	if e != nil {
		return e
	}
	*d = Milliseconds(value)
	return nil
}
