// Package version records mcroute version information.
package version

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"time"
)

// Variables replaced via -ldflags -X.
var (
	commit string
	date   string
	dirty  string
)

// Version records mcroute version information.
type Version struct {
	Version string    `json:"version"`
	Commit  string    `json:"commit"`
	Date    time.Time `json:"date"`
	Dirty   bool      `json:"dirty"`
}

func (v Version) String() string {
	return v.Version
}

// Get returns version information.
// It prefers values set via -ldflags, then VCS information embedded by the Go toolchain.
func Get() (v Version) {
	c, d, dirty := commit, date, dirty != ""
	if dt, e := strconv.ParseInt(d, 10, 64); e == nil && len(c) == 40 {
		return makeVersion(c, time.Unix(dt, 0), dirty)
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		bs := map[string]string{}
		for _, kv := range bi.Settings {
			bs[kv.Key] = kv.Value
		}
		if dt, e := time.Parse(time.RFC3339, bs["vcs.time"]); e == nil && len(bs["vcs.revision"]) == 40 {
			return makeVersion(bs["vcs.revision"], dt, bs["vcs.modified"] == "true")
		}
	}

	return Version{
		Version: "development",
		Commit:  "unknown",
		Date:    time.Now(),
		Dirty:   true,
	}
}

func makeVersion(commit string, date time.Time, dirty bool) (v Version) {
	v.Commit, v.Date, v.Dirty = commit, date, dirty
	dirtySuffix := ""
	if v.Dirty {
		dirtySuffix = "-dirty"
	}
	v.Version = fmt.Sprintf("v0.0.0-%s-%s%s", v.Date.UTC().Format("20060102150405"), commit[:12], dirtySuffix)
	return v
}
