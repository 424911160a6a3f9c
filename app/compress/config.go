package compress

import (
	"runtime"

	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/core/nnduration"
	mathpkg "github.com/pkg/math"
)

// Limits and defaults.
const (
	MinTargetLength     = 1
	MaxTargetLength     = 1 << 16
	DefaultTargetLength = rtdef.DefaultTableCapacity

	MinMaxMerges     = 1
	MaxMaxMerges     = 1 << 24
	DefaultMaxMerges = 1 << 20

	MaxWorkers = 256
)

// Config contains router compressor configuration.
type Config struct {
	// TargetLength is the maximum number of entries per router.
	TargetLength int `json:"targetLength,omitempty"`

	// MaxMerges is the maximum number of merges performed on one router.
	MaxMerges int `json:"maxMerges,omitempty"`

	// Timeout limits compression time per router.
	// Zero means no limit other than the context passed to Compress.
	Timeout nnduration.Milliseconds `json:"timeout,omitempty"`

	// Workers is the number of routers compressed in parallel.
	// Default is the number of CPUs.
	Workers int `json:"workers,omitempty"`
}

// ApplyDefaults applies defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.TargetLength == 0 {
		cfg.TargetLength = DefaultTargetLength
	} else {
		cfg.TargetLength = mathpkg.MinInt(mathpkg.MaxInt(MinTargetLength, cfg.TargetLength), MaxTargetLength)
	}

	if cfg.MaxMerges == 0 {
		cfg.MaxMerges = DefaultMaxMerges
	} else {
		cfg.MaxMerges = mathpkg.MinInt(mathpkg.MaxInt(MinMaxMerges, cfg.MaxMerges), MaxMaxMerges)
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	cfg.Workers = mathpkg.MinInt(cfg.Workers, MaxWorkers)
}
