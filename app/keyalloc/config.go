package keyalloc

import (
	mathpkg "github.com/pkg/math"
)

// Limits and defaults.
const (
	MinMaskBudget     = 1
	MaxMaskBudget     = 1 << 24
	DefaultMaskBudget = 1 << 12

	MinSearchBudget     = 1
	MaxSearchBudget     = 1 << 24
	DefaultSearchBudget = 1 << 16
)

// Config contains key allocator configuration.
type Config struct {
	// MaskBudget is the maximum number of candidate masks examined per partition.
	MaskBudget int `json:"maskBudget,omitempty"`

	// SearchBudget is the maximum number of base keys tried per candidate mask.
	// It also limits how many separate key ranges one mask may occupy.
	SearchBudget int `json:"searchBudget,omitempty"`
}

// ApplyDefaults applies defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.MaskBudget == 0 {
		cfg.MaskBudget = DefaultMaskBudget
	} else {
		cfg.MaskBudget = mathpkg.MinInt(mathpkg.MaxInt(MinMaskBudget, cfg.MaskBudget), MaxMaskBudget)
	}

	if cfg.SearchBudget == 0 {
		cfg.SearchBudget = DefaultSearchBudget
	} else {
		cfg.SearchBudget = mathpkg.MinInt(mathpkg.MaxInt(MinSearchBudget, cfg.SearchBudget), MaxSearchBudget)
	}
}
