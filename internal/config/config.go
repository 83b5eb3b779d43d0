// Package config loads the analyzer's tunable knobs (§6 Configuration)
// from a TOML file or built-in defaults.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// AnalyzerConfig mirrors §6's recognized options.
type AnalyzerConfig struct {
	WideningThreshold         int  `toml:"widening_threshold"`
	MaxBlockIterations        int  `toml:"max_block_iterations"`
	ContextCacheSize          int  `toml:"context_cache_size"`
	FunctionTimeoutMs         int  `toml:"function_timeout_ms"`
	EnableRangeDomain         bool `toml:"enable_range_domain"`
	EnableNullabilityDomain   bool `toml:"enable_nullability_domain"`
	EnableSignDomain          bool `toml:"enable_sign_domain"`
	TreatUnknownCalleesAsPure bool `toml:"treat_unknown_callees_as_pure"`

	// MaxIntervalWidth is a knob beyond §6's list, loaded from TOML with a
	// default of 0. No analysis step reads it, so it does not affect
	// results; domain.Range.ClampWidth is the matching helper.
	MaxIntervalWidth int64 `toml:"max_interval_width"`
}

// Default returns the documented defaults.
func Default() AnalyzerConfig {
	return AnalyzerConfig{
		WideningThreshold:         3,
		MaxBlockIterations:        100,
		ContextCacheSize:          256,
		FunctionTimeoutMs:         30000,
		EnableRangeDomain:         true,
		EnableNullabilityDomain:   true,
		EnableSignDomain:          true,
		TreatUnknownCalleesAsPure: false,
		MaxIntervalWidth:          0,
	}
}

// Load reads path as TOML, overlaying it onto Default() so a partial file
// only overrides the keys it sets.
func Load(path string) (AnalyzerConfig, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return AnalyzerConfig{}, fmt.Errorf("load analyzer config %s: %w", path, err)
	}
	return cfg, nil
}
