package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMatchesDocumentedValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3, cfg.WideningThreshold)
	assert.Equal(t, 100, cfg.MaxBlockIterations)
	assert.Equal(t, 256, cfg.ContextCacheSize)
	assert.Equal(t, 30000, cfg.FunctionTimeoutMs)
	assert.True(t, cfg.EnableRangeDomain)
	assert.False(t, cfg.TreatUnknownCalleesAsPure)
}

func TestLoadOverlaysPartialFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analyzer.toml")
	err := os.WriteFile(path, []byte("widening_threshold = 5\nenable_sign_domain = false\n"), 0o644)
	assert.NoError(t, err)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 5, cfg.WideningThreshold)
	assert.False(t, cfg.EnableSignDomain)
	// Untouched keys keep their default.
	assert.Equal(t, 256, cfg.ContextCacheSize)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/analyzer.toml")
	assert.Error(t, err)
}
