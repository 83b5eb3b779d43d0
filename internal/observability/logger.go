// Package observability provides the structured logger the analyzer's
// driver and solver use to trace fixpoint iterations, widening events, SCC
// boundaries, and cache activity.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a production-formatted zap logger, dropping to debug
// level when verbose is set.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// NewNop returns a logger that discards everything, for tests and
// callers that have not configured logging.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// BlockVisited logs one fixpoint worklist iteration at debug level. log may
// be nil, in which case it is a no-op.
func BlockVisited(log *zap.Logger, fn string, blockID, iteration int) {
	if log == nil {
		return
	}
	log.Debug("block visited",
		zap.String("function", fn),
		zap.Int("block", blockID),
		zap.Int("iteration", iteration),
	)
}

// Widened logs a loop-header widening event at debug level. log may be nil.
func Widened(log *zap.Logger, fn string, blockID, iteration, threshold int) {
	if log == nil {
		return
	}
	log.Debug("widened loop header",
		zap.String("function", fn),
		zap.Int("block", blockID),
		zap.Int("iteration", iteration),
		zap.Int("threshold", threshold),
	)
}

// SCCBoundary logs the start of one SCC's analysis at debug level. log may
// be nil.
func SCCBoundary(log *zap.Logger, members []string, recursive bool) {
	if log == nil {
		return
	}
	log.Debug("scc boundary",
		zap.Strings("members", members),
		zap.Bool("recursive", recursive),
	)
}

// CacheEvent logs a summary cache hit, miss, or eviction at debug level.
// log may be nil.
func CacheEvent(log *zap.Logger, kind, function, context string) {
	if log == nil {
		return
	}
	log.Debug("summary cache event",
		zap.String("kind", kind),
		zap.String("function", function),
		zap.String("context", context),
	)
}

// RunSummary logs one completed analysis run at info level. log may be
// nil.
func RunSummary(log *zap.Logger, functions, diagnostics int) {
	if log == nil {
		return
	}
	log.Info("analysis run complete",
		zap.Int("functions", functions),
		zap.Int("diagnostics", diagnostics),
	)
}
