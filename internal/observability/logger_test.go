package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestBlockVisitedLogsAtDebug(t *testing.T) {
	log, logs := observed()
	BlockVisited(log, "f", 2, 1)
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
}

func TestWidenedLogsAtDebug(t *testing.T) {
	log, logs := observed()
	Widened(log, "f", 2, 3, 3)
	assert.Equal(t, 1, logs.Len())
}

func TestSCCBoundaryLogsRecursiveFlag(t *testing.T) {
	log, logs := observed()
	SCCBoundary(log, []string{"a", "b"}, true)
	assert.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, true, entry.ContextMap()["recursive"])
}

func TestCacheEventLogsKind(t *testing.T) {
	log, logs := observed()
	CacheEvent(log, "hit", "f", "ctx")
	assert.Equal(t, "hit", logs.All()[0].ContextMap()["kind"])
}

func TestRunSummaryLogsAtInfo(t *testing.T) {
	log, logs := observed()
	RunSummary(log, 3, 1)
	assert.Equal(t, zapcore.InfoLevel, logs.All()[0].Level)
}

func TestNilLoggerIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		BlockVisited(nil, "f", 0, 0)
		Widened(nil, "f", 0, 0, 0)
		SCCBoundary(nil, nil, false)
		CacheEvent(nil, "miss", "f", "")
		RunSummary(nil, 0, 0)
	})
}

func TestNewLoggerBuildsWithoutError(t *testing.T) {
	log, err := NewLogger(true)
	assert.NoError(t, err)
	assert.NotNil(t, log)
}
