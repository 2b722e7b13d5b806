package monitor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/centinela/internal/monitor"
	"github.com/raysh454/centinela/internal/testutil"
)

func TestHealthMonitor_InitialUnknown(t *testing.T) {
	t.Parallel()
	m, err := monitor.NewHealthMonitor(&testutil.DummyAnalyzer{}, "@every 1h", 0, &testutil.DummyLogger{})
	require.NoError(t, err)

	last := m.Last()
	assert.Equal(t, monitor.StatusUnknown, last.Status)
	assert.False(t, last.Healthy())
}

func TestHealthMonitor_CheckNow(t *testing.T) {
	t.Parallel()
	checker := &testutil.DummyAnalyzer{}
	m, err := monitor.NewHealthMonitor(checker, "@every 1h", time.Second, &testutil.DummyLogger{})
	require.NoError(t, err)

	hs := m.CheckNow(context.Background())
	assert.Equal(t, "ok", hs.Status)
	assert.True(t, hs.Healthy())
	assert.False(t, hs.CheckedAt.IsZero())
	assert.Equal(t, hs, m.Last())
	assert.Equal(t, 1, checker.HealthChecks())
}

func TestHealthMonitor_CheckNow_Failure(t *testing.T) {
	t.Parallel()
	logger := &testutil.DummyLogger{}
	checker := &testutil.DummyAnalyzer{HealthErr: errors.New("connection refused")}
	m, err := monitor.NewHealthMonitor(checker, "@every 1h", 0, logger)
	require.NoError(t, err)

	hs := m.CheckNow(context.Background())
	assert.Equal(t, monitor.StatusUnreachable, hs.Status)
	assert.Equal(t, "connection refused", hs.Error)
	assert.False(t, hs.Healthy())
	assert.Equal(t, 1, logger.WarnCount())
}

func TestHealthMonitor_Schedule(t *testing.T) {
	t.Parallel()
	checker := &testutil.DummyAnalyzer{}
	m, err := monitor.NewHealthMonitor(checker, "@every 1s", 0, &testutil.DummyLogger{})
	require.NoError(t, err)

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool { return checker.HealthChecks() > 0 }, 5*time.Second, 50*time.Millisecond)
}

func TestNewHealthMonitor_Errors(t *testing.T) {
	t.Parallel()
	_, err := monitor.NewHealthMonitor(nil, "@every 1s", 0, &testutil.DummyLogger{})
	assert.Error(t, err)

	_, err = monitor.NewHealthMonitor(&testutil.DummyAnalyzer{}, "not a spec", 0, &testutil.DummyLogger{})
	assert.Error(t, err)
}
