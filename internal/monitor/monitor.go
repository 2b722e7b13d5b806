// Package monitor periodically probes the Analysis Service and keeps the
// latest result for the presentation API.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raysh454/centinela/internal/logging"
)

const (
	StatusUnknown     = "unknown"
	StatusUnreachable = "unreachable"
)

// Checker is the part of analyzer.Analyzer the monitor needs.
type Checker interface {
	Health(ctx context.Context) (string, error)
}

// HealthStatus is the outcome of the latest probe.
type HealthStatus struct {
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Healthy reports whether the last probe succeeded.
func (h HealthStatus) Healthy() bool {
	return h.Error == "" && h.Status != StatusUnknown && h.Status != ""
}

// HealthMonitor runs Checker.Health on a cron schedule.
type HealthMonitor struct {
	checker Checker
	timeout time.Duration
	logger  logging.Logger

	cron  *cron.Cron
	entry cron.EntryID

	mu   sync.RWMutex
	last HealthStatus
}

// NewHealthMonitor schedules probes with spec, a standard cron expression or
// descriptor such as "@every 30s". Each probe is bounded by timeout when > 0.
func NewHealthMonitor(checker Checker, spec string, timeout time.Duration, logger logging.Logger) (*HealthMonitor, error) {
	if checker == nil {
		return nil, errors.New("checker must not be nil")
	}
	m := &HealthMonitor{
		checker: checker,
		timeout: timeout,
		logger:  logger.With(logging.Field{Key: "component", Value: "monitor"}),
		cron:    cron.New(),
		last:    HealthStatus{Status: StatusUnknown},
	}
	id, err := m.cron.AddFunc(spec, func() { m.CheckNow(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("add cron: %w", err)
	}
	m.entry = id
	return m, nil
}

// Start begins cron execution.
func (m *HealthMonitor) Start() {
	m.logger.Info("health monitor started")
	m.cron.Start()
}

// Stop stops the schedule and waits for a running probe to finish.
func (m *HealthMonitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("health monitor stopped")
}

// Last returns the most recent probe result.
func (m *HealthMonitor) Last() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// CheckNow probes immediately and records the result.
func (m *HealthMonitor) CheckNow(ctx context.Context) HealthStatus {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	status, err := m.checker.Health(ctx)
	hs := HealthStatus{Status: status, CheckedAt: time.Now()}
	if err != nil {
		hs.Status = StatusUnreachable
		hs.Error = err.Error()
	}

	m.mu.Lock()
	prev := m.last
	m.last = hs
	m.mu.Unlock()

	if prev.Healthy() != hs.Healthy() || prev.Status == StatusUnknown {
		if hs.Healthy() {
			m.logger.Info("analysis service healthy", logging.Field{Key: "status", Value: hs.Status})
		} else {
			m.logger.Warn("analysis service unhealthy", logging.Field{Key: "error", Value: hs.Error})
		}
	}
	return hs
}
