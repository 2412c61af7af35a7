package utils

import (
	"context"
	"sync"
	"time"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Healthy   bool            `json:"healthy"`
	Services  map[string]bool `json:"services"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// HealthMonitor keeps the latest result of each named check in memory.
type HealthMonitor struct {
	checks map[string]HealthCheck

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(checks map[string]HealthCheck) *HealthMonitor {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthMonitor{checks: checks}
}

// Status returns latest stored health snapshot.
func (h *HealthMonitor) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Check runs every check once and stores the result.
func (h *HealthMonitor) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true, Services: make(map[string]bool, len(h.checks))}
	for name, check := range h.checks {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		ok := check(cctx) == nil
		cancel()
		status.Services[name] = ok
		status.Healthy = status.Healthy && ok
	}
	status.CheckedAt = time.Now().UTC()

	h.mu.Lock()
	h.current = status
	h.mu.Unlock()
	return status
}

// Start re-runs the checks every interval until ctx is done.
func (h *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	h.Check(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Check(ctx)
			}
		}
	}()
}
