package handlers

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports the state of the service's dependencies.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// Pinger is implemented by the PostgreSQL and SQLite stores and the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe is one named dependency check.
// A failing Optional probe makes the service unhealthy but keeps it ready.
type Probe struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool
}

// DatabaseProbe checks the primary store. Without it nothing can be served.
func DatabaseProbe(db Pinger) Probe {
	return Probe{Name: "database", Check: db.Ping}
}

// CacheProbe checks Redis. Group lookups fall back to the database, so a
// cache outage only degrades the service.
func CacheProbe(cache Pinger) Probe {
	return Probe{Name: "redis", Check: cache.Ping, Optional: true}
}

// HealthStatus is the body of /health.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Ready     bool                   `json:"ready"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Optional bool   `json:"optional,omitempty"`
	Message  string `json:"message"`
	Duration string `json:"duration"`
}

// CompositeHealthChecker runs its probes concurrently, each under its own timeout.
type CompositeHealthChecker struct {
	probes  []Probe
	version string
	timeout time.Duration
	started time.Time
}

// NewCompositeHealthChecker creates a checker; a non-positive timeout means 5s.
func NewCompositeHealthChecker(version string, timeout time.Duration, probes ...Probe) *CompositeHealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CompositeHealthChecker{
		probes:  probes,
		version: version,
		timeout: timeout,
		started: time.Now(),
	}
}

// Check runs every probe and folds the results.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Checks:    make(map[string]CheckResult, len(c.probes)),
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}

	results := make([]CheckResult, len(c.probes))
	var wg sync.WaitGroup
	for i, p := range c.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.run(ctx, p)
		}()
	}
	wg.Wait()

	var failed []string
	for i, p := range c.probes {
		r := results[i]
		status.Checks[p.Name] = r
		if r.Healthy {
			continue
		}
		status.Healthy = false
		if !p.Optional {
			status.Ready = false
		}
		failed = append(failed, p.Name)
	}

	switch {
	case len(c.probes) == 0:
		status.Message = "No health checks registered"
	case len(failed) == 0:
		status.Message = "All checks passed"
	default:
		slices.Sort(failed)
		status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	}
	return status
}

func (c *CompositeHealthChecker) run(ctx context.Context, p Probe) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := p.Check(ctx)
	r := CheckResult{
		Healthy:  err == nil,
		Optional: p.Optional,
		Message:  "OK",
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}
