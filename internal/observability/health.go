package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "UP"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusDown     HealthStatus = "DOWN"
)

// HealthCheck probes one dependency, e.g. the warehouse or the redis cache
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) HealthResult
}

// CheckFunc adapts a plain function to HealthCheck. A nil error is UP.
// Critical checks report DOWN on failure, the rest DEGRADED.
type CheckFunc struct {
	CheckName string
	Critical  bool
	Fn        func(ctx context.Context) error
}

func (c CheckFunc) Name() string { return c.CheckName }

func (c CheckFunc) Check(ctx context.Context) HealthResult {
	if err := c.Fn(ctx); err != nil {
		status := HealthStatusDegraded
		if c.Critical {
			status = HealthStatusDown
		}
		return HealthResult{Status: status, Message: err.Error()}
	}
	return HealthResult{Status: HealthStatusUp}
}

// HealthResult represents the result of a health check
type HealthResult struct {
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthReport represents the overall health report
type HealthReport struct {
	Status     HealthStatus            `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	Components map[string]HealthResult `json:"components"`
}

// HealthManager runs registered checks concurrently under one timeout
type HealthManager struct {
	mu      sync.RWMutex
	checks  map[string]HealthCheck
	timeout time.Duration
	logger  *Logger
}

func NewHealthManager(timeout time.Duration, logger *Logger) *HealthManager {
	return &HealthManager{
		checks:  make(map[string]HealthCheck),
		timeout: timeout,
		logger:  logger,
	}
}

func (hm *HealthManager) RegisterCheck(check HealthCheck) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checks[check.Name()] = check
}

// Checks returns the registered check names in order
func (hm *HealthManager) Checks() []string {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	names := make([]string, 0, len(hm.checks))
	for name := range hm.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth performs all health checks and returns a report
func (hm *HealthManager) CheckHealth(ctx context.Context) HealthReport {
	hm.mu.RLock()
	checks := make([]HealthCheck, 0, len(hm.checks))
	for _, check := range hm.checks {
		checks = append(checks, check)
	}
	hm.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()

	type named struct {
		name   string
		result HealthResult
	}
	results := make(chan named, len(checks))

	for _, check := range checks {
		go func(check HealthCheck) {
			start := time.Now()
			result := check.Check(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()
			results <- named{check.Name(), result}
		}(check)
	}

	report := HealthReport{
		Status:     HealthStatusUp,
		Timestamp:  time.Now(),
		Components: make(map[string]HealthResult, len(checks)),
	}

	for range checks {
		r := <-results
		report.Components[r.name] = r.result

		switch r.result.Status {
		case HealthStatusDown:
			report.Status = HealthStatusDown
		case HealthStatusDegraded:
			if report.Status == HealthStatusUp {
				report.Status = HealthStatusDegraded
			}
		}
	}

	if hm.logger != nil && report.Status != HealthStatusUp {
		hm.logger.WarnWithFields("Health check failed", map[string]interface{}{
			"status":     string(report.Status),
			"components": len(report.Components),
		})
	}

	return report
}

// HealthHandler serves the report; DOWN maps to 503
func (hm *HealthManager) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := hm.CheckHealth(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if report.Status == HealthStatusDown {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(report)
	}
}
