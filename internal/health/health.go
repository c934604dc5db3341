// Package health implements the §4.6 three-leg health aggregation:
// Result Store connectivity, at least one active worker, and the
// existence of the upload/crop/output directories.
package health

import (
	"context"
	"os"
	"time"

	"github.com/cuemby/visionq/pkg/cache"
	"github.com/cuemby/visionq/pkg/store"
)

// Response is the JSON shape returned by GET /api/v1/health.
type Response struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Checker aggregates the three legs named in §4.6.
type Checker struct {
	Store       store.Store
	Cache       cache.Cache
	Directories []string
}

// Check runs all three legs and returns "unhealthy" if any fails,
// matching the original's "overall unhealthy if any leg fails" policy.
func (c *Checker) Check(ctx context.Context) Response {
	checks := make(map[string]string)
	healthy := true

	dbStatus := c.Store.HealthCheck(ctx)
	if dbStatus.Healthy {
		checks["database"] = "ok"
	} else {
		checks["database"] = "error: " + dbStatus.Error
		healthy = false
	}

	active, err := c.Cache.ActiveWorkers(ctx)
	switch {
	case err != nil:
		checks["workers"] = "error: " + err.Error()
		healthy = false
	case active == 0:
		checks["workers"] = "no active workers"
		healthy = false
	default:
		checks["workers"] = "ok"
	}

	for _, dir := range c.Directories {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			checks["directory:"+dir] = "missing"
			healthy = false
		} else {
			checks["directory:"+dir] = "ok"
		}
	}

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	return Response{Status: status, Timestamp: time.Now(), Checks: checks}
}
