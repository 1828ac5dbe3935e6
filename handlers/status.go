package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusDeps carries the dependency probes the readiness endpoint reports
// on. Nil probes mean the dependency is not configured and are skipped.
type StatusDeps struct {
	StartTime time.Time
	Mongo     func(ctx context.Context) error
	Redis     func(ctx context.Context) error
	Storage   func(ctx context.Context) error
}

// RegisterStatus wires the status, liveness and readiness endpoints.
func RegisterStatus(r *gin.Engine, deps StatusDeps) {
	// the CRON jobs and uptime checks all point at /status
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/status")
	})

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "Status OK, server is running"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint - return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		ready := true
		checks := map[string]bool{}
		probes := map[string]func(context.Context) error{
			"mongo":   deps.Mongo,
			"redis":   deps.Redis,
			"storage": deps.Storage,
		}
		for name, probe := range probes {
			if probe == nil {
				continue
			}
			err := probe(ctx)
			checks[name] = err == nil
			if err != nil {
				ready = false
			}
		}

		uptime := time.Since(deps.StartTime).String()
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": checks, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": checks, "uptime": uptime})
	})
}
