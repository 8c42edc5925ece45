// Package health reports whether the backing stores are reachable.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const probeTimeout = 3 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

func RegisterRoutes(rg *gin.RouterGroup, checks map[string]Check, log *zap.Logger) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		results := make(gin.H, len(names)+1)
		for _, name := range names {
			err := checks[name](ctx)
			results[name] = err == nil
			if err != nil {
				log.Warn("health check failed", zap.String("check", name), zap.Error(err))
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		results["status"] = status
		c.JSON(code, results)
	})
}
