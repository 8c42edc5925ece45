package app

import (
	"context"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/config"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/middleware"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/modules/disruption"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/modules/health"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/modules/organisation"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/pkg/response"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const apiPrefix = "/api"

// healthKey is read to prove the storage backend answers; it never exists.
var healthKey = table.Key{PK: "__health__", SK: "INFO"}

// newRouter builds the gin engine. rdb may be nil, in which case rate
// limiting and idempotence are off.
func newRouter(cfg *config.AppConfig, logger *zap.Logger, tables Tables, rdb redis.Cmdable) *gin.Engine {
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(newCORS(cfg))

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	checks := map[string]health.Check{
		"storage": func(ctx context.Context) error {
			_, err := tables.Organisations.Get(ctx, healthKey)
			return err
		},
	}

	api := r.Group(apiPrefix)
	// Auth runs first so that limits are counted per organisation.
	secured := []gin.HandlerFunc{middleware.Auth()}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		secured = append(secured, middleware.RateLimit(rdb, cfg.RateLimit, logger), middleware.Idempotence(rdb))
	}
	health.RegisterRoutes(api, checks, logger)

	store := disruption.NewStore(tables.Disruptions, tables.Templates, logger,
		disruption.WithPageSize(cfg.Storage.PageSize))
	disruption.NewHandler(disruption.NewService(store, logger), logger).RegisterRoutes(api, secured...)

	orgStore := organisation.NewStore(tables.Organisations, logger)
	organisation.NewHandler(orgStore, logger).RegisterRoutes(api, secured...)

	return r
}
