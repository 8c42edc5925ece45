package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/config"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/database"
	jwtpkg "github.com/Department-for-Transport-Disruptions/disruption-manager/internal/pkg/jwt"
	pkgredis "github.com/Department-for-Transport-Disruptions/disruption-manager/internal/pkg/redis"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table/dynamo"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table/redistable"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table/sqltable"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Tables are the three logical tables the service reads and writes.
type Tables struct {
	Disruptions   table.Table
	Templates     table.Table
	Organisations table.Table
}

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	logger  *zap.Logger
	closers []func() error
}

// New initializes the application: config → storage → Redis → routes.
func New(ctx context.Context, logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	switch secret := strings.TrimSpace(cfg.JWTSecret); {
	case secret != "":
		jwtpkg.SetSecret(secret)
	case cfg.IsDev():
		logger.Warn("jwt_secret is empty, using the development signing key")
	default:
		return nil, errors.New("jwt_secret is required outside development")
	}

	a := &App{cfg: cfg, logger: logger}

	var rc *pkgredis.Client
	if cfg.RedisURL != "" {
		var err error
		rc, err = pkgredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, rc.Close)
	}

	tables, err := a.openTables(ctx, rc)
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("storage: %w", err)
	}
	logger.Info("storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("disruptions", tables.Disruptions.Name()),
		zap.String("templates", tables.Templates.Name()),
		zap.String("organisations", tables.Organisations.Name()),
	)

	var rdb redis.Cmdable
	if rc != nil {
		rdb = rc.Raw()
	}
	a.router = newRouter(cfg, logger, tables, rdb)
	return a, nil
}

func (a *App) openTables(ctx context.Context, rc *pkgredis.Client) (Tables, error) {
	names := a.cfg.Storage
	switch names.Driver {
	case config.DriverDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.ClientOptions{
			Region:          a.cfg.DynamoDB.Region,
			Endpoint:        a.cfg.DynamoDB.Endpoint,
			AccessKeyID:     a.cfg.DynamoDB.AccessKeyID,
			SecretAccessKey: a.cfg.DynamoDB.SecretAccessKey,
		})
		if err != nil {
			return Tables{}, err
		}
		return Tables{
			Disruptions:   dynamo.New(client, names.DisruptionsTable),
			Templates:     dynamo.New(client, names.TemplatesTable),
			Organisations: dynamo.New(client, names.OrganisationsTable),
		}, nil
	case config.DriverSQL:
		db, err := database.Connect(a.cfg)
		if err != nil {
			return Tables{}, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		return Tables{
			Disruptions:   sqltable.New(db, names.DisruptionsTable),
			Templates:     sqltable.New(db, names.TemplatesTable),
			Organisations: sqltable.New(db, names.OrganisationsTable),
		}, nil
	case config.DriverRedis:
		if rc == nil {
			return Tables{}, errors.New("the redis driver needs redis_url")
		}
		return Tables{
			Disruptions:   redistable.New(rc.Raw(), names.DisruptionsTable),
			Templates:     redistable.New(rc.Raw(), names.TemplatesTable),
			Organisations: redistable.New(rc.Raw(), names.OrganisationsTable),
		}, nil
	}
	return Tables{}, fmt.Errorf("unknown storage driver %q", names.Driver)
}

func newCORS(cfg *config.AppConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-idempotence"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		corsConfig.AllowOriginFunc = allowOrigins(cfg.AllowedOrigins)
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return cors.New(corsConfig)
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown closes the storage and Redis connections.
func (a *App) Shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
