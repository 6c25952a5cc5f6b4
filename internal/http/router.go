package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"yomu/internal/config"
	"yomu/internal/metrics"
	"yomu/internal/services"
	"yomu/internal/store"
)

type Server struct {
	app    *fiber.App
	config *config.Config
	logger *slog.Logger
}

// NewServer wires the fiber app: request logging and metrics middleware,
// health and metrics endpoints, and the authenticated /v1 group. st may
// be nil when the service runs without a database.
func NewServer(cfg *config.Config, parse services.ParseService, st *store.Store, logger *slog.Logger) *Server {
	app := fiber.New()

	// Request logging + metrics middleware
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		// Ensure a request ID exists
		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		method := c.Method()
		path := c.Path()

		metrics.RecordRequest(method, path, status, latency.Milliseconds())

		if logger != nil {
			logger.Info("request",
				"request_id", reqID,
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}

		return err
	})

	// Redis client for API rate limiting and health checks
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		if opt, err := redis.ParseURL(cfg.Redis.URL); err == nil {
			rdb = redis.NewClient(opt)
		}
	}

	// Health endpoints
	app.Get("/healthz", func(c *fiber.Ctx) error {
		// Shallow health: process is up
		if c.Query("deep") != "true" {
			return c.JSON(fiber.Map{"status": "ok"})
		}

		// Deep health: check DB and Redis connectivity and browser config.
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "disabled"
		if st != nil {
			dbStatus = "ok"
			if err := st.Ping(ctx); err != nil {
				dbStatus = "error"
			}
		}

		redisStatus := "disabled"
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			} else {
				redisStatus = "ok"
			}
		}

		browserStatus := "disabled"
		if cfg.Browser.Enabled {
			browserStatus = "enabled"
		}

		status := "ok"
		if dbStatus == "error" || redisStatus == "error" {
			status = "error"
		}

		return c.JSON(fiber.Map{
			"status":  status,
			"db":      dbStatus,
			"redis":   redisStatus,
			"browser": browserStatus,
		})
	})

	// Prometheus-style metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	authMw := authMiddleware(cfg, st)
	var rateMw fiber.Handler
	if rdb != nil {
		rateMw = rateLimitMiddleware(cfg, rdb)
	} else {
		rateMw = func(c *fiber.Ctx) error { return c.Next() }
	}

	v1 := app.Group("/v1", authMw, rateMw)
	v1.Post("/parse", parseHandler(parse))

	admin := app.Group("/admin", authMw, adminOnlyMiddleware)
	admin.Post("/keys", createAPIKeyHandler(st))

	return &Server{
		app:    app,
		config: cfg,
		logger: logger,
	}
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	return s.app.Listen(addr)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
