package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"yomu/internal/article"
	"yomu/internal/config"
	"yomu/internal/fetcher"
	server "yomu/internal/http"
	"yomu/internal/migrate"
	"yomu/internal/oembed"
	"yomu/internal/ratelimit"
	"yomu/internal/services"
	"yomu/internal/store"
	"yomu/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)

	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	// The database is optional: without it the service runs stateless,
	// with no API-key auth and no audit trail.
	var st *store.Store
	if cfg.Database.DSN != "" {
		// Run migrations on a short-lived connection
		if err := migrate.Run(cfg.Database.DSN); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}

		var err error
		st, err = store.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db failed: %v", err)
		}

		// Ensure initial admin API key if configured
		if cfg.Auth.Enabled && cfg.Auth.InitialAdminKey != "" {
			if _, err := st.EnsureAdminAPIKey(context.Background(), cfg.Auth.InitialAdminKey, "initial-admin"); err != nil {
				log.Fatalf("ensure admin api key failed: %v", err)
			}
		}
	} else if cfg.Auth.Enabled {
		logger.Warn("auth requires a database; disabling auth")
		cfg.Auth.Enabled = false
	}

	// Redis client for the shared outbound fetch budget
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		if opt, err := redis.ParseURL(cfg.Redis.URL); err != nil {
			log.Fatalf("invalid redis url: %v", err)
		} else {
			rdb = redis.NewClient(opt)
		}
	}

	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	var limiter ratelimit.Limiter
	if rdb != nil {
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimit.RequestsPerWindow, window)
	} else {
		limiter = ratelimit.NewMemory(cfg.RateLimit.RequestsPerWindow, window)
	}

	browser := fetcher.NewBrowser(cfg.Browser)
	if browser != nil {
		logger.Info("browser engine enabled", "control_url", cfg.Browser.ControlURL)
	}

	deps := &strategy.Deps{
		Fetcher:        fetcher.New(cfg.Fetcher, cfg.Robots, limiter, browser, logger),
		OEmbed:         oembed.NewResolver(time.Duration(cfg.Fetcher.OEmbedTimeoutMs)*time.Millisecond, logger),
		Extractor:      article.New(cfg.Parser.MinArticleChars),
		Logger:         logger,
		WordsPerMinute: cfg.Parser.WordsPerMinute,
	}

	parse := services.NewParseService(strategy.NewRegistry(deps), st, logger)

	s := server.NewServer(cfg, parse, st, logger)
	if err := s.Listen(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
