package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"yomu/internal/config"
	"yomu/internal/store"
)

// authMiddleware validates the Authorization: Bearer <key> header and
// attaches the resolved API key to the context as "apiKey".
func authMiddleware(cfg *config.Config, st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.Auth.Enabled {
			return c.Next()
		}

		rawAuth := c.Get("Authorization")
		if rawAuth == "" || !strings.HasPrefix(rawAuth, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Success: false,
				Code:    "UNAUTHENTICATED",
				Error:   "Missing Authorization Bearer token",
			})
		}

		token := strings.TrimSpace(strings.TrimPrefix(rawAuth, "Bearer "))
		if token == "" || !strings.HasPrefix(token, "yomu_") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Success: false,
				Code:    "UNAUTHENTICATED",
				Error:   "Invalid API key format",
			})
		}

		apiKey, err := st.GetAPIKeyByRawKey(c.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
					Success: false,
					Code:    "UNAUTHENTICATED",
					Error:   "Invalid or revoked API key",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Success: false,
				Code:    "INTERNAL_ERROR",
				Error:   fmt.Sprintf("API key lookup failed: %v", err),
			})
		}

		c.Locals("apiKey", apiKey)
		return c.Next()
	}
}

// adminOnlyMiddleware ensures the current API key has admin privileges.
func adminOnlyMiddleware(c *fiber.Ctx) error {
	val := c.Locals("apiKey")
	apiKey, ok := val.(store.APIKey)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Success: false,
			Code:    "UNAUTHENTICATED",
			Error:   "API key not found in context",
		})
	}

	if !apiKey.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Success: false,
			Code:    "FORBIDDEN",
			Error:   "Admin privileges required",
		})
	}

	return c.Next()
}

// rateLimitMiddleware enforces a fixed-window per-key request limit via
// Redis. This bounds inbound API traffic; the fetcher separately bounds
// outbound fetches per client identity.
func rateLimitMiddleware(cfg *config.Config, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := cfg.RateLimit.RequestsPerWindow
		if !cfg.Auth.Enabled || limit <= 0 {
			return c.Next()
		}

		val := c.Locals("apiKey")
		apiKey, ok := val.(store.APIKey)
		if !ok {
			// If there's no apiKey in context, auth should have failed already.
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Success: false,
				Code:    "UNAUTHENTICATED",
				Error:   "API key not found in context",
			})
		}

		windowSec := cfg.RateLimit.WindowSeconds
		if windowSec <= 0 {
			windowSec = 60
		}
		window := time.Now().UTC().Unix() / int64(windowSec)
		key := fmt.Sprintf("yomu:api:%s:%d", apiKey.ID.String(), window)

		ctx := c.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Success: false,
				Code:    "INTERNAL_ERROR",
				Error:   fmt.Sprintf("rate limit increment failed: %v", err),
			})
		}
		if count == 1 {
			// First hit in this window; set TTL
			_ = rdb.Expire(ctx, key, time.Duration(windowSec)*time.Second)
		}

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Success: false,
				Code:    "RATE_LIMIT_EXCEEDED",
				Error:   "Rate limit exceeded, try again later",
			})
		}

		return c.Next()
	}
}
