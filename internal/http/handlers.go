package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"yomu/internal/services"
	"yomu/internal/store"
)

// parseHandler implements POST /v1/parse. The only failure it reports at
// the transport level is an undispatchable URL; every extraction problem
// comes back as a 200 with the degraded ParseResult.
func parseHandler(parse services.ParseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var reqBody ParseRequest
		if err := c.BodyParser(&reqBody); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    "BAD_REQUEST_INVALID_JSON",
				Error:   "Bad request, malformed JSON",
			})
		}

		if reqBody.URL == "" {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    "BAD_REQUEST",
				Error:   "Missing required field 'url'",
			})
		}

		clientID := reqBody.UserID
		if clientID == "" {
			clientID = c.IP()
		}

		res, err := parse.Parse(c.Context(), &services.ParseRequest{
			URL:    reqBody.URL,
			UserID: clientID,
		})
		if err != nil {
			if errors.Is(err, services.ErrInvalidURL) {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
					Success: false,
					Code:    "INVALID_URL",
					Error:   "The supplied url is not an absolute http(s) URL",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Success: false,
				Code:    "INTERNAL_ERROR",
				Error:   err.Error(),
			})
		}

		return c.JSON(res)
	}
}

// createAPIKeyHandler implements POST /admin/keys. It mints a random key
// and returns the raw value once.
func createAPIKeyHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if st == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
				Success: false,
				Code:    "DATABASE_DISABLED",
				Error:   "Key management requires a database",
			})
		}

		var req createAPIKeyRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    "BAD_REQUEST_INVALID_JSON",
				Error:   "Bad request, malformed JSON",
			})
		}

		if req.Label == "" {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    "BAD_REQUEST",
				Error:   "label is required",
			})
		}

		rawKey, key, err := st.CreateRandomAPIKey(c.Context(), req.Label, req.IsAdmin)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Success: false,
				Code:    "API_KEY_CREATE_FAILED",
				Error:   err.Error(),
			})
		}

		return c.JSON(createAPIKeyResponse{
			Success: true,
			Key:     rawKey,
			Label:   key.Label,
			IsAdmin: key.IsAdmin,
		})
	}
}
