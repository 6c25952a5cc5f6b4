package http

import "yomu/internal/model"

// ParseRequest is the input shape of POST /v1/parse.
type ParseRequest struct {
	URL string `json:"url"`
	// UserID keys the caller's outbound request budget. Optional; the
	// client IP is used when absent.
	UserID string `json:"user_id,omitempty"`
	// SkipCache is accepted for client compatibility. This service keeps
	// no result cache, so it currently has no effect.
	SkipCache bool `json:"skip_cache,omitempty"`
}

// ParseResult is the response body of a successful parse.
type ParseResult = model.ParseResult

// createAPIKeyRequest is the input shape of POST /admin/keys.
type createAPIKeyRequest struct {
	Label   string `json:"label"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// createAPIKeyResponse carries the raw key, returned exactly once at
// creation; only its hash is persisted.
type createAPIKeyResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
	Label   string `json:"label"`
	IsAdmin bool   `json:"is_admin"`
}

// ErrorResponse is the error envelope for transport-level failures.
// Extraction failures are not transport failures: those ride inside the
// ParseResult.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
}
