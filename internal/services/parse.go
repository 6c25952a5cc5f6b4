package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"yomu/internal/metrics"
	"yomu/internal/model"
	"yomu/internal/store"
	"yomu/internal/strategy"
)

// ErrInvalidURL is the only hard failure of the parse service: a request
// that cannot be dispatched at all. Everything downstream of dispatch
// degrades into a fallback ParseResult instead of an error.
var ErrInvalidURL = errors.New("invalid or unsupported url")

// ParseRequest is the internal representation of one parse invocation.
type ParseRequest struct {
	URL string
	// UserID keys the caller's request budget; the transport layer falls
	// back to the client IP when the request does not carry one.
	UserID string
	// HTML optionally supplies pre-fetched markup, skipping the fetch.
	HTML string
}

// ParseService turns a URL into a ParseResult by dispatching it to the
// strategy registry.
type ParseService interface {
	Parse(ctx context.Context, req *ParseRequest) (*model.ParseResult, error)
}

type parseService struct {
	registry *strategy.Registry
	store    *store.Store // nil when no database is configured
	logger   *slog.Logger
}

// NewParseService constructs a ParseService. st may be nil to disable the
// audit trail.
func NewParseService(registry *strategy.Registry, st *store.Store, logger *slog.Logger) ParseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &parseService{registry: registry, store: st, logger: logger}
}

func (s *parseService) Parse(ctx context.Context, req *ParseRequest) (*model.ParseResult, error) {
	raw := strings.TrimSpace(req.URL)
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidURL
	}

	sel := s.registry.Select(u)
	start := time.Now()

	res := s.run(ctx, sel, &strategy.Request{
		URL:      u,
		RawURL:   raw,
		HTML:     req.HTML,
		ClientID: req.UserID,
	})
	res.Normalize()

	elapsed := time.Since(start)
	errCode := ""
	if res.Error != nil {
		errCode = string(res.Error.Code)
	}
	metrics.RecordParse(sel.Name(), string(res.FetchMethod), errCode, res.Confidence)
	s.logger.Info("parsed url",
		"url", raw,
		"strategy", sel.Name(),
		"type", res.Type,
		"fetch_method", res.FetchMethod,
		"confidence", res.Confidence,
		"error", errCode,
		"duration_ms", elapsed.Milliseconds(),
	)

	if s.store != nil {
		s.audit(raw, req.UserID, sel.Name(), res, elapsed)
	}
	return res, nil
}

// run contains the panic barrier: a strategy that blows up is downgraded
// to the opaque webview fallback, and the service keeps serving.
func (s *parseService) run(ctx context.Context, sel strategy.Strategy, req *strategy.Request) (res *model.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("strategy panicked", "strategy", sel.Name(), "url", req.RawURL, "panic", r)
			res = &model.ParseResult{
				Type:        model.TypeWebview,
				Title:       strategy.HumanizeSlug(req.URL),
				Domain:      strings.TrimPrefix(req.URL.Hostname(), "www."),
				FetchMethod: model.MethodWebview,
				Confidence:  0.2,
				Error:       model.NewParseError(model.ErrParseFailed, "internal extraction failure"),
			}
			res.Normalize()
		}
	}()
	return sel.Parse(ctx, req)
}

// audit appends the outcome envelope off the request path; a failed write
// never affects the response.
func (s *parseService) audit(rawURL, clientID, strategyName string, res *model.ParseResult, elapsed time.Duration) {
	row := store.ParseAudit{
		URL:         rawURL,
		FinalURL:    res.FinalURL,
		ClientID:    clientID,
		Strategy:    strategyName,
		FetchMethod: string(res.FetchMethod),
		Confidence:  res.Confidence,
		Paywalled:   res.Paywalled,
		Protected:   res.Protected,
		DurationMs:  elapsed.Milliseconds(),
	}
	if res.Error != nil {
		row.ErrorCode = string(res.Error.Code)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.InsertParseAudit(ctx, row); err != nil {
			s.logger.Warn("audit write failed", "error", err)
		}
	}()
}
