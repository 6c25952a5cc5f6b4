package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"yomu/internal/config"
	"yomu/internal/metrics"
	"yomu/internal/ratelimit"
)

// ErrorCode classifies fetch failures.
type ErrorCode string

const (
	ErrRobotsBlocked ErrorCode = "ROBOTS_BLOCKED"
	ErrRateLimited   ErrorCode = "RATE_LIMITED"
	ErrTimeout       ErrorCode = "TIMEOUT"
	ErrSizeLimit     ErrorCode = "SIZE_LIMIT"
	ErrNetwork       ErrorCode = "NETWORK_ERROR"
	ErrNotFound      ErrorCode = "NOT_FOUND"
)

// Error is a classified fetch failure.
type Error struct {
	Code    ErrorCode
	Message string
}

// Options controls a single fetch.
type Options struct {
	Timeout     time.Duration
	MaxBytes    int64
	CheckRobots bool
	// UserAgent overrides the configured default. Strategies for hosts
	// that block the honest bot UA set a browser-like value here; the
	// default identifies the service truthfully and hosts that refuse it
	// are expected to degrade into a fallback tier, not be circumvented.
	UserAgent string
	// Render asks for the headless-browser engine when it is enabled.
	Render bool
}

// Result is the outcome of one fetch.
type Result struct {
	Success    bool
	HTML       string
	URL        string // final URL after redirects
	StatusCode int
	// LoginRedirect is set when the redirect chain landed on a known
	// auth endpoint. The fetcher only signals this; the strategy decides
	// what to do with it.
	LoginRedirect bool
	// RobotsChecked reports whether robots.txt was consulted for this
	// fetch.
	RobotsChecked bool
	Err           *Error
}

// Fetcher performs all outbound content requests for the service. It owns
// the shared cross-request state: the per-client request budget and the
// per-host politeness limiters.
type Fetcher struct {
	cfg     config.FetcherConfig
	robots  *robotsCache
	respect bool
	limiter ratelimit.Limiter
	client  *http.Client
	browser *Browser
	logger  *slog.Logger

	hostMu   sync.Mutex
	hostRate map[string]*rate.Limiter
}

// New builds a Fetcher. limiter may be nil to disable per-client budgets
// (tests); browser may be nil when the rod engine is not configured.
func New(cfg config.FetcherConfig, robotsCfg config.RobotsConfig, limiter ratelimit.Limiter, browser *Browser, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	client := &http.Client{
		// Redirects are followed; the final URL is captured from the
		// response for relative-link resolution downstream.
		Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
	}
	return &Fetcher{
		cfg:      cfg,
		robots:   newRobotsCache(time.Duration(robotsCfg.CacheTTLMs)*time.Millisecond, cfg.UserAgent),
		respect:  robotsCfg.Respect,
		limiter:  limiter,
		client:   client,
		browser:  browser,
		logger:   logger,
		hostRate: make(map[string]*rate.Limiter),
	}
}

// Fetch retrieves rawURL subject to timeout, byte cap, robots policy and
// the clientID's request budget. It never returns a Go error: every
// failure mode is classified into Result.Err so callers can map it onto
// the parse error taxonomy.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options, clientID string) *Result {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return failed(ErrNetwork, fmt.Sprintf("unsupported url: %s", rawURL))
	}

	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(f.cfg.TimeoutMs) * time.Millisecond
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = f.cfg.MaxBodyBytes
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = f.cfg.UserAgent
	}

	if f.limiter != nil && clientID != "" {
		ok, err := f.limiter.Allow(ctx, clientID)
		if err != nil {
			f.logger.Warn("rate limit store unavailable", "error", err)
		} else if !ok {
			return failed(ErrRateLimited, "client request budget exceeded")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if err := f.waitHost(ctx, u.Hostname()); err != nil {
		return failed(ErrTimeout, "timed out waiting for host slot")
	}

	robotsChecked := false
	if opts.CheckRobots && f.respect {
		robotsChecked = true
		if !f.robots.Allowed(ctx, f.client, u) {
			res := failed(ErrRobotsBlocked, "robots.txt disallows "+u.Path)
			res.RobotsChecked = true
			return res
		}
	}

	if opts.Render && f.browser != nil {
		res := f.browser.Fetch(ctx, u.String(), ua)
		res.RobotsChecked = robotsChecked
		if res.Success {
			res.LoginRedirect = looksLikeLoginRedirect(u, mustParse(res.URL))
		}
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return failed(ErrNetwork, err.Error())
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		res := failed(classifyNetErr(err), err.Error())
		res.RobotsChecked = robotsChecked
		return res
	}
	defer resp.Body.Close()

	finalURL := u
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	res := &Result{
		URL:           finalURL.String(),
		StatusCode:    resp.StatusCode,
		RobotsChecked: robotsChecked,
		LoginRedirect: looksLikeLoginRedirect(u, finalURL),
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		res.Err = errOf(ErrNotFound, fmt.Sprintf("status %d", resp.StatusCode))
		return res
	case resp.StatusCode >= 400:
		res.Err = errOf(ErrNetwork, fmt.Sprintf("status %d", resp.StatusCode))
		return res
	}

	// Read at most MaxBytes+1 so an oversized body is detected without
	// buffering it whole.
	body, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes+1))
	if err != nil {
		res.Err = errOf(classifyNetErr(err), err.Error())
		return res
	}
	if int64(len(body)) > opts.MaxBytes {
		res.Err = errOf(ErrSizeLimit, fmt.Sprintf("body exceeds %d bytes", opts.MaxBytes))
		return res
	}

	res.Success = true
	res.HTML = string(body)
	return res
}

// waitHost enforces per-host politeness with a token bucket per hostname.
func (f *Fetcher) waitHost(ctx context.Context, host string) error {
	if f.cfg.HostRPS <= 0 {
		return nil
	}
	f.hostMu.Lock()
	lim, ok := f.hostRate[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(f.cfg.HostRPS), 1)
		f.hostRate[host] = lim
	}
	f.hostMu.Unlock()

	return lim.Wait(ctx)
}

func failed(code ErrorCode, msg string) *Result {
	return &Result{Err: errOf(code, msg)}
}

// errOf classifies a failure and counts it, so every failed fetch shows
// up in the exposition regardless of which path produced it.
func errOf(code ErrorCode, msg string) *Error {
	metrics.RecordFetchFailure(string(code))
	return &Error{Code: code, Message: msg}
}

func classifyNetErr(err error) ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	return ErrNetwork
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}

// authPathMarkers are path fragments that identify a login redirect.
var authPathMarkers = []string{"/login", "/signin", "/sign-in", "/sign_in", "/auth/", "/sessions/new", "/account/login"}

// authHosts are dedicated identity hosts; landing on one of them after a
// redirect always means authentication is required.
var authHosts = []string{"accounts.google.com", "login.microsoftonline.com", "auth0.com", "okta.com", "id.atlassian.com"}

func looksLikeLoginRedirect(original, final *url.URL) bool {
	if final == nil || final.Host == "" {
		return false
	}
	if original.Host == final.Host && original.Path == final.Path {
		return false
	}
	host := strings.ToLower(final.Hostname())
	for _, h := range authHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	path := strings.ToLower(final.Path)
	for _, m := range authPathMarkers {
		if strings.Contains(path, m) {
			return true
		}
	}
	return false
}
