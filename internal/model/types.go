package model

// ContentType classifies what kind of thing a parsed URL points at.
// The set is open: platform strategies may emit values not listed here,
// and clients are expected to treat anything they do not recognize as
// TypeWebview.
type ContentType string

const (
	TypeArticle ContentType = "article"
	TypeVideo   ContentType = "video"
	TypeAudio   ContentType = "audio"
	TypeImage   ContentType = "image"
	TypeSocial  ContentType = "social"
	TypeCode    ContentType = "code"
	TypeProduct ContentType = "product"
	TypeWebview ContentType = "webview"
)

// FetchMethod records how a ParseResult was obtained. Callers use it to
// decide whether ContentHTML can be trusted.
type FetchMethod string

const (
	MethodAPI         FetchMethod = "api"
	MethodOEmbed      FetchMethod = "oembed"
	MethodReadability FetchMethod = "readability"
	MethodMetaOnly    FetchMethod = "meta-only"
	MethodWebview     FetchMethod = "webview"
)

// ErrorCode is the parse error taxonomy shared by all strategies.
type ErrorCode string

const (
	ErrPaywall       ErrorCode = "PAYWALL"
	ErrProtected     ErrorCode = "PROTECTED"
	ErrLoginRequired ErrorCode = "LOGIN_REQUIRED"
	ErrConsentWall   ErrorCode = "CONSENT_WALL"
	ErrTimeout       ErrorCode = "TIMEOUT"
	ErrSizeLimit     ErrorCode = "SIZE_LIMIT"
	ErrEncoding      ErrorCode = "ENCODING"
	ErrRobotsBlocked ErrorCode = "ROBOTS_BLOCKED"
	ErrRateLimited   ErrorCode = "RATE_LIMITED"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrNetwork       ErrorCode = "NETWORK_ERROR"
	ErrParseFailed   ErrorCode = "PARSE_FAILED"
)

// Fallback is the recommended recovery action attached to a ParseError.
// "retry" failures are worth re-enqueueing by the caller's scheduler,
// "reject" failures are permanent.
type Fallback string

const (
	FallbackWebview  Fallback = "webview"
	FallbackMetaOnly Fallback = "meta-only"
	FallbackRetry    Fallback = "retry"
	FallbackReject   Fallback = "reject"
)

// DefaultFallback maps an error code to its recommended recovery action.
func DefaultFallback(code ErrorCode) Fallback {
	switch code {
	case ErrPaywall, ErrProtected, ErrLoginRequired, ErrConsentWall:
		return FallbackWebview
	case ErrParseFailed, ErrEncoding, ErrSizeLimit:
		return FallbackMetaOnly
	case ErrTimeout, ErrNetwork, ErrRateLimited:
		return FallbackRetry
	case ErrNotFound, ErrRobotsBlocked:
		return FallbackReject
	}
	return FallbackWebview
}

// ParseError describes a recoverable extraction failure. It never carries
// a Go error across the API boundary; strategies convert internal errors
// into one of these before returning.
type ParseError struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Fallback Fallback  `json:"fallback"`
}

// NewParseError builds a ParseError with the canonical fallback for code.
func NewParseError(code ErrorCode, message string) *ParseError {
	return &ParseError{Code: code, Message: message, Fallback: DefaultFallback(code)}
}

// ParseResult is the single output contract produced by every strategy.
// It is a pure value: constructed once per invocation, never mutated
// afterwards, never persisted by this service.
type ParseResult struct {
	Type    ContentType `json:"type"`
	Title   string      `json:"title"`
	Excerpt string      `json:"excerpt,omitempty"`

	// ContentHTML is the sanitized body markup. Empty means "no
	// safe-to-render body; display the original URL instead". It is
	// always empty when FetchMethod is meta-only or webview.
	ContentHTML string `json:"content_html,omitempty"`

	// ContentMarkdown is a markdown rendition of ContentHTML for
	// low-bandwidth clients. Same nullability rules as ContentHTML.
	ContentMarkdown string `json:"content_markdown,omitempty"`

	CoverImage string `json:"cover_image,omitempty"`

	// ReadingTimeMinutes is estimated from extracted text length, never
	// taken from a server-declared value.
	ReadingTimeMinutes int `json:"reading_time_minutes"`

	Domain   string            `json:"domain"`
	Metadata map[string]string `json:"metadata,omitempty"`

	// Protected content requires authentication; the client must render
	// the original page rather than any cached body.
	Protected bool `json:"protected"`
	Paywalled bool `json:"paywalled"`

	FetchMethod FetchMethod `json:"fetchMethod"`
	Confidence  float64     `json:"confidence"`

	Error    *ParseError `json:"error,omitempty"`
	FinalURL string      `json:"finalUrl,omitempty"`

	// RobotsCompliant reports whether the underlying fetch respected
	// robots.txt; nil when no fetch happened.
	RobotsCompliant *bool `json:"robotsCompliant,omitempty"`
}

// Normalize enforces the structural invariants of the contract: the
// confidence stays in [0,1], and meta-only/webview results never carry a
// body. Strategies call it as the last step before returning.
func (r *ParseResult) Normalize() *ParseResult {
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	if r.FetchMethod == MethodMetaOnly || r.FetchMethod == MethodWebview {
		r.ContentHTML = ""
		r.ContentMarkdown = ""
	}
	if r.ReadingTimeMinutes < 0 {
		r.ReadingTimeMinutes = 0
	}
	if r.Type == "" {
		r.Type = TypeWebview
	}
	return r
}
