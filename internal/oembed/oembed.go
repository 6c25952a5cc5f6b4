package oembed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"yomu/internal/model"
	"yomu/internal/sanitize"
)

// Response is the oEmbed wire format (the subset this service consumes).
type Response struct {
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	AuthorName   string  `json:"author_name"`
	ProviderName string  `json:"provider_name"`
	ThumbnailURL string  `json:"thumbnail_url"`
	HTML         string  `json:"html"`
	Duration     float64 `json:"duration"`
}

// Resolver turns a URL into a hosted-embed ParseResult, first through the
// hardcoded provider table, then through <link> discovery in already
// fetched HTML. Resolution is a nice-to-have enrichment step: it runs
// under its own short timeout and any failure yields nil rather than an
// error, which simply advances the pipeline to the next tier.
type Resolver struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewResolver(timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// Resolve attempts oEmbed resolution for rawURL. htmlStr, when non-empty,
// enables endpoint discovery for hosts outside the provider table.
func (r *Resolver) Resolve(ctx context.Context, rawURL, htmlStr string) *model.ParseResult {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	if p := MatchProvider(u); p != nil {
		if res := r.query(ctx, p.Endpoint, rawURL, p.Hint); res != nil {
			return res
		}
		return nil
	}

	if htmlStr == "" {
		return nil
	}
	endpoint := DiscoverEndpoint(htmlStr)
	if endpoint == "" {
		return nil
	}
	return r.query(ctx, endpoint, rawURL, "")
}

// QueryEndpoint resolves target against an explicit oEmbed endpoint,
// bypassing the provider table and discovery. Strategies that know their
// host's endpoint use it directly.
func (r *Resolver) QueryEndpoint(ctx context.Context, endpoint, target string, hint model.ContentType) *model.ParseResult {
	return r.query(ctx, endpoint, target, hint)
}

// DiscoverEndpoint finds a JSON oEmbed endpoint declared in the page head.
func DiscoverEndpoint(htmlStr string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}
	var endpoint string
	doc.Find(`link[rel="alternate"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		typ := strings.ToLower(sel.AttrOr("type", ""))
		if typ != "application/json+oembed" {
			return true
		}
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return true
		}
		endpoint = href
		return false
	})
	return endpoint
}

func (r *Resolver) query(ctx context.Context, endpoint, target string, hint model.ContentType) *model.ParseResult {
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return nil
	}
	q := reqURL.Query()
	if q.Get("url") == "" {
		q.Set("url", target)
	}
	q.Set("format", "json")
	reqURL.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("oembed request failed", "endpoint", endpoint, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}

	var oe Response
	if err := json.Unmarshal(body, &oe); err != nil {
		return nil
	}
	if oe.Title == "" && oe.HTML == "" {
		return nil
	}

	return buildResult(target, hint, &oe)
}

func buildResult(target string, hint model.ContentType, oe *Response) *model.ParseResult {
	u, _ := url.Parse(target)

	contentType := hint
	if contentType == "" {
		switch oe.Type {
		case "video":
			contentType = model.TypeVideo
		case "photo":
			contentType = model.TypeImage
		case "rich", "link":
			contentType = model.TypeWebview
		default:
			contentType = model.TypeWebview
		}
	}

	title := strings.TrimSpace(oe.Title)
	if title == "" {
		title = oe.ProviderName + " embed"
	}

	metadata := map[string]string{}
	if oe.AuthorName != "" {
		metadata["author"] = oe.AuthorName
	}
	if oe.ProviderName != "" {
		metadata["provider"] = oe.ProviderName
	}
	if oe.Duration > 0 {
		metadata["duration_seconds"] = strconv.Itoa(int(oe.Duration))
	}

	// Embed markup goes through the sanitizer like every other body.
	var bodyHTML string
	if oe.HTML != "" {
		bodyHTML = sanitize.Sanitize(oe.HTML).HTML
	}

	res := &model.ParseResult{
		Type:        contentType,
		Title:       title,
		ContentHTML: bodyHTML,
		CoverImage:  oe.ThumbnailURL,
		Domain:      strings.TrimPrefix(u.Hostname(), "www."),
		Metadata:    metadata,
		FetchMethod: model.MethodOEmbed,
		Confidence:  0.8,
	}
	return res.Normalize()
}
