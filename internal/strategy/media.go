package strategy

import (
	"context"
	"net/url"
	"regexp"
	"strconv"

	"golang.org/x/sync/errgroup"

	"yomu/internal/fetcher"
	"yomu/internal/model"
)

// oembedStrategy is the reusable thin adapter for media/design/code hosts
// whose only extraction method is their hosted-embed endpoint. On any
// resolution failure it degrades to a typed webview placeholder; a raw
// failure never leaves the strategy.
type oembedStrategy struct {
	deps  *Deps
	name  string
	typ   model.ContentType
	hosts []string
}

func newOEmbedStrategy(deps *Deps, name string, typ model.ContentType, hosts ...string) *oembedStrategy {
	return &oembedStrategy{deps: deps, name: name, typ: typ, hosts: hosts}
}

func (s *oembedStrategy) Name() string { return s.name }

func (s *oembedStrategy) Matches(u *url.URL) bool {
	return hostMatches(u, s.hosts...)
}

func (s *oembedStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	if res := s.deps.OEmbed.Resolve(ctx, req.RawURL, req.HTML); res != nil {
		res.Type = s.typ
		return res.Normalize()
	}
	return webviewResult(req.URL, "", 0.3,
		model.NewParseError(model.ErrParseFailed, s.name+" embed resolution failed"))
}

// youtubeStrategy resolves video pages through the oEmbed endpoint and,
// concurrently, scrapes the watch page for the duration the embed
// response does not carry. The embed endpoint is the authoritative source
// for title/author/thumbnail and wins whenever it succeeds; the scrape
// only contributes fields the authoritative source lacks.
type youtubeStrategy struct {
	deps *Deps
	// embedEndpoint overrides the production oEmbed endpoint in tests.
	embedEndpoint string
}

func newYouTubeStrategy(deps *Deps) *youtubeStrategy {
	return &youtubeStrategy{deps: deps, embedEndpoint: "https://www.youtube.com/oembed"}
}

func (s *youtubeStrategy) Name() string { return "youtube" }

func (s *youtubeStrategy) Matches(u *url.URL) bool {
	if hostMatches(u, "youtu.be") {
		return true
	}
	if !hostMatches(u, "youtube.com") {
		return false
	}
	p := u.Path
	return p == "/watch" || hasPathPrefix(p, "/shorts/") || hasPathPrefix(p, "/live/") || hasPathPrefix(p, "/embed/")
}

var ytDurationRe = regexp.MustCompile(`"lengthSeconds"\s*:\s*"(\d+)"`)

func (s *youtubeStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	var (
		embed    *model.ParseResult
		duration int
	)

	// Two independent bounded lookups; neither failing is fatal, and the
	// group only coordinates completion, so both closures return nil.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		embed = s.deps.OEmbed.QueryEndpoint(gctx, s.embedEndpoint, req.RawURL, model.TypeVideo)
		return nil
	})
	g.Go(func() error {
		fres := s.deps.Fetcher.Fetch(gctx, req.RawURL, fetcher.Options{}, req.ClientID)
		if !fres.Success {
			return nil
		}
		if m := ytDurationRe.FindStringSubmatch(fres.HTML); m != nil {
			duration, _ = strconv.Atoi(m[1])
		}
		return nil
	})
	_ = g.Wait()

	if embed == nil {
		return webviewResult(req.URL, "", 0.3,
			model.NewParseError(model.ErrParseFailed, "video embed resolution failed"))
	}

	embed.Type = model.TypeVideo
	if duration > 0 {
		if embed.Metadata == nil {
			embed.Metadata = map[string]string{}
		}
		// The embed response wins when it reported a duration itself.
		if embed.Metadata["duration_seconds"] == "" {
			embed.Metadata["duration_seconds"] = strconv.Itoa(duration)
		}
	}
	return embed.Normalize()
}

func hasPathPrefix(p, prefix string) bool {
	return len(p) >= len(prefix) && p[:len(prefix)] == prefix
}

var (
	_ Strategy = (*oembedStrategy)(nil)
	_ Strategy = (*youtubeStrategy)(nil)
)
