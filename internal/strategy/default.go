package strategy

import (
	"context"
	"net/url"

	"yomu/internal/fetcher"
	"yomu/internal/meta"
	"yomu/internal/model"
	"yomu/internal/quality"
	"yomu/internal/sanitize"
)

// DefaultStrategy is the four-tier fallback pipeline used whenever no
// platform-specific strategy matches: oEmbed, then readability-style
// extraction guarded by the quality gate, then meta tags, then an opaque
// webview result derived from the URL alone. Each tier is attempted only
// if the previous yielded nothing usable, and every tier terminates with
// a structurally valid ParseResult.
type DefaultStrategy struct {
	deps *Deps
}

func NewDefault(deps *Deps) *DefaultStrategy {
	return &DefaultStrategy{deps: deps}
}

func (s *DefaultStrategy) Name() string { return "default" }

// Matches is unconditionally true; the default strategy is the terminal
// registry entry that makes dispatch total.
func (s *DefaultStrategy) Matches(*url.URL) bool { return true }

func (s *DefaultStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	htmlStr := req.HTML
	finalURL := req.RawURL
	var robotsCompliant *bool

	// Tier 1: fetch, robots-compliant, unless the caller supplied HTML.
	if htmlStr == "" {
		fres := s.deps.Fetcher.Fetch(ctx, req.RawURL, fetcher.Options{CheckRobots: true}, req.ClientID)
		if fres.RobotsChecked {
			compliant := true
			robotsCompliant = &compliant
		}
		if fres.Err != nil {
			res := webviewResult(req.URL, "", 0.3, parseErrorFromFetch(fres.Err))
			res.RobotsCompliant = robotsCompliant
			return res
		}
		if fres.LoginRedirect {
			res := webviewResult(req.URL, "", 0.3,
				model.NewParseError(model.ErrLoginRequired, "redirected to a login page"))
			res.Protected = true
			res.FinalURL = fres.URL
			res.RobotsCompliant = robotsCompliant
			return res
		}
		htmlStr = fres.HTML
		finalURL = fres.URL
	}

	finish := func(res *model.ParseResult) *model.ParseResult {
		res.FinalURL = finalURL
		res.RobotsCompliant = robotsCompliant
		return res.Normalize()
	}

	// Tier 2: hosted-embed resolution.
	if res := s.deps.OEmbed.Resolve(ctx, req.RawURL, htmlStr); res != nil {
		return finish(res)
	}

	// Tier 3: readability extraction guarded by the quality gate.
	if art := s.deps.Extractor.Extract(htmlStr, finalURL); art != nil {
		qa := quality.Assess(htmlStr, art.TextContent)
		tags := meta.Scrape(htmlStr, finalURL)

		title := firstNonEmpty(art.Title, tags.Title, HumanizeSlug(req.URL))
		rt := readingTime(art.TextContent, s.deps.WordsPerMinute)

		switch {
		case qa.Walls.Consent:
			res := webviewResult(req.URL, title, qa.Confidence,
				model.NewParseError(model.ErrConsentWall, "consent interstitial masks the content"))
			res.ReadingTimeMinutes = rt
			return finish(res)

		case qa.Walls.Paywall:
			res := &model.ParseResult{
				Type:               model.TypeWebview,
				Title:              title,
				Excerpt:            tags.Description,
				CoverImage:         tags.Image,
				Domain:             domainOf(req.URL),
				ReadingTimeMinutes: rt,
				Paywalled:          true,
				FetchMethod:        model.MethodMetaOnly,
				Confidence:         qa.Confidence,
				Error:              model.NewParseError(model.ErrPaywall, "content is behind a paid tier"),
			}
			return finish(res)

		case qa.Walls.Login:
			res := webviewResult(req.URL, title, qa.Confidence,
				model.NewParseError(model.ErrLoginRequired, "served page is a login form"))
			res.Protected = true
			res.ReadingTimeMinutes = rt
			return finish(res)

		case qa.Recommendation == quality.Webview:
			res := &model.ParseResult{
				Type:               model.TypeWebview,
				Title:              title,
				Excerpt:            tags.Description,
				CoverImage:         tags.Image,
				Domain:             domainOf(req.URL),
				ReadingTimeMinutes: rt,
				FetchMethod:        model.MethodMetaOnly,
				Confidence:         qa.Confidence,
				Error:              model.NewParseError(model.ErrParseFailed, "extraction quality below serving threshold"),
			}
			return finish(res)
		}

		clean := sanitize.Sanitize(art.ContentHTML)
		res := &model.ParseResult{
			Type:               model.TypeArticle,
			Title:              title,
			Excerpt:            firstNonEmpty(art.Excerpt, tags.Description),
			ContentHTML:        clean.HTML,
			ContentMarkdown:    markdownOf(clean.HTML),
			CoverImage:         firstNonEmpty(art.CoverImage, tags.Image),
			Domain:             domainOf(req.URL),
			ReadingTimeMinutes: rt,
			FetchMethod:        model.MethodReadability,
			// The gate's computed score is the contract; a successful
			// extraction does not earn a perfect score by itself.
			Confidence: qa.Confidence,
		}
		return finish(res)
	}

	// Tier 4: meta tags only. Reading time is still estimated, from the
	// stripped full-page text.
	text := pageText(htmlStr)
	if tags := meta.Scrape(htmlStr, finalURL); tags.Title != "" {
		qa := quality.Assess(htmlStr, text)
		conf := 0.5 * qa.Confidence
		res := &model.ParseResult{
			Type:               model.TypeWebview,
			Title:              tags.Title,
			Excerpt:            tags.Description,
			CoverImage:         tags.Image,
			Domain:             domainOf(req.URL),
			ReadingTimeMinutes: readingTime(text, s.deps.WordsPerMinute),
			FetchMethod:        model.MethodMetaOnly,
			Confidence:         conf,
		}
		return finish(res)
	}

	// Tier 5: opaque fallback; title from the URL slug alone.
	res := webviewResult(req.URL, "", 0.2, nil)
	res.ReadingTimeMinutes = readingTime(text, s.deps.WordsPerMinute)
	return finish(res)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
