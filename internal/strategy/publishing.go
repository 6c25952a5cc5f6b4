package strategy

import (
	"context"
	"net/url"
	"strings"

	"yomu/internal/fetcher"
	"yomu/internal/meta"
	"yomu/internal/model"
	"yomu/internal/quality"
	"yomu/internal/sanitize"
)

// publishingStrategy is the paywall-aware article-host template shared by
// newsletter and blogging platforms. It fetches the page, scrapes meta
// tags, runs a platform-tuned paywall heuristic (cruder than the generic
// quality gate, tuned to that platform's own markup) and branches to
// meta-only when the wall is up; otherwise it behaves like the
// readability tier of the default pipeline.
type publishingStrategy struct {
	deps *Deps
	name string
	// paywallMarkers are the platform's own gate markup fragments,
	// matched against lowercased HTML.
	paywallMarkers []string
	// teaserChars is the platform-tuned extracted-text length under
	// which a marker hit is conclusive.
	teaserChars int
	matches     func(u *url.URL) bool
}

func newSubstackStrategy(deps *Deps) *publishingStrategy {
	return &publishingStrategy{
		deps: deps,
		name: "substack",
		paywallMarkers: []string{
			"this post is for paid subscribers",
			"paywall-title",
			"upgrade to paid",
		},
		teaserChars: 400,
		matches: func(u *url.URL) bool {
			return hostMatches(u, "substack.com")
		},
	}
}

func newMediumStrategy(deps *Deps) *publishingStrategy {
	return &publishingStrategy{
		deps: deps,
		name: "medium",
		paywallMarkers: []string{
			"member-only story",
			"become a member to read",
			"meteredcontent",
		},
		teaserChars: 400,
		matches: func(u *url.URL) bool {
			return hostMatches(u, "medium.com")
		},
	}
}

func (s *publishingStrategy) Name() string { return s.name }

func (s *publishingStrategy) Matches(u *url.URL) bool { return s.matches(u) }

func (s *publishingStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	htmlStr := req.HTML
	finalURL := req.RawURL
	var robotsCompliant *bool

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
		htmlStr = fres.HTML
		finalURL = fres.URL
	}

	tags := meta.Scrape(htmlStr, finalURL)
	art := s.deps.Extractor.Extract(htmlStr, finalURL)

	textLen := 0
	text := ""
	if art != nil {
		text = art.TextContent
		textLen = len(text)
	} else {
		text = pageText(htmlStr)
		textLen = len(text)
	}

	if s.paywalled(htmlStr, textLen) {
		title := firstNonEmpty(tags.Title, HumanizeSlug(req.URL))
		res := &model.ParseResult{
			Type:               model.TypeWebview,
			Title:              title,
			Excerpt:            tags.Description,
			CoverImage:         tags.Image,
			Domain:             domainOf(req.URL),
			ReadingTimeMinutes: readingTime(text, s.deps.WordsPerMinute),
			Paywalled:          true,
			FetchMethod:        model.MethodMetaOnly,
			Confidence:         0.4,
			Error:              model.NewParseError(model.ErrPaywall, s.name+" post is for paid subscribers"),
			FinalURL:           finalURL,
			RobotsCompliant:    robotsCompliant,
		}
		return res.Normalize()
	}

	if art != nil {
		qa := quality.Assess(htmlStr, art.TextContent)
		if qa.Recommendation == quality.Serve {
			clean := sanitize.Sanitize(art.ContentHTML)
			res := &model.ParseResult{
				Type:               model.TypeArticle,
				Title:              firstNonEmpty(art.Title, tags.Title),
				Excerpt:            firstNonEmpty(art.Excerpt, tags.Description),
				ContentHTML:        clean.HTML,
				ContentMarkdown:    markdownOf(clean.HTML),
				CoverImage:         firstNonEmpty(art.CoverImage, tags.Image),
				Domain:             domainOf(req.URL),
				ReadingTimeMinutes: readingTime(art.TextContent, s.deps.WordsPerMinute),
				FetchMethod:        model.MethodReadability,
				Confidence:         qa.Confidence,
				FinalURL:           finalURL,
				RobotsCompliant:    robotsCompliant,
			}
			return res.Normalize()
		}
	}

	if tags.Title != "" {
		res := &model.ParseResult{
			Type:               model.TypeWebview,
			Title:              tags.Title,
			Excerpt:            tags.Description,
			CoverImage:         tags.Image,
			Domain:             domainOf(req.URL),
			ReadingTimeMinutes: readingTime(text, s.deps.WordsPerMinute),
			FetchMethod:        model.MethodMetaOnly,
			Confidence:         0.4,
			FinalURL:           finalURL,
			RobotsCompliant:    robotsCompliant,
		}
		return res.Normalize()
	}

	res := webviewResult(req.URL, "", 0.2, nil)
	res.FinalURL = finalURL
	res.RobotsCompliant = robotsCompliant
	return res
}

func (s *publishingStrategy) paywalled(htmlStr string, textLen int) bool {
	haystack := strings.ToLower(htmlStr)
	for _, m := range s.paywallMarkers {
		if strings.Contains(haystack, m) && textLen < s.teaserChars {
			return true
		}
	}
	return false
}
