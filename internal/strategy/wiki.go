package strategy

import (
	"context"
	"net/url"
	"strings"

	"yomu/internal/model"
	"yomu/internal/sanitize"
)

// wikipediaStrategy proxies the REST summary endpoint, which returns
// pre-rendered article lead markup.
type wikipediaStrategy struct {
	deps *Deps
	// apiHost overrides the per-language wiki host in tests.
	apiHost string
}

func newWikipediaStrategy(deps *Deps) *wikipediaStrategy {
	return &wikipediaStrategy{deps: deps}
}

func (s *wikipediaStrategy) Name() string { return "wikipedia" }

func (s *wikipediaStrategy) Matches(u *url.URL) bool {
	return hostMatches(u, "wikipedia.org") && strings.HasPrefix(u.Path, "/wiki/")
}

type wikiSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
	Thumbnail   struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

func (s *wikipediaStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	title := strings.TrimPrefix(req.URL.Path, "/wiki/")

	host := s.apiHost
	if host == "" {
		host = req.URL.Scheme + "://" + req.URL.Host
	}
	apiURL := host + "/api/rest_v1/page/summary/" + title

	var summary wikiSummary
	if ferr := fetchJSON(ctx, s.deps, apiURL, req.ClientID, &summary); ferr != nil {
		return webviewResult(req.URL, "", 0.3, parseErrorFromFetch(ferr))
	}
	if summary.Title == "" {
		return webviewResult(req.URL, "", 0.3,
			model.NewParseError(model.ErrParseFailed, "empty summary response"))
	}

	clean := sanitize.Sanitize(summary.ExtractHTML)
	res := &model.ParseResult{
		Type:               model.TypeArticle,
		Title:              summary.Title,
		Excerpt:            summary.Description,
		ContentHTML:        clean.HTML,
		ContentMarkdown:    markdownOf(clean.HTML),
		CoverImage:         summary.Thumbnail.Source,
		Domain:             domainOf(req.URL),
		ReadingTimeMinutes: readingTime(summary.Extract, s.deps.WordsPerMinute),
		FetchMethod:        model.MethodAPI,
		Confidence:         0.9,
	}
	return res.Normalize()
}
