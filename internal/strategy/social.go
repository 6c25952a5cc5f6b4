package strategy

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"strconv"

	"yomu/internal/fetcher"
	"yomu/internal/model"
)

// socialScrapeStrategy covers platforms without a reliable public API.
// They actively block the honest bot UA, so this is the one place a
// browser-like UA is sent; only Open Graph fields are ever taken from the
// response, never a body. When scraping fails outright the result
// degrades to a platform-typed placeholder title.
type socialScrapeStrategy struct {
	deps        *Deps
	name        string
	placeholder string
	hosts       []string
}

func newSocialScrapeStrategy(deps *Deps, name, placeholder string, hosts ...string) *socialScrapeStrategy {
	return &socialScrapeStrategy{deps: deps, name: name, placeholder: placeholder, hosts: hosts}
}

func (s *socialScrapeStrategy) Name() string { return s.name }

func (s *socialScrapeStrategy) Matches(u *url.URL) bool {
	return hostMatches(u, s.hosts...)
}

// Open Graph extraction is done by regex on purpose: these pages are
// enormous JS shells and a full DOM parse buys nothing for three meta
// tags.
var (
	ogTitleRe = regexp.MustCompile(`<meta[^>]+property=["']og:title["'][^>]+content=["']([^"']*)["']`)
	ogDescRe  = regexp.MustCompile(`<meta[^>]+property=["']og:description["'][^>]+content=["']([^"']*)["']`)
	ogImageRe = regexp.MustCompile(`<meta[^>]+property=["']og:image["'][^>]+content=["']([^"']*)["']`)
)

func (s *socialScrapeStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	htmlStr := req.HTML
	if htmlStr == "" {
		fres := s.deps.Fetcher.Fetch(ctx, req.RawURL, fetcher.Options{
			UserAgent: browserUserAgent,
		}, req.ClientID)
		if fres.Err != nil {
			res := webviewResult(req.URL, s.placeholder, 0.3, parseErrorFromFetch(fres.Err))
			res.Type = model.TypeSocial
			return res
		}
		htmlStr = fres.HTML
	}

	title := ogMatch(ogTitleRe, htmlStr)
	if title == "" {
		res := webviewResult(req.URL, s.placeholder, 0.3,
			model.NewParseError(model.ErrParseFailed, "no open graph metadata served"))
		res.Type = model.TypeSocial
		return res
	}

	res := &model.ParseResult{
		Type:        model.TypeSocial,
		Title:       title,
		Excerpt:     ogMatch(ogDescRe, htmlStr),
		CoverImage:  ogMatch(ogImageRe, htmlStr),
		Domain:      domainOf(req.URL),
		FetchMethod: model.MethodMetaOnly,
		Confidence:  0.5,
	}
	return res.Normalize()
}

func ogMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return html.UnescapeString(m[1])
	}
	return ""
}

// redditStrategy reads the post's public JSON rendition, which serves the
// honest UA without complaint.
type redditStrategy struct {
	deps    *Deps
	apiBase string // defaults to the post's own host
}

func newRedditStrategy(deps *Deps) *redditStrategy {
	return &redditStrategy{deps: deps}
}

func (s *redditStrategy) Name() string { return "reddit" }

func (s *redditStrategy) Matches(u *url.URL) bool {
	segs := pathSegments(u)
	// redd.it short links are /<id>; the JSON rendition exists there too
	// and the client follows the redirect to the full post.
	if hostMatches(u, "redd.it") {
		return len(segs) == 1
	}
	if !hostMatches(u, "reddit.com") {
		return false
	}
	return len(segs) >= 4 && segs[0] == "r" && segs[2] == "comments"
}

type redditListing []struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Subreddit   string  `json:"subreddit"`
				Author      string  `json:"author"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Thumbnail   string  `json:"thumbnail"`
				UpvoteRatio float64 `json:"upvote_ratio"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *redditStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	jsonURL := s.apiBase
	if jsonURL == "" {
		u := *req.URL
		u.Path = u.Path + ".json"
		u.RawQuery = ""
		jsonURL = u.String()
	}

	var listing redditListing
	if ferr := fetchJSON(ctx, s.deps, jsonURL, req.ClientID, &listing); ferr != nil {
		res := webviewResult(req.URL, "Post on Reddit", 0.3, parseErrorFromFetch(ferr))
		res.Type = model.TypeSocial
		return res
	}
	if len(listing) == 0 || len(listing[0].Data.Children) == 0 {
		res := webviewResult(req.URL, "Post on Reddit", 0.3,
			model.NewParseError(model.ErrParseFailed, "empty listing response"))
		res.Type = model.TypeSocial
		return res
	}

	post := listing[0].Data.Children[0].Data
	cover := ""
	if post.Thumbnail != "" && post.Thumbnail != "self" && post.Thumbnail != "default" {
		cover = post.Thumbnail
	}

	res := &model.ParseResult{
		Type:               model.TypeSocial,
		Title:              post.Title,
		Excerpt:            firstSentenceOf(post.Selftext, 300),
		CoverImage:         cover,
		Domain:             domainOf(req.URL),
		ReadingTimeMinutes: readingTime(post.Selftext, s.deps.WordsPerMinute),
		FetchMethod:        model.MethodAPI,
		Confidence:         0.85,
		Metadata: map[string]string{
			"subreddit": post.Subreddit,
			"author":    post.Author,
			"score":     strconv.Itoa(post.Score),
			"comments":  strconv.Itoa(post.NumComments),
		},
	}
	return res.Normalize()
}
