package strategy

import (
	"context"
	"net/url"

	"yomu/internal/fetcher"
	"yomu/internal/meta"
	"yomu/internal/model"
)

// metaOnlyStrategy covers hosts where body extraction is off the table by
// policy: commerce and document hosts with aggressive bot defenses or
// mandatory auth. Even when the fetch succeeds only page-level metadata
// is taken. Hosts marked alwaysProtected never get fetched at all.
type metaOnlyStrategy struct {
	deps            *Deps
	name            string
	typ             model.ContentType
	hosts           []string
	alwaysProtected bool
	// render requests the headless-browser engine for hosts that serve
	// an empty JS shell to plain HTTP clients.
	render bool
}

func newAmazonStrategy(deps *Deps) *metaOnlyStrategy {
	return &metaOnlyStrategy{
		deps:  deps,
		name:  "amazon",
		typ:   model.TypeProduct,
		hosts: []string{"amazon.com", "amazon.co.uk", "amazon.de", "amazon.fr", "amazon.co.jp", "amzn.to"},
	}
}

func newAtlassianStrategy(deps *Deps) *metaOnlyStrategy {
	return &metaOnlyStrategy{
		deps:            deps,
		name:            "atlassian",
		typ:             model.TypeWebview,
		hosts:           []string{"atlassian.net", "jira.com"},
		alwaysProtected: true,
	}
}

func newNotionStrategy(deps *Deps) *metaOnlyStrategy {
	return &metaOnlyStrategy{
		deps:   deps,
		name:   "notion",
		typ:    model.TypeWebview,
		hosts:  []string{"notion.so", "notion.site"},
		render: true,
	}
}

func newGoogleDocsStrategy(deps *Deps) *metaOnlyStrategy {
	return &metaOnlyStrategy{
		deps:  deps,
		name:  "google-docs",
		typ:   model.TypeWebview,
		hosts: []string{"docs.google.com", "drive.google.com"},
	}
}

func (s *metaOnlyStrategy) Name() string { return s.name }

func (s *metaOnlyStrategy) Matches(u *url.URL) bool {
	return hostMatches(u, s.hosts...)
}

func (s *metaOnlyStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	if s.alwaysProtected {
		// Mandatory auth: fetching would only bounce off a login wall.
		res := webviewResult(req.URL, "", 0.3,
			model.NewParseError(model.ErrProtected, s.name+" requires authentication"))
		res.Protected = true
		return res
	}

	htmlStr := req.HTML
	finalURL := req.RawURL
	if htmlStr == "" {
		fres := s.deps.Fetcher.Fetch(ctx, req.RawURL, fetcher.Options{Render: s.render}, req.ClientID)
		if fres.Err != nil {
			return webviewResult(req.URL, "", 0.3, parseErrorFromFetch(fres.Err))
		}
		if fres.LoginRedirect {
			res := webviewResult(req.URL, "", 0.3,
				model.NewParseError(model.ErrLoginRequired, "document requires sign-in"))
			res.Protected = true
			res.FinalURL = fres.URL
			return res
		}
		htmlStr = fres.HTML
		finalURL = fres.URL
	}

	tags := meta.Scrape(htmlStr, finalURL)
	if tags.Title == "" {
		return webviewResult(req.URL, "", 0.3,
			model.NewParseError(model.ErrParseFailed, "no usable page metadata"))
	}

	res := &model.ParseResult{
		Type:        s.typ,
		Title:       tags.Title,
		Excerpt:     tags.Description,
		CoverImage:  tags.Image,
		Domain:      domainOf(req.URL),
		FetchMethod: model.MethodMetaOnly,
		Confidence:  0.5,
		FinalURL:    finalURL,
	}
	return res.Normalize()
}
