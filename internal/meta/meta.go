package meta

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Tags holds page-level metadata pulled from Open Graph / Twitter card
// markup, with plain <title>/<meta name=description> fallbacks. All
// fields may be empty.
type Tags struct {
	Title       string
	Description string
	Image       string
	SiteName    string
	Canonical   string
}

// Empty reports whether scraping produced nothing usable.
func (t Tags) Empty() bool {
	return t.Title == "" && t.Description == "" && t.Image == ""
}

// Scrape extracts Open Graph / Twitter card metadata from raw HTML.
// baseURL, when non-empty, is used to absolutize relative image and
// canonical URLs. Malformed HTML yields zero Tags rather than an error.
func Scrape(htmlStr, baseURL string) Tags {
	var tags Tags
	if strings.TrimSpace(htmlStr) == "" {
		return tags
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return tags
	}

	var base *url.URL
	if baseURL != "" {
		base, _ = url.Parse(baseURL)
	}

	pick := func(values ...string) string {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
		return ""
	}

	tags.Title = pick(
		doc.Find(`meta[property="og:title"]`).AttrOr("content", ""),
		doc.Find(`meta[name="twitter:title"]`).AttrOr("content", ""),
		doc.Find("title").First().Text(),
	)
	tags.Description = pick(
		doc.Find(`meta[property="og:description"]`).AttrOr("content", ""),
		doc.Find(`meta[name="twitter:description"]`).AttrOr("content", ""),
		doc.Find(`meta[name="description"]`).AttrOr("content", ""),
	)
	tags.Image = pick(
		doc.Find(`meta[property="og:image"]`).AttrOr("content", ""),
		doc.Find(`meta[name="twitter:image"]`).AttrOr("content", ""),
	)
	tags.SiteName = pick(doc.Find(`meta[property="og:site_name"]`).AttrOr("content", ""))
	tags.Canonical = pick(doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))

	if base != nil {
		tags.Image = absolutize(base, tags.Image)
		tags.Canonical = absolutize(base, tags.Canonical)
	}

	return tags
}

func absolutize(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
