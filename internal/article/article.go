package article

import (
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Article is the output of readability-style main-content extraction.
type Article struct {
	Title       string
	ContentHTML string
	TextContent string
	Excerpt     string
	CoverImage  string
}

// Extractor locates the main content block of a page. It wraps the
// Mozilla readability algorithm with a content-density floor: pages whose
// best candidate block carries less than minChars of plain text are
// treated as having no extractable article at all.
type Extractor struct {
	minChars int
}

func New(minChars int) *Extractor {
	if minChars <= 0 {
		minChars = 250
	}
	return &Extractor{minChars: minChars}
}

// Extract runs main-content extraction over htmlStr. It returns nil when
// no candidate block clears the density threshold; that nil is the signal
// for the pipeline to fall through to meta-tag scraping, so extraction
// failures are never surfaced as errors.
func (e *Extractor) Extract(htmlStr, baseURL string) *Article {
	if strings.TrimSpace(htmlStr) == "" {
		return nil
	}

	parsed, err := nurl.Parse(baseURL)
	if err != nil {
		parsed = &nurl.URL{}
	}

	art, err := readability.FromReader(strings.NewReader(htmlStr), parsed)
	if err != nil {
		return nil
	}

	text := strings.TrimSpace(art.TextContent)
	if len(text) < e.minChars {
		return nil
	}

	excerpt := strings.TrimSpace(art.Excerpt)
	if excerpt == "" {
		excerpt = firstSentences(text, 200)
	}

	return &Article{
		Title:       strings.TrimSpace(art.Title),
		ContentHTML: art.Content,
		TextContent: text,
		Excerpt:     excerpt,
		CoverImage:  art.Image,
	}
}

// firstSentences returns a prefix of text of at most max runes, cut at a
// word boundary.
func firstSentences(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
