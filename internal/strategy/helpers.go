package strategy

import (
	"context"
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"unicode"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"yomu/internal/fetcher"
	"yomu/internal/model"
)

// browserUserAgent is used only by strategies for hosts that actively
// block the honest bot UA and offer no API alternative.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HumanizeSlug derives a display title from the URL's last path segment:
// extensions stripped, separators replaced with spaces, each word
// title-cased. Falls back to the hostname for bare roots. This is the
// cheapest possible title source and needs no I/O, which is what makes
// the terminal fallback tier total.
func HumanizeSlug(u *url.URL) string {
	segment := ""
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			segment = part
		}
	}
	if segment == "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}

	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}
	segment = strings.TrimSuffix(segment, path.Ext(segment))

	replacer := strings.NewReplacer("-", " ", "_", " ", "+", " ", ".", " ")
	words := strings.Fields(replacer.Replace(segment))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	if len(words) == 0 {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return strings.Join(words, " ")
}

// readingTime estimates minutes of reading from plain text. It is always
// computed from extracted text, never taken from a server-declared value.
func readingTime(text string, wpm int) int {
	if wpm <= 0 {
		wpm = 238
	}
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	minutes := (words + wpm - 1) / wpm
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// domainOf returns the display domain for a result.
func domainOf(u *url.URL) string {
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// pageText renders the visible text of a full page, used for worst-tier
// reading-time estimation and independent quality checks.
func pageText(htmlStr string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}
	doc.Find("script,style,noscript").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

// markdownOf converts sanitized HTML into a markdown rendition for
// low-bandwidth clients. Conversion failures just omit the rendition.
func markdownOf(sanitizedHTML string) string {
	if strings.TrimSpace(sanitizedHTML) == "" {
		return ""
	}
	converter := htmlmd.NewConverter("", true, nil)
	md, err := converter.ConvertString(sanitizedHTML)
	if err != nil {
		return ""
	}
	return md
}

// webviewResult builds the terminal fallback: render the original page,
// title derived from the URL alone.
func webviewResult(u *url.URL, title string, confidence float64, perr *model.ParseError) *model.ParseResult {
	if title == "" {
		title = HumanizeSlug(u)
	}
	res := &model.ParseResult{
		Type:        model.TypeWebview,
		Title:       title,
		Domain:      domainOf(u),
		FetchMethod: model.MethodWebview,
		Confidence:  confidence,
		Error:       perr,
	}
	return res.Normalize()
}

// fetchJSON retrieves a JSON API endpoint through the unified fetcher so
// API calls share the same budgets and timeouts as page fetches.
func fetchJSON(ctx context.Context, deps *Deps, rawURL, clientID string, out any) *fetcher.Error {
	res := deps.Fetcher.Fetch(ctx, rawURL, fetcher.Options{}, clientID)
	if res.Err != nil {
		return res.Err
	}
	if err := json.Unmarshal([]byte(res.HTML), out); err != nil {
		return &fetcher.Error{Code: fetcher.ErrNetwork, Message: "decode response: " + err.Error()}
	}
	return nil
}

// parseErrorFromFetch maps a fetch failure onto the parse taxonomy.
// Robots refusals surface as PROTECTED: the content exists but this
// service may not retrieve it.
func parseErrorFromFetch(ferr *fetcher.Error) *model.ParseError {
	code := model.ErrNetwork
	switch ferr.Code {
	case fetcher.ErrRobotsBlocked:
		code = model.ErrProtected
	case fetcher.ErrRateLimited:
		code = model.ErrRateLimited
	case fetcher.ErrTimeout:
		code = model.ErrTimeout
	case fetcher.ErrSizeLimit:
		code = model.ErrSizeLimit
	case fetcher.ErrNotFound:
		code = model.ErrNotFound
	}
	return model.NewParseError(code, ferr.Message)
}
