package quality

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Recommendation tells the pipeline whether extracted content is worth
// serving or the client should fall back to rendering the original page.
type Recommendation string

const (
	Serve   Recommendation = "SERVE"
	Webview Recommendation = "WEBVIEW"
)

// Walls records which access barriers the detectors found.
type Walls struct {
	Consent bool
	Paywall bool
	Login   bool
}

// Assessment is the gate's verdict over one extraction.
type Assessment struct {
	IsValid        bool
	Confidence     float64
	Issues         []string
	Walls          Walls
	Recommendation Recommendation
}

// Marker sets are matched against lowercased page text and markup. They
// are deliberately conservative: a marker has to dominate a short page to
// flip a wall, since long articles legitimately mention subscriptions.
var (
	consentMarkers = []string{
		"we use cookies",
		"accept all cookies",
		"cookie consent",
		"cookie-banner",
		"consent-manager",
		"gdpr consent",
		"manage your privacy",
	}
	paywallMarkers = []string{
		"subscribe to continue",
		"subscription required",
		"subscribers only",
		"members-only",
		"for paid subscribers",
		"already a subscriber",
		"unlock this article",
	}
	loginMarkers = []string{
		"log in to continue",
		"sign in to continue",
		"sign in to view",
		"please log in",
		"create an account to continue",
	}
)

// shortTextChars is the extracted-text length under which wall markers
// are trusted; above it they are recorded as issues only.
const shortTextChars = 400

// minServeConfidence is the floor below which the gate recommends the
// webview fallback even without a detected wall.
const minServeConfidence = 0.4

// Assess classifies raw HTML plus its extracted plain text. It is a pure
// function of already-fetched content: it never touches the network, and
// malformed input degrades to a permissive low-confidence SERVE rather
// than an error.
func Assess(rawHTML, textContent string) Assessment {
	a := Assessment{Confidence: 0.95, Recommendation: Serve}

	text := strings.TrimSpace(textContent)
	haystack := strings.ToLower(rawHTML)
	lowerText := strings.ToLower(text)

	if rawHTML == "" && text == "" {
		a.Confidence = 0.2
		a.IsValid = false
		a.Issues = append(a.Issues, "empty input")
		return a
	}

	short := len(text) < shortTextChars

	if marker := firstMatch(haystack, consentMarkers); marker != "" {
		a.Issues = append(a.Issues, "consent marker: "+marker)
		if short || dominatesBody(rawHTML, marker) {
			a.Walls.Consent = true
		}
	}

	if marker := firstMatch(haystack, paywallMarkers); marker != "" {
		a.Issues = append(a.Issues, "paywall marker: "+marker)
		if short {
			a.Walls.Paywall = true
		}
	}
	// Generic signal: truncated text ending mid-sentence next to a
	// subscribe call to action.
	if short && endsMidSentence(text) && strings.Contains(haystack, "subscribe") {
		a.Issues = append(a.Issues, "truncated text near subscribe call-to-action")
		a.Walls.Paywall = true
	}

	if marker := firstMatch(lowerText, loginMarkers); marker != "" {
		a.Issues = append(a.Issues, "login marker: "+marker)
		if short || hasPasswordForm(rawHTML) {
			a.Walls.Login = true
		}
	} else if short && hasPasswordForm(rawHTML) {
		a.Issues = append(a.Issues, "page body is a login form")
		a.Walls.Login = true
	}

	// Confidence decreases with detected walls and with text shortness.
	walls := 0
	if a.Walls.Consent {
		walls++
	}
	if a.Walls.Paywall {
		walls++
	}
	if a.Walls.Login {
		walls++
	}
	a.Confidence -= 0.25 * float64(walls)
	switch {
	case len(text) < shortTextChars:
		a.Confidence -= 0.3
	case len(text) < 2*shortTextChars:
		a.Confidence -= 0.15
	}
	if a.Confidence < 0.05 {
		a.Confidence = 0.05
	}

	a.IsValid = walls == 0 && a.Confidence >= minServeConfidence
	if walls > 0 || a.Confidence < minServeConfidence {
		a.Recommendation = Webview
	}

	return a
}

func firstMatch(haystack string, markers []string) string {
	for _, m := range markers {
		if strings.Contains(haystack, m) {
			return m
		}
	}
	return ""
}

// endsMidSentence reports whether text stops without terminal
// punctuation, the usual shape of a teaser cut off by a paywall.
func endsMidSentence(text string) bool {
	t := strings.TrimRight(strings.TrimSpace(text), `"')]»`)
	if t == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(t)
	switch last {
	case '.', '!', '?', ':', '…':
		return false
	}
	return true
}

// dominatesBody reports whether the marker sits inside an element that
// makes up most of the visible page, as consent interstitials do.
func dominatesBody(rawHTML, marker string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return false
	}
	bodyLen := len(strings.TrimSpace(doc.Find("body").Text()))
	if bodyLen == 0 {
		return false
	}
	found := false
	doc.Find("div,section,dialog,aside").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		txt := strings.ToLower(sel.Text())
		if strings.Contains(txt, marker) && len(txt)*2 >= bodyLen {
			found = true
			return false
		}
		return true
	})
	return found
}

func hasPasswordForm(rawHTML string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return false
	}
	return doc.Find(`input[type="password"]`).Length() > 0
}
