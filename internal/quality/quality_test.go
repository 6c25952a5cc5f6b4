package quality

import (
	"strings"
	"testing"
)

func TestAssessCleanArticle(t *testing.T) {
	text := strings.Repeat("A perfectly ordinary sentence about the news. ", 50)
	html := "<html><body><article><p>" + text + "</p></article></body></html>"

	a := Assess(html, text)
	if !a.IsValid {
		t.Fatalf("clean long article should be valid: %+v", a)
	}
	if a.Recommendation != Serve {
		t.Fatalf("expected SERVE, got %s", a.Recommendation)
	}
	if a.Confidence < 0.7 {
		t.Fatalf("confidence = %f, want >= 0.7", a.Confidence)
	}
	if a.Walls.Consent || a.Walls.Paywall || a.Walls.Login {
		t.Fatalf("no walls expected: %+v", a.Walls)
	}
}

func TestAssessPaywalledTeaser(t *testing.T) {
	teaser := "The committee met on Tuesday and the unexpected outcome was"
	html := `<html><body><p>` + teaser + `</p><div class="gate">Subscribe to continue reading. Already a subscriber?</div></body></html>`

	a := Assess(html, teaser)
	if !a.Walls.Paywall {
		t.Fatalf("expected paywall wall: %+v", a)
	}
	if a.Recommendation != Webview {
		t.Fatalf("expected WEBVIEW recommendation")
	}
	if a.Confidence >= 0.7 {
		t.Fatalf("confidence should drop for paywalled teaser, got %f", a.Confidence)
	}
}

func TestAssessConsentInterstitial(t *testing.T) {
	html := `<html><body><div id="consent">We use cookies and similar technologies.
		Accept all cookies to continue to the site.</div></body></html>`

	a := Assess(html, "We use cookies and similar technologies.")
	if !a.Walls.Consent {
		t.Fatalf("expected consent wall: %+v", a)
	}
	if a.Recommendation != Webview {
		t.Fatalf("expected WEBVIEW recommendation")
	}
}

func TestAssessLoginForm(t *testing.T) {
	html := `<html><body><form action="/session"><p>Please log in</p>
		<input type="text" name="user"><input type="password" name="pass"></form></body></html>`

	a := Assess(html, "Please log in")
	if !a.Walls.Login {
		t.Fatalf("expected login wall: %+v", a)
	}
	if a.Recommendation != Webview {
		t.Fatalf("expected WEBVIEW recommendation")
	}
}

func TestAssessLongArticleMentioningSubscriptions(t *testing.T) {
	text := strings.Repeat("Discussion of how newspapers sell subscriptions to readers. ", 40) +
		"Subscribe to continue is a phrase many sites use."
	html := "<html><body><article><p>" + text + "</p></article></body></html>"

	a := Assess(html, text)
	if a.Walls.Paywall {
		t.Fatalf("long article mentioning subscriptions should not be flagged: %+v", a)
	}
}

func TestAssessMalformedInputIsPermissive(t *testing.T) {
	a := Assess("", "")
	if a.Recommendation != Serve {
		t.Fatalf("malformed input should default to SERVE, got %s", a.Recommendation)
	}
	if a.Confidence >= minServeConfidence {
		t.Fatalf("malformed input should carry low confidence, got %f", a.Confidence)
	}
}

func TestConfidenceBounds(t *testing.T) {
	cases := []struct{ html, text string }{
		{"", ""},
		{"<body><p>x</p></body>", "x"},
		{`<body><div>We use cookies. Subscribe to continue. Please log in.<input type="password"></div></body>`, "short"},
	}
	for _, c := range cases {
		a := Assess(c.html, c.text)
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Fatalf("confidence out of bounds: %f", a.Confidence)
		}
	}
}
