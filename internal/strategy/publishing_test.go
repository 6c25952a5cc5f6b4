package strategy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yomu/internal/model"
)

const substackTeaser = `<html><head>
<title>The Long Game</title>
<meta property="og:title" content="The Long Game">
<meta property="og:description" content="Why patience wins.">
<meta property="og:image" content="https://example.substack.com/cover.png">
</head><body>
<h1 class="paywall-title">The Long Game</h1>
<p>Patience is the rarest asset in modern markets and</p>
<div class="paywall">This post is for paid subscribers</div>
</body></html>`

func TestSubstackPaywalledPost(t *testing.T) {
	deps := testDeps(t)
	s := newSubstackStrategy(deps)

	rawURL := "https://example.substack.com/p/the-long-game"
	u, _ := url.Parse(rawURL)
	if !s.Matches(u) {
		t.Fatalf("substack strategy should match %q", rawURL)
	}

	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, HTML: substackTeaser, ClientID: "test"})

	if !res.Paywalled {
		t.Fatalf("post with a paid-subscribers gate must be marked paywalled")
	}
	if res.FetchMethod != model.MethodMetaOnly {
		t.Fatalf("FetchMethod = %q, want meta-only", res.FetchMethod)
	}
	if res.ContentHTML != "" || res.ContentMarkdown != "" {
		t.Fatalf("teaser text must never be served as content")
	}
	if res.Error == nil || res.Error.Code != model.ErrPaywall {
		t.Fatalf("Error = %+v, want PAYWALL", res.Error)
	}
	if res.Error.Fallback != model.FallbackWebview {
		t.Fatalf("Fallback = %q, want webview", res.Error.Fallback)
	}
	if res.Title != "The Long Game" {
		t.Fatalf("Title = %q, want the og title", res.Title)
	}
	if res.CoverImage == "" || res.Excerpt == "" {
		t.Fatalf("meta fields should survive the paywall branch: %+v", res)
	}
}

func TestSubstackFreePost(t *testing.T) {
	page := func() string {
		var b strings.Builder
		b.WriteString(`<html><head><title>Free Friday</title></head><body><article>`)
		for i := 0; i < 4; i++ {
			b.WriteString("<p>" + articleParagraph + "</p>")
		}
		b.WriteString(`</article></body></html>`)
		return b.String()
	}()

	deps := testDeps(t)
	s := newSubstackStrategy(deps)

	rawURL := "https://example.substack.com/p/free-friday"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, HTML: page, ClientID: "test"})

	if res.Paywalled {
		t.Fatalf("ungated post wrongly marked paywalled")
	}
	if res.Type != model.TypeArticle || res.FetchMethod != model.MethodReadability {
		t.Fatalf("unexpected result: type=%q method=%q", res.Type, res.FetchMethod)
	}
	if res.ContentHTML == "" {
		t.Fatalf("free post should yield a body")
	}
}

func TestMediumMemberOnly(t *testing.T) {
	page := `<html><head><title>On Writing</title>
	<meta property="og:title" content="On Writing"></head>
	<body><p>Member-only story</p><p>Some ideas refuse to arrive on schedule and</p></body></html>`

	deps := testDeps(t)
	s := newMediumStrategy(deps)

	rawURL := "https://medium.com/@writer/on-writing-abc123"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, HTML: page, ClientID: "test"})

	if !res.Paywalled {
		t.Fatalf("member-only story must be marked paywalled")
	}
	if res.Error == nil || res.Error.Code != model.ErrPaywall {
		t.Fatalf("Error = %+v, want PAYWALL", res.Error)
	}
}

func TestPublishingFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	deps := testDeps(t)
	s := newSubstackStrategy(deps)
	// Matching is bypassed; Parse is fed the test server directly.
	rawURL := srv.URL + "/p/missing-post"
	u, _ := url.Parse(rawURL)

	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})
	if res.FetchMethod != model.MethodWebview {
		t.Fatalf("FetchMethod = %q, want webview", res.FetchMethod)
	}
	if res.Error == nil || res.Error.Code != model.ErrNotFound {
		t.Fatalf("Error = %+v, want NOT_FOUND", res.Error)
	}
	if res.Title != "Missing Post" {
		t.Fatalf("Title = %q, want slug-derived title", res.Title)
	}
}
