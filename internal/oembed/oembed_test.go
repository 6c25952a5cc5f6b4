package oembed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"yomu/internal/model"
)

func TestMatchProvider(t *testing.T) {
	cases := []struct {
		url  string
		want string // provider name, "" for no match
	}{
		{"https://www.youtube.com/watch?v=abc123", "YouTube"},
		{"https://youtu.be/abc123", "YouTube"},
		{"https://vimeo.com/12345", "Vimeo"},
		{"https://open.spotify.com/track/xyz", "Spotify"},
		{"https://soundcloud.com/artist/track", "SoundCloud"},
		{"https://www.reddit.com/r/golang/comments/1/post", "Reddit"},
		{"https://www.reddit.com/user/someone", ""},
		{"https://codepen.io/user/pen/abc", "CodePen"},
		{"https://example.com/blog/post", ""},
		{"https://notyoutube.com/watch?v=abc", ""},
	}

	for _, c := range cases {
		u, _ := url.Parse(c.url)
		p := MatchProvider(u)
		got := ""
		if p != nil {
			got = p.Name
		}
		if got != c.want {
			t.Fatalf("MatchProvider(%s) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestDiscoverEndpoint(t *testing.T) {
	html := `<html><head>
		<link rel="alternate" type="text/xml+oembed" href="https://example.com/oembed.xml">
		<link rel="alternate" type="application/json+oembed" href="https://example.com/oembed?url=x">
	</head></html>`

	if got := DiscoverEndpoint(html); got != "https://example.com/oembed?url=x" {
		t.Fatalf("DiscoverEndpoint = %q", got)
	}
	if got := DiscoverEndpoint("<html><head></head></html>"); got != "" {
		t.Fatalf("expected no endpoint, got %q", got)
	}
}

func TestResolveViaDiscovery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oembed" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"video","title":"A Video","author_name":"Someone",` +
			`"provider_name":"Example","thumbnail_url":"https://img.example/t.jpg",` +
			`"html":"<iframe src=\"https://example.com/embed/1\" onload=\"x()\"></iframe>"}`))
	}))
	defer srv.Close()

	html := `<html><head><link rel="alternate" type="application/json+oembed" href="` +
		srv.URL + `/oembed"></head></html>`

	r := NewResolver(2*time.Second, nil)
	res := r.Resolve(context.Background(), "https://example.com/videos/1", html)

	if res == nil {
		t.Fatalf("expected a result via discovery")
	}
	if res.Title != "A Video" {
		t.Fatalf("Title = %q", res.Title)
	}
	if res.Type != model.TypeVideo {
		t.Fatalf("Type = %q", res.Type)
	}
	if res.FetchMethod != model.MethodOEmbed {
		t.Fatalf("FetchMethod = %q", res.FetchMethod)
	}
	if res.Metadata["author"] != "Someone" {
		t.Fatalf("author metadata missing: %+v", res.Metadata)
	}
	if res.ContentHTML == "" {
		t.Fatalf("embed html should be kept")
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Fatalf("confidence out of range: %f", res.Confidence)
	}
	// Sanitizer must have scrubbed the inline handler.
	if strings.Contains(res.ContentHTML, "onload") {
		t.Fatalf("embed html not sanitized: %q", res.ContentHTML)
	}
}

func TestBuildResultTrimsWWW(t *testing.T) {
	res := buildResult("https://www.example.com/videos/1", model.TypeVideo,
		&Response{Title: "A Video"})
	if res.Domain != "example.com" {
		t.Fatalf("Domain = %q, want the www-trimmed host", res.Domain)
	}
}

func TestResolveFailureReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	html := `<html><head><link rel="alternate" type="application/json+oembed" href="` +
		srv.URL + `/oembed"></head></html>`

	r := NewResolver(time.Second, nil)
	if res := r.Resolve(context.Background(), "https://example.com/v/1", html); res != nil {
		t.Fatalf("failed resolution should yield nil, got %+v", res)
	}

	// No provider match and no HTML means nothing to try.
	if res := r.Resolve(context.Background(), "https://example.com/v/1", ""); res != nil {
		t.Fatalf("expected nil without provider or HTML, got %+v", res)
	}
}
