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

func TestGitHubRepo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/golang/go" {
			t.Errorf("unexpected API path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"full_name": "golang/go",
			"description": "The Go programming language",
			"language": "Go",
			"stargazers_count": 120000,
			"forks_count": 17000,
			"open_issues_count": 9000,
			"owner": {"avatar_url": "https://avatars.example/golang.png"}
		}`))
	}))
	defer srv.Close()

	s := newGitHubRepoStrategy(testDeps(t))
	s.apiBase = srv.URL

	rawURL := "https://github.com/golang/go"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if res.Type != model.TypeCode || res.FetchMethod != model.MethodAPI {
		t.Fatalf("unexpected result: type=%q method=%q", res.Type, res.FetchMethod)
	}
	if res.Title != "golang/go" {
		t.Fatalf("Title = %q", res.Title)
	}
	if res.Metadata["stars"] != "120000" || res.Metadata["language"] != "Go" {
		t.Fatalf("Metadata = %v", res.Metadata)
	}
	if res.Confidence != 0.9 {
		t.Fatalf("Confidence = %f", res.Confidence)
	}
}

func TestGitHubRepoAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	s := newGitHubRepoStrategy(testDeps(t))
	s.apiBase = srv.URL

	rawURL := "https://github.com/golang/go"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if res.FetchMethod != model.MethodWebview {
		t.Fatalf("FetchMethod = %q, want webview", res.FetchMethod)
	}
	if res.Title != "golang/go" {
		t.Fatalf("degraded result should still carry the repo name, got %q", res.Title)
	}
	if res.Error == nil {
		t.Fatalf("API failure must surface a typed error")
	}
}

func TestGitHubIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/golang/go/issues/123" {
			t.Errorf("unexpected API path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "runtime: scheduler starvation under load",
			"body": "Observed on linux/amd64. Goroutines stall when the run queue is saturated.",
			"state": "open",
			"comments": 42,
			"user": {"login": "gopher"}
		}`))
	}))
	defer srv.Close()

	s := newGitHubIssueStrategy(testDeps(t))
	s.apiBase = srv.URL

	rawURL := "https://github.com/golang/go/issues/123"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if res.Title != "runtime: scheduler starvation under load" {
		t.Fatalf("Title = %q", res.Title)
	}
	if res.Metadata["state"] != "open" || res.Metadata["author"] != "gopher" || res.Metadata["comments"] != "42" {
		t.Fatalf("Metadata = %v", res.Metadata)
	}
	if res.Excerpt == "" {
		t.Fatalf("issue body should produce an excerpt")
	}
}

func TestGitHubPullRequestPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"title": "net/http: fix header canonicalization", "state": "merged", "user": {"login": "x"}}`))
	}))
	defer srv.Close()

	s := newGitHubIssueStrategy(testDeps(t))
	s.apiBase = srv.URL

	rawURL := "https://github.com/golang/go/pull/456"
	u, _ := url.Parse(rawURL)
	s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if gotPath != "/repos/golang/go/pulls/456" {
		t.Fatalf("pull URLs must hit the pulls endpoint, got %q", gotPath)
	}
}

func TestRedditPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"data": {"children": [{"data": {
			"title": "What is the idiomatic way to handle errors?",
			"selftext": "Coming from another language, the explicit returns feel verbose.",
			"subreddit": "golang",
			"author": "new_gopher",
			"score": 321,
			"num_comments": 87,
			"thumbnail": "self"
		}}]}}]`))
	}))
	defer srv.Close()

	s := newRedditStrategy(testDeps(t))
	s.apiBase = srv.URL + "/r/golang/comments/abc/post.json"

	rawURL := "https://www.reddit.com/r/golang/comments/abc/post"
	u, _ := url.Parse(rawURL)
	if !s.Matches(u) {
		t.Fatalf("reddit strategy should match %q", rawURL)
	}
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if res.Type != model.TypeSocial || res.FetchMethod != model.MethodAPI {
		t.Fatalf("unexpected result: type=%q method=%q", res.Type, res.FetchMethod)
	}
	if res.Metadata["subreddit"] != "golang" || res.Metadata["score"] != "321" {
		t.Fatalf("Metadata = %v", res.Metadata)
	}
	if res.CoverImage != "" {
		t.Fatalf("the self thumbnail sentinel must not become a cover image")
	}
}

func TestWikipediaSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/summary/") {
			t.Errorf("unexpected API path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "Go (programming language)",
			"description": "Programming language",
			"extract": "Go is a statically typed, compiled programming language.",
			"extract_html": "<p><b>Go</b> is a statically typed, compiled programming language.</p><script>x()</script>",
			"thumbnail": {"source": "https://upload.example/go.png"}
		}`))
	}))
	defer srv.Close()

	s := newWikipediaStrategy(testDeps(t))
	s.apiHost = srv.URL

	rawURL := "https://en.wikipedia.org/wiki/Go_(programming_language)"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if res.Type != model.TypeArticle || res.FetchMethod != model.MethodAPI {
		t.Fatalf("unexpected result: type=%q method=%q", res.Type, res.FetchMethod)
	}
	if res.Title != "Go (programming language)" {
		t.Fatalf("Title = %q", res.Title)
	}
	if strings.Contains(res.ContentHTML, "<script") {
		t.Fatalf("summary markup must be sanitized: %q", res.ContentHTML)
	}
	if res.ContentHTML == "" || res.CoverImage == "" {
		t.Fatalf("summary fields missing: %+v", res)
	}
}

func TestStackOverflowQuestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [{
			"title": "Why is my goroutine leaking?",
			"score": 55,
			"answer_count": 3,
			"is_answered": true
		}]}`))
	}))
	defer srv.Close()

	s := newStackOverflowStrategy(testDeps(t))
	s.apiBase = srv.URL

	rawURL := "https://stackoverflow.com/questions/11227809/why-is-my-goroutine-leaking"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if res.Title != "Why is my goroutine leaking?" {
		t.Fatalf("Title = %q", res.Title)
	}
	if res.Metadata["answered"] != "true" || res.Metadata["answers"] != "3" {
		t.Fatalf("Metadata = %v", res.Metadata)
	}
}

func TestSocialScrapeFromOpenGraph(t *testing.T) {
	page := `<html><head>
	<meta property="og:title" content="A thought about APIs &amp; contracts">
	<meta property="og:description" content="Short post body.">
	<meta property="og:image" content="https://cdn.example/post.jpg">
	</head><body><div id="app"></div></body></html>`

	s := newSocialScrapeStrategy(testDeps(t), "twitter", "Post on X", "twitter.com", "x.com")

	rawURL := "https://x.com/someone/status/1"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, HTML: page, ClientID: "test"})

	if res.Type != model.TypeSocial || res.FetchMethod != model.MethodMetaOnly {
		t.Fatalf("unexpected result: type=%q method=%q", res.Type, res.FetchMethod)
	}
	if res.Title != "A thought about APIs & contracts" {
		t.Fatalf("Title = %q, entity should be unescaped", res.Title)
	}
	if res.ContentHTML != "" {
		t.Fatalf("social scrapes never serve a body")
	}
}

func TestSocialScrapePlaceholderOnEmptyShell(t *testing.T) {
	s := newSocialScrapeStrategy(testDeps(t), "instagram", "Post on Instagram", "instagram.com")

	rawURL := "https://www.instagram.com/p/abc/"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, HTML: "<html><body></body></html>", ClientID: "test"})

	if res.Title != "Post on Instagram" {
		t.Fatalf("Title = %q, want the platform placeholder", res.Title)
	}
	if res.Type != model.TypeSocial || res.FetchMethod != model.MethodWebview {
		t.Fatalf("unexpected result: type=%q method=%q", res.Type, res.FetchMethod)
	}
	if res.Error == nil || res.Error.Code != model.ErrParseFailed {
		t.Fatalf("Error = %+v, want PARSE_FAILED", res.Error)
	}
}

func TestAtlassianNeverFetches(t *testing.T) {
	s := newAtlassianStrategy(testDeps(t))

	rawURL := "https://myteam.atlassian.net/browse/PROJ-1"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if !res.Protected {
		t.Fatalf("auth-walled host must be marked protected")
	}
	if res.Error == nil || res.Error.Code != model.ErrProtected {
		t.Fatalf("Error = %+v, want PROTECTED", res.Error)
	}
	if res.FetchMethod != model.MethodWebview {
		t.Fatalf("FetchMethod = %q, want webview", res.FetchMethod)
	}
}

func TestAmazonMetaOnly(t *testing.T) {
	page := `<html><head><title>Widget Pro 3000</title>
	<meta property="og:title" content="Widget Pro 3000">
	<meta property="og:description" content="A very good widget.">
	<meta property="og:image" content="https://images.example/widget.jpg">
	</head><body><div id="dp">lots of product page machinery</div></body></html>`

	s := newAmazonStrategy(testDeps(t))

	rawURL := "https://www.amazon.com/dp/B00EXAMPLE"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, HTML: page, ClientID: "test"})

	if res.Type != model.TypeProduct || res.FetchMethod != model.MethodMetaOnly {
		t.Fatalf("unexpected result: type=%q method=%q", res.Type, res.FetchMethod)
	}
	if res.Title != "Widget Pro 3000" {
		t.Fatalf("Title = %q", res.Title)
	}
	if res.ContentHTML != "" {
		t.Fatalf("product pages never serve a body")
	}
}

func TestYouTubeEmbedWithScrapedDuration(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"video","title":"Concurrency Patterns","author_name":"Creator",` +
			`"provider_name":"YouTube","thumbnail_url":"https://img.example/v.jpg"}`))
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><script>var ytInitialPlayerResponse = ` +
			`{"videoDetails":{"lengthSeconds":"213"}};</script></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newYouTubeStrategy(testDeps(t))
	s.embedEndpoint = srv.URL + "/oembed"

	rawURL := srv.URL + "/watch?v=abc123"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if res.Type != model.TypeVideo || res.FetchMethod != model.MethodOEmbed {
		t.Fatalf("unexpected result: type=%q method=%q", res.Type, res.FetchMethod)
	}
	if res.Title != "Concurrency Patterns" {
		t.Fatalf("Title = %q, want the embed title", res.Title)
	}
	if res.Metadata["duration_seconds"] != "213" {
		t.Fatalf("Metadata = %v, scraped duration not merged", res.Metadata)
	}
}

func TestYouTubeEmbedDurationWins(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"video","title":"Concurrency Patterns","duration":180}`))
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>"lengthSeconds":"213"</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newYouTubeStrategy(testDeps(t))
	s.embedEndpoint = srv.URL + "/oembed"

	rawURL := srv.URL + "/watch?v=abc123"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if res.Metadata["duration_seconds"] != "180" {
		t.Fatalf("Metadata = %v, embed duration must not be overwritten", res.Metadata)
	}
}

func TestYouTubeEmbedFailureDegradesDespiteScrape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusInternalServerError)
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>"lengthSeconds":"213"</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newYouTubeStrategy(testDeps(t))
	s.embedEndpoint = srv.URL + "/oembed"

	rawURL := srv.URL + "/watch?v=abc123"
	u, _ := url.Parse(rawURL)
	res := s.Parse(context.Background(), &Request{URL: u, RawURL: rawURL, ClientID: "test"})

	if res.FetchMethod != model.MethodWebview {
		t.Fatalf("FetchMethod = %q, want webview when the embed lookup fails", res.FetchMethod)
	}
	if res.Error == nil || res.Error.Code != model.ErrParseFailed {
		t.Fatalf("Error = %+v, want PARSE_FAILED", res.Error)
	}
}
