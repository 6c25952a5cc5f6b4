package strategy

import (
	"net/url"
	"strings"
	"testing"
)

func TestHumanizeSlug(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://example.com/files/quarterly-report-2024.pdf", "Quarterly Report 2024"},
		{"https://example.com/blog/my-great-article", "My Great Article"},
		{"https://example.com/posts/hello_world", "Hello World"},
		{"https://example.com/a%20b%20c", "A B C"},
		{"https://example.com/", "example.com"},
		{"https://www.example.com", "example.com"},
		{"https://example.com/2024/05/some-post/", "Some Post"},
	}

	for _, c := range cases {
		u, err := url.Parse(c.url)
		if err != nil {
			t.Fatalf("parse %q: %v", c.url, err)
		}
		if got := HumanizeSlug(u); got != c.want {
			t.Fatalf("HumanizeSlug(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestReadingTime(t *testing.T) {
	if got := readingTime("", 238); got != 0 {
		t.Fatalf("empty text should read in 0 minutes, got %d", got)
	}
	if got := readingTime("just a few words", 238); got != 1 {
		t.Fatalf("short text should round up to 1 minute, got %d", got)
	}
	long := strings.Repeat("word ", 500)
	if got := readingTime(long, 238); got != 3 {
		t.Fatalf("500 words at 238wpm = 3 minutes, got %d", got)
	}
}

func TestPageTextStripsScripts(t *testing.T) {
	html := `<html><body><script>var x=1;</script><p>visible  text</p></body></html>`
	got := pageText(html)
	if strings.Contains(got, "var x") {
		t.Fatalf("script content leaked into page text: %q", got)
	}
	if !strings.Contains(got, "visible text") {
		t.Fatalf("visible text missing: %q", got)
	}
}

func TestWebviewResultDefaults(t *testing.T) {
	u, _ := url.Parse("https://example.com/some-page")
	res := webviewResult(u, "", 0.2, nil)
	if res.Title != "Some Page" {
		t.Fatalf("Title = %q", res.Title)
	}
	if res.FetchMethod != "webview" || res.Type != "webview" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.ContentHTML != "" {
		t.Fatalf("webview results never carry a body")
	}
}
