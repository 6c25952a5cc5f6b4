package sanitize

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Removed counts what the sanitizer stripped, by category.
type Removed struct {
	Scripts        int `json:"scripts"`
	EventHandlers  int `json:"eventHandlers"`
	JavascriptURIs int `json:"javascriptUris"`
	Objects        int `json:"objects"`
}

// Result is the outcome of sanitizing one HTML fragment.
type Result struct {
	HTML             string
	HasUnsafeContent bool
	Removed          Removed
}

// elements that can execute or embed arbitrary code. Iframes are kept
// because hosted embeds depend on them; their attributes are still
// scrubbed like any other element's.
var droppedElements = map[string]bool{
	"script":   true,
	"object":   true,
	"embed":    true,
	"applet":   true,
	"noscript": false, // kept, content is inert
}

// Sanitize strips executable content from an HTML fragment: script
// elements, inline on* event handlers, and javascript: URIs. Every body
// that ends up in a parse result passes through here first; no extracted
// markup is returned to a caller unsanitized. Sanitize is idempotent.
func Sanitize(input string) Result {
	var res Result
	if strings.TrimSpace(input) == "" {
		return res
	}

	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		// Unparsable markup is not safe to render at all.
		res.HasUnsafeContent = true
		return res
	}

	clean(doc, &res)

	body := findBody(doc)
	if body == nil {
		return res
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			res.HasUnsafeContent = true
			return Result{HasUnsafeContent: true, Removed: res.Removed}
		}
	}

	res.HTML = buf.String()
	return res
}

func clean(n *html.Node, res *Result) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling

		if c.Type == html.ElementNode {
			name := strings.ToLower(c.Data)
			if dropped, ok := droppedElements[name]; ok && dropped {
				if name == "script" {
					res.Removed.Scripts++
				} else {
					res.Removed.Objects++
				}
				res.HasUnsafeContent = true
				n.RemoveChild(c)
				continue
			}
			scrubAttrs(c, res)
		}

		clean(c, res)
	}
}

func scrubAttrs(n *html.Node, res *Result) {
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)

		if strings.HasPrefix(key, "on") {
			res.Removed.EventHandlers++
			res.HasUnsafeContent = true
			continue
		}

		if key == "href" || key == "src" || key == "action" || key == "formaction" {
			if isJavascriptURI(attr.Val) {
				res.Removed.JavascriptURIs++
				res.HasUnsafeContent = true
				continue
			}
		}

		kept = append(kept, attr)
	}
	n.Attr = kept
}

func isJavascriptURI(val string) bool {
	v := strings.TrimSpace(strings.ToLower(val))
	// Strip control characters browsers ignore inside scheme names.
	v = strings.Map(func(r rune) rune {
		if r <= 0x20 {
			return -1
		}
		return r
	}, v)
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
