package strategy

import (
	"context"
	"log/slog"
	"net/url"

	"yomu/internal/article"
	"yomu/internal/fetcher"
	"yomu/internal/model"
	"yomu/internal/oembed"
)

// Request carries everything a strategy needs for one parse invocation.
type Request struct {
	URL    *url.URL
	RawURL string
	// HTML is optional pre-fetched markup supplied by the caller; when
	// set, strategies skip their own content fetch.
	HTML string
	// ClientID keys the outbound request budget (user id or IP).
	ClientID string
}

// Strategy is the capability contract every extraction method implements.
// Parse never returns an error: recoverable failures are downgraded into
// a fallback ParseResult inside the strategy itself, so neither the
// registry nor the caller ever sees a raw failure.
type Strategy interface {
	Name() string
	Matches(u *url.URL) bool
	Parse(ctx context.Context, req *Request) *model.ParseResult
}

// Deps bundles the shared collaborators strategies are built from.
type Deps struct {
	Fetcher        *fetcher.Fetcher
	OEmbed         *oembed.Resolver
	Extractor      *article.Extractor
	Logger         *slog.Logger
	WordsPerMinute int
}

// Registry holds the fixed, hand-ordered strategy list. Dispatch is a
// linear scan returning the first match; the terminal default strategy
// matches unconditionally, so selection is total. Order is a first-class
// invariant: more specific host/path patterns must be registered before
// less specific ones for the same domain, otherwise the wrong strategy
// silently wins. Do not replace this with a host map.
type Registry struct {
	strategies []Strategy
}

// NewRegistry builds the canonical strategy order.
func NewRegistry(deps *Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.WordsPerMinute <= 0 {
		deps.WordsPerMinute = 238
	}

	list := []Strategy{
		// Path-qualified strategies come before their bare-domain peers.
		newGitHubIssueStrategy(deps),
		newGitHubRepoStrategy(deps),
		newGitLabStrategy(deps),
		newYouTubeStrategy(deps),

		// Thin oEmbed adapters for media/design/code hosts.
		newOEmbedStrategy(deps, "vimeo", model.TypeVideo, "vimeo.com"),
		newOEmbedStrategy(deps, "dailymotion", model.TypeVideo, "dailymotion.com", "dai.ly"),
		newOEmbedStrategy(deps, "tiktok", model.TypeVideo, "tiktok.com"),
		newOEmbedStrategy(deps, "soundcloud", model.TypeAudio, "soundcloud.com"),
		newOEmbedStrategy(deps, "spotify", model.TypeAudio, "open.spotify.com", "spotify.com"),
		newOEmbedStrategy(deps, "flickr", model.TypeImage, "flickr.com", "flic.kr"),
		newOEmbedStrategy(deps, "codepen", model.TypeCode, "codepen.io"),
		newOEmbedStrategy(deps, "figma", model.TypeImage, "figma.com"),

		newRedditStrategy(deps),
		newWikipediaStrategy(deps),
		newStackOverflowStrategy(deps),

		// Social hosts that block the honest UA; scrape metadata only.
		newSocialScrapeStrategy(deps, "twitter", "Post on X", "twitter.com", "x.com"),
		newSocialScrapeStrategy(deps, "instagram", "Post on Instagram", "instagram.com"),
		newSocialScrapeStrategy(deps, "facebook", "Post on Facebook", "facebook.com", "fb.com"),
		newSocialScrapeStrategy(deps, "threads", "Post on Threads", "threads.net", "threads.com"),

		// Paywall-aware publishing platforms.
		newSubstackStrategy(deps),
		newMediumStrategy(deps),

		// Meta-only-by-policy hosts (aggressive bot defenses or
		// mandatory auth).
		newAmazonStrategy(deps),
		newAtlassianStrategy(deps),
		newNotionStrategy(deps),
		newGoogleDocsStrategy(deps),

		// Terminal entry; matches everything.
		NewDefault(deps),
	}

	return &Registry{strategies: list}
}

// NewRegistryWith builds a registry from an explicit list, for tests that
// exercise ordering. The caller is responsible for a total terminal entry.
func NewRegistryWith(strategies ...Strategy) *Registry {
	return &Registry{strategies: strategies}
}

// Select returns the first strategy whose predicate matches u. With the
// canonical list the default tail guarantees a non-nil result for every
// parsed URL.
func (r *Registry) Select(u *url.URL) Strategy {
	for _, s := range r.strategies {
		if s.Matches(u) {
			return s
		}
	}
	return nil
}

// Strategies exposes the ordered list for introspection.
func (r *Registry) Strategies() []Strategy {
	return r.strategies
}

// hostMatches reports whether host equals any of the given domains or is
// a subdomain of one.
func hostMatches(u *url.URL, domains ...string) bool {
	host := u.Hostname()
	for _, d := range domains {
		if host == d || hasDomainSuffix(host, d) {
			return true
		}
	}
	return false
}

func hasDomainSuffix(host, domain string) bool {
	return len(host) > len(domain)+1 && host[len(host)-len(domain)-1] == '.' &&
		host[len(host)-len(domain):] == domain
}
