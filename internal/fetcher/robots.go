package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	robotstxt "github.com/temoto/robotstxt"
)

// robotsCache fetches and caches per-host robots.txt policies. Entries
// expire after the configured TTL; a host whose robots.txt cannot be
// fetched is treated as allowing everything, matching the usual
// interpretation of an absent policy.
type robotsCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	userAgent string
	entries   map[string]robotsEntry
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

func newRobotsCache(ttl time.Duration, userAgent string) *robotsCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &robotsCache{
		ttl:       ttl,
		userAgent: userAgent,
		entries:   make(map[string]robotsEntry),
	}
}

// Allowed reports whether the policy of u's host permits fetching u.
func (c *robotsCache) Allowed(ctx context.Context, client *http.Client, u *url.URL) bool {
	data := c.get(ctx, client, u)
	if data == nil {
		return true
	}
	return data.FindGroup(c.userAgent).Test(u.String())
}

func (c *robotsCache) get(ctx context.Context, client *http.Client, u *url.URL) *robotstxt.RobotsData {
	host := u.Scheme + "://" + u.Host

	c.mu.Lock()
	if e, ok := c.entries[host]; ok && time.Since(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.data
	}
	c.mu.Unlock()

	data := c.fetch(ctx, client, u)

	c.mu.Lock()
	c.entries[host] = robotsEntry{data: data, fetchedAt: time.Now()}
	c.mu.Unlock()

	return data
}

func (c *robotsCache) fetch(ctx context.Context, client *http.Client, base *url.URL) *robotstxt.RobotsData {
	robotsURL := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/robots.txt"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}
