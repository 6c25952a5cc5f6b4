package fetcher

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"yomu/internal/config"
)

// Browser renders JS-heavy pages with a real headless browser before
// handing the HTML back to the pipeline. It is optional: hosts that serve
// an empty shell to plain HTTP clients can be retried through it when the
// deployment enables rod.
type Browser struct {
	controlURL string
	timeout    time.Duration
}

// NewBrowser returns nil when the browser engine is disabled so callers
// can treat the nil Fetcher field as "not configured".
func NewBrowser(cfg config.BrowserConfig) *Browser {
	if !cfg.Enabled {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Browser{controlURL: cfg.ControlURL, timeout: timeout}
}

func (b *Browser) Fetch(ctx context.Context, rawURL, userAgent string) *Result {
	browser := rod.New().Context(ctx).Timeout(b.timeout)
	if b.controlURL != "" {
		browser = browser.ControlURL(b.controlURL)
	}

	if err := browser.Connect(); err != nil {
		return failed(ErrNetwork, "browser connect: "+err.Error())
	}
	defer browser.MustClose()

	page, err := browser.Page(proto.TargetCreateTarget{URL: rawURL})
	if err != nil {
		return failed(classifyNetErr(err), "browser navigate: "+err.Error())
	}
	defer page.MustClose()

	if userAgent != "" {
		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent})
	}

	if err := page.WaitLoad(); err != nil {
		return failed(classifyNetErr(err), "browser load: "+err.Error())
	}

	htmlStr, err := page.HTML()
	if err != nil {
		return failed(ErrNetwork, "browser html: "+err.Error())
	}

	finalURL := rawURL
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &Result{Success: true, HTML: htmlStr, URL: finalURL, StatusCode: 200}
}
