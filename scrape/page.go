package scrape

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
)

// Page is the browser surface the extraction and resolution cascades
// run against. Implementations are not safe for concurrent use; the
// scraper serialises all access behind its run lock.
type Page interface {
	// Navigate loads a URL and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// WaitQuiet blocks until network activity settles or the grace
	// window elapses. It never fails a run on its own.
	WaitQuiet(ctx context.Context) error
	// ScrollBottom scrolls the viewport to the bottom of the document,
	// triggering lazy-loaded comment batches.
	ScrollBottom(ctx context.Context) error
	// Eval runs a JS function body and returns its string result.
	// Strategies JSON.stringify their output so the wire shape stays
	// a plain string.
	Eval(ctx context.Context, js string) (string, error)
	// Snapshot writes a full-page screenshot for post-mortem debugging.
	Snapshot(ctx context.Context, path string) error
	// Close releases the underlying tab.
	Close() error
}

// rodPage adapts a Rod page to the Page interface.
type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
	quietGrace time.Duration
}

// NewRodPage wraps a Rod page. Zero timeouts fall back to 30s
// navigation and 2s network-quiet grace.
func NewRodPage(p *rod.Page, navTimeout, quietGrace time.Duration) Page {
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	if quietGrace <= 0 {
		quietGrace = 2 * time.Second
	}
	return &rodPage{page: p, navTimeout: navTimeout, quietGrace: quietGrace}
}

func (r *rodPage) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, r.navTimeout)
	defer cancel()

	p := r.page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("scrape: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("scrape: wait load %s: %w", url, err)
	}
	return nil
}

func (r *rodPage) WaitQuiet(ctx context.Context) error {
	quietCtx, cancel := context.WithTimeout(ctx, r.navTimeout)
	defer cancel()

	wait := r.page.Context(quietCtx).WaitRequestIdle(r.quietGrace, nil, nil, nil)
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-quietCtx.Done():
		// Busy pages never go fully idle; proceed with what loaded.
	}
	return nil
}

func (r *rodPage) ScrollBottom(ctx context.Context) error {
	_, err := r.page.Context(ctx).Eval(`() => {
		window.scrollTo(0, document.body.scrollHeight);
	}`)
	if err != nil {
		return fmt.Errorf("scrape: scroll: %w", err)
	}
	return nil
}

func (r *rodPage) Eval(ctx context.Context, js string) (string, error) {
	res, err := r.page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("scrape: eval: %w", err)
	}
	return res.Value.Str(), nil
}

func (r *rodPage) Snapshot(ctx context.Context, path string) error {
	data, err := r.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return fmt.Errorf("scrape: screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("scrape: screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("scrape: write screenshot: %w", err)
	}
	return nil
}

func (r *rodPage) Close() error {
	return r.page.Close()
}
