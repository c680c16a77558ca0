package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/commentdrop/wallet"
)

// Strategy is one way of locating comment records on a loaded page.
// Strategies are ordered most-specific first; the engine stops at the
// first one that yields records.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, p Page) ([]RawComment, error)
}

// collectComments is the shared JS tail that turns a nodes array into
// comment records. A node is either a comment container or a profile
// anchor itself. Usernames sit in a nested span on the current layout;
// dropTruncated skips anchors whose visible name was ellipsised, since
// the full handle cannot be recovered from them.
const collectComments = `
	const items = [];
	for (const el of nodes) {
		let a = null;
		if (el.matches && el.matches('a[href^="/profile/"]')) {
			a = el;
		} else if (el.querySelector) {
			a = el.querySelector('a[href^="/profile/"]');
		}
		if (!a) continue;
		const href = a.getAttribute('href') || '';
		const inner = a.querySelector('span span') || a.querySelector('span');
		let username = ((inner || a).textContent || '').trim();
		if (dropTruncated && username.includes('...')) continue;
		if (!username) username = href.split('/profile/')[1] || '';
		const text = (el.textContent || '').trim().slice(0, 500);
		items.push({username: username, profileLink: href, text: text});
	}
	return JSON.stringify(items);
`

// domStrategy evaluates a JS snippet that must define a nodes array
// and parses the resulting JSON records.
type domStrategy struct {
	name string
	js   string
}

func (s *domStrategy) Name() string { return s.name }

func (s *domStrategy) Extract(ctx context.Context, p Page) ([]RawComment, error) {
	raw, err := p.Eval(ctx, s.js)
	if err != nil {
		return nil, fmt.Errorf("scrape: strategy %s: %w", s.name, err)
	}

	var records []RawComment
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("scrape: strategy %s: decode: %w", s.name, err)
	}

	out := records[:0]
	for _, r := range records {
		if strings.Contains(r.ProfileLink, "/profile/") {
			out = append(out, r)
		}
	}
	return out, nil
}

// xpathStrategy builds a domStrategy around a caller-supplied XPath
// expression pointing at the comment containers.
func xpathStrategy(expr string) Strategy {
	quoted, _ := json.Marshal(expr)
	js := fmt.Sprintf(`() => {
		const snap = document.evaluate(%s, document, null,
			XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		const nodes = [];
		for (let i = 0; i < snap.snapshotLength; i++) {
			nodes.push(snap.snapshotItem(i));
		}
		const dropTruncated = false;
		%s
	}`, quoted, collectComments)
	return &domStrategy{name: "xpath", js: js}
}

// testIDStrategy targets the stable data-testid markers pump.fun puts
// on each rendered comment.
func testIDStrategy() Strategy {
	return &domStrategy{name: "testid", js: fmt.Sprintf(`() => {
		const nodes = Array.from(document.querySelectorAll('[data-testid="comment-item"]'));
		const dropTruncated = false;
		%s
	}`, collectComments)}
}

// profileAnchorStrategy falls back to profile links, kept only when
// they sit inside a comment-bearing region. Without that filter the
// creator's header link and holder-list links would pass as
// commenters.
func profileAnchorStrategy() Strategy {
	return &domStrategy{name: "profile-anchors", js: fmt.Sprintf(`() => {
		const region = '[data-testid="comments-section"], .comments, [data-comments]';
		const anchors = Array.from(document.querySelectorAll('main a[href^="/profile/"]'))
			.filter(a => a.closest(region));
		const nodes = anchors.map(a => a.closest('div') || a);
		const dropTruncated = true;
		%s
	}`, collectComments)}
}

// sentryStrategy keys off the UserPreview component annotation the
// site's error tooling leaves on author widgets.
func sentryStrategy() Strategy {
	return &domStrategy{name: "sentry-userpreview", js: fmt.Sprintf(`() => {
		const nodes = Array.from(document.querySelectorAll('a[data-sentry-component="UserPreview"]'));
		const dropTruncated = true;
		%s
	}`, collectComments)}
}

// textScanStrategy is the last resort: grep the visible page text for
// base58 runs that decode to valid addresses. Each hit becomes a
// self-resolving record whose identity is the address itself.
type textScanStrategy struct{}

func (textScanStrategy) Name() string { return "text-scan" }

func (textScanStrategy) Extract(ctx context.Context, p Page) ([]RawComment, error) {
	text, err := p.Eval(ctx, `() => JSON.stringify(document.body.innerText)`)
	if err != nil {
		return nil, fmt.Errorf("scrape: strategy text-scan: %w", err)
	}
	var body string
	if err := json.Unmarshal([]byte(text), &body); err != nil {
		body = text
	}

	addrs := wallet.Scan(body)
	records := make([]RawComment, 0, len(addrs))
	for _, a := range addrs {
		records = append(records, RawComment{
			Username:    a,
			ProfileLink: "/profile/" + a,
		})
	}
	return records, nil
}

// EngineConfig tunes page settling before extraction.
type EngineConfig struct {
	// ScrollCycles bounds how many scroll-to-bottom passes run to pull
	// in lazy-loaded comment batches. Default: 3.
	ScrollCycles int
	// ScrollDelay is the pause after each scroll. Default: 1s.
	ScrollDelay time.Duration
	// Settle is the grace pause after initial quiescence. Default: 2s.
	Settle time.Duration

	Logger *slog.Logger
}

func (c *EngineConfig) defaults() {
	if c.ScrollCycles <= 0 {
		c.ScrollCycles = 3
	}
	if c.ScrollDelay <= 0 {
		c.ScrollDelay = time.Second
	}
	if c.Settle <= 0 {
		c.Settle = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Engine runs the strategy cascade against a settled page.
type Engine struct {
	cfg        EngineConfig
	strategies []Strategy
}

// NewEngine creates an extraction engine with the default cascade.
func NewEngine(cfg EngineConfig) *Engine {
	cfg.defaults()
	return &Engine{
		cfg: cfg,
		strategies: []Strategy{
			testIDStrategy(),
			profileAnchorStrategy(),
			sentryStrategy(),
			textScanStrategy{},
		},
	}
}

// Extract settles the page and walks the cascade. A caller-supplied
// XPath expression, when non-empty, is tried before everything else.
// Returns the records, the name of the winning strategy, or an empty
// slice when no strategy found anything. Individual strategy failures
// are logged and skipped; only a dead page aborts the run.
func (e *Engine) Extract(ctx context.Context, p Page, xpathExpr string) ([]RawComment, string, error) {
	log := e.cfg.Logger

	if err := p.WaitQuiet(ctx); err != nil {
		return nil, "", err
	}
	if err := pause(ctx, e.cfg.Settle); err != nil {
		return nil, "", err
	}

	for i := 0; i < e.cfg.ScrollCycles; i++ {
		if err := p.ScrollBottom(ctx); err != nil {
			log.Warn("scrape: scroll cycle failed", "cycle", i, "error", err)
			break
		}
		if err := pause(ctx, e.cfg.ScrollDelay); err != nil {
			return nil, "", err
		}
	}
	if err := p.WaitQuiet(ctx); err != nil {
		return nil, "", err
	}

	cascade := e.strategies
	if xpathExpr != "" {
		cascade = append([]Strategy{xpathStrategy(xpathExpr)}, cascade...)
	}

	for _, s := range cascade {
		records, err := s.Extract(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			log.Warn("scrape: strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if len(records) > 0 {
			log.Info("scrape: strategy matched",
				"strategy", s.Name(), "records", len(records))
			return records, s.Name(), nil
		}
		log.Debug("scrape: strategy empty", "strategy", s.Name())
	}

	return nil, "", nil
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
