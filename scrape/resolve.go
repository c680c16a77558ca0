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

// lookup is one way of finding the wallet address on a loaded profile
// page. Loose lookups target the exact element the site renders the
// address in and may return its raw text even when it does not
// validate; strict lookups cast a wider net and only yield a decoded
// address.
type lookup struct {
	name   string
	js     string
	strict bool
}

// profileLookups is the resolution cascade, most precise first. The
// structural XPath and the CSS path pin the address element in the
// current pump.fun profile layout; the class scan and text scan
// survive layout churn.
var profileLookups = []lookup{
	{
		name: "structural-xpath",
		js: `() => {
			const res = document.evaluate('/html/body/main/div/div[1]/div[1]/div[2]',
				document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
			const el = res.singleNodeValue;
			return JSON.stringify(el ? (el.textContent || '').trim() : '');
		}`,
	},
	{
		name: "css-path",
		js: `() => {
			const el = document.querySelector('main div[class*="border-slate-600"]');
			return JSON.stringify(el ? (el.textContent || '').trim() : '');
		}`,
	},
	{
		name:   "class-scan",
		strict: true,
		js: `() => {
			const parts = [];
			for (const el of document.querySelectorAll(
					'[class*="border-slate"], [class*="break-all"], [class*="truncate"]')) {
				const t = (el.textContent || '').trim();
				if (t) parts.push(t);
			}
			return JSON.stringify(parts.join('\n'));
		}`,
	},
	{
		name:   "text-scan",
		strict: true,
		js:     `() => JSON.stringify(document.body.innerText || '')`,
	},
}

// ResolverConfig tunes profile resolution.
type ResolverConfig struct {
	// ProfileBase is the profile URL prefix. Default:
	// https://pump.fun/profile/
	ProfileBase string
	// Settle is the grace pause after the profile page goes quiet.
	// Profile widgets hydrate late, so this is generous. Default: 5s.
	Settle time.Duration

	Logger *slog.Logger
}

func (c *ResolverConfig) defaults() {
	if c.ProfileBase == "" {
		c.ProfileBase = "https://pump.fun/profile/"
	}
	if c.Settle <= 0 {
		c.Settle = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Resolver maps profile identifiers to wallet addresses, memoising
// results per identifier for the lifetime of the resolver. Not safe
// for concurrent use; the scraper serialises resolution.
type Resolver struct {
	cfg     ResolverConfig
	lookups []lookup
	cache   map[string]cachedResolve
}

type cachedResolve struct {
	wallet string
	err    error
}

// NewResolver creates a Resolver with the standard lookup cascade.
func NewResolver(cfg ResolverConfig) *Resolver {
	cfg.defaults()
	return &Resolver{
		cfg:     cfg,
		lookups: profileLookups,
		cache:   make(map[string]cachedResolve),
	}
}

// Resolve returns the wallet address for a profile identifier.
//
// An identifier that is itself a valid address self-resolves without
// touching the browser. Otherwise the profile page is loaded and the
// lookup cascade runs; the first loose lookup that finds its element
// decides the outcome even when the text does not validate, which is
// deliberate best-effort behaviour filtered out downstream.
func (r *Resolver) Resolve(ctx context.Context, p Page, id string) (string, error) {
	if wallet.IsValid(id) {
		return id, nil
	}

	if c, ok := r.cache[id]; ok {
		return c.wallet, c.err
	}

	w, err := r.resolveSlow(ctx, p, id)
	if ctx.Err() == nil {
		r.cache[id] = cachedResolve{wallet: w, err: err}
	}
	return w, err
}

func (r *Resolver) resolveSlow(ctx context.Context, p Page, id string) (string, error) {
	log := r.cfg.Logger

	url := r.cfg.ProfileBase + id + "?include-nsfw=true"
	if err := p.Navigate(ctx, url); err != nil {
		return "", fmt.Errorf("%w: profile %s: %v", ErrResolveFailed, id, err)
	}
	if err := p.WaitQuiet(ctx); err != nil {
		return "", err
	}
	if err := pause(ctx, r.cfg.Settle); err != nil {
		return "", err
	}

	for _, l := range r.lookups {
		raw, err := p.Eval(ctx, l.js)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Warn("scrape: profile lookup failed",
				"profile", id, "lookup", l.name, "error", err)
			continue
		}

		var text string
		if err := json.Unmarshal([]byte(raw), &text); err != nil {
			text = raw
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if m, ok := wallet.First(text); ok {
			log.Debug("scrape: wallet resolved",
				"profile", id, "lookup", l.name)
			return m, nil
		}
		if !l.strict {
			// The element was there but its text does not decode.
			// Surface it anyway; validation downstream drops it.
			log.Debug("scrape: lookup returned unvalidated text",
				"profile", id, "lookup", l.name)
			return text, nil
		}
	}

	return "", fmt.Errorf("%w: profile %s", ErrResolveFailed, id)
}
