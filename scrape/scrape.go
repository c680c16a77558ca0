package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/hazyhaar/commentdrop/internal/browser"
)

// Config configures a Scraper.
type Config struct {
	// DataDir is where debug screenshots land. Default: ./data.
	DataDir string
	// NavTimeout bounds every navigation. Default: 30s.
	NavTimeout time.Duration
	// QuietGrace is the network-idle window. Default: 2s.
	QuietGrace time.Duration

	Engine   EngineConfig
	Resolver ResolverConfig

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.QuietGrace <= 0 {
		c.QuietGrace = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Engine.Logger == nil {
		c.Engine.Logger = c.Logger
	}
	if c.Resolver.Logger == nil {
		c.Resolver.Logger = c.Logger
	}
}

// Result is the outcome of one scrape run.
type Result struct {
	Commenters []*Commenter
	// Strategy names the extraction strategy that produced records,
	// empty when the page had no comments.
	Strategy string
	// Resolved counts commenters with a non-nil wallet.
	Resolved int
	Elapsed  time.Duration
}

// Scraper drives a full scrape: load the token page, extract comment
// records, aggregate, then resolve each commenter's wallet. Runs are
// serialised because extraction and resolution share one tab.
type Scraper struct {
	cfg    Config
	engine *Engine

	mu      sync.Mutex
	newPage func() (Page, error)
	// acquire defers browser recycling for the duration of a run.
	acquire func() (release func())
}

// New creates a Scraper backed by the given browser manager.
func New(cfg Config, mgr *browser.Manager) *Scraper {
	cfg.defaults()
	return &Scraper{
		cfg:     cfg,
		engine:  NewEngine(cfg.Engine),
		acquire: mgr.Acquire,
		newPage: func() (Page, error) {
			p, err := browser.OpenTab(mgr)
			if err != nil {
				return nil, err
			}
			return NewRodPage(p, cfg.NavTimeout, cfg.QuietGrace), nil
		},
	}
}

// Run scrapes one token page. xpathExpr optionally pins the comment
// containers and is tried before the built-in cascade. A page with no
// extractable comments yields an empty Result, not an error.
func (s *Scraper) Run(ctx context.Context, pageURL, xpathExpr string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The tab must survive the whole run; a browser recycle mid-run
	// would tear it down under us.
	if s.acquire != nil {
		release := s.acquire()
		defer release()
	}

	log := s.cfg.Logger
	start := time.Now()

	page, err := s.newPage()
	if err != nil {
		return nil, fmt.Errorf("scrape: open tab: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageFault, err)
	}

	records, strategy, err := s.engine.Extract(ctx, page, xpathExpr)
	if err != nil {
		s.snapshot(ctx, page)
		return nil, err
	}
	log.Info("scrape: extraction done",
		"url", pageURL, "records", len(records), "strategy", strategy)

	commenters := Aggregate(records)
	if len(commenters) == 0 {
		return &Result{Commenters: []*Commenter{}, Elapsed: time.Since(start)}, nil
	}

	// Fresh resolver per run: memoisation is scoped to one page's
	// commenter set, profiles can change between runs.
	resolver := NewResolver(s.cfg.Resolver)
	resolved := 0
	for _, c := range commenters {
		w, err := resolver.Resolve(ctx, page, profileID(c.ProfileLink))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("scrape: commenter unresolved",
				"username", c.Username, "profile", c.ProfileLink, "error", err)
			continue
		}
		c.Wallet = &w
		resolved++
	}

	log.Info("scrape: run complete",
		"url", pageURL,
		"commenters", len(commenters),
		"resolved", resolved,
		"elapsed", time.Since(start))

	return &Result{
		Commenters: commenters,
		Strategy:   strategy,
		Resolved:   resolved,
		Elapsed:    time.Since(start),
	}, nil
}

func (s *Scraper) snapshot(ctx context.Context, p Page) {
	path := filepath.Join(s.cfg.DataDir, "debug",
		"scrape-"+time.Now().Format("20060102-150405")+".png")
	if err := p.Snapshot(context.WithoutCancel(ctx), path); err != nil {
		s.cfg.Logger.Warn("scrape: debug snapshot failed", "error", err)
		return
	}
	s.cfg.Logger.Info("scrape: debug snapshot written", "path", path)
}
