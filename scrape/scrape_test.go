package scrape

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testScraper(page Page, strategies ...Strategy) *Scraper {
	cfg := Config{
		NavTimeout: time.Second,
		Engine: EngineConfig{
			ScrollCycles: 1,
			ScrollDelay:  time.Millisecond,
			Settle:       time.Millisecond,
		},
		Resolver: ResolverConfig{Settle: time.Millisecond},
	}
	cfg.defaults()

	e := NewEngine(cfg.Engine)
	e.strategies = strategies

	return &Scraper{
		cfg:     cfg,
		engine:  e,
		newPage: func() (Page, error) { return page, nil },
	}
}

func TestScraper_Run_SelfResolvingWalletsNeedNoNavigation(t *testing.T) {
	page := &fakePage{}
	s := testScraper(page, &stubStrategy{name: "stub", records: []RawComment{
		{Username: testAddr, ProfileLink: "/profile/" + testAddr},
		{Username: testAddr2, ProfileLink: "/profile/" + testAddr2},
	}})

	res, err := s.Run(context.Background(), "https://pump.fun/coin/abc", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Commenters) != 2 {
		t.Fatalf("got %d commenters, want 2", len(res.Commenters))
	}
	if res.Resolved != 2 {
		t.Errorf("Resolved = %d, want 2", res.Resolved)
	}
	if got := res.Commenters[0].Wallet; got == nil || *got != testAddr {
		t.Errorf("first wallet = %v, want %q", got, testAddr)
	}
	// One navigation for the token page itself, none for profiles.
	if len(page.navigated) != 1 {
		t.Errorf("navigated %d times, want 1", len(page.navigated))
	}
}

func TestScraper_Run_UnresolvedCommenterKeepsNilWallet(t *testing.T) {
	page := &fakePage{evalFn: func(string) (string, error) { return `""`, nil }}
	s := testScraper(page, &stubStrategy{name: "stub", records: []RawComment{
		{Username: "alice", ProfileLink: "/profile/alice"},
		{Username: testAddr, ProfileLink: "/profile/" + testAddr},
	}})

	res, err := s.Run(context.Background(), "https://pump.fun/coin/abc", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Resolved != 1 {
		t.Errorf("Resolved = %d, want 1", res.Resolved)
	}
	if res.Commenters[0].Wallet != nil {
		t.Errorf("alice wallet = %q, want nil", *res.Commenters[0].Wallet)
	}
	if res.Commenters[1].Wallet == nil {
		t.Error("self-resolving commenter has nil wallet")
	}
}

func TestScraper_Run_EmptyPage(t *testing.T) {
	s := testScraper(&fakePage{}, &stubStrategy{name: "stub"})

	res, err := s.Run(context.Background(), "https://pump.fun/coin/abc", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Commenters) != 0 {
		t.Errorf("got %d commenters, want 0", len(res.Commenters))
	}
}

func TestScraper_Run_PageFault(t *testing.T) {
	s := testScraper(&fakePage{navErr: errors.New("net::ERR_CONNECTION_REFUSED")},
		&stubStrategy{name: "stub"})

	_, err := s.Run(context.Background(), "https://pump.fun/coin/abc", "")
	if !errors.Is(err, ErrPageFault) {
		t.Errorf("Run() error = %v, want ErrPageFault", err)
	}
}

func TestScraper_Run_HoldsBrowserForWholeRun(t *testing.T) {
	s := testScraper(&fakePage{}, &stubStrategy{name: "stub", records: []RawComment{
		{Username: testAddr, ProfileLink: "/profile/" + testAddr},
	}})

	var held, released int
	s.acquire = func() func() {
		held++
		return func() { released++ }
	}

	if _, err := s.Run(context.Background(), "https://pump.fun/coin/abc", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if held != 1 || released != 1 {
		t.Errorf("held=%d released=%d, want 1/1 around the run", held, released)
	}
}

func TestScraper_Run_DuplicateOccurrencesCollapse(t *testing.T) {
	page := &fakePage{}
	s := testScraper(page, &stubStrategy{name: "stub", records: []RawComment{
		{Username: testAddr, ProfileLink: "/profile/" + testAddr},
		{Username: testAddr, ProfileLink: "/profile/" + testAddr},
		{Username: testAddr, ProfileLink: "/profile/" + testAddr},
	}})

	res, err := s.Run(context.Background(), "https://pump.fun/coin/abc", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Commenters) != 1 {
		t.Fatalf("got %d commenters, want 1", len(res.Commenters))
	}
	if res.Commenters[0].CommentCount != 3 {
		t.Errorf("CommentCount = %d, want 3", res.Commenters[0].CommentCount)
	}
}
