package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const (
	testAddr  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	testAddr2 = "So11111111111111111111111111111111111111112"
)

func testResolver() *Resolver {
	return NewResolver(ResolverConfig{Settle: time.Millisecond})
}

func TestResolve_ValidAddressSelfResolvesWithoutNavigation(t *testing.T) {
	p := &fakePage{}

	got, err := testResolver().Resolve(context.Background(), p, testAddr)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != testAddr {
		t.Errorf("Resolve() = %q, want the identifier itself", got)
	}
	if len(p.navigated) != 0 {
		t.Errorf("navigated %d times, want 0", len(p.navigated))
	}
}

func TestResolve_StructuralLookupWins(t *testing.T) {
	p := &fakePage{evalFn: func(js string) (string, error) {
		if strings.Contains(js, "document.evaluate") {
			return `"wallet: ` + testAddr + `"`, nil
		}
		t.Fatalf("later lookup ran after structural hit: %s", js)
		return "", nil
	}}

	got, err := testResolver().Resolve(context.Background(), p, "alice")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != testAddr {
		t.Errorf("Resolve() = %q, want %q", got, testAddr)
	}
	if len(p.navigated) != 1 {
		t.Fatalf("navigated %d times, want 1", len(p.navigated))
	}
	if want := "https://pump.fun/profile/alice?include-nsfw=true"; p.navigated[0] != want {
		t.Errorf("navigated to %q, want %q", p.navigated[0], want)
	}
}

func TestResolve_LooseLookupReturnsRawTextBestEffort(t *testing.T) {
	p := &fakePage{evalFn: func(js string) (string, error) {
		if strings.Contains(js, "document.evaluate") {
			return `"not an address at all"`, nil
		}
		return `""`, nil
	}}

	got, err := testResolver().Resolve(context.Background(), p, "bob")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "not an address at all" {
		t.Errorf("Resolve() = %q, want raw element text", got)
	}
}

func TestResolve_StrictLookupRequiresValidAddress(t *testing.T) {
	p := &fakePage{evalFn: func(js string) (string, error) {
		switch {
		case strings.Contains(js, "document.evaluate"),
			strings.Contains(js, "border-slate-600"):
			return `""`, nil
		case strings.Contains(js, "border-slate"):
			return `"just some profile bio text"`, nil
		case strings.Contains(js, "innerText"):
			return `"footer blurb ` + testAddr2 + ` fine print"`, nil
		}
		return `""`, nil
	}}

	got, err := testResolver().Resolve(context.Background(), p, "carol")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != testAddr2 {
		t.Errorf("Resolve() = %q, want address from full-text scan", got)
	}
}

func TestResolve_AllLookupsEmptyFails(t *testing.T) {
	p := &fakePage{evalFn: func(string) (string, error) { return `""`, nil }}

	_, err := testResolver().Resolve(context.Background(), p, "dave")
	if !errors.Is(err, ErrResolveFailed) {
		t.Errorf("Resolve() error = %v, want ErrResolveFailed", err)
	}
}

func TestResolve_MemoisesPerProfile(t *testing.T) {
	p := &fakePage{evalFn: func(js string) (string, error) {
		if strings.Contains(js, "document.evaluate") {
			return `"` + testAddr + `"`, nil
		}
		return `""`, nil
	}}

	r := testResolver()
	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background(), p, "erin")
		if err != nil {
			t.Fatalf("Resolve() #%d error = %v", i, err)
		}
		if got != testAddr {
			t.Fatalf("Resolve() #%d = %q, want %q", i, got, testAddr)
		}
	}
	if len(p.navigated) != 1 {
		t.Errorf("navigated %d times, want 1 (memoised)", len(p.navigated))
	}
}

func TestResolve_FailureIsAlsoMemoised(t *testing.T) {
	p := &fakePage{evalFn: func(string) (string, error) { return `""`, nil }}

	r := testResolver()
	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), p, "frank"); !errors.Is(err, ErrResolveFailed) {
			t.Fatalf("Resolve() #%d error = %v, want ErrResolveFailed", i, err)
		}
	}
	if len(p.navigated) != 1 {
		t.Errorf("navigated %d times, want 1", len(p.navigated))
	}
}

func TestResolve_NavigationFailure(t *testing.T) {
	p := &fakePage{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	_, err := testResolver().Resolve(context.Background(), p, "gone")
	if !errors.Is(err, ErrResolveFailed) {
		t.Errorf("Resolve() error = %v, want ErrResolveFailed", err)
	}
}
