package scrape

import "errors"

var (
	// ErrResolveFailed means a profile page yielded no wallet address
	// through any lookup.
	ErrResolveFailed = errors.New("scrape: wallet resolution failed")

	// ErrPageFault means the target page could not be loaded at all.
	ErrPageFault = errors.New("scrape: page could not be loaded")
)
