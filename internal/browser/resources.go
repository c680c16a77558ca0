package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockable maps the config vocabulary (plural, as in the YAML
// block_resources list) to the resource types Chrome reports.
var blockable = map[string]string{
	"images":      "image",
	"fonts":       "font",
	"media":       "media",
	"stylesheets": "stylesheet",
}

// blockSet normalises the configured names into the set of Chrome
// resource types to fail. Names outside the vocabulary pass through
// lowercased, so raw type names work too.
func blockSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(n)
		if t, ok := blockable[n]; ok {
			set[t] = true
			continue
		}
		set[n] = true
	}
	return set
}

// applyResourceBlocking hijacks the tab's requests and fails any whose
// type is blocked. Comment text and profile markup never depend on
// images or fonts, and pages settle much faster without them.
func applyResourceBlocking(page *rod.Page, names []string) error {
	blocked := blockSet(names)

	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		if blocked[strings.ToLower(string(ctx.Request.Type()))] {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()

	return nil
}
