// Package scrape extracts commenter identities from a pump.fun token
// page and resolves each commenter's profile to a wallet address. It
// owns the extraction strategy cascade, the aggregation step, and the
// profile resolution cascade.
package scrape

// RawComment is one extracted comment occurrence before aggregation.
// Username may carry a "(dev)" suffix for the token creator.
type RawComment struct {
	Username    string `json:"username"`
	ProfileLink string `json:"profileLink"`
	Text        string `json:"text,omitempty"`
}

// Commenter is a unique comment author after aggregation and, once the
// resolver has run, wallet resolution. Wallet is nil when resolution
// failed outright; it may also carry best-effort raw text that did not
// validate, which downstream validation filters out.
type Commenter struct {
	Username     string  `json:"username"`
	ProfileLink  string  `json:"profileLink"`
	Wallet       *string `json:"wallet"`
	CommentCount int     `json:"commentCount"`
	Dev          bool    `json:"isDev"`
}
