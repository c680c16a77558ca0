package scrape

import "strings"

// devSuffix marks the token creator's comments in the rendered
// username. It is display noise for identity purposes but flags the
// commenter as privileged.
const devSuffix = "(dev)"

// profileID pulls the profile identifier out of a profile link,
// stripping any query string. Returns "" when the link has no profile
// segment.
func profileID(link string) string {
	_, after, ok := strings.Cut(link, "/profile/")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(after, '?'); i >= 0 {
		after = after[:i]
	}
	return strings.TrimSuffix(after, "/")
}

// cleanUsername strips the dev marker, whatever its case, and
// surrounding whitespace, reporting whether the marker was present.
func cleanUsername(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	i := strings.Index(strings.ToLower(trimmed), devSuffix)
	if i < 0 {
		return trimmed, false
	}
	stripped := trimmed[:i] + trimmed[i+len(devSuffix):]
	return strings.TrimSpace(stripped), true
}

// Aggregate collapses raw comment occurrences into unique commenters
// keyed by profile identifier, counting occurrences and preserving
// first-seen order. Records without a usable profile link are dropped.
// The dev flag is sticky: one marked occurrence marks the commenter,
// and the marked occurrence's name becomes the representative name.
func Aggregate(records []RawComment) []*Commenter {
	byID := make(map[string]*Commenter, len(records))
	var order []*Commenter

	for _, r := range records {
		id := profileID(r.ProfileLink)
		if id == "" {
			continue
		}

		name, dev := cleanUsername(r.Username)
		if name == "" {
			name = id
		}

		c, ok := byID[id]
		if !ok {
			c = &Commenter{
				Username:    name,
				ProfileLink: "/profile/" + id,
			}
			byID[id] = c
			order = append(order, c)
		}
		c.CommentCount++
		if dev {
			if !c.Dev {
				c.Username = name
			}
			c.Dev = true
		}
	}

	return order
}
