package model

import (
	"net/url"
	"strings"
)

// ExtractDomain returns the network location of raw, or the part before the
// first "/" when raw has no host (e.g. "acme.co/leak"). Input that cannot be
// parsed degrades to the same best-effort prefix; it never fails.
func ExtractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		if _, rest, ok := strings.Cut(raw, "://"); ok {
			raw = rest
		}
		return firstSegment(raw)
	}
	if u.Host != "" {
		return u.Host
	}
	if u.Path != "" {
		return firstSegment(u.Path)
	}
	return firstSegment(u.Opaque)
}

func firstSegment(s string) string {
	head, _, _ := strings.Cut(s, "/")
	return head
}
