package source

import (
	"fmt"
	"net/url"
	"strings"
)

// cleanString trims a raw value and collapses non-string JSON scalars.
func cleanString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// pickURL prefers the first absolute link in a line.
func pickURL(hrefs []string) string {
	for _, href := range hrefs {
		if strings.HasPrefix(href, "http") {
			return href
		}
	}
	if len(hrefs) > 0 {
		return hrefs[0]
	}
	return ""
}

// resolveURL makes href absolute against base; an empty href yields base.
func resolveURL(base, href string) string {
	if href == "" {
		return base
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
