package main

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugHyphenRuns   = regexp.MustCompile(`-+`)
	deaccent         = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// generateSlug turns a post title into a URL slug: diacritics stripped,
// lowercased, non-alphanumerics collapsed to hyphens, capped at 50 chars.
func generateSlug(title string) string {
	if stripped, _, err := transform.String(deaccent, title); err == nil {
		title = stripped
	}

	slug := strings.ToLower(title)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = slugHyphenRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > 50 {
		slug = strings.Trim(slug[:50], "-")
	}

	if slug == "" {
		return "post"
	}
	return slug
}
