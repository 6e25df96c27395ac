package service

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafeTitleChars = regexp.MustCompile(`[^a-zA-Z0-9_\-\s]`)

const maxTitleLength = 100

// SafeTitle turns a video title into a file name stem. Accents are folded to
// their base letter, anything else outside [A-Za-z0-9_- ] becomes '_', and
// the result is capped at 100 characters.
func SafeTitle(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	safe := unsafeTitleChars.ReplaceAllString(folded, "_")
	safe = strings.TrimSpace(safe)
	if len(safe) > maxTitleLength {
		safe = strings.TrimSpace(safe[:maxTitleLength])
	}
	if safe == "" {
		return "download"
	}
	return safe
}

// mediaExtension returns the lower-case extension of the URL path, or
// fallback when the path has none or it looks wrong.
func mediaExtension(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if ext == "" || len(ext) > 5 {
		return fallback
	}
	for _, r := range ext {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fallback
		}
	}
	return ext
}
