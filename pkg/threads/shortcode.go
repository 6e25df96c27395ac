package threads

import (
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

// shortcodeAlphabet is the 64-symbol alphabet used by Threads (and Instagram)
// post shortcodes. Position in the string is the digit value.
const shortcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// PostReference identifies a post by the shortcode in its URL and the
// numeric ID the internal API expects.
type PostReference struct {
	Shortcode string
	PostID    string
}

// ShortcodeFromURL returns the last path segment of a post URL, ignoring any
// query string, fragment and trailing slashes.
func ShortcodeFromURL(rawURL string) (string, error) {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		path = u.Path
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")

	code := path[strings.LastIndex(path, "/")+1:]
	if code == "" {
		return "", ErrMissingShortcode
	}
	return code, nil
}

// DecodeShortcode converts a shortcode to its decimal post ID. Shortcodes are
// base-64 numerals, so anything past ~10 characters overflows uint64.
func DecodeShortcode(code string) (string, error) {
	if code == "" {
		return "", ErrMissingShortcode
	}

	id := new(big.Int)
	base := big.NewInt(64)
	digit := new(big.Int)
	for i, r := range code {
		idx := strings.IndexRune(shortcodeAlphabet, r)
		if idx < 0 {
			return "", fmt.Errorf("%w: %q at position %d", ErrMalformedShortcode, r, i)
		}
		id.Mul(id, base)
		id.Add(id, digit.SetInt64(int64(idx)))
	}
	return id.String(), nil
}

// ParsePostReference extracts the shortcode from a post URL and decodes it.
func ParsePostReference(rawURL string) (PostReference, error) {
	code, err := ShortcodeFromURL(rawURL)
	if err != nil {
		return PostReference{}, err
	}
	id, err := DecodeShortcode(code)
	if err != nil {
		return PostReference{}, err
	}
	return PostReference{Shortcode: code, PostID: id}, nil
}
