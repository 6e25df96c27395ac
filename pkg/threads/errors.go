package threads

import "errors"

var (
	// ErrNotThreadsURL is returned when a URL does not point at threads.net or threads.com.
	ErrNotThreadsURL = errors.New("not a Threads URL")

	// ErrMissingShortcode is returned when the URL path has no trailing segment.
	ErrMissingShortcode = errors.New("could not extract post shortcode from URL")

	// ErrMalformedShortcode is returned when a shortcode contains a character
	// outside the shortcode alphabet.
	ErrMalformedShortcode = errors.New("malformed post shortcode")

	// ErrPostUnavailable is returned when every session token was tried and the
	// API never returned post data. The post is private, deleted, or the
	// upstream contract changed; retrying will not help.
	ErrPostUnavailable = errors.New("could not fetch post data - post may be private or deleted")

	// ErrNoTokens is returned when the client has no session tokens configured.
	ErrNoTokens = errors.New("no session tokens configured")
)

// TransientError marks a failure where the upstream could not be checked
// (network error, timeout, 5xx, rate limiting). Callers may retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err (or anything it wraps) is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
