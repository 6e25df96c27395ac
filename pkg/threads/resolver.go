package threads

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"
)

// EmbedLookup finds a delegate URL on a post's embed page.
type EmbedLookup interface {
	Lookup(ctx context.Context, postURL string) (*Embedded, error)
}

// PostFetcher loads the first thread item of a post from the internal API.
type PostFetcher interface {
	FetchPost(ctx context.Context, ref PostReference) (*ThreadItem, error)
}

// Resolver turns a Threads post URL into something downloadable. The embed
// page is checked first; the internal API is the fallback.
type Resolver struct {
	embed  EmbedLookup
	api    PostFetcher
	logger *slog.Logger
}

// NewResolver creates a resolver over the given strategies.
func NewResolver(embed EmbedLookup, api PostFetcher, logger *slog.Logger) *Resolver {
	return &Resolver{
		embed:  embed,
		api:    api,
		logger: logger.With("component", "threads_resolver"),
	}
}

// IsThreadsURL reports whether raw points at threads.net or threads.com.
func IsThreadsURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range []string{"threads.net", "threads.com"} {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Resolve returns an *Embedded, *Direct or *NotFound. Malformed input is
// rejected before any network call. A TransientError is returned when the
// outcome could not be determined and a retry may succeed.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (Resolution, error) {
	if !IsThreadsURL(rawURL) {
		return nil, ErrNotThreadsURL
	}
	ref, err := ParsePostReference(rawURL)
	if err != nil {
		return nil, err
	}
	log := r.logger.With("shortcode", ref.Shortcode)

	embedded, embedErr := r.embed.Lookup(ctx, rawURL)
	if embedErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("embed lookup failed", "error", embedErr)
	}
	if embedded != nil {
		return embedded, nil
	}

	item, err := r.api.FetchPost(ctx, ref)
	if err != nil {
		// The embed page may have held the answer; do not report a
		// permanent failure when it could not be checked.
		if errors.Is(err, ErrPostUnavailable) && IsTransient(embedErr) {
			return nil, embedErr
		}
		return nil, err
	}

	media, ok := ExtractMedia(*item)
	if !ok {
		log.Info("post has no downloadable media")
		return &NotFound{Reason: "No downloadable media found"}, nil
	}
	return &Direct{Media: media, Username: item.Post.username()}, nil
}

// PostInfo summarizes a directly resolved post for the info endpoint.
type PostInfo struct {
	Title     string
	Duration  string
	Uploader  string
	Thumbnail string
	Type      MediaKind
}

// Describe builds the info summary for a directly resolved post.
func Describe(d *Direct) PostInfo {
	info := PostInfo{
		Title:    TruncateRunes(d.Media.Caption(), 100),
		Duration: "Unknown",
		Uploader: d.Username,
		Type:     d.Media.Kind(),
	}
	if info.Title == "" {
		info.Title = "Threads post by @" + d.Username
	}
	if info.Uploader == "" {
		info.Uploader = "Unknown"
	}
	info.Thumbnail = d.Media.Preview()
	if info.Thumbnail == "" {
		if src := d.Media.Sources(); len(src) > 0 {
			info.Thumbnail = src[0].URL
		}
	}
	return info
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
