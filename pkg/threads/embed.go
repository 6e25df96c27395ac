package threads

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/iconidentify/vidgrab/internal/config"
)

var (
	redirectPattern  = regexp.MustCompile(`l\.facebook\.com/l\.php\?u=([^&"]+)`)
	instagramPattern = regexp.MustCompile(`https://(?:www\.)?instagram\.com/(?:reel|p)/[A-Za-z0-9_-]+`)
	youtubePattern   = regexp.MustCompile(`https://(?:www\.)?(?:youtube\.com/(?:watch\?v=|shorts/)|youtu\.be/)[A-Za-z0-9_-]+`)
	tiktokPattern    = regexp.MustCompile(`https://(?:www\.)?tiktok\.com/@[^/"\s]+/video/\d+`)
	mp4SrcPattern    = regexp.MustCompile(`src="(https://[^"]+\.mp4[^"]*)"`)
)

// delegateHosts are the platforms a link-out redirect may point at.
var delegateHosts = []string{"instagram.com", "youtube.com", "youtu.be", "tiktok.com"}

// EmbedClient inspects the public embed page of a post.
type EmbedClient struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewEmbedClient creates an embed page client. Redirects are followed up to
// the configured limit.
func NewEmbedClient(cfg config.ThreadsConfig, logger *slog.Logger) *EmbedClient {
	maxRedirects := cfg.MaxRedirects
	return &EmbedClient{
		httpClient: &http.Client{
			Timeout: cfg.EmbedTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.EmbedUserAgent,
		logger:    logger.With("component", "threads_embed"),
	}
}

// EmbedURL returns the embed page address for a post URL.
func EmbedURL(postURL string) string {
	u := postURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/") + "/embed"
}

// Lookup fetches the embed page and scans it for a delegate URL. It returns
// nil with a nil error when the page was read and holds nothing usable. A
// TransientError means the page could not be checked.
func (c *EmbedClient) Lookup(ctx context.Context, postURL string) (*Embedded, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, EmbedURL(postURL), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransientError{Op: "threads embed", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransientError{Op: "threads embed", Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		c.logger.Debug("embed page not usable", "status", resp.StatusCode)
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &TransientError{Op: "threads embed", Err: err}
	}

	found := ScanEmbedHTML(string(body))
	if found != nil {
		c.logger.Debug("embed delegate found", "url", found.URL, "native", found.Native)
	}
	return found, nil
}

// ScanEmbedHTML looks for, in order: an allowed link-out redirect, an
// Instagram, YouTube or TikTok link, and finally a Threads-hosted mp4. The
// first match wins.
func ScanEmbedHTML(page string) *Embedded {
	for _, m := range redirectPattern.FindAllStringSubmatch(page, -1) {
		target, err := url.PathUnescape(m[1])
		if err != nil {
			continue
		}
		if isDelegateHost(target) {
			return &Embedded{URL: target}
		}
	}

	for _, p := range []*regexp.Regexp{instagramPattern, youtubePattern, tiktokPattern} {
		if m := p.FindString(page); m != "" {
			return &Embedded{URL: m}
		}
	}

	if src := nativeVideoSource(page); src != "" {
		return &Embedded{URL: src, Native: true}
	}
	return nil
}

func nativeVideoSource(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err == nil {
		var src string
		doc.Find("video[src], video source[src], source[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("src")
			if strings.HasPrefix(v, "https://") && strings.Contains(v, ".mp4") {
				src = v
				return false
			}
			return true
		})
		if src != "" {
			return src
		}
	}

	if m := mp4SrcPattern.FindStringSubmatch(page); m != nil {
		return html.UnescapeString(m[1])
	}
	return ""
}

func isDelegateHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range delegateHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
