package threads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/iconidentify/vidgrab/internal/config"
)

const friendlyName = "BarcelonaPostPageQuery"

// APIClient queries the internal Threads GraphQL endpoint for post data.
type APIClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        config.ThreadsConfig
	logger     *slog.Logger
}

// NewAPIClient creates a client for the post page query.
func NewAPIClient(cfg config.ThreadsConfig, logger *slog.Logger) *APIClient {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		cfg:        cfg,
		logger:     logger.With("component", "threads_api"),
	}
}

// FetchPost tries each configured session token in order and returns the
// first thread item of the first response carrying post data.
//
// A response that arrives but carries no data moves on to the next token.
// When every token was answered without data the post is unavailable. When
// no token got an answer at all the failure is transient.
func (c *APIClient) FetchPost(ctx context.Context, ref PostReference) (*ThreadItem, error) {
	if len(c.cfg.LSDTokens) == 0 {
		return nil, ErrNoTokens
	}

	answered := false
	var lastErr error
	for i, token := range c.cfg.LSDTokens {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		item, err := c.query(ctx, ref.PostID, token)
		if err == nil && item != nil {
			c.logger.Debug("post data fetched", "shortcode", ref.Shortcode, "token_index", i)
			return item, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			c.logger.Debug("token attempt failed", "shortcode", ref.Shortcode, "token_index", i, "error", err)
			lastErr = err
			if !IsTransient(err) {
				answered = true
			}
			continue
		}
		answered = true
	}

	if !answered && lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrPostUnavailable
}

// query performs one request. A nil item with a nil error means the server
// answered without post data.
func (c *APIClient) query(ctx context.Context, postID, token string) (*ThreadItem, error) {
	variables, err := json.Marshal(map[string]string{"postID": postID})
	if err != nil {
		return nil, fmt.Errorf("encode variables: %w", err)
	}

	form := url.Values{}
	form.Set("av", "0")
	form.Set("__user", "0")
	form.Set("__a", "1")
	form.Set("__req", "1")
	form.Set("dpr", "1")
	form.Set("__ccg", "EXCELLENT")
	form.Set("lsd", token)
	form.Set("jazoest", "21774")
	form.Set("fb_api_caller_class", "RelayModern")
	form.Set("fb_api_req_friendly_name", friendlyName)
	form.Set("variables", string(variables))
	form.Set("server_timestamps", "true")
	form.Set("doc_id", c.cfg.DocID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://www.threads.net")
	req.Header.Set("Referer", "https://www.threads.net/")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-ASBD-ID", c.cfg.ASBDID)
	req.Header.Set("X-FB-Friendly-Name", friendlyName)
	req.Header.Set("X-FB-LSD", token)
	req.Header.Set("X-IG-App-ID", c.cfg.AppID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Op: "threads api", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &TransientError{Op: "threads api", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("threads api: status %d", resp.StatusCode)
	}

	var body graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &TransientError{Op: "threads api", Err: err}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if body.Data == nil || body.Data.Data == nil {
		return nil, nil
	}
	items := body.Data.Data.ContainingThread.ThreadItems
	if len(items) == 0 || items[0].Post == nil {
		return nil, nil
	}
	return &items[0], nil
}
