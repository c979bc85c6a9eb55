// Package edgar is the REST client for the SEC EDGAR filing index and
// archives. All requests pass through a shared rate limiter to respect the
// SEC's fair-access guidance, and carry the mandatory User-Agent header.
package edgar

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

const rateLimitKey = "edgar"

// Config holds the EDGAR endpoints and request policy.
type Config struct {
	// BaseURL is the EDGAR site root, e.g. "https://www.sec.gov".
	BaseURL string
	// UserAgent identifies the requester per SEC policy,
	// e.g. "insiderwatch admin@example.com".
	UserAgent string
	// RateLimit and RateWindow bound request frequency, e.g. 10 per second.
	RateLimit  int
	RateWindow time.Duration
}

// Client fetches the Form 4 filing index and raw filing documents.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    domain.RateLimiter
}

// New creates a new EDGAR client. limiter may be nil, in which case requests
// are not throttled (useful in tests).
func New(cfg Config, limiter domain.RateLimiter) *Client {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
	}
}

// FetchRecentFilings returns up to maxCount of the most recent Form 4 filings
// from the EDGAR current-events feed.
func (c *Client) FetchRecentFilings(ctx context.Context, maxCount int) ([]domain.FilingRef, error) {
	params := url.Values{}
	params.Set("action", "getcurrent")
	params.Set("type", "4")
	params.Set("owner", "include")
	params.Set("count", strconv.Itoa(maxCount))
	params.Set("output", "atom")

	body, err := c.doGet(ctx, c.cfg.BaseURL+"/cgi-bin/browse-edgar?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("edgar: fetch filing index: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("edgar: decode filing index: %w", err)
	}

	refs := make([]domain.FilingRef, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		ref, ok := entry.toFilingRef()
		if !ok {
			continue
		}
		refs = append(refs, ref)
		if len(refs) >= maxCount {
			break
		}
	}
	return refs, nil
}

// FetchFilingDocument returns the raw submission text for one filing from the
// EDGAR archives.
func (c *Client) FetchFilingDocument(ctx context.Context, ref domain.FilingRef) (string, error) {
	path := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s.txt",
		c.cfg.BaseURL,
		url.PathEscape(ref.CIK),
		strings.ReplaceAll(ref.AccessionNo, "-", ""),
		ref.AccessionNo,
	)

	body, err := c.doGet(ctx, path)
	if err != nil {
		return "", fmt.Errorf("edgar: fetch filing %s: %w", ref.AccessionNo, err)
	}
	return string(body), nil
}

// doGet performs one rate-limited GET and returns the response body.
func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Accept-Encoding is left to the transport: setting it manually would
	// disable net/http's transparent gzip decompression.
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// throttle blocks until the shared rate limiter admits one request.
func (c *Client) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx, rateLimitKey, c.cfg.RateLimit, c.cfg.RateWindow); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.FilingSource = (*Client)(nil)
