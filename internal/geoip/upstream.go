package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aquataze/tool-gateway/internal/api"
	"github.com/aquataze/tool-gateway/internal/version"
)

// DefaultBaseURL is the public ipapi.co endpoint.
const DefaultBaseURL = "https://ipapi.co"

// Upstream fetches a raw record for one IP.
type Upstream interface {
	Fetch(ctx context.Context, ip string) (*storedRecord, error)
}

// Client talks to an ipapi.co compatible API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Upstream = (*Client)(nil)

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// apiError is the body ipapi.co sends, with status 200, for reserved or
// malformed addresses and for rate limiting.
type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Fetch performs GET {base}/{ip}/json/.
func (c *Client) Fetch(ctx context.Context, ip string) (*storedRecord, error) {
	endpoint := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", api.ErrUpstreamLookupFailed, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("⚠️ Geolocation lookup for %s failed: %v", ip, err)
		return nil, fmt.Errorf("%w: %w", api.ErrUpstreamLookupFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", api.ErrUpstreamLookupFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: geolocation API returned status %d", api.ErrUpstreamLookupFailed, resp.StatusCode)
	}

	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error {
		return nil, fmt.Errorf("%w: %s", api.ErrUpstreamLookupFailed, apiErr.Reason)
	}

	rec := &storedRecord{}
	if err := json.Unmarshal(body, rec); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", api.ErrUpstreamLookupFailed, err)
	}
	if rec.empty() {
		return nil, fmt.Errorf("%w: no geolocation attributes for %s", api.ErrUpstreamLookupFailed, ip)
	}
	return rec, nil
}
