// In file: internal/tools/screenshot_tool.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aquataze/tool-gateway/internal/api"
	"github.com/aquataze/tool-gateway/internal/upload"
)

// Uploader stores a file and reports where it lives.
type Uploader interface {
	Upload(ctx context.Context, f upload.File) (*upload.Result, error)
}

// ScreenshotResult is the data of a successful screenshot item.
type ScreenshotResult struct {
	URL           string        `json:"url"`
	ScreenshotURL upload.Result `json:"screenshotUrl"`
}

// ScreenshotTool captures a full-page PNG of a website through a headless
// render service and uploads it publicly.
type ScreenshotTool struct {
	renderURL  string
	uploader   Uploader
	httpClient *http.Client
}

var _ ToolExecutor = (*ScreenshotTool)(nil)

// NewScreenshotTool creates the tool. Rendering waits for the page to settle,
// so the client timeout is long.
func NewScreenshotTool(renderURL string, uploader Uploader, timeout time.Duration) *ScreenshotTool {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &ScreenshotTool{
		renderURL:  renderURL,
		uploader:   uploader,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (t *ScreenshotTool) Definition() Tool {
	return NewFunctionTool(
		"getWebsiteScreenshot",
		"Take a full-page screenshot of a website and return public links to the image",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"url": {
					Type:        "string",
					Description: "Absolute http or https URL of the page, e.g. https://example.com",
				},
			},
			Required: []string{"url"},
		},
	)
}

func (t *ScreenshotTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		URL string `json:"url"`
	}
	if err := decodeArgs(args, &in, "getWebsiteScreenshot"); err != nil {
		return nil, err
	}
	target := strings.TrimSpace(in.URL)
	if target == "" {
		return nil, fmt.Errorf("URL is required: %w", api.ErrInvalidArgument)
	}
	if !isValidURL(target) {
		return nil, fmt.Errorf("invalid URL format: %q: %w", target, api.ErrInvalidArgument)
	}

	png, err := t.capture(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot for URL %q: %w", target, err)
	}

	res, err := t.uploader.Upload(ctx, upload.File{
		Name:        fmt.Sprintf("screenshot-%s.png", target),
		ContentType: "image/png",
		Content:     png,
		SetPublic:   true,
		ReUpload:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload screenshot for URL %q: %w", target, err)
	}
	return ScreenshotResult{URL: target, ScreenshotURL: *res}, nil
}

// capture asks the render service for a full-page PNG of target.
func (t *ScreenshotTool) capture(ctx context.Context, target string) ([]byte, error) {
	if t.renderURL == "" {
		return nil, fmt.Errorf("%w: no render service configured", api.ErrUpstreamLookupFailed)
	}
	q := url.Values{}
	q.Set("url", target)
	q.Set("fullPage", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.renderURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create render request: %w", api.ErrUpstreamLookupFailed, err)
	}
	req.Header.Set("Accept", "image/png")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrUpstreamLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: render service returned status %d", api.ErrUpstreamLookupFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read render response: %w", api.ErrUpstreamLookupFailed, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: render service returned an empty image", api.ErrUpstreamLookupFailed)
	}
	return body, nil
}

func isValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
