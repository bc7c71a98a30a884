package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aquataze/tool-gateway/internal/api"
	"github.com/aquataze/tool-gateway/internal/geoip"
	"github.com/aquataze/tool-gateway/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	gotIP string
	err   error
}

func (s *stubResolver) Resolve(ctx context.Context, ip string) (*geoip.GeoRecord, error) {
	s.gotIP = ip
	if s.err != nil {
		return nil, s.err
	}
	return &geoip.GeoRecord{IP: ip, City: "Austin"}, nil
}

type stubUploader struct {
	got upload.File
	err error
}

func (s *stubUploader) Upload(ctx context.Context, f upload.File) (*upload.Result, error) {
	s.got = f
	if s.err != nil {
		return nil, s.err
	}
	return &upload.Result{DownloadURL: "https://d/1", MimeType: "image/png"}, nil
}

func TestToolManager(t *testing.T) {
	tm := NewToolManager()
	tm.Register(NewWeatherTool("", 0))
	tm.Register(NewIPLookupTool(&stubResolver{}))
	tm.Register(NewScreenshotTool("", &stubUploader{}, 0))

	assert.Equal(t, 3, tm.ToolCount())
	var names []string
	for _, d := range tm.GetDefinitions() {
		assert.Equal(t, ToolTypeFunction, d.Type)
		assert.Equal(t, "object", d.Function.Parameters.Type)
		names = append(names, d.Function.Name)
	}
	assert.Equal(t, []string{"IPAddressLookUp", "getTodaysWeather", "getWebsiteScreenshot"}, names)

	out, err := tm.Execute(context.Background(), "IPAddressLookUp", json.RawMessage(`{"functionName":"IPAddressLookUp","ip":"4.2.2.1"}`))
	require.NoError(t, err)
	assert.Equal(t, "4.2.2.1", out.(*geoip.GeoRecord).IP)

	_, err = tm.Execute(context.Background(), "sendWhatsAppMessage", nil)
	assert.ErrorIs(t, err, api.ErrToolNotFound)

	_, err = tm.Execute(context.Background(), "", nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestIPLookupTool_Errors(t *testing.T) {
	tool := NewIPLookupTool(&stubResolver{err: fmt.Errorf("IP address is required: %w", api.ErrInvalidArgument)})

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"ip":""}`))
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = tool.Execute(context.Background(), json.RawMessage(`{"ip":42}`))
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestScreenshotTool(t *testing.T) {
	render := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://example.com/page", r.URL.Query().Get("url"))
		assert.Equal(t, "true", r.URL.Query().Get("fullPage"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	}))
	defer render.Close()

	up := &stubUploader{}
	tool := NewScreenshotTool(render.URL, up, 0)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"url":"https://example.com/page"}`))
	require.NoError(t, err)

	res := out.(ScreenshotResult)
	assert.Equal(t, "https://example.com/page", res.URL)
	assert.Equal(t, "https://d/1", res.ScreenshotURL.DownloadURL)

	assert.Equal(t, "screenshot-https://example.com/page.png", up.got.Name)
	assert.Equal(t, "image/png", up.got.ContentType)
	assert.Equal(t, []byte("\x89PNG"), up.got.Content)
	assert.True(t, up.got.SetPublic)
	assert.True(t, up.got.ReUpload)
}

func TestScreenshotTool_Validation(t *testing.T) {
	up := &stubUploader{}
	tool := NewScreenshotTool("http://render.invalid", up, 0)

	for _, body := range []string{`{}`, `{"url":"  "}`, `{"url":"example.com"}`, `{"url":"ftp://example.com"}`, `{"url":"https://"}`} {
		_, err := tool.Execute(context.Background(), json.RawMessage(body))
		assert.ErrorIs(t, err, api.ErrInvalidArgument, body)
	}
	assert.Empty(t, up.got.Name, "invalid URLs never reach the uploader")
}

func TestScreenshotTool_Failures(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	up := &stubUploader{}
	_, err := NewScreenshotTool(failing.URL, up, 0).Execute(context.Background(), json.RawMessage(`{"url":"https://example.com"}`))
	assert.ErrorIs(t, err, api.ErrUpstreamLookupFailed)
	assert.Contains(t, err.Error(), `failed to capture screenshot for URL "https://example.com"`)
	assert.Empty(t, up.got.Name)

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("png"))
	}))
	defer ok.Close()

	up = &stubUploader{err: fmt.Errorf("get upload token: %w", api.ErrIssuerUnavailable)}
	_, err = NewScreenshotTool(ok.URL, up, 0).Execute(context.Background(), json.RawMessage(`{"url":"https://example.com"}`))
	assert.ErrorIs(t, err, api.ErrIssuerUnavailable)

	_, err = NewScreenshotTool("", &stubUploader{}, 0).Execute(context.Background(), json.RawMessage(`{"url":"https://example.com"}`))
	assert.ErrorIs(t, err, api.ErrUpstreamLookupFailed)
}

func TestWeatherTool(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		wantPath string
	}{
		{"free-form", `{"location":"Austin, TX"}`, "/Austin,+TX"},
		{"zip", `{"zipCode":"49024"}`, "/49024"},
		{"coordinates", `{"lat":42.201,"lon":-85.5806,"zipCode":"49024"}`, "/42.201,-85.5806"},
		{"city triple", `{"city":"Portage","state":"MI","country":"US"}`, "/Portage,MI,US"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "3", r.URL.Query().Get("format"))
				_, _ = w.Write([]byte("Somewhere: ☀️ +25°C\n"))
			}))
			defer srv.Close()

			out, err := NewWeatherTool(srv.URL, 0).Execute(context.Background(), json.RawMessage(tt.args))
			require.NoError(t, err)
			assert.Equal(t, "Somewhere: ☀️ +25°C", out.(WeatherReport).Summary)
		})
	}
}

func TestWeatherTool_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Atlantis":
			_, _ = w.Write([]byte("Unknown location; please try ~Atlantis"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()
	tool := NewWeatherTool(srv.URL, 0)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = tool.Execute(context.Background(), json.RawMessage(`{"location":"Atlantis"}`))
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = tool.Execute(context.Background(), json.RawMessage(`{"location":"Austin"}`))
	assert.True(t, errors.Is(err, api.ErrUpstreamLookupFailed))
}
