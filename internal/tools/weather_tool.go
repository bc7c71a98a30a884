// In file: internal/tools/weather_tool.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aquataze/tool-gateway/internal/api"
	"github.com/aquataze/tool-gateway/internal/version"
)

// DefaultWeatherURL is wttr.in, a text-based weather API.
const DefaultWeatherURL = "https://wttr.in"

// WeatherTool reports today's weather for a location given as a free-form
// name, a zip code, coordinates or a city/state/country triple.
type WeatherTool struct {
	baseURL    string
	httpClient *http.Client
}

var _ ToolExecutor = (*WeatherTool)(nil)

func NewWeatherTool(baseURL string, timeout time.Duration) *WeatherTool {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WeatherTool{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (wt *WeatherTool) Definition() Tool {
	return NewFunctionTool(
		"getTodaysWeather",
		"Get today's weather for a location. Provide location, zipCode, lat and lon, or city with an optional state and country.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"location": {Type: "string", Description: "Free-form place, e.g. Austin, TX"},
				"zipCode":  {Type: "string", Description: "Zip code, e.g. 49024"},
				"lat":      {Type: "number", Description: "Latitude"},
				"lon":      {Type: "number", Description: "Longitude"},
				"city":     {Type: "string", Description: "City name"},
				"state":    {Type: "string", Description: "State code"},
				"country":  {Type: "string", Description: "Country code"},
			},
		},
	)
}

// WeatherReport is the data of a successful weather item.
type WeatherReport struct {
	Location string `json:"location"`
	Summary  string `json:"summary"`
}

type locationInput struct {
	Location string   `json:"location"`
	ZipCode  string   `json:"zipCode"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	City     string   `json:"city"`
	State    string   `json:"state"`
	Country  string   `json:"country"`
}

// query turns the input into a wttr.in location, preferring the most precise form.
func (in locationInput) query() string {
	switch {
	case in.Lat != nil && in.Lon != nil:
		return strconv.FormatFloat(*in.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(*in.Lon, 'f', -1, 64)
	case in.ZipCode != "":
		return in.ZipCode
	case in.City != "":
		parts := []string{in.City}
		for _, p := range []string{in.State, in.Country} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ",")
	default:
		return strings.TrimSpace(in.Location)
	}
}

func (wt *WeatherTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var in locationInput
	if err := decodeArgs(args, &in, "getTodaysWeather"); err != nil {
		return nil, err
	}
	location := in.query()
	if location == "" {
		return nil, fmt.Errorf("a location, zipCode, lat/lon or city is required: %w", api.ErrInvalidArgument)
	}

	endpoint := fmt.Sprintf("%s/%s?format=3", wt.baseURL, url.PathEscape(strings.ReplaceAll(location, " ", "+")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather API request: %w", err)
	}
	// wttr.in serves HTML to browser-like agents.
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := wt.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call weather API: %w", api.ErrUpstreamLookupFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read weather API response: %w", api.ErrUpstreamLookupFailed, err)
	}
	summary := strings.TrimSpace(string(body))
	if resp.StatusCode == http.StatusNotFound || strings.Contains(summary, "Unknown location") {
		return nil, fmt.Errorf("couldn't find the weather for '%s': %w", location, api.ErrInvalidArgument)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: weather API returned non-200 status: %d", api.ErrUpstreamLookupFailed, resp.StatusCode)
	}

	return WeatherReport{Location: location, Summary: summary}, nil
}
