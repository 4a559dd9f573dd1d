package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"toolgate/internal/domain"
	"toolgate/internal/upstream"
)

const (
	geocodeURL = "http://api.openweathermap.org/geo/1.0/direct"
	onecallURL = "https://api.openweathermap.org/data/3.0/onecall"
)

// WeatherService answers weather lookups through OpenWeather.
type WeatherService struct {
	client *retryablehttp.Client
	apiKey string
}

// NewWeatherService builds the adapter. An empty key defers the failure to
// call time so the rest of the catalog stays usable.
func NewWeatherService(client *retryablehttp.Client, apiKey string) *WeatherService {
	return &WeatherService{client: client, apiKey: apiKey}
}

// Tools returns the weather tool pairs.
func (s *WeatherService) Tools() []Tool {
	return []Tool{
		{
			Def: domain.ToolDefinition{
				Name:        "get_weather_data",
				Description: "Get current weather data for a specified location",
				Params: []domain.ParameterSpec{
					{Name: "location_name", Kind: domain.KindString, Description: "Name of the location to get weather for", Default: "Whitehorse"},
				},
			},
			Handler: domain.HandlerFunc(s.weatherData),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "get_coordinates",
				Description: "Get latitude and longitude coordinates for a location name",
				Params: []domain.ParameterSpec{
					{Name: "location_name", Kind: domain.KindString, Description: "Name of the location to get coordinates for", Required: true},
				},
			},
			Handler: domain.HandlerFunc(s.coordinatesTool),
		},
	}
}

func (s *WeatherService) weatherData(ctx context.Context, args domain.Args) (any, error) {
	location := strings.TrimSpace(argString(args, "location_name"))
	if location == "" {
		return nil, fmt.Errorf("location name is empty")
	}
	lat, lon, err := s.coordinates(ctx, location)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"appid":   {s.apiKey},
		"lat":     {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":     {strconv.FormatFloat(lon, 'f', -1, 64)},
		"exclude": {"hourly,minutely,daily"},
		"units":   {"metric"},
	}
	var payload map[string]any
	if err := upstream.GetJSON(ctx, s.client, onecallURL, query, nil, &payload); err != nil {
		return nil, fmt.Errorf("weather lookup failed: %w", err)
	}
	payload["location"] = map[string]any{
		"name":      location,
		"latitude":  lat,
		"longitude": lon,
	}
	return payload, nil
}

func (s *WeatherService) coordinatesTool(ctx context.Context, args domain.Args) (any, error) {
	location := strings.TrimSpace(argString(args, "location_name"))
	if location == "" {
		return nil, fmt.Errorf("location name is empty")
	}
	lat, lon, err := s.coordinates(ctx, location)
	if err != nil {
		return nil, err
	}
	return map[string]any{"name": location, "latitude": lat, "longitude": lon}, nil
}

func (s *WeatherService) coordinates(ctx context.Context, location string) (float64, float64, error) {
	if s.apiKey == "" {
		return 0, 0, fmt.Errorf("OpenWeather API key not configured")
	}
	query := url.Values{
		"q":     {location},
		"limit": {"1"},
		"appid": {s.apiKey},
	}
	var matches []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := upstream.GetJSON(ctx, s.client, geocodeURL, query, nil, &matches); err != nil {
		return 0, 0, fmt.Errorf("geocoding failed: %w", err)
	}
	if len(matches) == 0 {
		return 0, 0, fmt.Errorf("could not find location %q on a map", location)
	}
	return matches[0].Lat, matches[0].Lon, nil
}
