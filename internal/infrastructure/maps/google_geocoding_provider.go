package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

// GoogleGeocodingProvider resolves addresses via the Google Maps Geocoding
// API, and coordinates back to street names for overlay labels.
type GoogleGeocodingProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleGeocodingProvider creates a new provider.
func NewGoogleGeocodingProvider(apiKey string) *GoogleGeocodingProvider {
	return &GoogleGeocodingProvider{
		apiKey:     apiKey,
		baseURL:    "https://maps.googleapis.com/maps/api/geocode/json",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ResolveAddress geocodes an address string. A status other than OK is an
// input error: the address itself cannot be resolved.
func (g *GoogleGeocodingProvider) ResolveAddress(ctx context.Context, address string) (model.GeoPoint, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	var apiResp geocodeResponse
	if err := g.getJSON(ctx, params, &apiResp); err != nil {
		return model.GeoPoint{}, model.NewProviderError("geocoding request failed", err)
	}
	if apiResp.Status != "OK" || len(apiResp.Results) == 0 {
		return model.GeoPoint{}, model.NewInputError(
			fmt.Sprintf("could not geocode %q: %s %s", address, apiResp.Status, apiResp.ErrorMessage), nil)
	}

	loc := apiResp.Results[0].Geometry.Location
	return model.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// ReverseStreetName returns the street ("route" component) name at a
// coordinate, or an empty string when none is known.
func (g *GoogleGeocodingProvider) ReverseStreetName(ctx context.Context, point model.GeoPoint) (string, error) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", point.Lat, point.Lng))
	params.Set("key", g.apiKey)

	var apiResp geocodeResponse
	if err := g.getJSON(ctx, params, &apiResp); err != nil {
		return "", fmt.Errorf("reverse geocoding request failed: %w", err)
	}
	if apiResp.Status != "OK" {
		return "", nil
	}
	for _, result := range apiResp.Results {
		for _, component := range result.AddressComponents {
			for _, t := range component.Types {
				if t == "route" {
					return component.LongName, nil
				}
			}
		}
	}
	return "", nil
}

func (g *GoogleGeocodingProvider) getJSON(ctx context.Context, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// --- Geocoding API response structures ---

type geocodeResponse struct {
	Results      []geocodeResult `json:"results"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
}
type geocodeResult struct {
	Geometry          geocodeGeometry    `json:"geometry"`
	AddressComponents []addressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
}
type geocodeGeometry struct {
	Location latLng `json:"location"`
}
type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
type addressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}
