package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
	"github.com/ezraball/neighborhood-tour/internal/domain/repository"
)

// GoogleStreetViewProvider serves street-level panorama imagery via the
// Google Street View Static API. Availability is checked through the free
// metadata endpoint before any billable image request.
type GoogleStreetViewProvider struct {
	apiKey      string
	imageURL    string
	metadataURL string
	httpClient  *http.Client
}

// NewGoogleStreetViewProvider creates a new provider.
func NewGoogleStreetViewProvider(apiKey string) *GoogleStreetViewProvider {
	return &GoogleStreetViewProvider{
		apiKey:      apiKey,
		imageURL:    "https://maps.googleapis.com/maps/api/streetview",
		metadataURL: "https://maps.googleapis.com/maps/api/streetview/metadata",
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Available reports whether panorama coverage exists at the point.
func (g *GoogleStreetViewProvider) Available(ctx context.Context, point model.GeoPoint) (bool, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", point.Lat, point.Lng))
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s?%s", g.metadataURL, params.Encode()), nil)
	if err != nil {
		return false, fmt.Errorf("failed to build metadata request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("metadata endpoint returned status %s", resp.Status)
	}

	var meta struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return false, fmt.Errorf("failed to parse metadata response: %w", err)
	}
	return meta.Status == "OK", nil
}

// FetchImage downloads a panorama framed with the request's heading, pitch
// and field of view.
func (g *GoogleStreetViewProvider) FetchImage(ctx context.Context, r repository.PanoramaRequest) ([]byte, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", r.Point.Lat, r.Point.Lng))
	params.Set("size", fmt.Sprintf("%dx%d", r.Width, r.Height))
	params.Set("heading", fmt.Sprintf("%.1f", r.Heading))
	params.Set("pitch", fmt.Sprintf("%g", r.Pitch))
	params.Set("fov", fmt.Sprintf("%g", r.FOV))
	params.Set("key", g.apiKey)

	return fetchImageBytes(ctx, g.httpClient, fmt.Sprintf("%s?%s", g.imageURL, params.Encode()))
}

// fetchImageBytes downloads raw image bytes, shared by the street view and
// static map providers.
func fetchImageBytes(ctx context.Context, client *http.Client, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image endpoint returned status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image endpoint returned an empty body")
	}
	return data, nil
}
