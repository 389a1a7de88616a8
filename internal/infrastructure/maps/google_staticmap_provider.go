package maps

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

// Zoom 18 shows the surrounding block, a readable stand-in for a missing
// street-level view.
const staticMapZoom = 18

// GoogleStaticMapProvider serves satellite imagery via the Google Static
// Maps API, used as the fallback for waypoints without panorama coverage.
type GoogleStaticMapProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleStaticMapProvider creates a new provider.
func NewGoogleStaticMapProvider(apiKey string) *GoogleStaticMapProvider {
	return &GoogleStaticMapProvider{
		apiKey:     apiKey,
		baseURL:    "https://maps.googleapis.com/maps/api/staticmap",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchImage downloads a satellite map centered on the point.
func (g *GoogleStaticMapProvider) FetchImage(ctx context.Context, point model.GeoPoint, width, height int) ([]byte, error) {
	params := url.Values{}
	params.Set("center", fmt.Sprintf("%f,%f", point.Lat, point.Lng))
	params.Set("zoom", fmt.Sprintf("%d", staticMapZoom))
	params.Set("size", fmt.Sprintf("%dx%d", width, height))
	params.Set("maptype", "satellite")
	params.Set("key", g.apiKey)

	return fetchImageBytes(ctx, g.httpClient, fmt.Sprintf("%s?%s", g.baseURL, params.Encode()))
}
