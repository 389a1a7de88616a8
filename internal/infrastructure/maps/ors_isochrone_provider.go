package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
	"github.com/ezraball/neighborhood-tour/internal/domain/repository"
)

// ORSIsochroneProvider computes foot-walking isochrone polygons through the
// OpenRouteService API. The capability is optional; without an API key the
// provider reports unavailable and the caller falls back to a disk area.
type ORSIsochroneProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewORSIsochroneProvider creates a new provider. An empty apiKey yields a
// provider that always reports unavailable.
func NewORSIsochroneProvider(apiKey string) *ORSIsochroneProvider {
	return &ORSIsochroneProvider{
		apiKey:     apiKey,
		baseURL:    "https://api.openrouteservice.org/v2/isochrones/foot-walking",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Isochrone returns the polygon reachable on foot within walkMinutes.
func (o *ORSIsochroneProvider) Isochrone(ctx context.Context, center model.GeoPoint, walkMinutes int) ([]model.GeoPoint, error) {
	if o.apiKey == "" {
		return nil, repository.ErrIsochroneUnavailable
	}

	// ORS expects [lng, lat] coordinate order.
	body, err := json.Marshal(map[string]any{
		"locations":  [][]float64{{center.Lng, center.Lat}},
		"range":      []int{walkMinutes * 60},
		"range_type": "time",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode isochrone request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build isochrone request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("isochrone request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("isochrone endpoint returned status %s", resp.Status)
	}

	var apiResp isochroneResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse isochrone response: %w", err)
	}
	if len(apiResp.Features) == 0 || len(apiResp.Features[0].Geometry.Coordinates) == 0 {
		return nil, fmt.Errorf("isochrone response contained no polygon")
	}

	ring := apiResp.Features[0].Geometry.Coordinates[0]
	points := make([]model.GeoPoint, 0, len(ring))
	for _, c := range ring {
		if len(c) >= 2 {
			points = append(points, model.GeoPoint{Lat: c[1], Lng: c[0]})
		}
	}
	return points, nil
}

// --- ORS response structures ---

type isochroneResponse struct {
	Features []isochroneFeature `json:"features"`
}
type isochroneFeature struct {
	Geometry isochroneGeometry `json:"geometry"`
}
type isochroneGeometry struct {
	Coordinates [][][]float64 `json:"coordinates"`
}
