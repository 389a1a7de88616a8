package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/sirupsen/logrus"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

// Walkable highway classes requested from Overpass. Major roads without
// sidewalk mapping are excluded on purpose.
const walkableHighwayFilter = "footway|pedestrian|residential|living_street|tertiary|secondary"

// OverpassProvider fetches walkable street segments from the OpenStreetMap
// Overpass API.
type OverpassProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewOverpassProvider creates a provider against the public Overpass
// endpoint.
func NewOverpassProvider(logger *logrus.Logger) *OverpassProvider {
	return &OverpassProvider{
		baseURL:    "https://overpass-api.de/api/interpreter",
		httpClient: &http.Client{Timeout: 65 * time.Second},
		logger:     logger,
	}
}

// FetchSegments queries walkable ways around the area center. The area is
// over-fetched by a 10% margin so routes do not dead-end exactly at the
// boundary. On timeout or server error the query retries at half the
// radius, down to a 400m floor.
func (p *OverpassProvider) FetchSegments(ctx context.Context, area *model.WalkableArea) ([]model.RawSegment, error) {
	radius := area.RadiusMeters * 1.1
	for {
		segments, err := p.fetchAtRadius(ctx, area.Center, radius)
		if err == nil {
			return segments, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		if radius/2 < 400 {
			return nil, fmt.Errorf("could not fetch street data: %w", err)
		}
		p.logger.WithField("radius_m", int(radius/2)).Warn("Street query failed, retrying at smaller radius")
		radius /= 2
	}
}

func (p *OverpassProvider) fetchAtRadius(ctx context.Context, center model.GeoPoint, radius float64) ([]model.RawSegment, error) {
	query := fmt.Sprintf(`
[out:json][timeout:60];
(
  way["highway"~"%s"](around:%.0f,%.6f,%.6f);
);
out body;
>;
out skel qt;
`, walkableHighwayFilter, radius, center.Lat, center.Lng)

	form := url.Values{}
	form.Set("data", query)
	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build Overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Overpass returned status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Overpass response: %w", err)
	}

	var data osm.OSM
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse Overpass response: %w", err)
	}
	return osmToSegments(&data), nil
}

// osmToSegments joins ways with their node coordinates and scores each
// segment's interest from its tags.
func osmToSegments(data *osm.OSM) []model.RawSegment {
	nodes := make(map[osm.NodeID]model.GeoPoint, len(data.Nodes))
	for _, n := range data.Nodes {
		nodes[n.ID] = model.GeoPoint{Lat: n.Lat, Lng: n.Lon}
	}

	segments := make([]model.RawSegment, 0, len(data.Ways))
	for _, way := range data.Ways {
		geometry := make([]model.GeoPoint, 0, len(way.Nodes))
		for _, wn := range way.Nodes {
			if p, ok := nodes[wn.ID]; ok {
				geometry = append(geometry, p)
			}
		}
		if len(geometry) < 2 {
			continue
		}
		name := way.Tags.Find("name")
		highway := way.Tags.Find("highway")
		segments = append(segments, model.RawSegment{
			ID:            int64(way.ID),
			Geometry:      geometry,
			Name:          name,
			Highway:       highway,
			InterestScore: interestScore(name, highway, way.Tags),
		})
	}
	return segments
}

// interestScore biases the wander toward streets a walker would enjoy.
// Pedestrian-first ways score highest, named streets get a small bonus, and
// tourism/historic tags mark points of interest along the way.
func interestScore(name, highway string, tags osm.Tags) float64 {
	var score float64
	switch highway {
	case "pedestrian", "living_street":
		score += 1.0
	case "footway":
		score += 0.5
	}
	if name != "" {
		score += 0.5
	}
	if tags.Find("tourism") != "" || tags.Find("historic") != "" {
		score += 1.0
	}
	return score
}
