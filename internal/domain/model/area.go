package model

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// WalkableArea bounds the region a wander may cover. It is either a disk
// (Ring == nil) or an isochrone polygon ring; the rest of the pipeline does
// not care which variant it received.
type WalkableArea struct {
	Center       GeoPoint
	RadiusMeters float64
	Ring         orb.Ring // closed [lng, lat] ring, nil for the disk variant
}

// NewDiskArea creates a disk-shaped walkable area.
func NewDiskArea(center GeoPoint, radiusMeters float64) *WalkableArea {
	return &WalkableArea{Center: center, RadiusMeters: radiusMeters}
}

// NewPolygonArea creates a polygon walkable area from an isochrone ring.
// The radius is retained as the maximum center-to-vertex distance so street
// data can be over-fetched to cover the whole polygon.
func NewPolygonArea(center GeoPoint, ring []GeoPoint) *WalkableArea {
	orbRing := make(orb.Ring, 0, len(ring)+1)
	maxDist := 0.0
	for _, p := range ring {
		orbRing = append(orbRing, p.ToOrb())
		if d := Distance(center, p); d > maxDist {
			maxDist = d
		}
	}
	if len(orbRing) > 0 && orbRing[0] != orbRing[len(orbRing)-1] {
		orbRing = append(orbRing, orbRing[0])
	}
	return &WalkableArea{Center: center, RadiusMeters: maxDist, Ring: orbRing}
}

// IsPolygon reports whether the area came from an isochrone polygon.
func (a *WalkableArea) IsPolygon() bool {
	return len(a.Ring) >= 4 // 3 distinct vertices plus the closing point
}

// Contains reports whether the point lies inside the walkable area.
// The polygon test is planar ray casting, which is fine at walking scales.
func (a *WalkableArea) Contains(p GeoPoint) bool {
	if a.IsPolygon() {
		return planar.RingContains(a.Ring, p.ToOrb())
	}
	return Distance(p, a.Center) <= a.RadiusMeters
}
