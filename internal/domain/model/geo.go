package model

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// GeoPoint is a WGS84 latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ToOrb converts the point to orb's [lng, lat] representation.
func (p GeoPoint) ToOrb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// GeoPointFromOrb converts an orb [lng, lat] point back to a GeoPoint.
func GeoPointFromOrb(pt orb.Point) GeoPoint {
	return GeoPoint{Lat: pt.Lat(), Lng: pt.Lon()}
}

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b GeoPoint) float64 {
	return geo.DistanceHaversine(a.ToOrb(), b.ToOrb())
}

// Bearing returns the initial compass bearing from a to b, normalized to
// [0, 360). The bearing is undefined when a == b; callers must guard.
func Bearing(a, b GeoPoint) float64 {
	deg := geo.Bearing(a.ToOrb(), b.ToOrb())
	return math.Mod(deg+360, 360)
}

// Destination projects a point forward along the given compass bearing
// (degrees) by the given distance (meters).
func Destination(p GeoPoint, bearing, meters float64) GeoPoint {
	return GeoPointFromOrb(geo.PointAtBearingAndDistance(p.ToOrb(), bearing, meters))
}

// Interpolate returns the point at the given fraction between a and b.
// Fraction 0 yields a, fraction 1 yields b.
func Interpolate(a, b GeoPoint, fraction float64) GeoPoint {
	// Linear interpolation in degree space is accurate enough at walking
	// scales; the longitude delta is normalized so segments crossing the
	// antimeridian interpolate along the short way around.
	dLng := b.Lng - a.Lng
	if dLng > 180 {
		dLng -= 360
	} else if dLng < -180 {
		dLng += 360
	}
	lng := a.Lng + dLng*fraction
	if lng > 180 {
		lng -= 360
	} else if lng < -180 {
		lng += 360
	}
	return GeoPoint{
		Lat: a.Lat + (b.Lat-a.Lat)*fraction,
		Lng: lng,
	}
}

// PolylineLength returns the length of a polyline in meters, summing
// consecutive-vertex great-circle distances.
func PolylineLength(points []GeoPoint) float64 {
	var total float64
	for i := 0; i < len(points)-1; i++ {
		total += Distance(points[i], points[i+1])
	}
	return total
}
