package model

// RoutePoint is a sampled location along the generated route with the
// compass heading toward the next point. CumulativeMeters is strictly
// increasing across a route; SourceEdgeID is retained for diagnostics.
type RoutePoint struct {
	Point            GeoPoint
	CumulativeMeters float64
	Heading          float64
	HeadingDefined   bool
	SourceEdgeID     int
}

// Route is the frozen output of the wander generator: an ordered RoutePoint
// sequence plus the realized total length.
type Route struct {
	Points      []RoutePoint
	TotalMeters float64
	Seed        int64
}
