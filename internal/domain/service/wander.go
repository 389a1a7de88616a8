package service

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

// WanderGenerator walks the street graph from a start node, producing a
// random but geographically plausible path of a target length, then
// resamples it into fixed-interval route points.
//
// The walk is seedable: a fixed (seed, graph, start, target) always yields
// an identical route point sequence.
type WanderGenerator struct {
	sampleInterval float64
	logger         *logrus.Logger
}

// NewWanderGenerator creates a generator sampling at the given interval in
// meters.
func NewWanderGenerator(sampleIntervalMeters float64, logger *logrus.Logger) *WanderGenerator {
	return &WanderGenerator{sampleInterval: sampleIntervalMeters, logger: logger}
}

// ChooseNextEdge picks one candidate edge id using the supplied weights and
// random source. Weights need not be normalized. Ties fall to the earlier
// candidate when the random draw lands exactly on a boundary, which keeps
// the choice reproducible for a fixed seed.
func ChooseNextEdge(candidates []int, weights []float64, rng *rand.Rand) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return candidates[rng.Intn(len(candidates))]
	}
	draw := rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// pathVertex is one vertex of the assembled walk polyline, tagged with the
// edge that contributed it.
type pathVertex struct {
	point  model.GeoPoint
	edgeID int
}

// Generate produces a route of targetMeters starting at startNode. The edge
// that crosses the target is truncated so the route lands exactly on the
// target length. Choice weighting is 1 + interestScore per candidate edge;
// the immediately preceding edge is excluded except at dead ends, so the
// walk does not oscillate on a single edge pair.
func (g *WanderGenerator) Generate(graph *model.StreetGraph, startNode int, targetMeters float64, seed int64) (*model.Route, error) {
	if startNode < 0 || startNode >= len(graph.Nodes) {
		return nil, model.NewCoverageError("start node is not part of the street graph", nil)
	}
	if len(graph.Adjacency[startNode]) == 0 {
		return nil, model.NewCoverageError("start node has no walkable streets attached", nil)
	}

	rng := rand.New(rand.NewSource(seed))
	current := startNode
	previousEdge := -1
	total := 0.0
	path := []pathVertex{{point: graph.Nodes[startNode].Point, edgeID: -1}}

	// The component was validated to hold at least targetMeters of street,
	// and revisits are allowed, so the walk always terminates. The step cap
	// only guards against degenerate zero-length edges.
	maxSteps := 100 * (len(graph.Edges) + 1)
	for steps := 0; total < targetMeters; steps++ {
		if steps > maxSteps {
			return nil, model.NewCoverageError("wander failed to reach the target length", nil)
		}

		incident := graph.Adjacency[current]
		candidates := make([]int, 0, len(incident))
		for _, edgeID := range incident {
			if edgeID != previousEdge {
				candidates = append(candidates, edgeID)
			}
		}
		if len(candidates) == 0 {
			// Dead end: turning back on the arriving edge is the only move.
			candidates = append(candidates, previousEdge)
		}

		weights := make([]float64, len(candidates))
		for i, edgeID := range candidates {
			weights[i] = 1 + graph.Edges[edgeID].InterestScore
		}
		chosen := ChooseNextEdge(candidates, weights, rng)

		edge := &graph.Edges[chosen]
		geometry := edge.GeometryFrom(current)
		done := false
		for i := 1; i < len(geometry); i++ {
			step := model.Distance(geometry[i-1], geometry[i])
			if step <= 0 {
				continue
			}
			if total+step >= targetMeters {
				// Truncate within this sub-segment to land exactly on
				// target.
				fraction := (targetMeters - total) / step
				path = append(path, pathVertex{
					point:  model.Interpolate(geometry[i-1], geometry[i], fraction),
					edgeID: chosen,
				})
				total = targetMeters
				done = true
				break
			}
			total += step
			path = append(path, pathVertex{point: geometry[i], edgeID: chosen})
		}
		if done {
			break
		}
		current = edge.Other(current)
		previousEdge = chosen
	}

	points := resamplePath(path, g.sampleInterval)
	if len(points) == 0 {
		return nil, model.NewCoverageError("route polyline too short to sample", nil)
	}

	g.logger.WithFields(logrus.Fields{
		"vertices":  len(path),
		"length_m":  int(total),
		"waypoints": len(points),
		"seed":      seed,
	}).Info("Wander route generated")

	return &model.Route{Points: points, TotalMeters: total, Seed: seed}, nil
}

// resamplePath samples the walk polyline at the fixed interval, computing
// the heading of each point as the bearing along its segment. The path
// endpoint is emitted as a final, possibly short, sample; its heading
// repeats the previous one and is flagged undefined.
func resamplePath(path []pathVertex, interval float64) []model.RoutePoint {
	if len(path) < 2 {
		return nil
	}

	var points []model.RoutePoint
	accumulated := 0.0
	nextSample := 0.0
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		segment := model.Distance(a.point, b.point)
		if segment < 0.1 {
			continue
		}
		heading := model.Bearing(a.point, b.point)
		segmentEnd := accumulated + segment
		for nextSample <= segmentEnd {
			fraction := (nextSample - accumulated) / segment
			points = append(points, model.RoutePoint{
				Point:            model.Interpolate(a.point, b.point, fraction),
				CumulativeMeters: nextSample,
				Heading:          heading,
				HeadingDefined:   true,
				SourceEdgeID:     b.edgeID,
			})
			nextSample += interval
		}
		accumulated = segmentEnd
	}

	// Close with the exact route endpoint when the last sample fell short.
	if len(points) > 0 && accumulated-points[len(points)-1].CumulativeMeters > 0.5 {
		last := path[len(path)-1]
		prev := points[len(points)-1]
		points = append(points, model.RoutePoint{
			Point:            last.point,
			CumulativeMeters: accumulated,
			Heading:          prev.Heading,
			HeadingDefined:   false,
			SourceEdgeID:     last.edgeID,
		})
	}
	return points
}
