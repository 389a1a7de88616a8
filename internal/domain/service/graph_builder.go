package service

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

// GraphBuilder converts raw street segments into a traversable graph
// restricted to a walkable area. Nodes are intersections and way endpoints;
// edges keep the original polyline geometry so length budgeting stays
// accurate on curved streets.
type GraphBuilder struct {
	mergeTolerance float64
	snapTolerance  float64
	logger         *logrus.Logger
}

// NewGraphBuilder creates a builder. mergeTolerance is the distance in
// meters under which vertices from different segments are treated as one
// node; snapTolerance bounds how far a start point may be from the graph.
func NewGraphBuilder(mergeTolerance, snapTolerance float64, logger *logrus.Logger) *GraphBuilder {
	return &GraphBuilder{
		mergeTolerance: mergeTolerance,
		snapTolerance:  snapTolerance,
		logger:         logger,
	}
}

// Build constructs the street graph from raw segments. Segments entirely
// outside the area are discarded; segments crossing the boundary are kept
// whole, so their outside endpoints act as soft boundary nodes.
func (b *GraphBuilder) Build(segments []model.RawSegment, area *model.WalkableArea) (*model.StreetGraph, error) {
	kept := make([]model.RawSegment, 0, len(segments))
	for _, seg := range segments {
		if len(seg.Geometry) < 2 {
			continue
		}
		for _, p := range seg.Geometry {
			if area.Contains(p) {
				kept = append(kept, seg)
				break
			}
		}
	}
	if len(kept) == 0 {
		return nil, model.NewCoverageError("no walkable streets found inside the area", nil)
	}

	// Assign every vertex a merged node id so intersections shared by
	// multiple segments become a single graph vertex. Without this the
	// graph fragments and the wander cannot cross streets.
	merger := newVertexMerger(b.mergeTolerance)
	segmentVertexIDs := make([][]int, len(kept))
	usage := map[int]int{} // merged id -> number of distinct segments touching it
	for i, seg := range kept {
		ids := make([]int, len(seg.Geometry))
		seen := map[int]bool{}
		for j, p := range seg.Geometry {
			id := merger.idFor(p)
			ids[j] = id
			if !seen[id] {
				seen[id] = true
				usage[id]++
			}
		}
		segmentVertexIDs[i] = ids
	}

	// A vertex becomes a graph node when it ends a segment or is shared by
	// two or more segments (an intersection). Everything in between stays
	// as edge geometry.
	graph := &model.StreetGraph{}
	nodeIDByMerged := map[int]int{}
	nodeFor := func(mergedID int, p model.GeoPoint) int {
		if id, ok := nodeIDByMerged[mergedID]; ok {
			return id
		}
		id := len(graph.Nodes)
		graph.Nodes = append(graph.Nodes, model.StreetNode{ID: id, Point: p})
		graph.Adjacency = append(graph.Adjacency, nil)
		nodeIDByMerged[mergedID] = id
		return id
	}

	for i, seg := range kept {
		ids := segmentVertexIDs[i]
		runStart := 0
		for j := 1; j < len(ids); j++ {
			isLast := j == len(ids)-1
			isJunction := usage[ids[j]] >= 2
			if !isLast && !isJunction {
				continue
			}
			geometry := append([]model.GeoPoint(nil), seg.Geometry[runStart:j+1]...)
			length := model.PolylineLength(geometry)
			a := nodeFor(ids[runStart], geometry[0])
			bNode := nodeFor(ids[j], geometry[len(geometry)-1])
			runStart = j
			if a == bNode && length < b.mergeTolerance {
				continue // degenerate stub collapsed by merging
			}
			edgeID := len(graph.Edges)
			graph.Edges = append(graph.Edges, model.StreetEdge{
				ID:            edgeID,
				A:             a,
				B:             bNode,
				Geometry:      geometry,
				LengthMeters:  length,
				Name:          seg.Name,
				InterestScore: seg.InterestScore,
			})
			graph.Adjacency[a] = append(graph.Adjacency[a], edgeID)
			if bNode != a {
				graph.Adjacency[bNode] = append(graph.Adjacency[bNode], edgeID)
			}
		}
	}

	if len(graph.Edges) == 0 {
		return nil, model.NewCoverageError("street data produced no traversable edges", nil)
	}

	b.logger.WithFields(logrus.Fields{
		"segments": len(kept),
		"nodes":    len(graph.Nodes),
		"edges":    len(graph.Edges),
	}).Info("Street graph built")
	return graph, nil
}

// SnapStart finds the graph node nearest to start and verifies the
// component it belongs to can host a route of targetMeters. Both failure
// modes are reportable coverage conditions, not silent degradation.
func (b *GraphBuilder) SnapStart(graph *model.StreetGraph, start model.GeoPoint, targetMeters float64) (int, error) {
	nodeID, dist := graph.NearestNode(start)
	if nodeID < 0 || dist > b.snapTolerance {
		return 0, model.NewCoverageError(
			fmt.Sprintf("no street vertex within %.0fm of the start point", b.snapTolerance), nil)
	}
	if reachable := graph.ComponentLength(nodeID); reachable < targetMeters {
		return 0, model.NewCoverageError(
			fmt.Sprintf("reachable street length %.0fm is below the %.0fm target", reachable, targetMeters), nil)
	}
	return nodeID, nil
}

// vertexMerger buckets points into a spatial hash sized to the merge
// tolerance and resolves nearby points to a shared id.
type vertexMerger struct {
	tolerance  float64
	cellDegLat float64
	cellDegLng float64
	cells      map[[2]int][]int
	points     []model.GeoPoint
}

func newVertexMerger(toleranceMeters float64) *vertexMerger {
	return &vertexMerger{
		tolerance: toleranceMeters,
		// One degree of latitude is ~111.32km; a cell per tolerance keeps
		// the neighborhood scan to the 3x3 surrounding cells.
		cellDegLat: toleranceMeters / 111320.0,
		cells:      map[[2]int][]int{},
	}
}

func (m *vertexMerger) idFor(p model.GeoPoint) int {
	if m.cellDegLng == 0 {
		// Longitude degrees shrink with latitude; size the cells from the
		// first point so one cell stays one tolerance wide in meters.
		// Walkable areas are small, so a single scale is sufficient.
		m.cellDegLng = m.cellDegLat / math.Max(math.Cos(p.Lat*math.Pi/180), 0.01)
	}
	cx := int(math.Floor(p.Lng / m.cellDegLng))
	cy := int(math.Floor(p.Lat / m.cellDegLat))
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, id := range m.cells[[2]int{cx + dx, cy + dy}] {
				if model.Distance(p, m.points[id]) <= m.tolerance {
					return id
				}
			}
		}
	}
	id := len(m.points)
	m.points = append(m.points, p)
	key := [2]int{cx, cy}
	m.cells[key] = append(m.cells[key], id)
	return id
}
