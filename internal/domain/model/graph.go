package model

// RawSegment is a street polyline as returned by the street data provider,
// before any graph construction.
type RawSegment struct {
	ID       int64
	Geometry []GeoPoint
	Name     string
	Highway  string
	// InterestScore biases the wander toward this segment; zero means no
	// particular interest.
	InterestScore float64
}

// StreetNode is a graph vertex (an intersection or a way endpoint).
// Identity is by index; coincident nodes from different source segments are
// only the same vertex once merged by the graph builder.
type StreetNode struct {
	ID    int
	Point GeoPoint
}

// StreetEdge is an undirected walkable segment between two nodes. Geometry
// is ordered from node A to node B and may contain intermediate vertices, so
// LengthMeters is the along-geometry length, not the straight-line distance.
type StreetEdge struct {
	ID            int
	A, B          int
	Geometry      []GeoPoint
	LengthMeters  float64
	Name          string
	InterestScore float64
}

// Other returns the endpoint opposite to the given node id.
func (e *StreetEdge) Other(nodeID int) int {
	if nodeID == e.A {
		return e.B
	}
	return e.A
}

// GeometryFrom returns the edge geometry oriented to start at the given
// endpoint.
func (e *StreetEdge) GeometryFrom(nodeID int) []GeoPoint {
	if nodeID == e.A {
		return e.Geometry
	}
	reversed := make([]GeoPoint, len(e.Geometry))
	for i, p := range e.Geometry {
		reversed[len(e.Geometry)-1-i] = p
	}
	return reversed
}

// StreetGraph is an index-based adjacency structure: node id -> incident
// edge ids, edge id -> endpoint node ids. The graph may be disconnected.
type StreetGraph struct {
	Nodes     []StreetNode
	Edges     []StreetEdge
	Adjacency [][]int // node id -> incident edge ids
}

// NearestNode returns the id of the node closest to p and its distance in
// meters. Returns (-1, 0) for an empty graph.
func (g *StreetGraph) NearestNode(p GeoPoint) (int, float64) {
	best := -1
	bestDist := 0.0
	for i := range g.Nodes {
		d := Distance(p, g.Nodes[i].Point)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

// ComponentLength returns the total edge length in meters of the connected
// component containing the given node.
func (g *StreetGraph) ComponentLength(nodeID int) float64 {
	if nodeID < 0 || nodeID >= len(g.Nodes) {
		return 0
	}
	visitedNodes := make([]bool, len(g.Nodes))
	visitedEdges := make([]bool, len(g.Edges))
	queue := []int{nodeID}
	visitedNodes[nodeID] = true

	var total float64
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, edgeID := range g.Adjacency[n] {
			if visitedEdges[edgeID] {
				continue
			}
			visitedEdges[edgeID] = true
			edge := &g.Edges[edgeID]
			total += edge.LengthMeters
			other := edge.Other(n)
			if !visitedNodes[other] {
				visitedNodes[other] = true
				queue = append(queue, other)
			}
		}
	}
	return total
}
