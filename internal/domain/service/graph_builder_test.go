package service

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var crossCenter = model.GeoPoint{Lat: 51.5, Lng: -0.12}

// crossSegments builds two 200m streets crossing at crossCenter, sharing the
// exact center vertex.
func crossSegments() []model.RawSegment {
	west := model.Destination(crossCenter, 270, 100)
	east := model.Destination(crossCenter, 90, 100)
	north := model.Destination(crossCenter, 0, 100)
	south := model.Destination(crossCenter, 180, 100)
	return []model.RawSegment{
		{ID: 1, Geometry: []model.GeoPoint{west, crossCenter, east}, Name: "High Street"},
		{ID: 2, Geometry: []model.GeoPoint{north, crossCenter, south}, Name: "Church Lane"},
	}
}

func buildCrossGraph(t *testing.T) *model.StreetGraph {
	t.Helper()
	builder := NewGraphBuilder(5, 100, testLogger())
	graph, err := builder.Build(crossSegments(), model.NewDiskArea(crossCenter, 500))
	require.NoError(t, err)
	return graph
}

func TestGraphBuilderSplitsAtIntersections(t *testing.T) {
	graph := buildCrossGraph(t)

	assert.Len(t, graph.Nodes, 5)
	assert.Len(t, graph.Edges, 4)
	for _, edge := range graph.Edges {
		assert.InDelta(t, 100, edge.LengthMeters, 1.0)
	}

	// The center node must be the shared graph vertex with degree 4.
	centerID, dist := graph.NearestNode(crossCenter)
	require.GreaterOrEqual(t, centerID, 0)
	assert.Less(t, dist, 1.0)
	assert.Len(t, graph.Adjacency[centerID], 4)
}

func TestGraphBuilderMergesNearbyEndpoints(t *testing.T) {
	a := model.GeoPoint{Lat: 51.5, Lng: -0.12}
	b := model.Destination(a, 90, 100)
	// The second segment starts 3m away from b, inside the 5m tolerance.
	nearB := model.Destination(b, 0, 3)
	c := model.Destination(b, 90, 100)

	builder := NewGraphBuilder(5, 100, testLogger())
	graph, err := builder.Build([]model.RawSegment{
		{ID: 1, Geometry: []model.GeoPoint{a, b}},
		{ID: 2, Geometry: []model.GeoPoint{nearB, c}},
	}, model.NewDiskArea(a, 500))
	require.NoError(t, err)

	// Three nodes, not four: b and nearB merged into one vertex, so the
	// graph is traversable from a to c.
	assert.Len(t, graph.Nodes, 3)
	assert.Len(t, graph.Edges, 2)
	nodeID, _ := graph.NearestNode(a)
	assert.InDelta(t, 200, graph.ComponentLength(nodeID), 5)
}

func TestGraphBuilderDiscardsOutsideSegments(t *testing.T) {
	far := model.Destination(crossCenter, 45, 5000)
	segments := append(crossSegments(), model.RawSegment{
		ID:       3,
		Geometry: []model.GeoPoint{far, model.Destination(far, 90, 100)},
	})

	builder := NewGraphBuilder(5, 100, testLogger())
	graph, err := builder.Build(segments, model.NewDiskArea(crossCenter, 500))
	require.NoError(t, err)
	assert.Len(t, graph.Edges, 4)
}

func TestGraphBuilderEmptyArea(t *testing.T) {
	builder := NewGraphBuilder(5, 100, testLogger())
	_, err := builder.Build(nil, model.NewDiskArea(crossCenter, 500))
	require.Error(t, err)
	assert.True(t, model.IsCategory(err, model.CategoryCoverage))
}

func TestSnapStart(t *testing.T) {
	graph := buildCrossGraph(t)
	builder := NewGraphBuilder(5, 100, testLogger())

	t.Run("snaps to the nearest node", func(t *testing.T) {
		nearCenter := model.Destination(crossCenter, 45, 20)
		nodeID, err := builder.SnapStart(graph, nearCenter, 300)
		require.NoError(t, err)
		assert.Less(t, model.Distance(graph.Nodes[nodeID].Point, crossCenter), 1.0)
	})

	t.Run("start too far from the graph", func(t *testing.T) {
		faraway := model.Destination(crossCenter, 45, 400)
		_, err := builder.SnapStart(graph, faraway, 300)
		require.Error(t, err)
		assert.True(t, model.IsCategory(err, model.CategoryCoverage))
	})

	t.Run("component shorter than the target", func(t *testing.T) {
		_, err := builder.SnapStart(graph, crossCenter, 1000)
		require.Error(t, err)
		assert.True(t, model.IsCategory(err, model.CategoryCoverage))
	})
}
