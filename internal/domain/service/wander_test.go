package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

func generateTestRoute(t *testing.T, target float64, seed int64) *model.Route {
	t.Helper()
	graph := buildCrossGraph(t)
	builder := NewGraphBuilder(5, 100, testLogger())
	startNode, err := builder.SnapStart(graph, crossCenter, target)
	require.NoError(t, err)

	gen := NewWanderGenerator(10, testLogger())
	route, err := gen.Generate(graph, startNode, target, seed)
	require.NoError(t, err)
	return route
}

func TestWanderIsDeterministic(t *testing.T) {
	first := generateTestRoute(t, 350, 42)
	second := generateTestRoute(t, 350, 42)
	assert.Equal(t, first.Points, second.Points)
	assert.Equal(t, first.TotalMeters, second.TotalMeters)
}

func TestWanderDifferentSeedsDiverge(t *testing.T) {
	// Both walks have the same length; on a symmetric cross the sampled
	// positions almost surely differ between seeds.
	a := generateTestRoute(t, 350, 1)
	b := generateTestRoute(t, 350, 99)
	assert.Equal(t, a.TotalMeters, b.TotalMeters)
	assert.NotEqual(t, a.Points, b.Points)
}

func TestWanderLandsExactlyOnTarget(t *testing.T) {
	route := generateTestRoute(t, 350, 7)
	assert.InDelta(t, 350, route.TotalMeters, 1e-6)

	last := route.Points[len(route.Points)-1]
	assert.InDelta(t, 350, last.CumulativeMeters, 1.0)
}

func TestWanderSampling(t *testing.T) {
	route := generateTestRoute(t, 350, 7)
	points := route.Points
	require.NotEmpty(t, points)

	assert.Zero(t, points[0].CumulativeMeters)
	for i := 1; i < len(points); i++ {
		step := points[i].CumulativeMeters - points[i-1].CumulativeMeters
		assert.Greater(t, step, 0.0, "cumulative distance must be strictly increasing")
		if i < len(points)-1 {
			assert.InDelta(t, 10, step, 0.5, "interior spacing should match the sampling interval")
		} else {
			assert.LessOrEqual(t, step, 10.5, "final segment may only be shorter")
		}
	}

	for i, p := range points {
		if i < len(points)-1 {
			assert.True(t, p.HeadingDefined)
			assert.GreaterOrEqual(t, p.Heading, 0.0)
			assert.Less(t, p.Heading, 360.0)
		}
	}
}

func TestWanderIsolatedStart(t *testing.T) {
	graph := &model.StreetGraph{
		Nodes:     []model.StreetNode{{ID: 0, Point: crossCenter}},
		Adjacency: [][]int{nil},
	}
	gen := NewWanderGenerator(10, testLogger())
	_, err := gen.Generate(graph, 0, 100, 1)
	require.Error(t, err)
	assert.True(t, model.IsCategory(err, model.CategoryCoverage))
}

func TestWanderAvoidsImmediateBacktrack(t *testing.T) {
	// A path graph A-B-C: from B the walk must never return on the edge it
	// arrived on while the other edge is available. Walk many steps and
	// check the route covers more than one edge's worth of distinct ground.
	a := crossCenter
	b := model.Destination(a, 90, 100)
	c := model.Destination(b, 90, 100)
	builder := NewGraphBuilder(5, 100, testLogger())
	graph, err := builder.Build([]model.RawSegment{
		{ID: 1, Geometry: []model.GeoPoint{a, b}},
		{ID: 2, Geometry: []model.GeoPoint{b, c}},
	}, model.NewDiskArea(a, 500))
	require.NoError(t, err)

	start, err := builder.SnapStart(graph, a, 190)
	require.NoError(t, err)
	gen := NewWanderGenerator(10, testLogger())
	route, err := gen.Generate(graph, start, 190, 5)
	require.NoError(t, err)

	// The only non-oscillating 190m walk from A is A->B-> most of BC.
	end := route.Points[len(route.Points)-1]
	assert.Less(t, model.Distance(end.Point, c), 15.0)
}

func TestChooseNextEdge(t *testing.T) {
	t.Run("single candidate", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		assert.Equal(t, 3, ChooseNextEdge([]int{3}, []float64{1}, rng))
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		candidates := []int{1, 2, 3}
		weights := []float64{1, 2, 3}
		first := ChooseNextEdge(candidates, weights, rand.New(rand.NewSource(9)))
		second := ChooseNextEdge(candidates, weights, rand.New(rand.NewSource(9)))
		assert.Equal(t, first, second)
	})

	t.Run("weights bias the draw", func(t *testing.T) {
		candidates := []int{0, 1}
		weights := []float64{1, 9}
		rng := rand.New(rand.NewSource(12345))
		hits := 0
		for i := 0; i < 1000; i++ {
			if ChooseNextEdge(candidates, weights, rng) == 1 {
				hits++
			}
		}
		// Expect ~900 picks of the heavy edge.
		assert.Greater(t, hits, 800)
		assert.Less(t, hits, 980)
	})
}
