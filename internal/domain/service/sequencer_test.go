package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
	"github.com/ezraball/neighborhood-tour/internal/domain/repository"
)

type fakePanoramaProvider struct {
	mu            sync.Mutex
	available     bool
	fetchErr      error
	metadataCalls int
	fetchCalls    int
}

func (f *fakePanoramaProvider) Available(ctx context.Context, p model.GeoPoint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadataCalls++
	return f.available, nil
}

func (f *fakePanoramaProvider) FetchImage(ctx context.Context, r repository.PanoramaRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return []byte(fmt.Sprintf("pano-%.6f-%.6f", r.Point.Lat, r.Point.Lng)), nil
}

type fakeFallbackProvider struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeFallbackProvider) FetchImage(ctx context.Context, p model.GeoPoint, w, h int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf("map-%.6f-%.6f", p.Lat, p.Lng)), nil
}

type memoryCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{m: map[string][]byte{}}
}

func (c *memoryCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.m[key]; ok {
		return data, nil
	}
	return nil, repository.ErrCacheMiss
}

func (c *memoryCache) Put(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = data
	return nil
}

func testRoutePoints(n int) []model.RoutePoint {
	origin := model.GeoPoint{Lat: 51.498213, Lng: -0.113391}
	points := make([]model.RoutePoint, n)
	for i := 0; i < n; i++ {
		points[i] = model.RoutePoint{
			Point:            model.Destination(origin, 90, float64(i)*10),
			CumulativeMeters: float64(i) * 10,
			Heading:          90,
			HeadingDefined:   true,
		}
	}
	return points
}

func newTestSequencer(pano *fakePanoramaProvider, fb *fakeFallbackProvider, c repository.ImageCache) *ImageSequencer {
	return NewImageSequencer(pano, fb, c, SequencerOptions{
		Width: 640, Height: 480, FOV: 100, Pitch: 5, Workers: 4, Attempts: 2,
	}, testLogger())
}

func TestSequencerAllPanoramas(t *testing.T) {
	pano := &fakePanoramaProvider{available: true}
	fb := &fakeFallbackProvider{}
	seq, err := newTestSequencer(pano, fb, nil).FetchSequence(context.Background(), testRoutePoints(12), nil)
	require.NoError(t, err)

	assert.Equal(t, 12, seq.PanoramaCount)
	assert.Zero(t, seq.FallbackCount)
	assert.Empty(t, seq.Gaps)
	assert.Zero(t, fb.calls)

	// Results must come back in waypoint order regardless of worker timing.
	points := testRoutePoints(12)
	for i, frame := range seq.Frames {
		assert.Equal(t, i, frame.Index)
		expected := fmt.Sprintf("pano-%.6f-%.6f", points[i].Point.Lat, points[i].Point.Lng)
		assert.Equal(t, expected, string(frame.Image))
	}
}

func TestSequencerNoCoverageAnywhere(t *testing.T) {
	// Every waypoint degrades to a map fallback; the run succeeds with one
	// gap segment spanning the whole route.
	pano := &fakePanoramaProvider{available: false}
	fb := &fakeFallbackProvider{}
	seq, err := newTestSequencer(pano, fb, nil).FetchSequence(context.Background(), testRoutePoints(8), nil)
	require.NoError(t, err)

	assert.Zero(t, seq.PanoramaCount)
	assert.Equal(t, 8, seq.FallbackCount)
	require.Len(t, seq.Gaps, 1)
	assert.Equal(t, model.GapSegment{Start: 0, End: 7}, seq.Gaps[0])
	assert.Zero(t, pano.fetchCalls, "no panorama fetch should be attempted without coverage")
}

func TestSequencerDegradesFailedPanoramaFetch(t *testing.T) {
	pano := &fakePanoramaProvider{available: true, fetchErr: errors.New("rate limited")}
	fb := &fakeFallbackProvider{}
	seq, err := newTestSequencer(pano, fb, nil).FetchSequence(context.Background(), testRoutePoints(3), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, seq.FallbackCount)
	// Two attempts per waypoint before degrading.
	assert.Equal(t, 6, pano.fetchCalls)
	assert.Equal(t, 3, fb.calls)
}

func TestSequencerTotalFailureIsCoverageError(t *testing.T) {
	pano := &fakePanoramaProvider{available: true, fetchErr: errors.New("down")}
	fb := &fakeFallbackProvider{err: errors.New("also down")}
	_, err := newTestSequencer(pano, fb, nil).FetchSequence(context.Background(), testRoutePoints(4), nil)
	require.Error(t, err)
	assert.True(t, model.IsCategory(err, model.CategoryCoverage))
}

func TestSequencerCacheAvoidsRefetch(t *testing.T) {
	cache := newMemoryCache()
	points := testRoutePoints(10)

	pano := &fakePanoramaProvider{available: true}
	fb := &fakeFallbackProvider{}
	first, err := newTestSequencer(pano, fb, cache).FetchSequence(context.Background(), points, nil)
	require.NoError(t, err)
	require.Equal(t, 10, first.PanoramaCount)
	firstMetadata, firstFetches := pano.metadataCalls, pano.fetchCalls

	// Second run over the same waypoints: every image comes from the
	// cache, with zero new provider calls.
	second, err := newTestSequencer(pano, fb, cache).FetchSequence(context.Background(), points, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, second.PanoramaCount)
	assert.Equal(t, firstMetadata, pano.metadataCalls)
	assert.Equal(t, firstFetches, pano.fetchCalls)
	assert.Zero(t, fb.calls)

	for i := range first.Frames {
		assert.Equal(t, first.Frames[i].Image, second.Frames[i].Image)
	}
}

func TestSequencerProgressCallback(t *testing.T) {
	pano := &fakePanoramaProvider{available: true}
	fb := &fakeFallbackProvider{}

	var mu sync.Mutex
	var seen []int
	progress := func(done, total int) {
		mu.Lock()
		seen = append(seen, done)
		mu.Unlock()
		assert.Equal(t, 6, total)
	}
	_, err := newTestSequencer(pano, fb, nil).FetchSequence(context.Background(), testRoutePoints(6), progress)
	require.NoError(t, err)
	assert.Len(t, seen, 6)
	assert.Equal(t, 6, seen[len(seen)-1])
}

func TestSequencerEmptyRoute(t *testing.T) {
	pano := &fakePanoramaProvider{available: true}
	fb := &fakeFallbackProvider{}
	_, err := newTestSequencer(pano, fb, nil).FetchSequence(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, model.IsCategory(err, model.CategoryCoverage))
}
