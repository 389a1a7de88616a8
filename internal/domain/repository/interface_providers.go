package repository

import (
	"context"
	"errors"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

// ErrIsochroneUnavailable is returned by IsochroneProvider implementations
// that are not configured; the caller falls back to a disk area.
var ErrIsochroneUnavailable = errors.New("isochrone provider unavailable")

// IsochroneProvider computes the polygon reachable on foot within the given
// walking time. This is an optional capability.
type IsochroneProvider interface {
	Isochrone(ctx context.Context, center model.GeoPoint, walkMinutes int) ([]model.GeoPoint, error)
}

// StreetDataProvider fetches raw walkable street segments covering at least
// the given area.
type StreetDataProvider interface {
	FetchSegments(ctx context.Context, area *model.WalkableArea) ([]model.RawSegment, error)
}

// PanoramaRequest frames a street-level image request.
type PanoramaRequest struct {
	Point   model.GeoPoint
	Heading float64
	Pitch   float64
	FOV     float64
	Width   int
	Height  int
}

// PanoramaProvider serves street-level imagery. Metadata is a cheap
// availability lookup that must be consulted before fetching the image.
type PanoramaProvider interface {
	Available(ctx context.Context, point model.GeoPoint) (bool, error)
	FetchImage(ctx context.Context, req PanoramaRequest) ([]byte, error)
}

// FallbackImageProvider serves map/satellite imagery for waypoints without
// panorama coverage.
type FallbackImageProvider interface {
	FetchImage(ctx context.Context, point model.GeoPoint, width, height int) ([]byte, error)
}

// ErrCacheMiss is returned by ImageCache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// ImageCache is a content-addressed byte store. Put must be atomic: a killed
// process never leaves a truncated entry behind.
type ImageCache interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
}

// VideoEncoder encodes an ordered frame sequence into a video file at
// outputPath. The output path must not exist until encoding has fully
// succeeded.
type VideoEncoder interface {
	Encode(ctx context.Context, frames FrameSource, spec model.VideoSpec, outputPath string) error
}

// FrameSource streams rendered output frames to the encoder in order.
// Next returns the next frame as encoded image bytes, or (nil, nil) when the
// sequence is exhausted.
type FrameSource interface {
	Next() ([]byte, error)
	Total() int
}
