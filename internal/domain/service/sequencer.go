package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
	"github.com/ezraball/neighborhood-tour/internal/domain/repository"
)

// SequencerOptions configure image acquisition.
type SequencerOptions struct {
	Width, Height int
	FOV           float64
	Pitch         float64
	// Workers bounds in-flight provider requests.
	Workers int
	// Attempts caps fetch retries before degrading a waypoint to fallback.
	Attempts int
}

// ImageSequencer resolves a panorama or fallback map image for every route
// point, in order. Fetches run on a bounded worker pool and results are
// reassembled at their original indices; order is a strict contract for the
// video assembler downstream.
type ImageSequencer struct {
	panoramas repository.PanoramaProvider
	fallback  repository.FallbackImageProvider
	cache     repository.ImageCache
	opts      SequencerOptions
	logger    *logrus.Logger
}

// NewImageSequencer creates a sequencer. cache may be nil to disable
// memoization.
func NewImageSequencer(
	panoramas repository.PanoramaProvider,
	fallback repository.FallbackImageProvider,
	cache repository.ImageCache,
	opts SequencerOptions,
	logger *logrus.Logger,
) *ImageSequencer {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	return &ImageSequencer{
		panoramas: panoramas,
		fallback:  fallback,
		cache:     cache,
		opts:      opts,
		logger:    logger,
	}
}

// FetchSequence acquires one image per route point. A waypoint whose
// panorama fetch exhausts its retries degrades to a fallback map frame; a
// run that yields no image at all is a coverage error. progress may be nil.
func (s *ImageSequencer) FetchSequence(ctx context.Context, points []model.RoutePoint, progress func(done, total int)) (*model.CaptureSequence, error) {
	if len(points) == 0 {
		return nil, model.NewCoverageError("no route points to capture", nil)
	}

	frames := make([]model.CapturedFrame, len(points))
	semaphore := make(chan struct{}, s.opts.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for i := range points {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				frames[index] = model.CapturedFrame{Index: index, RoutePoint: points[index], Kind: model.CaptureFallbackMap}
				return
			}
			frames[index] = s.capture(ctx, index, points[index])

			mu.Lock()
			done++
			if progress != nil {
				progress(done, len(points))
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("image acquisition aborted: %w", err)
	}

	captured := 0
	panoramaCount := 0
	fallbackCount := 0
	for i := range frames {
		if len(frames[i].Image) > 0 {
			captured++
		}
		if frames[i].IsFallback() {
			fallbackCount++
		} else {
			panoramaCount++
		}
	}
	if captured == 0 {
		return nil, model.NewCoverageError("no imagery could be fetched for any waypoint", nil)
	}

	s.logger.WithFields(logrus.Fields{
		"panorama": panoramaCount,
		"fallback": fallbackCount,
	}).Info("Image sequence fetched")

	return &model.CaptureSequence{
		Frames:        frames,
		Gaps:          model.DetectGaps(frames),
		PanoramaCount: panoramaCount,
		FallbackCount: fallbackCount,
	}, nil
}

// capture resolves the image for a single waypoint: cache, then panorama
// metadata + fetch, then fallback map.
func (s *ImageSequencer) capture(ctx context.Context, index int, point model.RoutePoint) model.CapturedFrame {
	frame := model.CapturedFrame{Index: index, RoutePoint: point}

	panoKey := s.panoramaKey(point)
	mapKey := s.fallbackKey(point)
	if data, err := s.cacheGet(panoKey); err == nil {
		frame.Image = data
		frame.Kind = model.CapturePanorama
		return frame
	}
	if data, err := s.cacheGet(mapKey); err == nil {
		frame.Image = data
		frame.Kind = model.CaptureFallbackMap
		return frame
	}

	available := s.checkAvailability(ctx, point)
	if available {
		req := repository.PanoramaRequest{
			Point:   point.Point,
			Heading: point.Heading,
			Pitch:   s.opts.Pitch,
			FOV:     s.opts.FOV,
			Width:   s.opts.Width,
			Height:  s.opts.Height,
		}
		data, err := s.withRetry(ctx, func() ([]byte, error) {
			return s.panoramas.FetchImage(ctx, req)
		})
		if err == nil {
			s.cachePut(panoKey, data)
			frame.Image = data
			frame.Kind = model.CapturePanorama
			return frame
		}
		s.logger.WithError(err).WithField("waypoint", index).Warn("Panorama fetch failed, degrading to map fallback")
	}

	frame.Kind = model.CaptureFallbackMap
	data, err := s.withRetry(ctx, func() ([]byte, error) {
		return s.fallback.FetchImage(ctx, point.Point, s.opts.Width, s.opts.Height)
	})
	if err != nil {
		// The renderer substitutes a placeholder for imageless frames.
		s.logger.WithError(err).WithField("waypoint", index).Warn("Fallback image fetch failed")
		return frame
	}
	s.cachePut(mapKey, data)
	frame.Image = data
	return frame
}

// checkAvailability treats metadata failures as "no coverage" after retries;
// the waypoint then degrades to a fallback frame instead of failing the run.
func (s *ImageSequencer) checkAvailability(ctx context.Context, point model.RoutePoint) bool {
	var available bool
	_, err := s.withRetry(ctx, func() ([]byte, error) {
		ok, err := s.panoramas.Available(ctx, point.Point)
		if err != nil {
			return nil, err
		}
		available = ok
		return nil, nil
	})
	return err == nil && available
}

func (s *ImageSequencer) withRetry(ctx context.Context, fetch func() ([]byte, error)) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 30 * time.Second

	var data []byte
	operation := func() error {
		var err error
		data, err = fetch()
		return err
	}
	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(s.opts.Attempts-1)), ctx))
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *ImageSequencer) cacheGet(key string) ([]byte, error) {
	if s.cache == nil {
		return nil, repository.ErrCacheMiss
	}
	return s.cache.Get(key)
}

func (s *ImageSequencer) cachePut(key string, data []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(key, data); err != nil {
		s.logger.WithError(err).Warn("Cache write failed")
	}
}

// panoramaKey derives the content address for a street-level request. The
// key covers every parameter that affects the returned pixels.
func (s *ImageSequencer) panoramaKey(point model.RoutePoint) string {
	return hashKey(fmt.Sprintf("sv|%.6f|%.6f|%.1f|%g|%g|%dx%d",
		point.Point.Lat, point.Point.Lng, point.Heading,
		s.opts.FOV, s.opts.Pitch, s.opts.Width, s.opts.Height))
}

func (s *ImageSequencer) fallbackKey(point model.RoutePoint) string {
	return hashKey(fmt.Sprintf("map|%.6f|%.6f|%dx%d",
		point.Point.Lat, point.Point.Lng, s.opts.Width, s.opts.Height))
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
