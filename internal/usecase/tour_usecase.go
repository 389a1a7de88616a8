package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ezraball/neighborhood-tour/internal/config"
	"github.com/ezraball/neighborhood-tour/internal/domain/model"
	"github.com/ezraball/neighborhood-tour/internal/domain/repository"
	"github.com/ezraball/neighborhood-tour/internal/domain/service"
	"github.com/ezraball/neighborhood-tour/internal/infrastructure/video"
)

// TourOptions are the per-run knobs on top of the loaded configuration.
type TourOptions struct {
	Address      string
	OutputPath   string  // auto-generated from the address when empty
	RadiusMeters float64 // disk-area override, 0 keeps the configured default
	Seed         int64   // 0 seeds from the clock
}

// TourResult summarizes a successful run.
type TourResult struct {
	Address       string
	OutputPath    string
	Location      model.GeoPoint
	RouteMeters   float64
	WaypointCount int
	PanoramaCount int
	FallbackCount int
	GapCount      int
	Seed          int64
}

// TourUseCase generates one flythrough video per address.
type TourUseCase interface {
	GenerateTour(ctx context.Context, opts TourOptions) (*TourResult, error)
}

// tourUseCaseImpl wires the pipeline stages: geocode, walkable area, street
// graph, wander, image sequence, video assembly. Each stage hands a frozen
// structure to the next; nothing reaches back into a previous stage.
type tourUseCaseImpl struct {
	cfg          *config.Config
	geocoder     repository.Geocoder
	areaResolver *service.AreaResolver
	streets      repository.StreetDataProvider
	graphBuilder *service.GraphBuilder
	wander       *service.WanderGenerator
	sequencer    *service.ImageSequencer
	encoder      repository.VideoEncoder
	logger       *logrus.Logger
}

// NewTourUseCase creates the tour pipeline.
func NewTourUseCase(
	cfg *config.Config,
	geocoder repository.Geocoder,
	areaResolver *service.AreaResolver,
	streets repository.StreetDataProvider,
	graphBuilder *service.GraphBuilder,
	wander *service.WanderGenerator,
	sequencer *service.ImageSequencer,
	encoder repository.VideoEncoder,
	logger *logrus.Logger,
) TourUseCase {
	return &tourUseCaseImpl{
		cfg:          cfg,
		geocoder:     geocoder,
		areaResolver: areaResolver,
		streets:      streets,
		graphBuilder: graphBuilder,
		wander:       wander,
		sequencer:    sequencer,
		encoder:      encoder,
		logger:       logger,
	}
}

// GenerateTour runs the full pipeline for one address.
func (u *tourUseCaseImpl) GenerateTour(ctx context.Context, opts TourOptions) (*TourResult, error) {
	target := u.cfg.TargetRouteMeters()
	radius := opts.RadiusMeters
	if radius <= 0 {
		radius = u.cfg.RadiusMeters
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	u.logger.WithField("address", opts.Address).Info("Step 1/4: Geocoding address")
	location, err := u.geocoder.ResolveAddress(ctx, opts.Address)
	if err != nil {
		return nil, err
	}
	u.logger.WithFields(logrus.Fields{"lat": location.Lat, "lng": location.Lng}).Info("Address resolved")

	u.logger.WithField("target_km", target/1000).Info("Step 2/4: Generating walking route")
	area := u.areaResolver.Resolve(ctx, location, u.cfg.SimulatedWalkMinutes, radius)

	segments, err := u.streets.FetchSegments(ctx, area)
	if err != nil {
		return nil, model.NewProviderError("street data unavailable", err)
	}
	graph, err := u.graphBuilder.Build(segments, area)
	if err != nil {
		return nil, err
	}
	startNode, err := u.graphBuilder.SnapStart(graph, location, target)
	if err != nil {
		return nil, err
	}
	route, err := u.wander.Generate(graph, startNode, target, seed)
	if err != nil {
		return nil, err
	}

	// The graph is discarded after route generation; keep the edge names
	// around for street labels on the overlay.
	edgeNames := make(map[int]string, len(graph.Edges))
	for i := range graph.Edges {
		edgeNames[i] = graph.Edges[i].Name
	}
	graph = nil

	u.logger.WithField("waypoints", len(route.Points)).Info("Step 3/4: Fetching imagery")
	seq, err := u.sequencer.FetchSequence(ctx, route.Points, nil)
	if err != nil {
		return nil, err
	}
	u.annotateStreetLabels(ctx, seq, edgeNames)

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(u.cfg.OutputDir, SafeFileName(opts.Address)+".mp4")
	}

	u.logger.WithField("output", outputPath).Info("Step 4/4: Assembling video")
	spec := model.VideoSpec{
		DurationSeconds: u.cfg.VideoDurationSeconds,
		FPS:             u.cfg.VideoFPS,
		Width:           u.cfg.ImageWidth,
		Height:          u.cfg.ImageHeight,
		CrossfadeFrames: u.cfg.CrossfadeFrames,
		ShowProgressBar: true,
		ShowDistance:    true,
		ShowStreetLabel: true,
	}
	plan, err := service.BuildFramePlan(len(seq.Frames), spec)
	if err != nil {
		return nil, err
	}
	renderer := video.NewRenderer(spec, plan, seq, route.TotalMeters)
	if err := u.encoder.Encode(ctx, renderer, spec, outputPath); err != nil {
		return nil, err
	}

	u.logger.WithField("output", outputPath).Info("Tour video created")
	return &TourResult{
		Address:       opts.Address,
		OutputPath:    outputPath,
		Location:      location,
		RouteMeters:   route.TotalMeters,
		WaypointCount: len(route.Points),
		PanoramaCount: seq.PanoramaCount,
		FallbackCount: seq.FallbackCount,
		GapCount:      len(seq.Gaps),
		Seed:          seed,
	}, nil
}

// annotateStreetLabels fills frame labels from the source edge's street
// name, reverse geocoding at most once per unnamed edge. Label failures are
// cosmetic and never fail the run.
func (u *tourUseCaseImpl) annotateStreetLabels(ctx context.Context, seq *model.CaptureSequence, edgeNames map[int]string) {
	resolved := map[int]string{}
	for i := range seq.Frames {
		frame := &seq.Frames[i]
		edgeID := frame.RoutePoint.SourceEdgeID
		name, ok := edgeNames[edgeID]
		if !ok {
			continue
		}
		if name == "" && u.geocoder != nil {
			if cached, seen := resolved[edgeID]; seen {
				name = cached
			} else {
				looked, err := u.geocoder.ReverseStreetName(ctx, frame.RoutePoint.Point)
				if err != nil {
					looked = ""
				}
				resolved[edgeID] = looked
				name = looked
			}
		}
		frame.StreetLabel = name
	}
}

// SafeFileName sanitizes an address into a filesystem-friendly base name,
// capped at 50 characters.
func SafeFileName(address string) string {
	var b strings.Builder
	for _, r := range address {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.TrimSpace(b.String())
	if len(name) > 50 {
		name = strings.TrimSpace(name[:50])
	}
	if name == "" {
		name = fmt.Sprintf("tour-%d", time.Now().Unix())
	}
	return name
}
