package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ezraball/neighborhood-tour/internal/config"
	"github.com/ezraball/neighborhood-tour/internal/domain/model"
	"github.com/ezraball/neighborhood-tour/internal/domain/service"
	"github.com/ezraball/neighborhood-tour/internal/infrastructure/cache"
	"github.com/ezraball/neighborhood-tour/internal/infrastructure/maps"
	"github.com/ezraball/neighborhood-tour/internal/infrastructure/video"
	"github.com/ezraball/neighborhood-tour/internal/usecase"
)

var (
	flagOutput    string
	flagOutputDir string
	flagBatch     string
	flagRadius    float64
	flagSeed      int64
	flagParallel  int
	flagVerbose   bool
)

func main() {
	root := &cobra.Command{
		Use:   "tour [address]",
		Short: "Generate neighborhood flythrough videos from street-level imagery",
		Long: `Generates a short flythrough video of the neighborhood around an address
by wandering the surrounding street network and stitching street-level
imagery into a time-compressed tour.`,
		Example: `  tour "10 Downing Street, London, UK"
  tour "Hotel Address" --output hotel.mp4 --radius 1500
  tour --batch hotels.txt --output-dir ./tours/`,
		Args: cobra.MaximumNArgs(1),
		RunE: run,
		// Errors are reported with their category; keep cobra quiet.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.Flags().StringVarP(&flagOutput, "output", "o", "", "output video file path")
	root.Flags().StringVar(&flagOutputDir, "output-dir", "", "output directory for batch mode")
	root.Flags().StringVarP(&flagBatch, "batch", "b", "", "path to text file with addresses (one per line)")
	root.Flags().Float64VarP(&flagRadius, "radius", "r", 0, "max wander distance from the address in meters")
	root.Flags().Int64Var(&flagSeed, "seed", 0, "random seed for reproducible routes (0 = from clock)")
	root.Flags().IntVar(&flagParallel, "parallel", 1, "concurrent addresses in batch mode")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", model.CategoryOf(err), err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if flagVerbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		return model.NewInputError("configuration error", err)
	}

	tours, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	if flagBatch != "" {
		return runBatch(cmd, tours, logger)
	}
	if len(args) == 0 {
		return model.NewInputError("an address or --batch file is required", nil)
	}

	result, err := tours.GenerateTour(cmd.Context(), usecase.TourOptions{
		Address:      args[0],
		OutputPath:   flagOutput,
		RadiusMeters: flagRadius,
		Seed:         flagSeed,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Tour video created: %s\n", result.OutputPath)
	fmt.Printf("  route %.1f km, %d waypoints (%d panorama, %d fallback)\n",
		result.RouteMeters/1000, result.WaypointCount, result.PanoramaCount, result.FallbackCount)
	return nil
}

func runBatch(cmd *cobra.Command, tours usecase.TourUseCase, logger *logrus.Logger) error {
	batch := usecase.NewBatchUseCase(tours, logger)
	result, err := batch.GenerateBatch(cmd.Context(), flagBatch, flagOutputDir, flagParallel, flagSeed)
	if err != nil {
		return err
	}

	fmt.Printf("\nBatch summary: %d/%d succeeded\n", result.Succeeded, len(result.Entries))
	for _, entry := range result.Entries {
		if entry.Succeeded() {
			fmt.Printf("  OK     %s -> %s\n", entry.Address, entry.OutputPath)
		} else {
			fmt.Printf("  FAILED %s (%s)\n", entry.Address, entry.Category)
		}
	}
	if result.Succeeded == 0 {
		return model.NewCoverageError("every address in the batch failed", nil)
	}
	return nil
}

// buildPipeline wires providers, services and the tour use case from the
// loaded configuration.
func buildPipeline(cfg *config.Config, logger *logrus.Logger) (usecase.TourUseCase, error) {
	geocoder := maps.NewGoogleGeocodingProvider(cfg.GoogleAPIKey)
	streets := maps.NewOverpassProvider(logger)
	isochrones := maps.NewORSIsochroneProvider(cfg.ORSAPIKey)
	panoramas := maps.NewGoogleStreetViewProvider(cfg.GoogleAPIKey)
	staticMaps := maps.NewGoogleStaticMapProvider(cfg.GoogleAPIKey)

	var imageCache *cache.DiskCache
	if cfg.CacheEnabled {
		var err error
		imageCache, err = cache.NewDiskCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
	}

	areaResolver := service.NewAreaResolver(isochrones, logger)
	graphBuilder := service.NewGraphBuilder(cfg.MergeToleranceMeters, cfg.SnapToleranceMeters, logger)
	wander := service.NewWanderGenerator(cfg.SampleIntervalMeters, logger)
	sequencer := newSequencer(cfg, panoramas, staticMaps, imageCache, logger)
	encoder := video.NewFFmpegEncoder(logger, nil)

	return usecase.NewTourUseCase(
		cfg, geocoder, areaResolver, streets, graphBuilder, wander, sequencer, encoder, logger), nil
}

func newSequencer(cfg *config.Config, panoramas *maps.GoogleStreetViewProvider, staticMaps *maps.GoogleStaticMapProvider, imageCache *cache.DiskCache, logger *logrus.Logger) *service.ImageSequencer {
	opts := service.SequencerOptions{
		Width:    cfg.ImageWidth,
		Height:   cfg.ImageHeight,
		FOV:      cfg.FOV,
		Pitch:    cfg.Pitch,
		Workers:  cfg.FetchWorkers,
		Attempts: cfg.FetchAttempts,
	}
	if imageCache == nil {
		return service.NewImageSequencer(panoramas, staticMaps, nil, opts, logger)
	}
	return service.NewImageSequencer(panoramas, staticMaps, imageCache, opts, logger)
}
