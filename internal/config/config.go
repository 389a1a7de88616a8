package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults model a one-hour walk at a relaxed pace, compressed into a
// one-minute video.
const (
	DefaultVideoDurationSeconds = 60
	DefaultVideoFPS             = 30
	DefaultSimulatedWalkMinutes = 60
	DefaultWalkingPaceMetersMin = 80

	DefaultSampleIntervalMeters = 10
	DefaultRadiusMeters         = 800
	DefaultMergeToleranceMeters = 5
	DefaultSnapToleranceMeters  = 100

	DefaultImageWidth  = 640
	DefaultImageHeight = 480
	DefaultFOV         = 100
	// A slight upward pitch keeps building facades in frame.
	DefaultPitch = 5

	DefaultCrossfadeFrames = 3
	DefaultFetchWorkers    = 5
	DefaultFetchAttempts   = 3
)

// Config carries everything a tour run needs. Values come from the
// environment (after a best-effort .env load) with compiled-in defaults.
type Config struct {
	GoogleAPIKey string
	ORSAPIKey    string

	VideoDurationSeconds int
	VideoFPS             int
	SimulatedWalkMinutes int
	WalkingPaceMetersMin int

	SampleIntervalMeters float64
	RadiusMeters         float64
	MergeToleranceMeters float64
	SnapToleranceMeters  float64

	ImageWidth  int
	ImageHeight int
	FOV         float64
	Pitch       float64

	CrossfadeFrames int
	FetchWorkers    int
	FetchAttempts   int

	CacheDir     string
	CacheEnabled bool
	OutputDir    string
}

// TargetRouteMeters derives the wander length from the simulated walk time
// and pace (60 min x 80 m/min = 4800 m by default).
func (c *Config) TargetRouteMeters() float64 {
	return float64(c.SimulatedWalkMinutes * c.WalkingPaceMetersMin)
}

// HasIsochroneKey reports whether the OpenRouteService capability is
// configured.
func (c *Config) HasIsochroneKey() bool {
	return c.ORSAPIKey != ""
}

// Load reads configuration from the environment. A missing .env file is not
// an error; system environment variables still apply.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := &Config{
		GoogleAPIKey:         os.Getenv("GOOGLE_API_KEY"),
		ORSAPIKey:            os.Getenv("ORS_API_KEY"),
		VideoDurationSeconds: envInt("VIDEO_DURATION_SECONDS", DefaultVideoDurationSeconds),
		VideoFPS:             envInt("VIDEO_FPS", DefaultVideoFPS),
		SimulatedWalkMinutes: envInt("SIMULATED_WALK_MINUTES", DefaultSimulatedWalkMinutes),
		WalkingPaceMetersMin: envInt("WALKING_PACE_METERS_PER_MIN", DefaultWalkingPaceMetersMin),
		SampleIntervalMeters: envFloat("SAMPLE_INTERVAL_METERS", DefaultSampleIntervalMeters),
		RadiusMeters:         envFloat("DEFAULT_RADIUS_METERS", DefaultRadiusMeters),
		MergeToleranceMeters: DefaultMergeToleranceMeters,
		SnapToleranceMeters:  DefaultSnapToleranceMeters,
		ImageWidth:           DefaultImageWidth,
		ImageHeight:          DefaultImageHeight,
		FOV:                  envFloat("STREETVIEW_FOV", DefaultFOV),
		Pitch:                envFloat("STREETVIEW_PITCH", DefaultPitch),
		CrossfadeFrames:      envInt("CROSSFADE_FRAMES", DefaultCrossfadeFrames),
		FetchWorkers:         envInt("FETCH_WORKERS", DefaultFetchWorkers),
		FetchAttempts:        DefaultFetchAttempts,
		CacheDir:             envString("CACHE_DIR", "cache"),
		CacheEnabled:         envBool("CACHE_ENABLED", true),
		OutputDir:            envString("OUTPUT_DIR", "output"),
	}

	if cfg.GoogleAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not set: create a .env file or export the variable")
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
