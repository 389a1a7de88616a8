package model

// CaptureKind tags where a captured frame's pixels came from.
type CaptureKind string

const (
	CapturePanorama    CaptureKind = "panorama"
	CaptureFallbackMap CaptureKind = "fallback-map"
)

// CapturedFrame pairs a route point with the image obtained for it.
type CapturedFrame struct {
	Index      int
	RoutePoint RoutePoint
	Image      []byte
	Kind       CaptureKind
	// StreetLabel is the reverse-geocoded street name, when known.
	StreetLabel string
}

// IsFallback reports whether the frame is a map substitute for missing
// street-level coverage.
func (f *CapturedFrame) IsFallback() bool {
	return f.Kind == CaptureFallbackMap
}

// GapSegment is a maximal run of consecutive fallback frames, recorded for
// overlay purposes. Indices are inclusive.
type GapSegment struct {
	Start int
	End   int
}

// CaptureSequence is the frozen output of the image sequencer, mirroring the
// route point order one to one.
type CaptureSequence struct {
	Frames []CapturedFrame
	Gaps   []GapSegment
	// PanoramaCount and FallbackCount summarize the sequence for logging.
	PanoramaCount int
	FallbackCount int
}

// DetectGaps scans the frames and returns the maximal fallback runs.
func DetectGaps(frames []CapturedFrame) []GapSegment {
	var gaps []GapSegment
	start := -1
	for i := range frames {
		if frames[i].IsFallback() {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			gaps = append(gaps, GapSegment{Start: start, End: i - 1})
			start = -1
		}
	}
	if start != -1 {
		gaps = append(gaps, GapSegment{Start: start, End: len(frames) - 1})
	}
	return gaps
}
