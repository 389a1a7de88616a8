package model

// VideoSpec describes the output video: duration, frame rate, crossfade
// width and overlay options.
type VideoSpec struct {
	DurationSeconds int
	FPS             int
	Width           int
	Height          int
	// CrossfadeFrames is the number of frames reserved at each image
	// boundary for blending into the next image.
	CrossfadeFrames int
	ShowProgressBar bool
	ShowDistance    bool
	ShowStreetLabel bool
}

// TotalFrames returns the exact output frame count.
func (s VideoSpec) TotalFrames() int {
	return s.DurationSeconds * s.FPS
}
