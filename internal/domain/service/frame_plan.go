package service

import (
	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

// Apportion fairly distributes total output frames across n captured
// frames. Every bucket receives floor(total/n) or ceil(total/n) and the
// counts sum to total exactly, so late images are never shorted by rounding
// drift.
func Apportion(total, n int) []int {
	counts := make([]int, n)
	for i := 0; i < n; i++ {
		counts[i] = total*(i+1)/n - total*i/n
	}
	return counts
}

// FrameRef describes one output frame: the captured image it shows and, for
// crossfade frames, the blend partner and blend factor. BlendWith is -1 for
// frames shown as-is.
type FrameRef struct {
	Image     int
	BlendWith int
	T         float64
}

// BuildFramePlan maps n captured frames onto the output frame sequence of
// the spec. The trailing CrossfadeFrames of each image's budget (capped so
// at least one pure frame remains) blend into the next image with t ramping
// toward 1; the pure frames on either side are the t=0 and t=1 endpoints of
// the ramp. A single captured frame is held for the full duration with no
// blending.
func BuildFramePlan(n int, spec model.VideoSpec) ([]FrameRef, error) {
	if n <= 0 {
		return nil, model.NewCoverageError("no captured frames to assemble", nil)
	}
	total := spec.TotalFrames()
	counts := Apportion(total, n)

	plan := make([]FrameRef, 0, total)
	for i := 0; i < n; i++ {
		budget := counts[i]
		fade := 0
		if i < n-1 && spec.CrossfadeFrames > 0 {
			fade = spec.CrossfadeFrames
			if fade > budget-1 {
				fade = budget - 1
			}
			if fade < 0 {
				fade = 0
			}
		}
		for j := 0; j < budget; j++ {
			ref := FrameRef{Image: i, BlendWith: -1}
			if k := j - (budget - fade); k >= 0 {
				ref.BlendWith = i + 1
				ref.T = float64(k+1) / float64(fade+1)
			}
			plan = append(plan, ref)
		}
	}
	return plan, nil
}
