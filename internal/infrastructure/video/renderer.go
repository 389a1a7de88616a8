package video

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png" // fallback map images arrive as PNG

	xdraw "golang.org/x/image/draw"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
	"github.com/ezraball/neighborhood-tour/internal/domain/service"
)

// Renderer turns a capture sequence and frame plan into the ordered output
// frame stream consumed by the encoder. Rendering is a deterministic
// mapping: the same plan and captures always produce the same pixels.
type Renderer struct {
	spec        model.VideoSpec
	plan        []service.FrameRef
	frames      []model.CapturedFrame
	totalMeters float64

	next    int
	decoded map[int]*image.RGBA
}

// NewRenderer prepares a frame source for the encoder.
func NewRenderer(spec model.VideoSpec, plan []service.FrameRef, seq *model.CaptureSequence, totalMeters float64) *Renderer {
	return &Renderer{
		spec:        spec,
		plan:        plan,
		frames:      seq.Frames,
		totalMeters: totalMeters,
		decoded:     map[int]*image.RGBA{},
	}
}

// Total returns the output frame count.
func (r *Renderer) Total() int {
	return len(r.plan)
}

// Next renders the next output frame as JPEG bytes, or (nil, nil) once the
// plan is exhausted.
func (r *Renderer) Next() ([]byte, error) {
	if r.next >= len(r.plan) {
		return nil, nil
	}
	ref := r.plan[r.next]
	r.next++

	current := r.image(ref.Image)
	frame := current
	if ref.BlendWith >= 0 {
		frame = BlendImages(current, r.image(ref.BlendWith), ref.T)
	} else {
		// Overlays draw in place; keep the decoded base pristine.
		frame = cloneRGBA(current)
	}

	r.overlay(frame, &r.frames[ref.Image])

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame %d: %w", r.next-1, err)
	}
	return buf.Bytes(), nil
}

// image returns the captured image decoded and scaled to the output size.
// The plan walks images in order, so only a small window stays decoded.
func (r *Renderer) image(index int) *image.RGBA {
	if img, ok := r.decoded[index]; ok {
		return img
	}
	for k := range r.decoded {
		if k < index-1 {
			delete(r.decoded, k)
		}
	}
	img := r.decode(index)
	r.decoded[index] = img
	return img
}

func (r *Renderer) decode(index int) *image.RGBA {
	bounds := image.Rect(0, 0, r.spec.Width, r.spec.Height)
	out := image.NewRGBA(bounds)
	data := r.frames[index].Image
	if len(data) == 0 {
		// Black placeholder for waypoints whose fetch failed entirely.
		draw.Draw(out, bounds, image.NewUniform(color.Black), image.Point{}, draw.Src)
		return out
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		draw.Draw(out, bounds, image.NewUniform(color.Black), image.Point{}, draw.Src)
		return out
	}
	xdraw.ApproxBiLinear.Scale(out, bounds, src, src.Bounds(), xdraw.Src, nil)
	return out
}

func (r *Renderer) overlay(frame *image.RGBA, captured *model.CapturedFrame) {
	if captured.IsFallback() {
		drawBanner(frame, "No street-level coverage")
	}
	if r.spec.ShowStreetLabel && captured.StreetLabel != "" {
		drawStreetLabel(frame, captured.StreetLabel)
	}
	if r.spec.ShowDistance {
		drawDistance(frame, captured.RoutePoint.CumulativeMeters)
	}
	if r.spec.ShowProgressBar && r.totalMeters > 0 {
		drawProgressBar(frame, captured.RoutePoint.CumulativeMeters/r.totalMeters)
	}
}

// BlendImages linearly blends two equally sized images: t=0 returns a's
// pixels exactly, t=1 returns b's exactly.
func BlendImages(a, b *image.RGBA, t float64) *image.RGBA {
	out := image.NewRGBA(a.Bounds())
	if t <= 0 {
		copy(out.Pix, a.Pix)
		return out
	}
	if t >= 1 {
		copy(out.Pix, b.Pix)
		return out
	}
	for i := range out.Pix {
		av := float64(a.Pix[i])
		bv := float64(b.Pix[i])
		out.Pix[i] = uint8(av + t*(bv-av) + 0.5)
	}
	return out
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}
