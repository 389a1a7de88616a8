package video

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	overlayBackdrop = color.RGBA{0, 0, 0, 180}
	overlayText     = color.RGBA{255, 255, 255, 255}
	barBackground   = color.RGBA{100, 100, 100, 255}
	barFill         = color.RGBA{255, 255, 255, 255}
)

// drawBanner marks fallback frames with a distinct indicator in the top-left
// corner, shown for the full duration the image is on screen.
func drawBanner(frame *image.RGBA, text string) {
	drawTextBox(frame, 10, 10, text)
}

// drawStreetLabel shows the current street name in the bottom-left corner,
// clear of the progress bar.
func drawStreetLabel(frame *image.RGBA, name string) {
	drawTextBox(frame, 10, frame.Bounds().Dy()-52, name)
}

// drawDistance shows the cumulative walked distance in the top-right corner.
func drawDistance(frame *image.RGBA, meters float64) {
	label := fmt.Sprintf("%.1f km", meters/1000)
	width := textWidth(label) + 10
	drawTextBox(frame, frame.Bounds().Dx()-width-10, 10, label)
}

// drawProgressBar renders the route progress along the bottom edge.
func drawProgressBar(frame *image.RGBA, progress float64) {
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	bounds := frame.Bounds()
	barHeight := 4
	barWidth := bounds.Dx() * 8 / 10
	x := (bounds.Dx() - barWidth) / 2
	y := bounds.Dy() - barHeight - 5

	fillRect(frame, x, y, barWidth, barHeight, barBackground)
	if fill := int(float64(barWidth) * progress); fill > 0 {
		fillRect(frame, x, y, fill, barHeight, barFill)
	}
}

func drawTextBox(frame *image.RGBA, x, y int, text string) {
	face := basicfont.Face7x13
	width := textWidth(text) + 10
	height := face.Height + 8
	fillRect(frame, x, y, width, height, overlayBackdrop)

	drawer := &font.Drawer{
		Dst:  frame,
		Src:  image.NewUniform(overlayText),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x + 5),
			Y: fixed.I(y + 4 + face.Ascent),
		},
	}
	drawer.DrawString(text)
}

func textWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

func fillRect(frame *image.RGBA, x, y, w, h int, c color.RGBA) {
	rect := image.Rect(x, y, x+w, y+h)
	draw.Draw(frame, rect, image.NewUniform(c), image.Point{}, draw.Over)
}
