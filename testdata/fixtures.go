// Package testdata builds synthetic camera frames for tests.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handsignal/internal/detector"
)

// Frame dimensions used by the fixtures.
const (
	Width  = 640
	Height = 480
)

// Colors used for painted regions. gocv converts RGBA to BGR when drawing.
var (
	BandRed = color.RGBA{R: 210, G: 25, B: 30, A: 0}
	Skin    = color.RGBA{R: 224, G: 172, B: 135, A: 0}
	Blue    = color.RGBA{R: 30, G: 60, B: 200, A: 0}
)

// BlankFrame returns a mid-grey BGR frame. The caller closes it.
func BlankFrame(width, height int) *gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(100, 100, 100, 0), height, width, gocv.MatTypeCV8UC3)
	return &mat
}

// PaintRect fills r with c.
func PaintRect(frame *gocv.Mat, r image.Rectangle, c color.RGBA) {
	gocv.Rectangle(frame, r, c, -1)
}

// WristbandFrame returns a frame with a square band of side size painted in
// c around the wrist of hand.
func WristbandFrame(hand detector.HandLandmarks, size int, c color.RGBA) *gocv.Mat {
	frame := BlankFrame(Width, Height)
	x, y := detector.PixelPoint(hand.Points[detector.Wrist], Width, Height)
	half := size / 2
	PaintRect(frame, image.Rect(x-half, y-half, x+half, y+half), c)
	return frame
}

// BandedFrame returns a frame where each hand in banded wears a red band and
// every other hand only shows skin around the wrist.
func BandedFrame(hands []detector.HandLandmarks, banded []bool) *gocv.Mat {
	frame := BlankFrame(Width, Height)
	for i, h := range hands {
		x, y := detector.PixelPoint(h.Points[detector.Wrist], Width, Height)
		c := Skin
		if i < len(banded) && banded[i] {
			c = BandRed
		}
		PaintRect(frame, image.Rect(x-15, y-15, x+15, y+15), c)
	}
	return frame
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
