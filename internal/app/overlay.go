package app

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handsignal/internal/command"
	"github.com/ayusman/handsignal/internal/detector"
)

var (
	overlayRed    = color.RGBA{R: 255, A: 255}
	overlayYellow = color.RGBA{R: 255, G: 255, A: 255}
	overlayGreen  = color.RGBA{G: 255, A: 255}
	overlayGrey   = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	overlayBone   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	overlayJoint  = color.RGBA{R: 230, G: 40, B: 90, A: 255}
)

func commandColor(cmd command.Command) color.RGBA {
	switch cmd {
	case command.Red:
		return overlayRed
	case command.Yellow:
		return overlayYellow
	case command.Green:
		return overlayGreen
	default:
		return overlayGrey
	}
}

// drawOverlay draws the hand skeleton, if any, and the cycle label.
func drawOverlay(frame *gocv.Mat, hand *detector.HandLandmarks, label string, cmd command.Command) {
	width, height := frame.Cols(), frame.Rows()

	if hand != nil {
		pt := func(i int) image.Point {
			x, y := detector.PixelPoint(hand.Points[i], width, height)
			return image.Pt(x, y)
		}
		for _, conn := range detector.Connections {
			gocv.Line(frame, pt(conn[0]), pt(conn[1]), overlayBone, 2)
		}
		for i := range hand.Points {
			gocv.Circle(frame, pt(i), 4, overlayJoint, -1)
		}
	}

	gocv.PutText(frame, label, image.Pt(10, 40), gocv.FontHersheySimplex, 0.9, commandColor(cmd), 2)
}
