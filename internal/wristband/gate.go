// Package wristband validates detected hands by looking for a red band
// around the wrist.
package wristband

import (
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/handsignal/internal/detector"
)

// Result is the outcome of a gate evaluation.
type Result int

const (
	NoMatch Result = iota
	Matches
)

func (r Result) String() string {
	if r == Matches {
		return "matches"
	}
	return "no match"
}

// Gate defaults
const (
	// DefaultHalfSize gives an 80x80 px region around the wrist.
	DefaultHalfSize = 40
	// DefaultThreshold is the number of red pixels the region must exceed.
	DefaultThreshold = 50
)

// HSVRange is an inclusive hue/saturation/value range in OpenCV units
// (H 0-180, S and V 0-255).
type HSVRange struct {
	Lower [3]float64
	Upper [3]float64
}

// RedRanges covers both ends of the hue circle, where red wraps around.
var RedRanges = []HSVRange{
	{Lower: [3]float64{0, 120, 70}, Upper: [3]float64{10, 255, 255}},
	{Lower: [3]float64{170, 120, 70}, Upper: [3]float64{180, 255, 255}},
}

// Gate checks the region around a hand's wrist for the wristband color.
type Gate struct {
	halfSize  int
	threshold int
	ranges    []HSVRange
	mu        sync.Mutex
}

// NewGate creates a Gate for the red wristband with default sizing.
func NewGate() *Gate {
	return &Gate{
		halfSize:  DefaultHalfSize,
		threshold: DefaultThreshold,
		ranges:    RedRanges,
	}
}

// SetThreshold sets the pixel count the region must exceed.
// Negative values are ignored.
func (g *Gate) SetThreshold(threshold int) {
	if threshold < 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threshold = threshold
}

// Threshold returns the current pixel count threshold.
func (g *Gate) Threshold() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.threshold
}

// Evaluate reports whether hand wears the band in frame.
//
// Algorithm:
// 1. Project the wrist landmark into pixel space
// 2. Crop a square around it, clamped to the frame
// 3. Convert the crop to HSV
// 4. Count pixels inside any of the color ranges
// 5. Matches iff the count exceeds the threshold
//
// A crop that falls entirely outside the frame yields NoMatch.
func (g *Gate) Evaluate(frame *gocv.Mat, hand *detector.HandLandmarks) Result {
	if frame == nil || frame.Empty() || hand == nil || frame.Channels() != 3 {
		return NoMatch
	}

	width, height := frame.Cols(), frame.Rows()
	x, y := detector.PixelPoint(hand.Points[detector.Wrist], width, height)
	roi := Region(image.Pt(x, y), g.halfSize, width, height)
	if roi.Empty() {
		return NoMatch
	}

	if g.Count(frame, roi) > g.Threshold() {
		return Matches
	}
	return NoMatch
}

// Count returns the number of pixels in roi that fall inside the gate's
// color ranges. roi must lie within the frame.
func (g *Gate) Count(frame *gocv.Mat, roi image.Rectangle) int {
	region := frame.Region(roi)
	defer region.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(region, &hsv, gocv.ColorBGRToHSV)

	combined := gocv.NewMat()
	defer combined.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	for i, r := range g.ranges {
		lower := gocv.NewScalar(r.Lower[0], r.Lower[1], r.Lower[2], 0)
		upper := gocv.NewScalar(r.Upper[0], r.Upper[1], r.Upper[2], 0)
		if i == 0 {
			gocv.InRangeWithScalar(hsv, lower, upper, &combined)
			continue
		}
		gocv.InRangeWithScalar(hsv, lower, upper, &mask)
		gocv.BitwiseOr(combined, mask, &combined)
	}

	if combined.Empty() {
		return 0
	}
	return gocv.CountNonZero(combined)
}

// Region returns the square of the given half size centered on center,
// clamped to a width x height frame. The result is empty when the square
// lies entirely outside the frame.
func Region(center image.Point, halfSize, width, height int) image.Rectangle {
	r := image.Rect(center.X-halfSize, center.Y-halfSize, center.X+halfSize, center.Y+halfSize)
	return r.Intersect(image.Rect(0, 0, width, height))
}

// Filter returns the hands that pass the gate, in detection order.
func (g *Gate) Filter(frame *gocv.Mat, hands []detector.HandLandmarks) []detector.HandLandmarks {
	var gated []detector.HandLandmarks
	for i := range hands {
		if g.Evaluate(frame, &hands[i]) == Matches {
			gated = append(gated, hands[i])
		}
	}
	return gated
}
