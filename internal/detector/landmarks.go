// Package detector provides hand detection interfaces and types for gesture control.
//
// MediaPipeDetector drives an external Python script, hand_service.py, looked
// up under scripts/ next to the working directory or the binary, or in
// ~/.handsignal/scripts. It is started as
//
//	python hand_service.py --max-hands N --min-detection-confidence F --min-tracking-confidence F
//
// and reads frames from stdin, each a 4 byte big-endian length followed by a
// JPEG image. For every frame it writes exactly one JSON line to stdout:
//
//	{"hands":[{"handedness":"Right","score":0.97,"points":[{"x":0.51,"y":0.62,"z":-0.03}, ...]}]}
//
// points holds the 21 MediaPipe landmarks in index order with x and y
// normalized to the frame. handedness is "Left" or "Right" as MediaPipe
// labels the hand. Hands with fewer points or another label are dropped. A
// failure for one frame is reported as {"error":"..."}. Diagnostics go to
// stderr.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FingerTips lists the tip landmarks of the four non-thumb fingers, index first.
var FingerTips = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// MidJoint returns the PIP joint belonging to a non-thumb fingertip.
// The tip and its PIP joint are always two indices apart.
func MidJoint(tip int) int {
	return tip - 2
}

// Connections are the landmark pairs joined when drawing a hand skeleton.
var Connections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Handedness is the left/right label the detector attaches to a hand.
type Handedness string

const (
	Left  Handedness = "Left"
	Right Handedness = "Right"
)

// Point3D represents a landmark position. X and Y are normalized to [0,1]
// image coordinates (Y grows downwards); Z is the relative depth reported by
// the detector and is ignored by the classifiers.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected for one hand in one frame.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness Handedness            `json:"handedness"`
	Score      float64               `json:"score"`
}

// Distance2D calculates the Euclidean distance between two landmarks in the image plane.
func Distance2D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PixelPoint projects a normalized landmark into pixel coordinates of a
// width x height frame, truncating like an integer cast.
func PixelPoint(p Point3D, width, height int) (int, int) {
	return int(p.X * float64(width)), int(p.Y * float64(height))
}
