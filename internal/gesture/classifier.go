// Package gesture classifies a single hand's landmarks into the gestures
// that drive the LEDs.
package gesture

import "github.com/ayusman/handsignal/internal/detector"

// PinchThreshold is the maximum normalized thumb-to-index distance that
// counts as a pinch.
const PinchThreshold = 0.05

// IsFist reports whether all four non-thumb fingers are curled, meaning each
// fingertip sits below its middle joint in image space. The thumb is ignored.
func IsFist(hand *detector.HandLandmarks) bool {
	if hand == nil {
		return false
	}
	for _, tip := range detector.FingerTips {
		if hand.Points[tip].Y <= hand.Points[detector.MidJoint(tip)].Y {
			return false
		}
	}
	return true
}

// IsPinch reports whether the thumb tip and index fingertip touch.
func IsPinch(hand *detector.HandLandmarks) bool {
	if hand == nil {
		return false
	}
	d := detector.Distance2D(hand.Points[detector.ThumbTip], hand.Points[detector.IndexTip])
	return d < PinchThreshold
}

// ThumbExtended reports whether the thumb points away from the palm. The
// camera image is not mirrored, so a right thumb extends toward smaller x
// and a left thumb toward larger x.
func ThumbExtended(hand *detector.HandLandmarks, label detector.Handedness) bool {
	if hand == nil {
		return false
	}
	tip := hand.Points[detector.ThumbTip].X
	joint := hand.Points[detector.ThumbIP].X
	if label == detector.Right {
		return tip < joint
	}
	return tip > joint
}

// CountExtendedFingers returns the number of extended fingers, 0 to 5.
func CountExtendedFingers(hand *detector.HandLandmarks, label detector.Handedness) int {
	if hand == nil {
		return 0
	}

	count := 0
	if ThumbExtended(hand, label) {
		count++
	}
	for _, tip := range detector.FingerTips {
		if hand.Points[tip].Y < hand.Points[detector.MidJoint(tip)].Y {
			count++
		}
	}
	return count
}

// IsOpenPalm reports whether all five fingers are extended.
func IsOpenPalm(hand *detector.HandLandmarks, label detector.Handedness) bool {
	return CountExtendedFingers(hand, label) == 5
}
