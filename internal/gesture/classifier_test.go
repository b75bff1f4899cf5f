package gesture

import (
	"testing"

	"github.com/ayusman/handsignal/internal/detector"
)

// allPoses enumerates every combination of thumb and finger extension.
func allPoses() []detector.HandLandmarks {
	var poses []detector.HandLandmarks
	for mask := 0; mask < 32; mask++ {
		var fingers [4]bool
		for i := range fingers {
			fingers[i] = mask&(1<<i) != 0
		}
		poses = append(poses, detector.HandWith(mask&16 != 0, fingers))
	}
	return poses
}

func TestIsFist(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want bool
	}{
		{"fist", detector.FistLandmarks(), true},
		{"fist with thumb out", detector.HandWith(true, [4]bool{}), true},
		{"open palm", detector.OpenPalmLandmarks(), false},
		{"one finger", detector.FingerCountLandmarks(1), false},
		{"pinky only", detector.HandWith(false, [4]bool{false, false, false, true}), false},
		{"pinch", detector.PinchLandmarks(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFist(&tt.hand); got != tt.want {
				t.Errorf("IsFist() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFist_IgnoresThumb(t *testing.T) {
	hand := detector.FistLandmarks()
	for _, thumb := range []detector.Point3D{
		{X: 0.1, Y: 0.1},
		{X: 0.9, Y: 0.9},
		{X: 0.5, Y: 0.5},
	} {
		hand.Points[detector.ThumbTip] = thumb
		if !IsFist(&hand) {
			t.Errorf("IsFist() = false with thumb tip at %+v", thumb)
		}
	}
}

func TestIsFist_TipLevelWithJointIsNotCurled(t *testing.T) {
	hand := detector.FistLandmarks()
	hand.Points[detector.RingTip].Y = hand.Points[detector.MidJoint(detector.RingTip)].Y
	if IsFist(&hand) {
		t.Error("IsFist() = true with ring tip level with its joint")
	}
}

func TestIsPinch(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     bool
	}{
		{"touching", 0, true},
		{"close", 0.03, true},
		{"just inside", 0.049, true},
		{"at threshold", 0.05, false},
		{"apart", 0.2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := detector.OpenPalmLandmarks()
			hand.Points[detector.IndexTip] = detector.Point3D{X: 0.5, Y: 0.4}
			hand.Points[detector.ThumbTip] = detector.Point3D{X: 0.5 + tt.distance, Y: 0.4, Z: 0.3}

			if got := IsPinch(&hand); got != tt.want {
				t.Errorf("IsPinch() at distance %v = %v, want %v", tt.distance, got, tt.want)
			}
		})
	}
}

func TestThumbExtended_Handedness(t *testing.T) {
	hand := detector.OpenPalmLandmarks()

	if !ThumbExtended(&hand, detector.Right) {
		t.Error("right thumb should be extended when tip x < joint x")
	}
	if ThumbExtended(&hand, detector.Left) {
		t.Error("left thumb should not be extended when tip x < joint x")
	}

	mirrored := hand.Mirror()
	if !ThumbExtended(&mirrored, detector.Left) {
		t.Error("mirrored left thumb should be extended")
	}
}

func TestCountExtendedFingers(t *testing.T) {
	for n := 0; n <= 5; n++ {
		hand := detector.FingerCountLandmarks(n)
		if got := CountExtendedFingers(&hand, hand.Handedness); got != n {
			t.Errorf("CountExtendedFingers(%d fingers) = %d", n, got)
		}
	}

	pinch := detector.PinchLandmarks()
	if got := CountExtendedFingers(&pinch, pinch.Handedness); got != 3 {
		t.Errorf("CountExtendedFingers(pinch) = %d, want 3", got)
	}

	if got := CountExtendedFingers(nil, detector.Right); got != 0 {
		t.Errorf("CountExtendedFingers(nil) = %d, want 0", got)
	}
}

func TestCountExtendedFingers_Range(t *testing.T) {
	for i, hand := range allPoses() {
		for _, label := range []detector.Handedness{detector.Right, detector.Left, ""} {
			n := CountExtendedFingers(&hand, label)
			if n < 0 || n > 5 {
				t.Fatalf("pose %d (%s): count %d out of range", i, label, n)
			}
			if got := IsOpenPalm(&hand, label); got != (n == 5) {
				t.Errorf("pose %d (%s): IsOpenPalm() = %v with count %d", i, label, got, n)
			}
		}
	}
}

func TestIsOpenPalm_MirrorProperty(t *testing.T) {
	right := detector.OpenPalmLandmarks()
	if !IsOpenPalm(&right, detector.Right) {
		t.Fatal("open palm fixture should score as open palm for a right hand")
	}

	// Same geometry labelled Left: the thumb test flips.
	relabelled := right.WithHandedness(detector.Left)
	if IsOpenPalm(&relabelled, relabelled.Handedness) {
		t.Error("open palm scored as Left without repositioning the thumb should be false")
	}

	// Repositioning the thumb by mirroring restores it.
	left := right.Mirror()
	if !IsOpenPalm(&left, left.Handedness) {
		t.Error("mirrored open palm should score as open palm for a left hand")
	}
}

func TestMirror_PreservesCounts(t *testing.T) {
	for i, hand := range allPoses() {
		mirrored := hand.Mirror()
		a := CountExtendedFingers(&hand, hand.Handedness)
		b := CountExtendedFingers(&mirrored, mirrored.Handedness)
		if a != b {
			t.Errorf("pose %d: count %d, mirrored count %d", i, a, b)
		}
		if IsFist(&hand) != IsFist(&mirrored) {
			t.Errorf("pose %d: fist changed under mirroring", i)
		}
	}
}
