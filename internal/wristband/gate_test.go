package wristband_test

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/handsignal/internal/detector"
	"github.com/ayusman/handsignal/internal/wristband"
	"github.com/ayusman/handsignal/testdata"
)

func TestRegion(t *testing.T) {
	tests := []struct {
		name   string
		center image.Point
		want   image.Rectangle
	}{
		{
			name:   "centered",
			center: image.Pt(320, 240),
			want:   image.Rect(280, 200, 360, 280),
		},
		{
			name:   "clamped at top left",
			center: image.Pt(10, 20),
			want:   image.Rect(0, 0, 50, 60),
		},
		{
			name:   "clamped at bottom right",
			center: image.Pt(630, 470),
			want:   image.Rect(590, 430, 640, 480),
		},
		{
			name:   "outside frame",
			center: image.Pt(-100, 240),
			want:   image.Rectangle{},
		},
		{
			name:   "touching edge only",
			center: image.Pt(680, 240),
			want:   image.Rectangle{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wristband.Region(tt.center, wristband.DefaultHalfSize, 640, 480)
			if got != tt.want {
				t.Errorf("Region() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate_Evaluate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	hand := detector.OpenPalmLandmarks()
	gate := wristband.NewGate()

	tests := []struct {
		name  string
		frame func() *gocv.Mat
		want  wristband.Result
	}{
		{
			name:  "red band",
			frame: func() *gocv.Mat { return testdata.WristbandFrame(hand, 30, testdata.BandRed) },
			want:  wristband.Matches,
		},
		{
			name:  "skin only",
			frame: func() *gocv.Mat { return testdata.WristbandFrame(hand, 30, testdata.Skin) },
			want:  wristband.NoMatch,
		},
		{
			name:  "blue band",
			frame: func() *gocv.Mat { return testdata.WristbandFrame(hand, 30, testdata.Blue) },
			want:  wristband.NoMatch,
		},
		{
			name:  "red speck below threshold",
			frame: func() *gocv.Mat { return testdata.WristbandFrame(hand, 4, testdata.BandRed) },
			want:  wristband.NoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.frame()
			defer frame.Close()

			if got := gate.Evaluate(frame, &hand); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate_EdgeOfFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := testdata.BlankFrame(testdata.Width, testdata.Height)
	defer frame.Close()
	testdata.PaintRect(frame, image.Rect(0, 0, testdata.Width, testdata.Height), testdata.BandRed)

	gate := wristband.NewGate()

	outside := detector.OpenPalmLandmarks()
	outside.Points[detector.Wrist] = detector.Point3D{X: 1.5, Y: 0.5}
	if got := gate.Evaluate(frame, &outside); got != wristband.NoMatch {
		t.Errorf("wrist outside frame: Evaluate() = %v, want NoMatch", got)
	}

	corner := detector.OpenPalmLandmarks()
	corner.Points[detector.Wrist] = detector.Point3D{X: 0, Y: 0}
	if got := gate.Evaluate(frame, &corner); got != wristband.Matches {
		t.Errorf("wrist at corner: Evaluate() = %v, want Matches on clamped region", got)
	}
}

func TestGate_NilInputs(t *testing.T) {
	gate := wristband.NewGate()
	hand := detector.FistLandmarks()

	if got := gate.Evaluate(nil, &hand); got != wristband.NoMatch {
		t.Errorf("nil frame: Evaluate() = %v, want NoMatch", got)
	}
}

func TestGate_MonotonicInRedPixels(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	hand := detector.FistLandmarks()
	x, y := detector.PixelPoint(hand.Points[detector.Wrist], testdata.Width, testdata.Height)
	gate := wristband.NewGate()

	frame := testdata.BlankFrame(testdata.Width, testdata.Height)
	defer frame.Close()

	roi := wristband.Region(image.Pt(x, y), wristband.DefaultHalfSize, testdata.Width, testdata.Height)
	prevCount := 0
	matched := false

	// Grow a red block row by row; the count never shrinks and once the
	// gate matches it keeps matching.
	for rows := 0; rows < 20; rows++ {
		testdata.PaintRect(frame, image.Rect(x-5, y-10, x+5, y-10+rows), testdata.BandRed)

		count := gate.Count(frame, roi)
		if count < prevCount {
			t.Fatalf("rows=%d: count decreased from %d to %d", rows, prevCount, count)
		}
		prevCount = count

		res := gate.Evaluate(frame, &hand)
		if matched && res != wristband.Matches {
			t.Fatalf("rows=%d: result flipped back to NoMatch at count %d", rows, count)
		}
		if res == wristband.Matches {
			matched = true
		}
	}

	if !matched {
		t.Errorf("gate never matched, final count %d", prevCount)
	}
}

func TestGate_Filter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	left := detector.FistLandmarks().WithHandedness(detector.Left)
	left.Points[detector.Wrist] = detector.Point3D{X: 0.2, Y: 0.8}
	right := detector.OpenPalmLandmarks()
	right.Points[detector.Wrist] = detector.Point3D{X: 0.8, Y: 0.8}

	hands := []detector.HandLandmarks{left, right}
	frame := testdata.BandedFrame(hands, []bool{false, true})
	defer frame.Close()

	gated := wristband.NewGate().Filter(frame, hands)
	if len(gated) != 1 {
		t.Fatalf("Filter() returned %d hands, want 1", len(gated))
	}
	if gated[0].Handedness != detector.Right {
		t.Errorf("Filter() kept %s hand, want Right", gated[0].Handedness)
	}
}

func TestGate_SetThreshold(t *testing.T) {
	gate := wristband.NewGate()
	if gate.Threshold() != wristband.DefaultThreshold {
		t.Errorf("Threshold() = %d, want %d", gate.Threshold(), wristband.DefaultThreshold)
	}

	gate.SetThreshold(120)
	gate.SetThreshold(-1)
	if gate.Threshold() != 120 {
		t.Errorf("Threshold() = %d, want 120", gate.Threshold())
	}
}
