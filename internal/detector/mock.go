package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]HandLandmarks, len(m.hands))
	copy(out, m.hands)
	return out, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Fixture geometry for a right hand seen palm-on. The thumb sits at the low-x
// side of the image, the four fingers fan out at increasing x.
var fingerColumns = [4]float64{0.45, 0.50, 0.55, 0.60}

func setFinger(h *HandLandmarks, finger int, extended bool) {
	x := fingerColumns[finger]
	tip := FingerTips[finger]
	mcp := tip - 3
	h.Points[mcp] = Point3D{X: x, Y: 0.65}
	if extended {
		h.Points[mcp+1] = Point3D{X: x, Y: 0.52, Z: 0.01}
		h.Points[mcp+2] = Point3D{X: x, Y: 0.42, Z: 0.01}
		h.Points[tip] = Point3D{X: x, Y: 0.33, Z: 0.01}
		return
	}
	h.Points[mcp+1] = Point3D{X: x, Y: 0.58, Z: -0.04}
	h.Points[mcp+2] = Point3D{X: x, Y: 0.62, Z: -0.05}
	h.Points[tip] = Point3D{X: x, Y: 0.64, Z: -0.03}
}

func setThumb(h *HandLandmarks, extended bool) {
	h.Points[ThumbCMC] = Point3D{X: 0.46, Y: 0.76}
	if extended {
		h.Points[ThumbMCP] = Point3D{X: 0.42, Y: 0.70}
		h.Points[ThumbIP] = Point3D{X: 0.38, Y: 0.66}
		h.Points[ThumbTip] = Point3D{X: 0.33, Y: 0.63}
		return
	}
	h.Points[ThumbMCP] = Point3D{X: 0.44, Y: 0.70}
	h.Points[ThumbIP] = Point3D{X: 0.42, Y: 0.66}
	h.Points[ThumbTip] = Point3D{X: 0.47, Y: 0.64}
}

func baseHand() HandLandmarks {
	h := HandLandmarks{Handedness: Right, Score: 0.95}
	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.85}
	return h
}

// HandWith returns a right hand with the thumb and each of the four fingers
// (index, middle, ring, pinky) extended or curled as requested.
func HandWith(thumb bool, fingers [4]bool) HandLandmarks {
	h := baseHand()
	setThumb(&h, thumb)
	for i, ext := range fingers {
		setFinger(&h, i, ext)
	}
	return h
}

// FistLandmarks returns a right hand with all fingers curled and the thumb tucked.
func FistLandmarks() HandLandmarks {
	return HandWith(false, [4]bool{})
}

// OpenPalmLandmarks returns a right hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return HandWith(true, [4]bool{true, true, true, true})
}

// FingerCountLandmarks returns a right hand with n extended fingers.
// Fingers are raised index first; the thumb is only raised for n >= 5.
func FingerCountLandmarks(n int) HandLandmarks {
	var fingers [4]bool
	for i := 0; i < 4 && i < n; i++ {
		fingers[i] = true
	}
	return HandWith(n >= 5, fingers)
}

// PinchLandmarks returns a right hand whose thumb tip touches the curled index
// tip while the middle and ring fingers stay raised. It counts as three
// extended fingers (thumb, middle, ring).
func PinchLandmarks() HandLandmarks {
	h := HandWith(true, [4]bool{false, true, true, false})
	h.Points[ThumbMCP] = Point3D{X: 0.47, Y: 0.70}
	h.Points[ThumbIP] = Point3D{X: 0.48, Y: 0.66}
	h.Points[ThumbTip] = Point3D{X: 0.44, Y: 0.63}
	return h
}

// Mirror returns the hand reflected about the vertical image axis with the
// opposite handedness label, which is how the same pose of the other hand
// appears to the camera.
func (h HandLandmarks) Mirror() HandLandmarks {
	out := h
	for i := range out.Points {
		out.Points[i].X = 1 - out.Points[i].X
	}
	switch h.Handedness {
	case Right:
		out.Handedness = Left
	case Left:
		out.Handedness = Right
	}
	return out
}

// WithHandedness returns a copy of the hand carrying a different label and
// unchanged geometry.
func (h HandLandmarks) WithHandedness(label Handedness) HandLandmarks {
	h.Handedness = label
	return h
}
