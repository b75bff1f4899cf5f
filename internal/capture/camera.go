// Package capture provides the camera frame source and the annotated
// preview buffer.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480

	// MaxMissedFrames is how many failed or empty reads in a row mean the
	// device is gone.
	MaxMissedFrames = 5
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device delivers no image.
	ErrEmptyFrame = errors.New("captured frame is empty")
	// ErrReadFailed is returned when the device refuses a read.
	ErrReadFailed = errors.New("failed to read frame")
	// ErrDeviceLost is returned once MaxMissedFrames reads in a row failed.
	ErrDeviceLost = errors.New("camera device lost")
)

// NeedsReopen reports whether a ReadFrame error means the camera has to be
// closed and opened again before it can deliver frames.
func NeedsReopen(err error) bool {
	return errors.Is(err, ErrCameraNotOpen) || errors.Is(err, ErrDeviceLost)
}

// Camera is an ordered source of color frames.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// videoSource is the part of gocv.VideoCapture the camera drives.
type videoSource interface {
	IsOpened() bool
	Read(m *gocv.Mat) bool
	Set(prop gocv.VideoCaptureProperties, value float64)
	Close() error
}

// openDevice opens an OpenCV capture device.
var openDevice = func(id int) (videoSource, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, err
	}
	return vc, nil
}

// deviceCamera reads frames from a local video device.
type deviceCamera struct {
	mu     sync.Mutex
	id     int
	fps    int
	src    videoSource
	missed int
}

// NewCamera creates a Camera for the given device index. The camera worker
// opens it when a camera mode starts and closes it when the mode stops.
func NewCamera(deviceID int) Camera {
	return &deviceCamera{id: deviceID, fps: DefaultFPS}
}

func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src != nil {
		return nil
	}

	src, err := openDevice(c.id)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.id, err)
	}
	if !src.IsOpened() {
		src.Close()
		return fmt.Errorf("open camera %d: device not available", c.id)
	}

	src.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	src.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	src.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.src = src
	c.missed = 0
	return nil
}

func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src == nil {
		return nil
	}
	err := c.src.Close()
	c.src = nil
	return err
}

// ReadFrame reads one frame; the caller closes it. Single misses come back as
// ErrReadFailed or ErrEmptyFrame, a run of MaxMissedFrames as ErrDeviceLost.
func (c *deviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	var miss error
	switch {
	case !c.src.Read(&mat):
		miss = ErrReadFailed
	case mat.Empty():
		miss = ErrEmptyFrame
	}
	if miss == nil {
		c.missed = 0
		return &mat, nil
	}

	mat.Close()
	c.missed++
	if c.missed >= MaxMissedFrames {
		return nil, fmt.Errorf("camera %d: %w after %d misses: %w", c.id, ErrDeviceLost, c.missed, miss)
	}
	return nil, fmt.Errorf("camera %d: %w", c.id, miss)
}

// SetFPS changes the capture rate, also on an open device. Values <= 0 are ignored.
func (c *deviceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
	if c.src != nil {
		c.src.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *deviceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src != nil
}
