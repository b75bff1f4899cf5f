package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handsignal/internal/capture"
	"github.com/ayusman/handsignal/internal/command"
	"github.com/ayusman/handsignal/internal/detector"
	"github.com/ayusman/handsignal/internal/gesture"
	"github.com/ayusman/handsignal/internal/wristband"
)

// Labels for camera cycles that fail before classification.
const (
	LabelCameraError   = "Camera error"
	LabelDetectorError = "Detection error"
)

func policyFor(m Mode) gesture.Policy {
	if m == ModeFingers {
		return gesture.ClassifyFingerMode
	}
	return gesture.ClassifyFistMode
}

// runCamera is the camera worker. Every cycle dispatches exactly one command.
//
// Cycle:
// 1. Read a frame (failure: OFF; a lost device is reopened)
// 2. Detect hands (failure: OFF)
// 3. Gate hands in detection order; classify only the first that passes
// 4. Dispatch the mapped command
// 5. Draw the result onto the frame and publish it as the preview
func (c *Controller) runCamera(w *worker) {
	cam := c.cfg.Camera
	policy := policyFor(w.mode)

	defer close(w.done)
	defer c.exit(w, func() {
		if err := cam.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
		if c.cfg.Preview != nil {
			c.cfg.Preview.Clear()
		}
	})

	if err := cam.Open(); err != nil {
		log.Printf("Error opening camera: %v", err)
	}

	fps := cam.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	interval := time.Second / time.Duration(fps)

	for w.running.Load() {
		c.cameraCycle(w, cam, policy)
		if !w.wait(interval) {
			return
		}
	}
}

func (c *Controller) cameraCycle(w *worker, cam capture.Camera, policy gesture.Policy) {
	frame, err := cam.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		c.finishCycle(w, LabelCameraError, command.Off)
		if capture.NeedsReopen(err) || !cam.IsOpen() {
			cam.Close()
			if err := cam.Open(); err != nil {
				log.Printf("Error reopening camera: %v", err)
			}
		}
		return
	}
	defer frame.Close()

	hands, err := c.cfg.Detector.Detect(frame)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		c.finishCycle(w, LabelDetectorError, command.Off)
		return
	}

	res, hand := classifyHands(frame, hands, c.cfg.Gate, policy)
	label := res.Label()
	c.finishCycle(w, label, res.Command)

	if c.cfg.Preview != nil && !frame.Empty() {
		drawOverlay(frame, hand, label, res.Command)
		if err := c.cfg.Preview.Publish(frame); err != nil {
			log.Printf("Error publishing preview: %v", err)
		}
	}
}

// classifyHands classifies the first hand that passes the gate. Further
// gated hands are ignored. It also returns the classified hand, or nil.
func classifyHands(frame *gocv.Mat, hands []detector.HandLandmarks, gate HandGate, policy gesture.Policy) (gesture.Result, *detector.HandLandmarks) {
	if len(hands) == 0 {
		return gesture.NoHand(), nil
	}
	for i := range hands {
		if gate != nil && gate.Evaluate(frame, &hands[i]) != wristband.Matches {
			continue
		}
		return policy(&hands[i]), &hands[i]
	}
	return gesture.NoWristband(), nil
}
