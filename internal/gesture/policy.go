package gesture

import (
	"fmt"

	"github.com/ayusman/handsignal/internal/command"
	"github.com/ayusman/handsignal/internal/detector"
)

// Kind is the gesture category recognized in one frame.
type Kind int

const (
	// KindNone means no hand was available to classify.
	KindNone Kind = iota
	KindUnknown
	KindFist
	KindPinch
	KindOpenPalm
	KindFingerCount
	// KindNoWristband means hands were detected but none wore the band.
	KindNoWristband
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindFist:
		return "fist"
	case KindPinch:
		return "pinch"
	case KindOpenPalm:
		return "open_palm"
	case KindFingerCount:
		return "finger_count"
	case KindNoWristband:
		return "no_wristband"
	default:
		return "none"
	}
}

// MarshalText renders kinds by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is the classification of one frame. Command is always set; every
// result without a recognized gesture maps to command.Off.
type Result struct {
	Kind    Kind                `json:"kind"`
	Fingers int                 `json:"fingers"`
	Hand    detector.Handedness `json:"hand,omitempty"`
	Command command.Command     `json:"command"`
}

// Label returns the text shown on the preview for this result.
func (r Result) Label() string {
	switch r.Kind {
	case KindFist:
		return fmt.Sprintf("%s Fist - %s", r.Hand, r.Command)
	case KindPinch:
		return fmt.Sprintf("%s Pinch - %s", r.Hand, r.Command)
	case KindOpenPalm:
		return fmt.Sprintf("%s Open Palm - %s", r.Hand, r.Command)
	case KindFingerCount:
		if r.Command == command.Off {
			return fmt.Sprintf("%s %d Fingers - LED OFF", r.Hand, r.Fingers)
		}
		noun := "Fingers"
		if r.Fingers == 1 {
			noun = "Finger"
		}
		return fmt.Sprintf("%s %d %s - %s", r.Hand, r.Fingers, noun, r.Command)
	case KindUnknown:
		return "Unknown Gesture"
	case KindNoWristband:
		return "No wristband detected"
	default:
		return "No Gesture"
	}
}

// Policy turns one gated hand into a Result.
type Policy func(hand *detector.HandLandmarks) Result

// ClassifyFistMode evaluates fist, pinch and open palm in that order; the
// first match wins.
func ClassifyFistMode(hand *detector.HandLandmarks) Result {
	if hand == nil {
		return Result{Kind: KindNone, Command: command.Off}
	}

	r := Result{Hand: hand.Handedness, Fingers: CountExtendedFingers(hand, hand.Handedness)}
	switch {
	case IsFist(hand):
		r.Kind, r.Command = KindFist, command.Red
	case IsPinch(hand):
		r.Kind, r.Command = KindPinch, command.Yellow
	case IsOpenPalm(hand, hand.Handedness):
		r.Kind, r.Command = KindOpenPalm, command.Green
	default:
		r.Kind, r.Command = KindUnknown, command.Off
	}
	return r
}

// fingerCommands maps extended finger counts to commands. Counts not listed
// switch the LEDs off.
var fingerCommands = map[int]command.Command{
	1: command.Red,
	2: command.Yellow,
	3: command.Green,
}

// ClassifyFingerMode maps the number of extended fingers to a command.
func ClassifyFingerMode(hand *detector.HandLandmarks) Result {
	if hand == nil {
		return Result{Kind: KindNone, Command: command.Off}
	}

	n := CountExtendedFingers(hand, hand.Handedness)
	return Result{
		Kind:    KindFingerCount,
		Fingers: n,
		Hand:    hand.Handedness,
		Command: fingerCommands[n],
	}
}

// NoWristband is the result for a frame whose hands all failed the gate.
func NoWristband() Result {
	return Result{Kind: KindNoWristband, Command: command.Off}
}

// NoHand is the result for a frame without detected hands.
func NoHand() Result {
	return Result{Kind: KindNone, Command: command.Off}
}
