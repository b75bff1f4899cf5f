package app

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when parsing an unsupported mode name.
var ErrUnknownMode = errors.New("unknown mode")

// Mode is the sensing source that currently owns the actuator.
type Mode int32

const (
	ModeIdle Mode = iota
	ModeFist
	ModeFingers
	ModeVoice
)

// Modes lists the selectable non-idle modes.
var Modes = []Mode{ModeFist, ModeFingers, ModeVoice}

func (m Mode) String() string {
	switch m {
	case ModeFist:
		return "fist"
	case ModeFingers:
		return "fingers"
	case ModeVoice:
		return "voice"
	default:
		return "idle"
	}
}

// IsCamera reports whether the mode runs the camera worker.
func (m Mode) IsCamera() bool {
	return m == ModeFist || m == ModeFingers
}

// RunningStatus is the status text shown while the mode runs.
func (m Mode) RunningStatus() string {
	switch {
	case m.IsCamera():
		return fmt.Sprintf("Camera running in %s mode", m)
	case m == ModeVoice:
		return StatusVoiceRunning
	default:
		return StatusIdle
	}
}

// StoppedStatus is the status text shown once the mode's worker has stopped.
func (m Mode) StoppedStatus() string {
	switch {
	case m.IsCamera():
		return StatusCameraStopped
	case m == ModeVoice:
		return StatusVoiceStopped
	default:
		return StatusIdle
	}
}

// MarshalText renders modes by name in JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode parses a mode name. "stop" and the empty string mean idle.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fist":
		return ModeFist, nil
	case "fingers", "finger":
		return ModeFingers, nil
	case "voice":
		return ModeVoice, nil
	case "idle", "stop", "":
		return ModeIdle, nil
	}
	return ModeIdle, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
