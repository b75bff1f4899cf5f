// Package voice turns spoken commands into actuator commands. It records
// from a microphone, sends the clip to a speech recognizer and matches the
// transcript against keyword sets.
package voice

import "strings"

// Signal marks a listening window that produced no transcript.
type Signal int

const (
	SignalNone Signal = iota
	// SignalTimeout means no speech started within the listen timeout.
	SignalTimeout
	// SignalUnrecognized means speech was heard but not understood.
	SignalUnrecognized
	// SignalServiceError means the recognizer could not be reached.
	SignalServiceError
)

func (s Signal) String() string {
	switch s {
	case SignalTimeout:
		return "timeout"
	case SignalUnrecognized:
		return "unrecognized"
	case SignalServiceError:
		return "service_error"
	default:
		return "none"
	}
}

// Utterance is the result of one listening window: either a normalized
// transcript or a Signal.
type Utterance struct {
	Text   string `json:"text,omitempty"`
	Signal Signal `json:"signal"`
}

// NewUtterance normalizes a transcript. An empty transcript is treated as
// unrecognized speech.
func NewUtterance(transcript string) Utterance {
	text := strings.ToLower(strings.TrimSpace(transcript))
	if text == "" {
		return Utterance{Signal: SignalUnrecognized}
	}
	return Utterance{Text: text}
}

// SignalUtterance returns an utterance carrying only s.
func SignalUtterance(s Signal) Utterance {
	return Utterance{Signal: s}
}

// HasText reports whether the utterance carries a transcript.
func (u Utterance) HasText() bool {
	return u.Signal == SignalNone && u.Text != ""
}

func (u Utterance) String() string {
	if u.HasText() {
		return u.Text
	}
	return "<" + u.Signal.String() + ">"
}
