package voice

import (
	"context"
	"errors"
	"log"
	"time"
)

// Default listening limits
const (
	DefaultListenTimeout = 5 * time.Second
	DefaultPhraseLimit   = 8 * time.Second
)

// Microphone records phrases. Source is the production implementation.
type Microphone interface {
	Open(ctx context.Context) error
	Record(ctx context.Context, timeout, phraseLimit time.Duration) (Clip, error)
	Close() error
}

// ListenerConfig bounds a listening window.
type ListenerConfig struct {
	Timeout     time.Duration
	PhraseLimit time.Duration
}

// Listener runs one listening window at a time: record a phrase, then
// recognize it.
type Listener struct {
	mic        Microphone
	recognizer Recognizer
	cfg        ListenerConfig

	// Logf receives diagnostics. Defaults to log.Printf.
	Logf func(format string, v ...any)
}

// NewListener creates a Listener. A nil recognizer fails every window with
// SignalServiceError.
func NewListener(mic Microphone, recognizer Recognizer, cfg ListenerConfig) *Listener {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultListenTimeout
	}
	if cfg.PhraseLimit <= 0 {
		cfg.PhraseLimit = DefaultPhraseLimit
	}
	if recognizer == nil {
		recognizer = UnavailableRecognizer{Reason: "no recognizer configured"}
	}
	return &Listener{
		mic:        mic,
		recognizer: recognizer,
		cfg:        cfg,
		Logf:       log.Printf,
	}
}

// Open opens the microphone, which calibrates for ambient noise.
func (l *Listener) Open(ctx context.Context) error {
	return l.mic.Open(ctx)
}

// Close releases the microphone.
func (l *Listener) Close() error {
	return l.mic.Close()
}

// Listen runs one window. Recognition problems are reported as a Signal in
// the utterance. The error is non-nil only when the microphone itself failed
// or ctx was cancelled; the utterance is then SignalServiceError.
func (l *Listener) Listen(ctx context.Context) (Utterance, error) {
	l.logf("Listening for voice command...")

	clip, err := l.mic.Record(ctx, l.cfg.Timeout, l.cfg.PhraseLimit)
	if err != nil {
		if errors.Is(err, ErrListenTimeout) {
			return SignalUtterance(SignalTimeout), nil
		}
		return SignalUtterance(SignalServiceError), err
	}

	text, err := l.recognizer.Recognize(ctx, clip)
	if err != nil {
		if errors.Is(err, ErrUnrecognized) {
			l.logf("Could not understand audio")
			return SignalUtterance(SignalUnrecognized), nil
		}
		l.logf("Speech service error: %v", err)
		return SignalUtterance(SignalServiceError), nil
	}

	u := NewUtterance(text)
	if u.HasText() {
		l.logf("Recognized: %s", u.Text)
	} else {
		l.logf("Could not understand audio")
	}
	return u, nil
}

func (l *Listener) logf(format string, v ...any) {
	if l.Logf != nil {
		l.Logf(format, v...)
	}
}
