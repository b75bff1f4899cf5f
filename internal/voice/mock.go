package voice

import (
	"context"
	"sync"
	"time"
)

// MockMicrophone returns scripted recordings for testing. Once the script is
// exhausted every Record call times out.
type MockMicrophone struct {
	mu      sync.Mutex
	script  []MockRecording
	opened  int
	closed  int
	open    bool
	OpenErr error
	// Delay is slept before each Record returns, unless ctx ends first.
	Delay time.Duration
}

// MockRecording is one scripted Record result.
type MockRecording struct {
	Clip Clip
	Err  error
}

// NewMockMicrophone creates a microphone playing back script in order.
func NewMockMicrophone(script ...MockRecording) *MockMicrophone {
	return &MockMicrophone{script: script}
}

// Open marks the microphone open.
func (m *MockMicrophone) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.opened++
	m.open = true
	return nil
}

// Record returns the next scripted recording.
func (m *MockMicrophone) Record(ctx context.Context, timeout, phraseLimit time.Duration) (Clip, error) {
	m.mu.Lock()
	delay := m.Delay
	if !m.open {
		m.mu.Unlock()
		return Clip{}, ErrSourceNotOpen
	}
	var next *MockRecording
	if len(m.script) > 0 {
		next = &m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Clip{}, ctx.Err()
		}
	}
	if next == nil {
		return Clip{}, ErrListenTimeout
	}
	return next.Clip, next.Err
}

// Close marks the microphone closed.
func (m *MockMicrophone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		m.closed++
	}
	m.open = false
	return nil
}

// Opened returns how many times the microphone was opened.
func (m *MockMicrophone) Opened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Closed returns how many times an open microphone was closed.
func (m *MockMicrophone) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SpeechClip returns a short non-empty clip tagged with a transcript for
// MockRecognizer.
func SpeechClip(transcript string) Clip {
	samples := make([]int16, len(transcript)+1)
	for i := range transcript {
		samples[i] = int16(transcript[i])
	}
	return Clip{Samples: samples, SampleRate: DefaultSampleRate}
}

// MockRecognizer decodes clips made by SpeechClip. Err, when set, is
// returned instead.
type MockRecognizer struct {
	mu    sync.Mutex
	Err   error
	calls int
}

// Recognize returns the transcript embedded by SpeechClip.
func (r *MockRecognizer) Recognize(ctx context.Context, clip Clip) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.Err != nil {
		return "", r.Err
	}
	b := make([]byte, 0, len(clip.Samples))
	for _, s := range clip.Samples {
		if s == 0 {
			break
		}
		b = append(b, byte(s))
	}
	return parseTranscript(string(b))
}

// Calls returns the number of Recognize calls.
func (r *MockRecognizer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
