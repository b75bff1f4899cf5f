package voice

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// Default capture settings
const (
	DefaultSampleRate      = 16000
	DefaultFrameDuration   = 30 * time.Millisecond
	DefaultSilenceDuration = 800 * time.Millisecond
	DefaultCalibration     = time.Second
	// DefaultMinThreshold is the lowest RMS level treated as speech.
	DefaultMinThreshold = 0.01
	// DefaultThresholdFactor scales the ambient level to get the speech threshold.
	DefaultThresholdFactor = 1.5
)

var (
	// ErrListenTimeout is returned when no speech starts before the timeout.
	ErrListenTimeout = errors.New("listening timed out waiting for speech")
	// ErrSourceNotOpen is returned when recording from a closed source.
	ErrSourceNotOpen = errors.New("microphone is not open")
)

// StreamOpener starts a capture of 16-bit little-endian mono PCM.
type StreamOpener func(ctx context.Context, device string, sampleRate int) (io.ReadCloser, error)

// ArecordOpener captures from ALSA through the arecord utility.
func ArecordOpener(ctx context.Context, device string, sampleRate int) (io.ReadCloser, error) {
	args := []string{"-q", "-f", "S16_LE", "-r", strconv.Itoa(sampleRate), "-c", "1", "-t", "raw"}
	if device != "" {
		args = append(args, "-D", device)
	}

	cmd := exec.CommandContext(ctx, "arecord", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start arecord: %w", err)
	}
	return &processStream{cmd: cmd, stdout: stdout}, nil
}

type processStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (p *processStream) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

func (p *processStream) Close() error {
	p.stdout.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd.Wait()
	return nil
}

// SourceConfig holds microphone capture settings.
type SourceConfig struct {
	Device          string
	SampleRate      int
	FrameDuration   time.Duration
	SilenceDuration time.Duration
	Calibration     time.Duration
	MinThreshold    float64
	ThresholdFactor float64
}

// DefaultSourceConfig returns the default capture settings.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		SampleRate:      DefaultSampleRate,
		FrameDuration:   DefaultFrameDuration,
		SilenceDuration: DefaultSilenceDuration,
		Calibration:     DefaultCalibration,
		MinThreshold:    DefaultMinThreshold,
		ThresholdFactor: DefaultThresholdFactor,
	}
}

// Clip is a recorded phrase.
type Clip struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Source records phrases from a microphone. Speech is detected by comparing
// each frame's RMS level against a threshold set by ambient calibration.
type Source struct {
	cfg  SourceConfig
	open StreamOpener

	mu        sync.Mutex
	stream    io.ReadCloser
	threshold float64
}

// NewSource creates a Source. A nil opener uses ArecordOpener.
func NewSource(cfg SourceConfig, open StreamOpener) *Source {
	def := DefaultSourceConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.FrameDuration <= 0 {
		cfg.FrameDuration = def.FrameDuration
	}
	if cfg.SilenceDuration <= 0 {
		cfg.SilenceDuration = def.SilenceDuration
	}
	if cfg.Calibration < 0 {
		cfg.Calibration = 0
	}
	if cfg.MinThreshold <= 0 {
		cfg.MinThreshold = def.MinThreshold
	}
	if cfg.ThresholdFactor <= 0 {
		cfg.ThresholdFactor = def.ThresholdFactor
	}
	if open == nil {
		open = ArecordOpener
	}
	return &Source{cfg: cfg, open: open, threshold: cfg.MinThreshold}
}

// Open starts the capture and calibrates against ambient noise. Opening an
// open source is a no-op.
func (s *Source) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return nil
	}

	stream, err := s.open(ctx, s.cfg.Device, s.cfg.SampleRate)
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	s.stream = stream

	if _, err := s.calibrateLocked(); err != nil {
		s.stream.Close()
		s.stream = nil
		return fmt.Errorf("calibrate microphone: %w", err)
	}
	return nil
}

// IsOpen reports whether the capture is running.
func (s *Source) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

// Threshold returns the current speech threshold.
func (s *Source) Threshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// Calibrate measures ambient noise and sets the speech threshold to the
// ambient level times the threshold factor, never below the minimum.
func (s *Source) Calibrate() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibrateLocked()
}

func (s *Source) calibrateLocked() (float64, error) {
	if s.stream == nil {
		return 0, ErrSourceNotOpen
	}

	frames := int(s.cfg.Calibration / s.cfg.FrameDuration)
	var sum float64
	for i := 0; i < frames; i++ {
		frame, err := s.readFrameLocked()
		if err != nil {
			return 0, err
		}
		sum += RMS(frame)
	}

	threshold := s.cfg.MinThreshold
	if frames > 0 {
		threshold = math.Max(threshold, sum/float64(frames)*s.cfg.ThresholdFactor)
	}
	s.threshold = threshold
	return threshold, nil
}

// Record waits up to timeout of audio for speech to start, then records until
// the speaker pauses or phraseLimit is reached. It returns ErrListenTimeout
// when no speech starts in time. ctx is checked between frames.
func (s *Source) Record(ctx context.Context, timeout, phraseLimit time.Duration) (Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return Clip{}, ErrSourceNotOpen
	}

	frameDur := s.cfg.FrameDuration
	var (
		waited   time.Duration
		recorded time.Duration
		silence  time.Duration
		samples  []int16
		speaking bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return Clip{}, err
		}

		frame, err := s.readFrameLocked()
		if err != nil {
			return Clip{}, err
		}
		loud := RMS(frame) >= s.threshold

		if !speaking {
			if !loud {
				waited += frameDur
				if timeout > 0 && waited >= timeout {
					return Clip{}, ErrListenTimeout
				}
				continue
			}
			speaking = true
		}

		samples = append(samples, frame...)
		recorded += frameDur
		if loud {
			silence = 0
		} else {
			silence += frameDur
		}

		if silence >= s.cfg.SilenceDuration || (phraseLimit > 0 && recorded >= phraseLimit) {
			return Clip{Samples: samples, SampleRate: s.cfg.SampleRate}, nil
		}
	}
}

func (s *Source) readFrameLocked() ([]int16, error) {
	n := int(int64(s.cfg.SampleRate) * int64(s.cfg.FrameDuration) / int64(time.Second))
	if n <= 0 {
		n = 1
	}
	buf := make([]byte, n*2)
	if _, err := io.ReadFull(s.stream, buf); err != nil {
		return nil, fmt.Errorf("read microphone: %w", err)
	}
	frame := make([]int16, n)
	for i := range frame {
		frame[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return frame, nil
}

// Close stops the capture. Closing a closed source is a no-op.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}

// RMS returns the root mean square level of samples scaled to 0..1.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		f := float64(v) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}
