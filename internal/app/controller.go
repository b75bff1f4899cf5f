// Package app runs the sensing modes and guarantees that at most one of them
// drives the actuator at a time.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsignal/internal/capture"
	"github.com/ayusman/handsignal/internal/command"
	"github.com/ayusman/handsignal/internal/detector"
	"github.com/ayusman/handsignal/internal/voice"
	"github.com/ayusman/handsignal/internal/wristband"
)

// Controller defaults
const (
	DefaultStopTimeout   = 3 * time.Second
	DefaultRetryInterval = time.Second
)

var (
	// ErrClosed is returned when selecting a mode on a closed controller.
	ErrClosed = errors.New("controller closed")
	// ErrUnavailable is returned when the sensor a mode needs is not configured.
	ErrUnavailable = errors.New("mode not available")
)

// HandGate decides whether a detected hand may drive the actuator.
type HandGate interface {
	Evaluate(frame *gocv.Mat, hand *detector.HandLandmarks) wristband.Result
}

// VoiceListener runs listening windows on a microphone.
type VoiceListener interface {
	Open(ctx context.Context) error
	Listen(ctx context.Context) (voice.Utterance, error)
	Close() error
}

// Config holds the collaborators of a Controller.
type Config struct {
	Dispatcher *command.Dispatcher

	Camera   capture.Camera
	Detector detector.Detector
	// Gate filters hands before classification. A nil Gate accepts every hand.
	Gate    HandGate
	Preview *capture.Preview

	Listener   VoiceListener
	Classifier *voice.Classifier

	// StopTimeout bounds the wait for a worker to exit on a mode change.
	StopTimeout time.Duration
	// RetryInterval is the pause before reopening a failed microphone.
	RetryInterval time.Duration

	// OnSelect is called after a mode change with the new mode.
	OnSelect func(Mode)
}

// Controller owns the current mode and its worker.
type Controller struct {
	cfg Config

	mu     sync.Mutex
	worker *worker
	closed bool

	mode     atomic.Int32
	statusMu sync.RWMutex
	status   string
	label    string
	session  string

	hub    *eventHub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates an idle Controller.
func NewController(cfg Config) *Controller {
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = command.NewDispatcher(nil)
	}
	if cfg.Classifier == nil {
		cfg.Classifier = voice.NewClassifier()
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:    cfg,
		status: StatusIdle,
		hub:    newEventHub(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	return Mode(c.mode.Load())
}

// Available reports whether the collaborators m needs are configured.
func (c *Controller) Available(m Mode) bool {
	switch {
	case m.IsCamera():
		return c.cfg.Camera != nil && c.cfg.Detector != nil
	case m == ModeVoice:
		return c.cfg.Listener != nil
	default:
		return true
	}
}

// Select stops the active mode, if any, and starts m. Selecting the active
// mode is a no-op. Selecting ModeIdle is the same as StopAll.
func (c *Controller) Select(m Mode) error {
	if m == ModeIdle {
		c.StopAll()
		return nil
	}
	if m != ModeFist && m != ModeFingers && m != ModeVoice {
		return fmt.Errorf("%w: %d", ErrUnknownMode, m)
	}
	if !c.Available(m) {
		return fmt.Errorf("%w: %s", ErrUnavailable, m)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.worker != nil && c.worker.mode == m {
		c.mu.Unlock()
		return nil
	}

	c.stopCurrentLocked()
	c.startLocked(m)
	c.mu.Unlock()

	log.Printf("Mode selected: %s", m)
	if c.cfg.OnSelect != nil {
		c.cfg.OnSelect(m)
	}
	return nil
}

// StopAll stops the active mode and returns to idle. It is a no-op when idle.
func (c *Controller) StopAll() {
	c.mu.Lock()
	stopped := c.worker != nil
	c.stopCurrentLocked()
	c.mu.Unlock()

	if stopped {
		log.Printf("Mode selected: %s", ModeIdle)
		if c.cfg.OnSelect != nil {
			c.cfg.OnSelect(ModeIdle)
		}
	}
}

// Close stops the active mode and releases the controller. Subscriber
// channels are closed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopCurrentLocked()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.hub.close()
}

// Subscribe returns a channel of events and a function to unsubscribe.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	return c.hub.subscribe(buffer)
}

// Snapshot describes the controller state.
type Snapshot struct {
	Mode      Mode          `json:"mode"`
	Session   string        `json:"session,omitempty"`
	Status    string        `json:"status"`
	Label     string        `json:"label,omitempty"`
	Connected bool          `json:"actuator_connected"`
	Dispatch  command.Stats `json:"dispatch"`
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.statusMu.RLock()
	status, label, session := c.status, c.label, c.session
	c.statusMu.RUnlock()

	return Snapshot{
		Mode:      c.Mode(),
		Session:   session,
		Status:    status,
		Label:     label,
		Connected: c.cfg.Dispatcher.Connected(),
		Dispatch:  c.cfg.Dispatcher.Stats(),
	}
}

// Status returns the latest status text.
func (c *Controller) Status() string {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

func (c *Controller) setStatus(m Mode, session, text string) {
	c.statusMu.Lock()
	c.status = text
	c.statusMu.Unlock()

	log.Printf("Status: %s", text)
	c.hub.publish(Event{Kind: EventStatus, Time: time.Now(), Mode: m, Session: session, Status: text})
}

// worker is the handle of one running mode.
type worker struct {
	mode    Mode
	session string

	running atomic.Bool
	quit    chan struct{}
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	// sendMu orders the worker's dispatches against stop and detach.
	sendMu   sync.Mutex
	detached bool
	offSent  bool
}

func (c *Controller) startLocked(m Mode) {
	ctx, cancel := context.WithCancel(c.ctx)
	w := &worker{
		mode:    m,
		session: uuid.NewString(),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	w.running.Store(true)
	c.worker = w
	c.mode.Store(int32(m))

	c.statusMu.Lock()
	c.session, c.label = w.session, ""
	c.statusMu.Unlock()

	c.setStatus(m, w.session, m.RunningStatus())

	switch {
	case m.IsCamera():
		go c.runCamera(w)
	case m == ModeVoice:
		go c.runVoice(w)
	}
}

// stopCurrentLocked stops the active worker. Once running is cleared under
// sendMu the worker can only send its final OFF. If the worker does not exit
// within StopTimeout it is detached and the controller sends the OFF itself,
// so exactly one OFF separates two modes either way.
func (c *Controller) stopCurrentLocked() {
	w := c.worker
	if w == nil {
		return
	}
	c.worker = nil
	c.mode.Store(int32(ModeIdle))

	c.statusMu.Lock()
	c.session = ""
	c.statusMu.Unlock()

	w.sendMu.Lock()
	w.running.Store(false)
	w.sendMu.Unlock()
	close(w.quit)
	w.cancel()

	select {
	case <-w.done:
		return
	case <-time.After(c.cfg.StopTimeout):
	}

	log.Printf("%s worker did not stop within %v; detaching", w.mode, c.cfg.StopTimeout)
	w.sendMu.Lock()
	w.detached = true
	if !w.offSent {
		w.offSent = true
		c.cfg.Dispatcher.Dispatch(command.Off)
	}
	w.sendMu.Unlock()
	c.setStatus(w.mode, w.session, w.mode.StoppedStatus())
}

// dispatchCycle sends the command of one completed cycle. It reports false,
// sending nothing, once the worker has been told to stop.
func (c *Controller) dispatchCycle(w *worker, cmd command.Command) (command.Outcome, bool) {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()

	if !w.running.Load() {
		return command.Outcome{Command: cmd}, false
	}
	return c.cfg.Dispatcher.Dispatch(cmd), true
}

// finishCycle dispatches cmd and reports the cycle.
func (c *Controller) finishCycle(w *worker, label string, cmd command.Command) {
	out, ok := c.dispatchCycle(w, cmd)
	if !ok {
		return
	}

	c.statusMu.Lock()
	c.label = label
	c.statusMu.Unlock()

	ev := Event{
		Kind:    EventCycle,
		Time:    time.Now(),
		Mode:    w.mode,
		Session: w.session,
		Label:   label,
		Command: cmd,
		Sent:    out.Sent,
	}
	if out.Skipped() {
		ev.Skipped = out.Reason.String()
	}
	c.hub.publish(ev)
}

// exit runs when a worker returns: it sends the final OFF, releases the
// sensor and reports the stopped status. A detached worker does neither,
// since the controller already sent the OFF and a newer worker may own the
// sensor.
func (c *Controller) exit(w *worker, release func()) {
	w.sendMu.Lock()
	detached := w.detached
	if !detached && !w.offSent {
		w.offSent = true
		c.cfg.Dispatcher.Dispatch(command.Off)
	}
	w.sendMu.Unlock()

	if detached {
		log.Printf("Detached %s worker exited", w.mode)
		return
	}
	release()
	c.setStatus(w.mode, w.session, w.mode.StoppedStatus())
}

// wait blocks for d or until the worker is stopped. It reports whether the
// worker should keep running.
func (w *worker) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.quit:
		return false
	case <-t.C:
		return w.running.Load()
	}
}
