package app

import (
	"sync"
	"time"

	"github.com/ayusman/handsignal/internal/command"
)

// Status texts
const (
	StatusIdle          = "Select Input Mode"
	StatusCameraStopped = "Camera stopped"
	StatusVoiceRunning  = "Voice control running"
	StatusVoiceStopped  = "Voice control stopped"
)

// EventKind distinguishes status changes from per-cycle reports.
type EventKind string

const (
	EventStatus EventKind = "status"
	EventCycle  EventKind = "cycle"
)

// Event is published for every status change and every completed cycle.
type Event struct {
	Kind    EventKind       `json:"kind"`
	Time    time.Time       `json:"time"`
	Mode    Mode            `json:"mode"`
	Session string          `json:"session,omitempty"`
	Status  string          `json:"status,omitempty"`
	Label   string          `json:"label,omitempty"`
	Command command.Command `json:"command"`
	Sent    bool            `json:"sent"`
	Skipped string          `json:"skipped,omitempty"`
}

// eventHub fans events out to subscribers. Slow subscribers miss events
// rather than block the workers.
type eventHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[int]chan Event)}
}

func (h *eventHub) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

func (h *eventHub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
