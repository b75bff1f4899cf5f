package command

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Link is the write side of the actuator connection.
type Link interface {
	Write(p []byte) (int, error)
	IsOpen() bool
}

// SkipReason explains why a dispatch did not reach the actuator.
type SkipReason int

const (
	ReasonNone SkipReason = iota
	// ReasonNotConnected means the link is absent or closed.
	ReasonNotConnected
	// ReasonTransport means the write to an open link failed.
	ReasonTransport
)

func (r SkipReason) String() string {
	switch r {
	case ReasonNotConnected:
		return "not connected"
	case ReasonTransport:
		return "transport error"
	default:
		return ""
	}
}

// Outcome is the result of a single dispatch.
type Outcome struct {
	Command Command
	Sent    bool
	Reason  SkipReason
	Err     error
}

// Skipped reports whether the command did not reach the actuator.
func (o Outcome) Skipped() bool {
	return !o.Sent
}

func (o Outcome) String() string {
	if o.Sent {
		return "sent " + o.Command.String()
	}
	return fmt.Sprintf("skipped %s (%s)", o.Command, o.Reason)
}

// Stats holds dispatch counters.
type Stats struct {
	Sent         uint64  `json:"sent"`
	NotConnected uint64  `json:"not_connected"`
	Transport    uint64  `json:"transport_errors"`
	Last         Command `json:"last"`
}

// Dispatcher writes commands to the actuator link. It is safe for concurrent
// use; writes are serialised so two command bytes never interleave.
type Dispatcher struct {
	mu        sync.Mutex
	link      Link
	observers []func(Outcome)
	offline   bool

	sent         atomic.Uint64
	notConnected atomic.Uint64
	transport    atomic.Uint64
	last         atomic.Int32

	// Logf receives diagnostics. Defaults to log.Printf.
	Logf func(format string, v ...any)
}

// NewDispatcher creates a Dispatcher writing to link. A nil link is allowed
// and turns every dispatch into a reported no-op.
func NewDispatcher(link Link) *Dispatcher {
	return &Dispatcher{
		link: link,
		Logf: log.Printf,
	}
}

// Observe registers fn to be called after every dispatch, outside the write lock.
func (d *Dispatcher) Observe(fn func(Outcome)) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// Connected reports whether the link is present and open.
func (d *Dispatcher) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.link != nil && d.link.IsOpen()
}

// Dispatch sends cmd to the actuator. It never panics or returns an error;
// failures are reported through the Outcome.
func (d *Dispatcher) Dispatch(cmd Command) Outcome {
	d.mu.Lock()
	out := d.writeLocked(cmd)
	d.last.Store(int32(cmd))
	observers := d.observers
	d.mu.Unlock()

	for _, fn := range observers {
		fn(out)
	}
	return out
}

func (d *Dispatcher) writeLocked(cmd Command) Outcome {
	out := Outcome{Command: cmd}

	if d.link == nil || !d.link.IsOpen() {
		d.notConnected.Add(1)
		out.Reason = ReasonNotConnected
		if !d.offline {
			d.offline = true
			d.logf("Actuator not connected.")
		}
		return out
	}
	if d.offline {
		d.offline = false
		d.logf("Actuator connected.")
	}

	d.logf("Sending to actuator: %c", cmd.Code())
	n, err := d.link.Write([]byte{cmd.Code()})
	if err == nil && n != 1 {
		err = fmt.Errorf("short write: %d bytes", n)
	}
	if err != nil {
		d.transport.Add(1)
		d.logf("Error sending command: %v", err)
		out.Reason = ReasonTransport
		out.Err = err
		return out
	}

	d.sent.Add(1)
	out.Sent = true
	return out
}

// Stats returns a snapshot of the dispatch counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:         d.sent.Load(),
		NotConnected: d.notConnected.Load(),
		Transport:    d.transport.Load(),
		Last:         Command(d.last.Load()),
	}
}

func (d *Dispatcher) logf(format string, v ...any) {
	if d.Logf != nil {
		d.Logf(format, v...)
	}
}
