// Package actuator provides the serial connection to the LED controller.
package actuator

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// AutoPort asks Open to pick the first serial port reported by the OS.
const AutoPort = "auto"

var (
	// ErrWriteFailed is returned when the port accepted fewer bytes than requested.
	ErrWriteFailed = errors.New("failed to write to serial port")
	// ErrClosed is returned when writing to a closed link.
	ErrClosed = errors.New("serial link closed")
	// ErrNoPorts is returned by auto-discovery when the OS lists no serial ports.
	ErrNoPorts = errors.New("no serial ports found")
)

// Port is the minimal interface needed from a serial port.
type Port interface {
	io.Writer
	io.Closer
}

// Opener opens a serial port. It is replaced in tests.
type Opener func(path string, mode *serial.Mode) (Port, error)

// SerialOpener opens a real port through go.bug.st/serial.
func SerialOpener(path string, mode *serial.Mode) (Port, error) {
	return serial.Open(path, mode)
}

// ListPorts returns the serial ports reported by the OS.
var ListPorts = serial.GetPortsList

// SerialLink is an open connection to the actuator.
type SerialLink struct {
	path string
	mu   sync.Mutex
	port Port
	open bool
}

// NewSerialLink wraps an already open port.
func NewSerialLink(path string, port Port) *SerialLink {
	return &SerialLink{path: path, port: port, open: port != nil}
}

// Open opens the actuator port at path and waits settle before returning, as
// the controller resets when the port is opened. Passing AutoPort picks the
// first port the OS reports.
func Open(path string, opts PortOptions, settle time.Duration, open Opener) (*SerialLink, error) {
	if open == nil {
		open = SerialOpener
	}

	if path == "" || path == AutoPort {
		ports, err := ListPorts()
		if err != nil {
			return nil, fmt.Errorf("list serial ports: %w", err)
		}
		if len(ports) == 0 {
			return nil, ErrNoPorts
		}
		path = ports[0]
	}

	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if settle > 0 {
		time.Sleep(settle)
	}

	return NewSerialLink(path, port), nil
}

// Path returns the device path of the link.
func (l *SerialLink) Path() string {
	return l.path
}

// IsOpen reports whether the link can still be written to.
func (l *SerialLink) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

// Write sends p to the port.
func (l *SerialLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.open {
		return 0, ErrClosed
	}
	n, err := l.port.Write(p)
	if err != nil {
		return n, err
	}
	if n != len(p) {
		return n, ErrWriteFailed
	}
	return n, nil
}

// Close closes the port. Closing twice is a no-op.
func (l *SerialLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.open {
		return nil
	}
	l.open = false
	return l.port.Close()
}
