// Package command defines the four actuator commands and dispatches them to
// the LED controller.
package command

import "fmt"

// Command is one of the canonical actuator signals.
type Command int

const (
	// Off switches every LED off. It is the zero value so that an
	// unclassified result always means Off.
	Off Command = iota
	Red
	Yellow
	Green
)

// All lists every command in wire-code order.
var All = []Command{Red, Yellow, Green, Off}

// Code returns the single ASCII byte sent over the serial link.
func (c Command) Code() byte {
	switch c {
	case Red:
		return 'R'
	case Yellow:
		return 'Y'
	case Green:
		return 'G'
	default:
		return '0'
	}
}

// String returns the upper-case command name.
func (c Command) String() string {
	switch c {
	case Red:
		return "RED"
	case Yellow:
		return "YELLOW"
	case Green:
		return "GREEN"
	default:
		return "OFF"
	}
}

// MarshalText implements encoding.TextMarshaler so commands render by name in JSON.
func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// FromCode maps a wire byte back to its command.
func FromCode(b byte) (Command, error) {
	switch b {
	case 'R':
		return Red, nil
	case 'Y':
		return Yellow, nil
	case 'G':
		return Green, nil
	case '0':
		return Off, nil
	}
	return Off, fmt.Errorf("unknown command code %q", b)
}
