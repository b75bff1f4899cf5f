package actuator

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

type fakePort struct {
	written  []byte
	short    bool
	writeErr error
	closed   int
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.short {
		return 0, nil
	}
	p.written = append(p.written, b...)
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.closed++
	return nil
}

func TestOpen_UsesGivenPath(t *testing.T) {
	port := &fakePort{}
	var gotPath string
	var gotMode *serial.Mode

	link, err := Open("/dev/ttyACM0", PortOptions{}, 0, func(path string, mode *serial.Mode) (Port, error) {
		gotPath = path
		gotMode = mode
		return port, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", gotPath)
	assert.Equal(t, "/dev/ttyACM0", link.Path())
	require.NotNil(t, gotMode)
	assert.Equal(t, DefaultBaudRate, gotMode.BaudRate)
	assert.True(t, link.IsOpen())
}

func TestOpen_AutoDiscovery(t *testing.T) {
	orig := ListPorts
	defer func() { ListPorts = orig }()

	t.Run("picks first port", func(t *testing.T) {
		ListPorts = func() ([]string, error) { return []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, nil }

		var gotPath string
		_, err := Open(AutoPort, PortOptions{}, 0, func(path string, mode *serial.Mode) (Port, error) {
			gotPath = path
			return &fakePort{}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyUSB0", gotPath)
	})

	t.Run("no ports", func(t *testing.T) {
		ListPorts = func() ([]string, error) { return nil, nil }

		_, err := Open("", PortOptions{}, 0, func(string, *serial.Mode) (Port, error) {
			t.Fatal("opener must not be called without a port")
			return nil, nil
		})
		assert.ErrorIs(t, err, ErrNoPorts)
	})
}

func TestOpen_Failures(t *testing.T) {
	openErr := errors.New("permission denied")
	_, err := Open("COM10", PortOptions{}, 0, func(string, *serial.Mode) (Port, error) {
		return nil, openErr
	})
	assert.ErrorIs(t, err, openErr)

	_, err = Open("COM10", PortOptions{Parity: "X"}, 0, func(string, *serial.Mode) (Port, error) {
		return &fakePort{}, nil
	})
	assert.Error(t, err)
}

func TestSerialLink_Write(t *testing.T) {
	t.Run("writes bytes", func(t *testing.T) {
		port := &fakePort{}
		link := NewSerialLink("test", port)

		n, err := link.Write([]byte{'R'})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []byte{'R'}, port.written)
	})

	t.Run("short write", func(t *testing.T) {
		link := NewSerialLink("test", &fakePort{short: true})
		_, err := link.Write([]byte{'G'})
		assert.ErrorIs(t, err, ErrWriteFailed)
	})

	t.Run("port error", func(t *testing.T) {
		link := NewSerialLink("test", &fakePort{writeErr: io.ErrClosedPipe})
		_, err := link.Write([]byte{'Y'})
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	})

	t.Run("closed link", func(t *testing.T) {
		port := &fakePort{}
		link := NewSerialLink("test", port)
		require.NoError(t, link.Close())
		require.NoError(t, link.Close())

		assert.False(t, link.IsOpen())
		assert.Equal(t, 1, port.closed)

		_, err := link.Write([]byte{'0'})
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestTestLink(t *testing.T) {
	link := NewTestLink()
	assert.True(t, link.IsOpen())

	_, err := link.Write([]byte("RG"))
	require.NoError(t, err)
	assert.Equal(t, "RG", link.Written())

	select {
	case <-link.Notify():
	default:
		t.Error("expected write notification")
	}

	link.SetWriteError(io.ErrUnexpectedEOF)
	_, err = link.Write([]byte("Y"))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "RG", link.Written())
	assert.Equal(t, 2, link.WriteCalls)

	require.NoError(t, link.Close())
	assert.False(t, link.IsOpen())
}
