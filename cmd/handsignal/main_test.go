package main

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handsignal/internal/app"
	"github.com/ayusman/handsignal/internal/config"
	"github.com/ayusman/handsignal/internal/store"
)

func TestStartMode(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()
	settings := st.Settings()

	m, err := startMode("", true, settings)
	require.NoError(t, err)
	assert.Equal(t, app.ModeIdle, m, "nothing stored yet")

	require.NoError(t, settings.Set(store.KeyLastMode, "fingers"))

	m, err = startMode("", false, settings)
	require.NoError(t, err)
	assert.Equal(t, app.ModeIdle, m, "resume disabled")

	m, err = startMode("", true, settings)
	require.NoError(t, err)
	assert.Equal(t, app.ModeFingers, m)

	m, err = startMode("voice", true, settings)
	require.NoError(t, err)
	assert.Equal(t, app.ModeVoice, m, "flag wins over stored mode")

	_, err = startMode("laser", false, settings)
	assert.ErrorIs(t, err, app.ErrUnknownMode)
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	applyFlags(cfg, options{camera: -1})
	assert.Equal(t, config.Default().Serial.Port, cfg.Serial.Port)
	assert.Equal(t, 0, cfg.Camera.Device)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr)
	assert.True(t, cfg.Tray)

	applyFlags(cfg, options{port: "/dev/ttyACM1", camera: 2, addr: "off", noTray: true})
	assert.Equal(t, "/dev/ttyACM1", cfg.Serial.Port)
	assert.Equal(t, 2, cfg.Camera.Device)
	assert.Empty(t, cfg.Server.Addr)
	assert.False(t, cfg.Tray)
}

func TestIsLoopback(t *testing.T) {
	assert.True(t, isLoopback(&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 8765}))
	assert.True(t, isLoopback(&net.TCPAddr{IP: net.IPv6loopback, Port: 8765}))
	assert.False(t, isLoopback(&net.TCPAddr{IP: net.ParseIP("0.0.0.0"), Port: 8765}))
}

func TestSetupLogging_NoFile(t *testing.T) {
	assert.Nil(t, setupLogging(config.LogConfig{}))
}
