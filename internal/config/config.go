// Package config loads handsignal settings from defaults, a YAML file, stored
// settings and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/ayusman/handsignal/internal/actuator"
	"github.com/ayusman/handsignal/internal/store"
)

// Config represents the complete handsignal configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Camera CameraConfig `yaml:"camera"`
	Voice  VoiceConfig  `yaml:"voice"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`

	DataDir        string `yaml:"data_dir"`
	Tray           bool   `yaml:"tray"`
	ResumeLastMode bool   `yaml:"resume_last_mode"`
}

// SerialConfig holds actuator link settings.
type SerialConfig struct {
	// Port is a device path, or "auto" for the first port the OS reports.
	Port    string               `yaml:"port"`
	Options actuator.PortOptions `yaml:",inline"`
	// Settle is the pause after opening while the board resets.
	Settle time.Duration `yaml:"settle"`
}

// CameraConfig holds capture and wristband gate settings.
type CameraConfig struct {
	Device             int `yaml:"device"`
	FPS                int `yaml:"fps"`
	WristbandThreshold int `yaml:"wristband_threshold"`
}

// VoiceConfig holds microphone and speech recognition settings.
type VoiceConfig struct {
	Device        string        `yaml:"device"`
	SampleRate    int           `yaml:"sample_rate"`
	ListenTimeout time.Duration `yaml:"listen_timeout"`
	PhraseLimit   time.Duration `yaml:"phrase_limit"`
	Calibration   time.Duration `yaml:"calibration"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"api_key"`
}

// ServerConfig holds the local control surface settings.
type ServerConfig struct {
	// Addr is the listen address. Empty disables the server.
	Addr string `yaml:"addr"`
}

// LogConfig holds log file rotation settings.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:    actuator.AutoPort,
			Options: actuator.PortOptions{BaudRate: actuator.DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"},
			Settle:  2 * time.Second,
		},
		Camera: CameraConfig{
			Device:             0,
			FPS:                15,
			WristbandThreshold: 50,
		},
		Voice: VoiceConfig{
			SampleRate:    16000,
			ListenTimeout: 5 * time.Second,
			PhraseLimit:   8 * time.Second,
			Calibration:   time.Second,
			Model:         "gemini-2.0-flash",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		DataDir: DefaultDataDir(),
		Tray:    true,
	}
}

// DefaultDataDir returns ~/.handsignal, or a relative directory when the
// home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".handsignal"
	}
	return filepath.Join(home, ".handsignal")
}

// DefaultPath returns the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path reads DefaultPath, which may be missing.
func Load(path string) (*Config, error) {
	cfg := Default()

	optional := path == ""
	if optional {
		path = DefaultPath()
	}

	if err := loadFromFile(cfg, path); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// DBPath returns the settings database path inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "handsignal.db")
}

// ApplySettings overlays values persisted through the control surface.
// Unknown keys are ignored.
func (c *Config) ApplySettings(settings map[string]string) error {
	if v, ok := settings[store.KeySerialPort]; ok && v != "" {
		c.Serial.Port = v
	}
	if v, ok := settings[store.KeyCameraDevice]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("stored %s %q: %w", store.KeyCameraDevice, v, err)
		}
		c.Camera.Device = n
	}
	return nil
}

// ApplyEnv overlays HANDSIGNAL_* variables and GEMINI_API_KEY read through
// getenv. Malformed numbers are reported, not ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var errs []error

	str := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}
	flag := func(name string, dst *bool) {
		if v := getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}

	str("HANDSIGNAL_SERIAL_PORT", &c.Serial.Port)
	num("HANDSIGNAL_SERIAL_BAUD", &c.Serial.Options.BaudRate)
	dur("HANDSIGNAL_SERIAL_SETTLE", &c.Serial.Settle)
	num("HANDSIGNAL_CAMERA_DEVICE", &c.Camera.Device)
	num("HANDSIGNAL_CAMERA_FPS", &c.Camera.FPS)
	str("HANDSIGNAL_VOICE_DEVICE", &c.Voice.Device)
	str("HANDSIGNAL_VOICE_MODEL", &c.Voice.Model)
	dur("HANDSIGNAL_LISTEN_TIMEOUT", &c.Voice.ListenTimeout)
	str("GEMINI_API_KEY", &c.Voice.APIKey)
	str("HANDSIGNAL_API_KEY", &c.Voice.APIKey)
	str("HANDSIGNAL_LOG_FILE", &c.Log.File)
	str("HANDSIGNAL_DATA_DIR", &c.DataDir)
	flag("HANDSIGNAL_TRAY", &c.Tray)
	flag("HANDSIGNAL_RESUME_LAST_MODE", &c.ResumeLastMode)

	// An explicit empty value disables the server.
	if v, ok := lookup(getenv, "HANDSIGNAL_SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	return errors.Join(errs...)
}

// lookup distinguishes "unset" from "set to empty" for getenv functions that
// only return strings: "-" and "off" both mean empty.
func lookup(getenv func(string) string, name string) (string, bool) {
	v := getenv(name)
	switch strings.ToLower(v) {
	case "":
		return "", false
	case "-", "off":
		return "", true
	}
	return v, true
}

// Validate checks the configuration for values the components cannot use.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Serial.Port) == "" {
		errs = append(errs, errors.New("serial.port is required (use \"auto\" to discover)"))
	}
	if _, err := c.Serial.Options.Normalize(); err != nil {
		errs = append(errs, fmt.Errorf("serial: %w", err))
	}
	if c.Serial.Options.BaudRate < 0 {
		errs = append(errs, fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.Options.BaudRate))
	}
	if c.Serial.Settle < 0 {
		errs = append(errs, fmt.Errorf("serial.settle must not be negative, got %v", c.Serial.Settle))
	}
	if c.Camera.Device < 0 {
		errs = append(errs, fmt.Errorf("camera.device must not be negative, got %d", c.Camera.Device))
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > 120 {
		errs = append(errs, fmt.Errorf("camera.fps must be between 1 and 120, got %d", c.Camera.FPS))
	}
	if c.Camera.WristbandThreshold < 0 {
		errs = append(errs, fmt.Errorf("camera.wristband_threshold must not be negative, got %d", c.Camera.WristbandThreshold))
	}
	if c.Voice.SampleRate < 8000 {
		errs = append(errs, fmt.Errorf("voice.sample_rate must be at least 8000, got %d", c.Voice.SampleRate))
	}
	if c.Voice.ListenTimeout <= 0 {
		errs = append(errs, errors.New("voice.listen_timeout must be positive"))
	}
	if c.Voice.PhraseLimit <= 0 {
		errs = append(errs, errors.New("voice.phrase_limit must be positive"))
	}
	if c.Voice.Calibration < 0 {
		errs = append(errs, errors.New("voice.calibration must not be negative"))
	}
	if c.Server.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
			errs = append(errs, fmt.Errorf("server.addr %q: %w", c.Server.Addr, err))
		}
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}

	return errors.Join(errs...)
}
