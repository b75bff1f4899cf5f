package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ayusman/handsignal/internal/actuator"
	"github.com/ayusman/handsignal/internal/app"
	"github.com/ayusman/handsignal/internal/capture"
	"github.com/ayusman/handsignal/internal/command"
	"github.com/ayusman/handsignal/internal/config"
	"github.com/ayusman/handsignal/internal/detector"
	"github.com/ayusman/handsignal/internal/server"
	"github.com/ayusman/handsignal/internal/store"
	"github.com/ayusman/handsignal/internal/tray"
	"github.com/ayusman/handsignal/internal/voice"
	"github.com/ayusman/handsignal/internal/wristband"
)

type options struct {
	configPath string
	envFile    string
	port       string
	camera     int
	addr       string
	mode       string
	noTray     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config.yaml (default ~/.handsignal/config.yaml)")
	flag.StringVar(&opts.envFile, "env", ".env", "dotenv file with HANDSIGNAL_* and GEMINI_API_KEY")
	flag.StringVar(&opts.port, "port", "", `serial port of the LED controller, or "auto"`)
	flag.IntVar(&opts.camera, "camera", -1, "camera device index")
	flag.StringVar(&opts.addr, "addr", "", `control surface address ("off" disables)`)
	flag.StringVar(&opts.mode, "mode", "", "mode to start in: fist, fingers or voice")
	flag.BoolVar(&opts.noTray, "no-tray", false, "run without the system tray")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// A missing .env file is fine
	_ = godotenv.Load(opts.envFile)

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	fmt.Println("Handsignal - gesture and voice LED control")

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	// Stored settings sit below the environment and flags.
	stored, err := st.Settings().Map()
	if err != nil {
		return err
	}
	if err := cfg.ApplySettings(stored); err != nil {
		log.Printf("Ignoring stored settings: %v", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if closer := setupLogging(cfg.Log); closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The actuator is opened once. Without it every dispatch is a logged no-op.
	var link command.Link
	serialLink, err := actuator.Open(cfg.Serial.Port, cfg.Serial.Options, cfg.Serial.Settle, actuator.SerialOpener)
	if err != nil {
		log.Printf("Error connecting to actuator: %v", err)
		log.Printf("Continuing without actuator")
	} else {
		log.Printf("Actuator connected on %s", serialLink.Path())
		link = serialLink
		defer serialLink.Close()
	}
	dispatcher := command.NewDispatcher(link)

	camera := capture.NewCamera(cfg.Camera.Device)
	camera.SetFPS(cfg.Camera.FPS)

	var handDetector detector.Detector
	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		log.Printf("Hand detection unavailable, camera modes disabled: %v", err)
	} else {
		handDetector = mp
		defer mp.Close()
	}

	gate := wristband.NewGate()
	gate.SetThreshold(cfg.Camera.WristbandThreshold)

	listener := newListener(ctx, cfg.Voice)

	preview := capture.NewPreview()
	settings := st.Settings()

	ctrlCfg := app.Config{
		Dispatcher: dispatcher,
		Camera:     camera,
		Detector:   handDetector,
		Gate:       gate,
		Preview:    preview,
		OnSelect: func(m app.Mode) {
			if m == app.ModeIdle {
				return
			}
			if err := settings.Set(store.KeyLastMode, m.String()); err != nil {
				log.Printf("Failed to save last mode: %v", err)
			}
		},
	}
	if listener != nil {
		ctrlCfg.Listener = listener
	}
	ctrl := app.NewController(ctrlCfg)
	defer ctrl.Close()

	var srv *server.Server
	if cfg.Server.Addr != "" {
		ln, err := net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("control surface: %w", err)
		}
		if !isLoopback(ln.Addr()) {
			log.Printf("Warning: control surface is reachable from the network on %s", ln.Addr())
		}
		srv = server.New(server.Config{
			StaticDir:  findWebDir(cfg.DataDir),
			Store:      st,
			Controller: ctrl,
			Preview:    preview,
		})
		go func() {
			if err := srv.Serve(ln); err != nil {
				log.Printf("Control surface failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	start, err := startMode(opts.mode, cfg.ResumeLastMode, settings)
	if err != nil {
		log.Printf("Not starting a mode: %v", err)
	}
	if start != app.ModeIdle {
		if err := ctrl.Select(start); err != nil {
			log.Printf("Failed to start %s mode: %v", start, err)
		}
	}

	if !cfg.Tray {
		log.Printf("Status: %s", ctrl.Status())
		<-ctx.Done()
		log.Printf("Shutting down")
		return nil
	}

	t := tray.New()
	for _, m := range app.Modes {
		if !ctrl.Available(m) {
			t.Disable(m)
		}
	}
	t.SetStatus(ctrl.Mode(), ctrl.Status())
	t.OnSelect(func(m app.Mode) {
		if err := ctrl.Select(m); err != nil {
			log.Printf("Failed to select %s mode: %v", m, err)
		}
	})
	t.OnStopAll(ctrl.StopAll)
	t.OnSettings(func() {
		if cfg.Server.Addr == "" {
			log.Printf("Control surface is disabled")
			return
		}
		openBrowser("http://" + cfg.Server.Addr + "/")
	})
	t.OnQuit(stop)

	events, unsubscribe := ctrl.Subscribe(64)
	defer unsubscribe()
	go t.Follow(events)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	// Run blocks until Quit.
	t.Run()
	log.Printf("Shutting down")
	return nil
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.port != "" {
		cfg.Serial.Port = opts.port
	}
	if opts.camera >= 0 {
		cfg.Camera.Device = opts.camera
	}
	switch opts.addr {
	case "":
	case "off", "-":
		cfg.Server.Addr = ""
	default:
		cfg.Server.Addr = opts.addr
	}
	if opts.noTray {
		cfg.Tray = false
	}
}

// setupLogging tees the standard logger into a rotating file when one is
// configured. The returned closer is nil otherwise.
func setupLogging(lc config.LogConfig) io.Closer {
	if lc.File == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(lc.File), 0755); err != nil {
		log.Printf("Failed to create log directory: %v", err)
		return nil
	}
	rotator := &lumberjack.Logger{
		Filename:   lc.File,
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}

// newListener builds the voice pipeline, or returns nil when no microphone
// capture tool is installed.
func newListener(ctx context.Context, vc config.VoiceConfig) *voice.Listener {
	if _, err := exec.LookPath("arecord"); err != nil {
		log.Printf("Microphone capture unavailable, voice mode disabled: %v", err)
		return nil
	}

	source := voice.NewSource(voice.SourceConfig{
		Device:      vc.Device,
		SampleRate:  vc.SampleRate,
		Calibration: vc.Calibration,
	}, voice.ArecordOpener)

	var recognizer voice.Recognizer
	if vc.APIKey == "" {
		log.Printf("No speech API key configured; voice windows will report service errors")
		recognizer = voice.UnavailableRecognizer{Reason: "no API key configured"}
	} else {
		gemini, err := voice.NewGeminiRecognizer(ctx, vc.APIKey, vc.Model)
		if err != nil {
			log.Printf("Speech recognizer unavailable: %v", err)
			recognizer = voice.UnavailableRecognizer{Reason: err.Error()}
		} else {
			recognizer = gemini
		}
	}

	return voice.NewListener(source, recognizer, voice.ListenerConfig{
		Timeout:     vc.ListenTimeout,
		PhraseLimit: vc.PhraseLimit,
	})
}

// startMode picks the mode to enter at startup: the -mode flag, else the
// last stored mode when resuming is enabled.
func startMode(flagMode string, resume bool, settings *store.SettingsRepository) (app.Mode, error) {
	if flagMode != "" {
		return app.ParseMode(flagMode)
	}
	if !resume {
		return app.ModeIdle, nil
	}
	last, err := settings.Get(store.KeyLastMode)
	if errors.Is(err, store.ErrNotFound) {
		return app.ModeIdle, nil
	}
	if err != nil {
		return app.ModeIdle, err
	}
	return app.ParseMode(last)
}

func isLoopback(addr net.Addr) bool {
	tcp, ok := addr.(*net.TCPAddr)
	return ok && tcp.IP.IsLoopback()
}

// findWebDir searches for an optional control panel directory.
// It checks "web", "../web" and <data dir>/web.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", filepath.Join("..", "web"), filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Open %s in a browser: %v", url, err)
	}
}
