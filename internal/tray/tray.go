// Package tray provides the system tray control surface: one button per input
// mode, Stop All, and the current status text.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handsignal/internal/app"
)

var modeTitles = map[app.Mode]string{
	app.ModeFist:    "Fist Mode",
	app.ModeFingers: "Finger Count Mode",
	app.ModeVoice:   "Voice Mode",
}

// Tray represents the system tray application.
type Tray struct {
	onSelect   func(m app.Mode)
	onStopAll  func()
	onSettings func()
	onQuit     func()
	mode       app.Mode
	status     string
	label      string
	disabled   map[app.Mode]bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuLabel  *systray.MenuItem
	menuModes  map[app.Mode]*systray.MenuItem
}

// New creates a new Tray showing the idle status.
func New() *Tray {
	return &Tray{
		status:   app.StatusIdle,
		disabled: make(map[app.Mode]bool),
	}
}

// OnSelect sets the callback for the mode buttons.
func (t *Tray) OnSelect(fn func(m app.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSelect = fn
}

// OnStopAll sets the callback for the Stop All button.
func (t *Tray) OnStopAll(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStopAll = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Disable greys out the button of a mode whose sensor is missing.
// It must be called before Run.
func (t *Tray) Disable(m app.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disabled[m] = true
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Handsignal")
	systray.SetTooltip("Handsignal LED control")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Current status")
	t.menuStatus.Disable()
	t.menuLabel = systray.AddMenuItem(labelTitle(t.label), "Last command")
	t.menuLabel.Disable()
	systray.AddSeparator()

	t.menuModes = make(map[app.Mode]*systray.MenuItem, len(app.Modes))
	for _, m := range app.Modes {
		item := systray.AddMenuItemCheckbox(modeTitles[m], "Start "+modeTitles[m], m == t.mode)
		if t.disabled[m] {
			item.Disable()
		}
		t.menuModes[m] = item
		go t.watchMode(m, item)
	}
	t.mu.Unlock()

	menuStop := systray.AddMenuItem("Stop All", "Stop the active mode")
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Control Panel...", "Open the control panel in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Handsignal")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-menuStop.ClickedCh:
				t.handleStopAll()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) watchMode(m app.Mode, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.handleSelect(m)
	}
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleSelect handles a mode button click.
func (t *Tray) handleSelect(m app.Mode) {
	t.mu.RLock()
	callback := t.onSelect
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(m)
	}
}

// handleStopAll handles the Stop All click.
func (t *Tray) handleStopAll() {
	t.mu.RLock()
	callback := t.onStopAll
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status text and marks the running mode.
func (t *Tray) SetStatus(m app.Mode, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = m
	t.status = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(status)
	}
	for mode, item := range t.menuModes {
		if mode == m {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetLabel updates the last command display in the menu.
func (t *Tray) SetLabel(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.label = label
	if t.menuLabel != nil {
		t.menuLabel.SetTitle(labelTitle(label))
	}
}

// Status returns the displayed status text.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Label returns the displayed last command label.
func (t *Tray) Label() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.label
}

// Follow applies controller events to the menu until events is closed.
// Status events carry the mode of the worker that emitted them, so a
// "stopped" status shows no mode checked.
func (t *Tray) Follow(events <-chan app.Event) {
	for ev := range events {
		switch ev.Kind {
		case app.EventStatus:
			mode := ev.Mode
			if ev.Status == mode.StoppedStatus() {
				mode = app.ModeIdle
			}
			t.SetStatus(mode, ev.Status)
		case app.EventCycle:
			t.SetLabel(ev.Label)
		}
	}
}

func labelTitle(label string) string {
	if label == "" {
		return "Last: none"
	}
	return "Last: " + label
}

// Quit stops Run.
func (t *Tray) Quit() {
	systray.Quit()
}
