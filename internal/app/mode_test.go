package app

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ayusman/handsignal/internal/command"
	"github.com/ayusman/handsignal/internal/detector"
	"github.com/ayusman/handsignal/internal/gesture"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "fist", want: ModeFist},
		{in: " Fingers ", want: ModeFingers},
		{in: "finger", want: ModeFingers},
		{in: "VOICE", want: ModeVoice},
		{in: "stop", want: ModeIdle},
		{in: "", want: ModeIdle},
		{in: "thumbs", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMode) {
					t.Errorf("ParseMode(%q) error = %v, want ErrUnknownMode", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMode_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Mode Mode `json:"mode"`
	}{ModeFingers})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"mode":"fingers"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var m Mode
	if err := json.Unmarshal([]byte(`"voice"`), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m != ModeVoice {
		t.Errorf("Unmarshal() = %v, want voice", m)
	}
	if err := json.Unmarshal([]byte(`"laser"`), &m); err == nil {
		t.Error("Unmarshal() should reject unknown modes")
	}
}

func TestMode_Statuses(t *testing.T) {
	tests := []struct {
		mode    Mode
		running string
		stopped string
	}{
		{ModeFist, "Camera running in fist mode", "Camera stopped"},
		{ModeFingers, "Camera running in fingers mode", "Camera stopped"},
		{ModeVoice, "Voice control running", "Voice control stopped"},
		{ModeIdle, StatusIdle, StatusIdle},
	}
	for _, tt := range tests {
		if got := tt.mode.RunningStatus(); got != tt.running {
			t.Errorf("%v.RunningStatus() = %q, want %q", tt.mode, got, tt.running)
		}
		if got := tt.mode.StoppedStatus(); got != tt.stopped {
			t.Errorf("%v.StoppedStatus() = %q, want %q", tt.mode, got, tt.stopped)
		}
	}
}

func TestClassifyHands(t *testing.T) {
	left := detector.OpenPalmLandmarks().Mirror()
	right := detector.FistLandmarks()

	onlyRight := gateFunc(func(h *detector.HandLandmarks) bool { return h.Handedness == detector.Right })
	both := gateFunc(func(*detector.HandLandmarks) bool { return true })
	none := gateFunc(func(*detector.HandLandmarks) bool { return false })

	tests := []struct {
		name  string
		hands []detector.HandLandmarks
		gate  HandGate
		want  gesture.Kind
		cmd   command.Command
	}{
		{name: "no hands", hands: nil, gate: both, want: gesture.KindNone, cmd: command.Off},
		{name: "no wristband", hands: []detector.HandLandmarks{left, right}, gate: none, want: gesture.KindNoWristband, cmd: command.Off},
		{name: "first gated hand wins", hands: []detector.HandLandmarks{left, right}, gate: both, want: gesture.KindOpenPalm, cmd: command.Green},
		{name: "skips ungated hand", hands: []detector.HandLandmarks{left, right}, gate: onlyRight, want: gesture.KindFist, cmd: command.Red},
		{name: "nil gate accepts all", hands: []detector.HandLandmarks{right, left}, gate: nil, want: gesture.KindFist, cmd: command.Red},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, hand := classifyHands(nil, tt.hands, tt.gate, gesture.ClassifyFistMode)
			if res.Kind != tt.want || res.Command != tt.cmd {
				t.Errorf("classifyHands() = %v/%v, want %v/%v", res.Kind, res.Command, tt.want, tt.cmd)
			}
			if (hand == nil) != (tt.want == gesture.KindNone || tt.want == gesture.KindNoWristband) {
				t.Errorf("classifyHands() hand = %v", hand)
			}
		})
	}
}
