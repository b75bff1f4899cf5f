package app

import (
	"fmt"
	"log"

	"github.com/ayusman/handsignal/internal/command"
	"github.com/ayusman/handsignal/internal/voice"
)

// LabelMicrophoneError is the cycle label when the microphone cannot be used.
const LabelMicrophoneError = "Microphone error"

// runVoice is the voice worker. Every listening window dispatches exactly
// one command; windows without a matching keyword dispatch OFF.
func (c *Controller) runVoice(w *worker) {
	l := c.cfg.Listener
	opened := false

	defer close(w.done)
	defer c.exit(w, func() {
		if !opened {
			return
		}
		if err := l.Close(); err != nil {
			log.Printf("Error closing microphone: %v", err)
		}
	})

	for w.running.Load() {
		if !opened {
			if err := l.Open(w.ctx); err != nil {
				log.Printf("Error opening microphone: %v", err)
				c.finishCycle(w, LabelMicrophoneError, command.Off)
				if !w.wait(c.cfg.RetryInterval) {
					return
				}
				continue
			}
			opened = true
		}

		u, err := l.Listen(w.ctx)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			log.Printf("Error listening: %v", err)
			l.Close()
			opened = false
			c.finishCycle(w, LabelMicrophoneError, command.Off)
			if !w.wait(c.cfg.RetryInterval) {
				return
			}
			continue
		}

		cmd := c.cfg.Classifier.Classify(u)
		c.finishCycle(w, voiceLabel(u, cmd), cmd)
	}
}

func voiceLabel(u voice.Utterance, cmd command.Command) string {
	if u.HasText() {
		return fmt.Sprintf("Heard %q - %s", u.Text, cmd)
	}
	switch u.Signal {
	case voice.SignalTimeout:
		return "No speech - " + cmd.String()
	case voice.SignalUnrecognized:
		return "Could not understand audio - " + cmd.String()
	default:
		return "Speech service error - " + cmd.String()
	}
}
