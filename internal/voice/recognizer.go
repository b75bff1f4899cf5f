package voice

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for transcription.
const DefaultModel = "gemini-2.0-flash"

var (
	// ErrUnrecognized is returned when speech was heard but not understood.
	ErrUnrecognized = errors.New("could not understand audio")
	// ErrService is returned when the recognition backend fails.
	ErrService = errors.New("speech service error")
)

// Recognizer transcribes a recorded phrase.
type Recognizer interface {
	Recognize(ctx context.Context, clip Clip) (string, error)
}

// noSpeech is what the model is asked to answer for clips without words.
const noSpeech = "NO_SPEECH"

const transcribePrompt = "Transcribe the spoken words in this audio clip. " +
	"Reply with the transcript only, in lower case, without punctuation. " +
	"If there are no intelligible words, reply with " + noSpeech + "."

// GeminiRecognizer transcribes clips with the Gemini API.
type GeminiRecognizer struct {
	client *genai.Client
	model  string
}

// NewGeminiRecognizer creates a recognizer for apiKey. An empty model uses
// DefaultModel.
func NewGeminiRecognizer(ctx context.Context, apiKey, model string) (*GeminiRecognizer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}

	tr := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	hc := &http.Client{Transport: tr, Timeout: 30 * time.Second}
	reqTimeout := 15 * time.Second

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
		HTTPOptions: genai.HTTPOptions{
			APIVersion: "v1",
			Timeout:    &reqTimeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiRecognizer{client: client, model: model}, nil
}

// Recognize sends clip as WAV and returns the transcript.
func (g *GeminiRecognizer) Recognize(ctx context.Context, clip Clip) (string, error) {
	if len(clip.Samples) == 0 {
		return "", ErrUnrecognized
	}

	parts := []*genai.Part{
		{Text: transcribePrompt},
		{InlineData: &genai.Blob{Data: EncodeWAV(clip), MIMEType: "audio/wav"}},
	}
	temp := float32(0)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: 256,
	}

	var lastErr error
	for i := 0; i < 2; i++ {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{{Parts: parts}}, cfg)
		if err != nil {
			lastErr = err
			if retriable(err) && ctx.Err() == nil {
				time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
				continue
			}
			break
		}
		return parseTranscript(resp.Text())
	}
	return "", fmt.Errorf("%w: %v", ErrService, lastErr)
}

func parseTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, noSpeech) {
		return "", ErrUnrecognized
	}
	return text, nil
}

func retriable(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected EOF") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection reset")
}

// UnavailableRecognizer fails every request with ErrService. It stands in
// when no recognition backend is configured.
type UnavailableRecognizer struct {
	Reason string
}

// Recognize always returns ErrService.
func (u UnavailableRecognizer) Recognize(ctx context.Context, clip Clip) (string, error) {
	if u.Reason == "" {
		return "", ErrService
	}
	return "", fmt.Errorf("%w: %s", ErrService, u.Reason)
}
