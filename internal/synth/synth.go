package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dialoguereel/internal/audio"
	"dialoguereel/internal/dialogue"
)

var (
	// ErrUnsupportedVoice is returned for speakers without a configured voice
	ErrUnsupportedVoice = errors.New("unsupported voice")
	// ErrUnsupportedText is returned for text the service cannot speak
	ErrUnsupportedText = errors.New("unsupported text")
)

// Speech is synthesized audio with its measured duration
type Speech struct {
	Data     []byte
	Format   string
	Clip     audio.Clip
	Duration time.Duration
}

// Synthesizer turns text into speech for one speaker's voice
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice dialogue.SpeakerID) (*Speech, error)
}

// SynthesisError wraps any failure of a synthesis call
type SynthesisError struct {
	Voice dialogue.SpeakerID
	Text  string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed for voice %s (%q): %v", e.Voice, truncate(e.Text, 40), e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// NewSynthesisError wraps err unless it already is a SynthesisError
func NewSynthesisError(voice dialogue.SpeakerID, text string, err error) error {
	var se *SynthesisError
	if errors.As(err, &se) {
		return err
	}
	return &SynthesisError{Voice: voice, Text: text, Err: err}
}

// MeasureSpeech decodes a synthesized payload and measures its duration
func MeasureSpeech(data []byte, format string) (*Speech, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}
	clip, err := audio.DecodeClip(data, format)
	if err != nil {
		return nil, err
	}
	return &Speech{
		Data:     data,
		Format:   format,
		Clip:     clip,
		Duration: clip.Duration(),
	}, nil
}

// FormatFromContentType maps a response content type onto a decoder name
func FormatFromContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "wav"), strings.Contains(ct, "wave"):
		return audio.FormatWAV
	default:
		return audio.FormatMP3
	}
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is empty", ErrUnsupportedText)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
