package synth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"dialoguereel/internal/audio"
	"dialoguereel/internal/dialogue"
)

// SpeechConfig configures an OpenAI compatible /v1/audio/speech service
// such as a local Kokoro server
type SpeechConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Voices  map[dialogue.SpeakerID]string
	Speed   float64
	Timeout time.Duration
	Retry   Retry
}

// SpeechSynthesizer calls an OpenAI compatible speech endpoint
type SpeechSynthesizer struct {
	config SpeechConfig
	client *http.Client
	logger *zap.Logger
}

var _ Synthesizer = (*SpeechSynthesizer)(nil)

// NewSpeechSynthesizer creates a synthesizer for config
func NewSpeechSynthesizer(config SpeechConfig, logger *zap.Logger) *SpeechSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Model == "" {
		config.Model = "kokoro"
	}
	if config.Speed <= 0 {
		config.Speed = 1.0
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &SpeechSynthesizer{
		config: config,
		client: newHTTPClient(config.Timeout),
		logger: logger,
	}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Synthesize requests wav speech for text in the speaker's voice
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text string, voice dialogue.SpeakerID) (*Speech, error) {
	if err := validateText(text); err != nil {
		return nil, NewSynthesisError(voice, text, err)
	}
	voiceName, ok := s.config.Voices[voice]
	if !ok || voiceName == "" {
		return nil, NewSynthesisError(voice, text, fmt.Errorf("%w: no voice for %s", ErrUnsupportedVoice, voice))
	}
	if s.config.BaseURL == "" {
		return nil, NewSynthesisError(voice, text, fmt.Errorf("speech service base url is not configured"))
	}

	headers := map[string]string{"Accept": "audio/wav"}
	if s.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.config.APIKey
	}
	payload := speechRequest{
		Model:          s.config.Model,
		Input:          text,
		Voice:          voiceName,
		ResponseFormat: "wav",
		Speed:          s.config.Speed,
	}

	data, contentType, err := postWithRetry(ctx, s.client, s.config.Retry, s.logger, s.config.BaseURL+"/v1/audio/speech", headers, payload)
	if err != nil {
		s.logger.Warn("speech synthesis failed", zap.String("voice", voice.String()), zap.Error(err))
		return nil, NewSynthesisError(voice, text, err)
	}

	format := FormatFromContentType(contentType)
	if contentType == "" {
		format = audio.FormatWAV
	}
	speech, err := MeasureSpeech(data, format)
	if err != nil {
		return nil, NewSynthesisError(voice, text, fmt.Errorf("failed to measure speech: %w", err))
	}

	s.logger.Debug("speech synthesized",
		zap.String("voice", voice.String()),
		zap.Duration("duration", speech.Duration))
	return speech, nil
}
