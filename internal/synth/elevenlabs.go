package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"dialoguereel/internal/dialogue"
)

// Defaults for the ElevenLabs text-to-speech API
const (
	DefaultElevenLabsURL   = "https://api.elevenlabs.io"
	DefaultElevenLabsModel = "eleven_monolingual_v1"
	DefaultStability       = 0.5
	DefaultSimilarityBoost = 0.75
)

// VoiceSettings binds a speaker to a provider voice
type VoiceSettings struct {
	VoiceID         string  `json:"voice_id"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// ElevenLabsConfig configures ElevenLabsSynthesizer
type ElevenLabsConfig struct {
	BaseURL string
	APIKey  string
	ModelID string
	Voices  map[dialogue.SpeakerID]VoiceSettings
	Timeout time.Duration
	Retry   Retry
}

// ElevenLabsSynthesizer calls the ElevenLabs text-to-speech endpoint
type ElevenLabsSynthesizer struct {
	config ElevenLabsConfig
	client *http.Client
	logger *zap.Logger
}

var _ Synthesizer = (*ElevenLabsSynthesizer)(nil)

// NewElevenLabsSynthesizer creates a synthesizer; empty fields take defaults
func NewElevenLabsSynthesizer(config ElevenLabsConfig, logger *zap.Logger) *ElevenLabsSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultElevenLabsURL
	}
	if config.ModelID == "" {
		config.ModelID = DefaultElevenLabsModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &ElevenLabsSynthesizer{
		config: config,
		client: newHTTPClient(config.Timeout),
		logger: logger,
	}
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize requests speech for text in the speaker's configured voice
func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string, voice dialogue.SpeakerID) (*Speech, error) {
	if err := validateText(text); err != nil {
		return nil, NewSynthesisError(voice, text, err)
	}
	settings, ok := s.config.Voices[voice]
	if !ok || settings.VoiceID == "" {
		return nil, NewSynthesisError(voice, text, fmt.Errorf("%w: no voice id for %s", ErrUnsupportedVoice, voice))
	}

	payload := elevenLabsRequest{
		Text:    text,
		ModelID: s.config.ModelID,
		VoiceSettings: elevenLabsSettings{
			Stability:       settings.Stability,
			SimilarityBoost: settings.SimilarityBoost,
		},
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", s.config.BaseURL, url.PathEscape(settings.VoiceID))
	headers := map[string]string{
		"Accept":     "audio/mpeg",
		"xi-api-key": s.config.APIKey,
	}

	data, contentType, err := postWithRetry(ctx, s.client, s.config.Retry, s.logger, endpoint, headers, payload)
	if err != nil {
		s.logger.Warn("ElevenLabs synthesis failed",
			zap.String("voice", voice.String()),
			zap.Error(err))
		return nil, NewSynthesisError(voice, text, err)
	}

	speech, err := MeasureSpeech(data, FormatFromContentType(contentType))
	if err != nil {
		return nil, NewSynthesisError(voice, text, fmt.Errorf("failed to measure speech: %w", err))
	}

	s.logger.Debug("ElevenLabs speech synthesized",
		zap.String("voice", voice.String()),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", speech.Duration))
	return speech, nil
}

// VoiceInfo describes one voice available to the account
type VoiceInfo struct {
	ID       string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ListVoices returns the voices visible to the configured API key
func (s *ElevenLabsSynthesizer) ListVoices(ctx context.Context) ([]VoiceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.BaseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", s.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var body struct {
		Voices []VoiceInfo `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode voices: %w", err)
	}
	return body.Voices, nil
}
