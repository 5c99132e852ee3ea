package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"dialoguereel/internal/dialogue"
	"dialoguereel/internal/render"
	"dialoguereel/internal/storage"
	"dialoguereel/internal/synth"
	"dialoguereel/internal/transcript"
)

// Synthesis providers
const (
	ProviderElevenLabs = "elevenlabs"
	ProviderSpeech     = "speech"
)

// Render backends
const (
	BackendFFmpeg = "ffmpeg"
	BackendJSON   = "json"
)

// Log formats
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("corpus.min_duration_sec", 1.0)
	v.SetDefault("corpus.max_duration_sec", 10.0)
	v.SetDefault("corpus.collision_policy", string(transcript.CollisionShared))
	v.SetDefault("corpus.workers", 4)
	v.SetDefault("corpus.train_ratio", 0.8)

	v.SetDefault("canvas.width", 1080)
	v.SetDefault("canvas.height", 1920)
	v.SetDefault("canvas.fps", 30)

	v.SetDefault("caption.font_size", 60)
	v.SetDefault("caption.color", "white")
	v.SetDefault("caption.stroke_color", "black")
	v.SetDefault("caption.stroke_width", 3)
	v.SetDefault("caption.max_width_px", 1000)
	v.SetDefault("caption.position.x", "center")
	v.SetDefault("caption.position.y", "top")

	v.SetDefault("background.mix_level", 0.3)

	v.SetDefault("synthesis.provider", ProviderElevenLabs)
	v.SetDefault("synthesis.stability", synth.DefaultStability)
	v.SetDefault("synthesis.similarity_boost", synth.DefaultSimilarityBoost)
	v.SetDefault("synthesis.speed", 1.0)
	v.SetDefault("synthesis.workers", 1)
	v.SetDefault("synthesis.timeout_sec", 60)
	v.SetDefault("synthesis.max_attempts", 1)
	v.SetDefault("synthesis.backoff_ms", 500)
	v.SetDefault("synthesis.benchmark", false)

	v.SetDefault("render.backend", BackendFFmpeg)
	v.SetDefault("render.workspace_dir", "./workspace")
	v.SetDefault("render.coalesce_overlays", false)
	v.SetDefault("ffmpeg.path", "ffmpeg")

	v.SetDefault("storage.prefix", "corpus")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.overwrite", false)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", LogFormatJSON)
	v.SetDefault("log.report_path", "./logs/reports.jsonl")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("REEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider credentials are also honoured under their usual names
	v.BindEnv("synthesis.api_key", "REEL_SYNTHESIS_API_KEY", "ELEVENLABS_API_KEY")
	v.BindEnv("storage.access_key", "REEL_STORAGE_ACCESS_KEY", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "REEL_STORAGE_SECRET_KEY", "MINIO_SECRET_KEY")
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file.
// Environment variables still override file values.
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return &Configuration{viper: v}, nil
}

// Set overrides a single key
func (c *Configuration) Set(key string, value interface{}) {
	c.viper.Set(key, value)
}

// speakerTable returns the raw speakers section keyed by speaker name
func (c *Configuration) speakerTable() map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{})
	for name, raw := range c.viper.GetStringMap("speakers") {
		out[name] = cast.ToStringMap(raw)
	}
	return out
}

// GetSpeakers returns the speaker names. An explicit roster list fixes the
// order; otherwise the speakers table is used in name order.
func (c *Configuration) GetSpeakers() []string {
	if names := c.viper.GetStringSlice("roster"); len(names) > 0 {
		return names
	}
	table := c.speakerTable()
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Roster builds the closed speaker set
func (c *Configuration) Roster() *dialogue.Roster {
	return dialogue.NewRoster(c.GetSpeakers()...)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// GetMinDuration returns the shortest accepted utterance
func (c *Configuration) GetMinDuration() time.Duration {
	return seconds(c.viper.GetFloat64("corpus.min_duration_sec"))
}

// GetMaxDuration returns the longest accepted utterance
func (c *Configuration) GetMaxDuration() time.Duration {
	return seconds(c.viper.GetFloat64("corpus.max_duration_sec"))
}

// GetCollisionPolicy returns the multi-marker policy
func (c *Configuration) GetCollisionPolicy() (transcript.CollisionPolicy, error) {
	return transcript.ParseCollisionPolicy(c.viper.GetString("corpus.collision_policy"))
}

// GetCorpusWorkers returns the segmenter worker count
func (c *Configuration) GetCorpusWorkers() int {
	return c.viper.GetInt("corpus.workers")
}

// GetTrainRatio returns the per-speaker training share
func (c *Configuration) GetTrainRatio() float64 {
	return c.viper.GetFloat64("corpus.train_ratio")
}

// GetSynthesisProvider returns elevenlabs or speech
func (c *Configuration) GetSynthesisProvider() string {
	return strings.ToLower(c.viper.GetString("synthesis.provider"))
}

// GetSynthesisBaseURL returns the provider base URL, empty for the provider default
func (c *Configuration) GetSynthesisBaseURL() string {
	return c.viper.GetString("synthesis.base_url")
}

// GetSynthesisAPIKey returns the provider credential
func (c *Configuration) GetSynthesisAPIKey() string {
	return c.viper.GetString("synthesis.api_key")
}

// GetSynthesisModel returns the provider model id
func (c *Configuration) GetSynthesisModel() string {
	return c.viper.GetString("synthesis.model")
}

// GetSynthesisWorkers returns how many lines are synthesized at once
func (c *Configuration) GetSynthesisWorkers() int {
	return c.viper.GetInt("synthesis.workers")
}

// GetSynthesisTimeout returns the per request timeout
func (c *Configuration) GetSynthesisTimeout() time.Duration {
	return seconds(c.viper.GetFloat64("synthesis.timeout_sec"))
}

// GetSynthesisRetry returns the retry policy for synthesis requests
func (c *Configuration) GetSynthesisRetry() synth.Retry {
	return synth.Retry{
		MaxAttempts: c.viper.GetInt("synthesis.max_attempts"),
		BaseBackoff: time.Duration(c.viper.GetInt("synthesis.backoff_ms")) * time.Millisecond,
	}
}

// GetVoices returns the provider voice id per speaker
func (c *Configuration) GetVoices() map[dialogue.SpeakerID]string {
	voices := make(map[dialogue.SpeakerID]string)
	for name, fields := range c.speakerTable() {
		if voice := cast.ToString(fields["voice"]); voice != "" {
			voices[dialogue.SpeakerID(strings.ToLower(name))] = voice
		}
	}
	return voices
}

// ElevenLabsConfig assembles the ElevenLabs client settings. A speaker entry
// may override stability and similarity_boost.
func (c *Configuration) ElevenLabsConfig() synth.ElevenLabsConfig {
	stability := c.viper.GetFloat64("synthesis.stability")
	similarity := c.viper.GetFloat64("synthesis.similarity_boost")

	voices := make(map[dialogue.SpeakerID]synth.VoiceSettings)
	for name, fields := range c.speakerTable() {
		voiceID := cast.ToString(fields["voice"])
		if voiceID == "" {
			continue
		}
		settings := synth.VoiceSettings{VoiceID: voiceID, Stability: stability, SimilarityBoost: similarity}
		if v, ok := fields["stability"]; ok {
			settings.Stability = cast.ToFloat64(v)
		}
		if v, ok := fields["similarity_boost"]; ok {
			settings.SimilarityBoost = cast.ToFloat64(v)
		}
		voices[dialogue.SpeakerID(strings.ToLower(name))] = settings
	}

	return synth.ElevenLabsConfig{
		BaseURL: c.GetSynthesisBaseURL(),
		APIKey:  c.GetSynthesisAPIKey(),
		ModelID: c.GetSynthesisModel(),
		Voices:  voices,
		Timeout: c.GetSynthesisTimeout(),
		Retry:   c.GetSynthesisRetry(),
	}
}

// SpeechConfig assembles the OpenAI compatible speech client settings
func (c *Configuration) SpeechConfig() synth.SpeechConfig {
	return synth.SpeechConfig{
		BaseURL: c.GetSynthesisBaseURL(),
		APIKey:  c.GetSynthesisAPIKey(),
		Model:   c.GetSynthesisModel(),
		Voices:  c.GetVoices(),
		Speed:   c.viper.GetFloat64("synthesis.speed"),
		Timeout: c.GetSynthesisTimeout(),
		Retry:   c.GetSynthesisRetry(),
	}
}

func position(fields map[string]interface{}) render.Position {
	pos := cast.ToStringMap(fields["position"])
	return render.Position{X: cast.ToString(pos["x"]), Y: cast.ToString(pos["y"])}
}

// RenderConfig assembles the static render configuration
func (c *Configuration) RenderConfig() render.Config {
	cfg := render.Config{
		Canvas: render.Canvas{
			Width:  c.viper.GetInt("canvas.width"),
			Height: c.viper.GetInt("canvas.height"),
			FPS:    c.viper.GetInt("canvas.fps"),
		},
		Speakers: make(map[dialogue.SpeakerID]render.SpeakerStyle),
		Caption: render.CaptionStyle{
			FontSize:    c.viper.GetInt("caption.font_size"),
			FontFile:    c.viper.GetString("caption.font_file"),
			Color:       c.viper.GetString("caption.color"),
			StrokeColor: c.viper.GetString("caption.stroke_color"),
			StrokeWidth: c.viper.GetInt("caption.stroke_width"),
			MaxWidthPx:  c.viper.GetInt("caption.max_width_px"),
			Position: render.Position{
				X: c.viper.GetString("caption.position.x"),
				Y: c.viper.GetString("caption.position.y"),
			},
		},
		Background: render.BackgroundStyle{
			Source:   c.viper.GetString("background.source"),
			MixLevel: c.viper.GetFloat64("background.mix_level"),
		},
	}

	for name, fields := range c.speakerTable() {
		cfg.Speakers[dialogue.SpeakerID(strings.ToLower(name))] = render.SpeakerStyle{
			Image:        cast.ToString(fields["image"]),
			Position:     position(fields),
			DisplayWidth: cast.ToInt(fields["display_width"]),
			Voice:        cast.ToString(fields["voice"]),
		}
	}
	return cfg
}

// GetRenderBackend returns ffmpeg or json
func (c *Configuration) GetRenderBackend() string {
	return strings.ToLower(c.viper.GetString("render.backend"))
}

// GetWorkspaceDir returns where per-job voice files are written
func (c *Configuration) GetWorkspaceDir() string {
	return c.viper.GetString("render.workspace_dir")
}

// GetFFmpegPath returns the ffmpeg binary
func (c *Configuration) GetFFmpegPath() string {
	return c.viper.GetString("ffmpeg.path")
}

// StorageEnabled reports whether an object store endpoint is configured
func (c *Configuration) StorageEnabled() bool {
	return c.viper.GetString("storage.endpoint") != ""
}

// MinIOConfig returns the object store connection settings
func (c *Configuration) MinIOConfig() storage.MinIOConfig {
	return storage.MinIOConfig{
		Endpoint:  c.viper.GetString("storage.endpoint"),
		AccessKey: c.viper.GetString("storage.access_key"),
		SecretKey: c.viper.GetString("storage.secret_key"),
		Bucket:    c.viper.GetString("storage.bucket"),
		UseSSL:    c.viper.GetBool("storage.use_ssl"),
	}
}

// GetStoragePrefix returns the key prefix for published corpora
func (c *Configuration) GetStoragePrefix() string {
	return c.viper.GetString("storage.prefix")
}

// GetStorageOverwrite reports whether existing objects are replaced
func (c *Configuration) GetStorageOverwrite() bool {
	return c.viper.GetBool("storage.overwrite")
}

// GetServerAddress returns the HTTP listen address
func (c *Configuration) GetServerAddress() string {
	return c.viper.GetString("server.address")
}

// GetLogLevel returns the zap level name
// GetLogFormat returns json or console
func (c *Configuration) GetLogFormat() string {
	return c.viper.GetString("log.format")
}

// GetCoalesceOverlays reports whether adjacent same-speaker overlays are merged
func (c *Configuration) GetCoalesceOverlays() bool {
	return c.viper.GetBool("render.coalesce_overlays")
}

// GetSynthesisBenchmark reports whether every synthesis call is logged
func (c *Configuration) GetSynthesisBenchmark() bool {
	return c.viper.GetBool("synthesis.benchmark")
}

func (c *Configuration) GetLogLevel() string {
	return c.viper.GetString("log.level")
}

// GetReportLogPath returns the JSON lines report file
func (c *Configuration) GetReportLogPath() string {
	return c.viper.GetString("log.report_path")
}

// Validate checks cross-field constraints
func (c *Configuration) Validate() error {
	if len(c.GetSpeakers()) == 0 {
		return fmt.Errorf("at least one speaker must be configured")
	}
	if _, err := c.GetCollisionPolicy(); err != nil {
		return err
	}
	if c.GetMinDuration() <= 0 || c.GetMaxDuration() <= c.GetMinDuration() {
		return fmt.Errorf("invalid duration bounds: min %v, max %v", c.GetMinDuration(), c.GetMaxDuration())
	}
	if ratio := c.GetTrainRatio(); ratio <= 0 || ratio > 1 {
		return fmt.Errorf("train ratio must be in (0, 1], got %v", ratio)
	}
	switch c.GetSynthesisProvider() {
	case ProviderElevenLabs, ProviderSpeech:
	default:
		return fmt.Errorf("unknown synthesis provider %q", c.GetSynthesisProvider())
	}
	switch c.GetRenderBackend() {
	case BackendFFmpeg, BackendJSON:
	default:
		return fmt.Errorf("unknown render backend %q", c.GetRenderBackend())
	}
	switch c.GetLogFormat() {
	case LogFormatJSON, LogFormatConsole:
	default:
		return fmt.Errorf("unknown log format %q", c.GetLogFormat())
	}
	if err := c.RenderConfig().Validate(); err != nil {
		return fmt.Errorf("invalid render configuration: %w", err)
	}
	return nil
}
