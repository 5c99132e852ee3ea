package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"dialoguereel/internal/backend"
	"dialoguereel/internal/config"
	"dialoguereel/internal/dialogue"
	"dialoguereel/internal/logger"
	"dialoguereel/internal/performance"
	"dialoguereel/internal/render"
	"dialoguereel/internal/storage"
	"dialoguereel/internal/synth"
	"dialoguereel/internal/timeline"
)

// VoiceLister is implemented by synthesizers that can enumerate their voices
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]synth.VoiceInfo, error)
}

// StoreFactory opens the object store used to publish a corpus
type StoreFactory func(ctx context.Context) (storage.ObjectStore, error)

// Components are the collaborators of an Application. Nil fields are built
// from the configuration.
type Components struct {
	Fs          afero.Fs
	Logger      *zap.Logger
	Synthesizer synth.Synthesizer
	Backend     backend.Backend
	Store       StoreFactory
}

// Application orchestrates corpus builds and dialogue renders
type Application struct {
	config      *config.Configuration
	fs          afero.Fs
	zapLogger   *zap.Logger
	roster      *dialogue.Roster
	renderCfg   render.Config
	synthesizer synth.Synthesizer
	voiceLister VoiceLister
	monitor     *performance.SynthesisMonitor
	backend     backend.Backend
	store       StoreFactory
	reports     *logger.ReportLog
	health      *JobHealth
}

// LoadConfiguration reads CONFIG_PATH when set, otherwise the environment
func LoadConfiguration() (*config.Configuration, error) {
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		cfg, err := config.NewConfigurationFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.NewConfigurationFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return cfg, nil
}

// NewApplication creates a new application instance with all components initialized
func NewApplication() (*Application, error) {
	cfg, err := LoadConfiguration()
	if err != nil {
		return nil, err
	}

	return NewApplicationWithComponents(cfg, Components{})
}

// NewApplicationWithComponents creates an application from cfg, using the
// given collaborators where set
func NewApplicationWithComponents(cfg *config.Configuration, components Components) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	zapLogger := components.Logger
	if zapLogger == nil {
		l, err := newLogger(cfg)
		if err != nil {
			return nil, err
		}
		zapLogger = l
	}
	fs := components.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	reports, err := logger.NewReportLog(fs, cfg.GetReportLogPath(), zapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create report log: %w", err)
	}

	app := &Application{
		config:    cfg,
		fs:        fs,
		zapLogger: zapLogger,
		roster:    cfg.Roster(),
		renderCfg: cfg.RenderConfig(),
		monitor:   performance.NewSynthesisMonitorWithBenchmark(zapLogger, cfg.GetSynthesisBenchmark()),
		reports:   reports,
		health:    NewJobHealth(),
	}

	base := components.Synthesizer
	if base == nil {
		base = app.newSynthesizer()
	}
	if lister, ok := base.(VoiceLister); ok {
		app.voiceLister = lister
	}
	app.synthesizer = performance.NewMonitoredSynthesizer(base, app.monitor)

	app.backend = components.Backend
	if app.backend == nil {
		app.backend = app.newBackend()
	}

	app.store = components.Store
	if app.store == nil && cfg.StorageEnabled() {
		app.store = func(ctx context.Context) (storage.ObjectStore, error) {
			return storage.NewMinIOStore(ctx, cfg.MinIOConfig())
		}
	}

	zapLogger.Info("application initialized",
		zap.Int("speakers", app.roster.Len()),
		zap.String("synthesis_provider", cfg.GetSynthesisProvider()),
		zap.String("render_backend", cfg.GetRenderBackend()),
		zap.Bool("storage_enabled", app.store != nil),
		zap.String("report_log", reports.GetFilePath()))

	return app, nil
}

// newLogger builds the logger named by log.format and log.level
func newLogger(cfg *config.Configuration) (*zap.Logger, error) {
	switch {
	case cfg.GetLogFormat() == config.LogFormatConsole:
		return logger.NewDevelopmentLogger()
	case cfg.GetLogLevel() == "":
		return logger.NewProductionLogger()
	default:
		return logger.NewLoggerWithLevel(cfg.GetLogLevel())
	}
}

func (app *Application) newSynthesizer() synth.Synthesizer {
	if app.config.GetSynthesisProvider() == config.ProviderSpeech {
		return synth.NewSpeechSynthesizer(app.config.SpeechConfig(), app.zapLogger)
	}
	return synth.NewElevenLabsSynthesizer(app.config.ElevenLabsConfig(), app.zapLogger)
}

func (app *Application) newBackend() backend.Backend {
	if app.config.GetRenderBackend() == config.BackendJSON {
		return backend.NewJSONBackend(app.fs, app.zapLogger)
	}
	return backend.NewFFmpegBackendWithPath(app.fs, app.config.GetFFmpegPath(), app.zapLogger)
}

// Logger returns the application logger
func (app *Application) Logger() *zap.Logger {
	return app.zapLogger
}

// Roster returns the configured speakers
func (app *Application) Roster() *dialogue.Roster {
	return app.roster
}

// RenderConfig returns the static render configuration
func (app *Application) RenderConfig() render.Config {
	return app.renderCfg
}

// ListenAddress returns the configured HTTP address
func (app *Application) ListenAddress() string {
	return app.config.GetServerAddress()
}

// Health returns a snapshot of job counters and synthesis metrics
func (app *Application) Health() HealthStatus {
	status := app.health.Snapshot()
	status.Synthesis = app.monitor.GetMetrics()
	return status
}

// SynthesisSummary returns the human readable synthesis metrics
func (app *Application) SynthesisSummary() string {
	return app.monitor.GetPerformanceSummary()
}

// ListVoices enumerates the voices of the configured provider
func (app *Application) ListVoices(ctx context.Context) ([]synth.VoiceInfo, error) {
	if app.voiceLister == nil {
		return nil, fmt.Errorf("synthesis provider %s cannot list voices", app.config.GetSynthesisProvider())
	}
	return app.voiceLister.ListVoices(ctx)
}

func (app *Application) compositor() *timeline.Compositor {
	return timeline.NewCompositorWithLogger(timeline.Options{
		CaptionFontSize:    app.renderCfg.Caption.FontSize,
		CaptionMaxWidthPx:  app.renderCfg.Caption.MaxWidthPx,
		BackgroundMixLevel: app.renderCfg.Background.MixLevel,
	}, app.zapLogger)
}

func (app *Application) record(kind string, report interface{}) {
	if err := app.reports.Record(kind, report); err != nil {
		app.zapLogger.Warn("failed to record report", zap.String("kind", kind), zap.Error(err))
	}
}
