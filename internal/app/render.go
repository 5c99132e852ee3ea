package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"dialoguereel/internal/dialogue"
	"dialoguereel/internal/render"
	"dialoguereel/internal/synth"
	"dialoguereel/internal/timeline"
)

// RenderReport summarises one rendered dialogue
type RenderReport struct {
	JobID     string  `json:"job_id"`
	Title     string  `json:"title,omitempty"`
	Output    string  `json:"output"`
	Workspace string  `json:"workspace"`
	Lines     int     `json:"lines"`
	Duration  float64 `json:"duration"`
	Elements  int     `json:"elements"`
}

// PlanResult is a composed plan together with its render request
type PlanResult struct {
	Plan    timeline.Plan   `json:"plan"`
	Request *render.Request `json:"request"`
}

// Render synthesizes every line of script, writes the voice files into a
// per-job workspace, composes the timeline and hands the request to the
// backend. A synthesis failure is returned unchanged and stops the render.
func (app *Application) Render(ctx context.Context, script *dialogue.Script, outputPath string) (report *RenderReport, err error) {
	if script == nil || len(script.Lines) == 0 {
		return nil, dialogue.NewValidationError("dialogue script", "no dialogue lines")
	}
	if outputPath == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}

	app.health.renderStarted()
	defer func() { app.health.renderFinished(err) }()

	jobID := uuid.NewString()
	workspace := filepath.Join(app.config.GetWorkspaceDir(), jobID)
	if err := app.fs.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("failed to create render workspace: %w", err)
	}

	started := time.Now()
	app.zapLogger.Info("render started",
		zap.String("job_id", jobID),
		zap.String("title", script.Title),
		zap.Int("lines", len(script.Lines)))

	speeches, err := synth.SynthesizeLines(ctx, app.synthesizer, script.Lines, app.config.GetSynthesisWorkers())
	if err != nil {
		return nil, err
	}

	pairs := make([]timeline.Pair, len(script.Lines))
	for i, line := range script.Lines {
		source, err := app.writeVoice(workspace, i, line, speeches[i])
		if err != nil {
			return nil, err
		}
		pairs[i] = timeline.Pair{
			Line:  line,
			Voice: timeline.VoiceClip{Source: source, Duration: speeches[i].Duration},
		}
	}

	result, err := app.compose(pairs)
	if err != nil {
		return nil, err
	}
	result.Request.ID = jobID

	if err := app.backend.Render(ctx, result.Request, outputPath); err != nil {
		return nil, fmt.Errorf("render backend failed: %w", err)
	}

	report = &RenderReport{
		JobID:     jobID,
		Title:     script.Title,
		Output:    outputPath,
		Workspace: workspace,
		Lines:     len(script.Lines),
		Duration:  result.Request.Duration,
		Elements:  len(result.Request.Elements),
	}
	app.record("render", report)
	app.monitor.LogCurrentMetrics()
	app.zapLogger.Info("render complete",
		zap.String("job_id", jobID),
		zap.String("output", outputPath),
		zap.Float64("duration_sec", report.Duration),
		zap.Duration("elapsed", time.Since(started)))

	return report, nil
}

// Plan composes lines with caller supplied measured durations, without
// synthesis or rendering. Speakers are normalised against the roster.
func (app *Application) Plan(lines []dialogue.Line, durations []time.Duration) (*PlanResult, error) {
	if len(lines) != len(durations) {
		return nil, dialogue.NewValidationError("timeline request",
			"%d lines but %d durations", len(lines), len(durations))
	}

	pairs := make([]timeline.Pair, len(lines))
	for i, line := range lines {
		item := fmt.Sprintf("line index %d", i)
		id, ok := app.roster.Normalize(string(line.Speaker))
		if !ok {
			return nil, dialogue.NewValidationError(item, "unknown speaker %q", line.Speaker)
		}
		line.Speaker = id
		pairs[i] = timeline.Pair{Line: line, Voice: timeline.VoiceClip{Duration: durations[i]}}
	}

	return app.compose(pairs)
}

func (app *Application) compose(pairs []timeline.Pair) (*PlanResult, error) {
	plan, err := app.compositor().Compose(pairs)
	if err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("composed plan is inconsistent: %w", err)
	}
	if app.config.GetCoalesceOverlays() {
		plan = timeline.CoalesceOverlays(plan)
	}

	req, err := render.NewBuilderWithLogger(app.renderCfg, app.zapLogger).Build(plan)
	if err != nil {
		return nil, err
	}
	return &PlanResult{Plan: plan, Request: req}, nil
}

func (app *Application) writeVoice(workspace string, index int, line dialogue.Line, speech *synth.Speech) (string, error) {
	path := filepath.Join(workspace, fmt.Sprintf("%03d_%s.%s", index, line.Speaker, speech.Format))
	if err := afero.WriteFile(app.fs, path, speech.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write voice for line %d: %w", index, err)
	}
	return path, nil
}
