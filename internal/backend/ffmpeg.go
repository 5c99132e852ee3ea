package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"dialoguereel/internal/render"
)

// FFmpegBackend composes a request with a single ffmpeg filter graph
type FFmpegBackend struct {
	fs         afero.Fs
	ffmpegPath string
	logger     *zap.Logger
}

var _ Backend = (*FFmpegBackend)(nil)

// NewFFmpegBackend creates a backend using the ffmpeg binary found on PATH
func NewFFmpegBackend(fs afero.Fs, logger *zap.Logger) *FFmpegBackend {
	return NewFFmpegBackendWithPath(fs, "ffmpeg", logger)
}

// NewFFmpegBackendWithPath creates a backend using a specific ffmpeg binary
func NewFFmpegBackendWithPath(fs afero.Fs, ffmpegPath string, logger *zap.Logger) *FFmpegBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegBackend{
		fs:         fs,
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// Render writes caption text files next to outputPath, runs ffmpeg and
// checks that a non-empty file was produced
func (b *FFmpegBackend) Render(ctx context.Context, req *render.Request, outputPath string) error {
	if req == nil || len(req.Elements) == 0 || req.Duration <= 0 {
		return fmt.Errorf("render request is empty")
	}

	captionDir := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_captions"
	textFiles, err := b.writeCaptionFiles(req, captionDir)
	if err != nil {
		return err
	}
	defer b.fs.RemoveAll(captionDir)

	args, err := BuildArgs(req, textFiles, outputPath)
	if err != nil {
		return err
	}

	b.logger.Info("starting ffmpeg render",
		zap.String("request_id", req.ID),
		zap.Int("elements", len(req.Elements)),
		zap.Float64("duration", req.Duration),
		zap.String("output", outputPath))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.ffmpegPath, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		output := stderr.String()
		if containsFFmpegError(output) {
			b.logger.Warn("ffmpeg stderr", zap.String("output", tail(output, 2048)))
		} else {
			b.logger.Debug("ffmpeg stderr", zap.String("output", tail(output, 2048)))
		}
		return fmt.Errorf("ffmpeg render failed: %w", err)
	}

	info, err := b.fs.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("rendered file missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("rendered file %s is empty", outputPath)
	}

	b.logger.Info("ffmpeg render completed",
		zap.String("output", outputPath),
		zap.Int64("size", info.Size()))
	return nil
}

// writeCaptionFiles stores each caption line in its own file so drawtext
// never sees raw dialogue in the filter graph
func (b *FFmpegBackend) writeCaptionFiles(req *render.Request, dir string) ([][]string, error) {
	captions := req.ByKind(render.KindCaptionText)
	files := make([][]string, len(captions))
	if len(captions) == 0 {
		return files, nil
	}
	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create caption directory: %w", err)
	}
	for i, c := range captions {
		for j, line := range c.Lines {
			path := filepath.Join(dir, fmt.Sprintf("caption_%03d_%02d.txt", i, j))
			if err := afero.WriteFile(b.fs, path, []byte(line), 0644); err != nil {
				return nil, fmt.Errorf("failed to write caption file: %w", err)
			}
			files[i] = append(files[i], path)
		}
	}
	return files, nil
}

// BuildArgs assembles the ffmpeg command line for req. captionFiles holds,
// per caption element in request order, one text file per wrapped line.
func BuildArgs(req *render.Request, captionFiles [][]string, outputPath string) ([]string, error) {
	canvas := req.Canvas
	var (
		args    []string
		filters []string
		mix     []string
		inputs  int
	)
	addInput := func(extra ...string) int {
		args = append(args, extra...)
		inputs++
		return inputs - 1
	}

	backgrounds := req.ByKind(render.KindBackgroundVideo)
	bgSource := ""
	if len(backgrounds) > 0 {
		bgSource = backgrounds[0].Source
	}
	var bgIndex int
	if bgSource != "" {
		bgIndex = addInput("-stream_loop", "-1", "-i", bgSource)
		filters = append(filters, fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,fps=%d[base]",
			bgIndex, canvas.Width, canvas.Height, canvas.Width, canvas.Height, canvas.FPS))
	} else {
		bgIndex = addInput("-f", "lavfi", "-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d", canvas.Width, canvas.Height, canvas.FPS))
		filters = append(filters, fmt.Sprintf("[%d:v]setsar=1[base]", bgIndex))
	}

	video := "base"
	for i, e := range req.ByKind(render.KindOverlayImage) {
		if e.Source == "" {
			return nil, fmt.Errorf("overlay for %s has no image", e.Speaker)
		}
		idx := addInput("-loop", "1", "-i", e.Source)
		scaled := fmt.Sprintf("img%d", i)
		next := fmt.Sprintf("ov%d", i)
		width := e.Width
		if width <= 0 {
			width = canvas.Width / 3
		}
		x, y := overlayPosition(e.Position)
		filters = append(filters,
			fmt.Sprintf("[%d:v]scale=%d:-1[%s]", idx, width, scaled),
			fmt.Sprintf("[%s][%s]overlay=x=%s:y=%s:enable='%s'[%s]", video, scaled, x, y, window(e), next))
		video = next
	}

	captions := req.ByKind(render.KindCaptionText)
	for i, e := range captions {
		if i >= len(captionFiles) {
			return nil, fmt.Errorf("missing caption files for caption %d", i)
		}
		if e.Style == nil {
			return nil, fmt.Errorf("caption %d has no style", i)
		}
		style := *e.Style
		lineHeight := style.FontSize * 6 / 5
		block := lineHeight * len(captionFiles[i])
		for j, path := range captionFiles[i] {
			next := fmt.Sprintf("cap%d_%d", i, j)
			filters = append(filters, fmt.Sprintf("[%s]%s[%s]", video, drawtext(style, path, captionY(style.Position.Y, block, j*lineHeight), e), next))
			video = next
		}
	}

	for i, e := range req.ByKind(render.KindVoiceAudio) {
		if e.Source == "" {
			return nil, fmt.Errorf("voice element %d has no audio source", i)
		}
		idx := addInput("-i", e.Source)
		delay := int64(e.Start*1000 + 0.5)
		label := fmt.Sprintf("voice%d", i)
		filters = append(filters, fmt.Sprintf("[%d:a]adelay=%d|%d[%s]", idx, delay, delay, label))
		mix = append(mix, "["+label+"]")
	}

	for _, e := range req.ByKind(render.KindBackgroundAudio) {
		if bgSource == "" || e.Volume <= 0 {
			continue
		}
		filters = append(filters, fmt.Sprintf("[%d:a]volume=%s,atrim=0:%s[bgaudio]", bgIndex, formatFloat(e.Volume), formatFloat(req.Duration)))
		mix = append(mix, "[bgaudio]")
	}

	out := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	if len(mix) > 0 {
		filters = append(filters, fmt.Sprintf("%samix=inputs=%d:duration=longest:dropout_transition=0:normalize=0[aout]", strings.Join(mix, ""), len(mix)))
	}
	out = append(out, "-filter_complex", strings.Join(filters, ";"), "-map", "["+video+"]")
	if len(mix) > 0 {
		out = append(out, "-map", "[aout]", "-c:a", "aac", "-b:a", "192k")
	}
	out = append(out,
		"-t", formatFloat(req.Duration),
		"-r", strconv.Itoa(canvas.FPS),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outputPath)
	return out, nil
}

func drawtext(style render.CaptionStyle, textFile, y string, e render.Element) string {
	opts := []string{
		"textfile=" + escapeFilterValue(textFile),
		"expansion=none",
		"fontsize=" + strconv.Itoa(style.FontSize),
		"fontcolor=" + style.Color,
		"x=" + captionX(style.Position.X),
		"y=" + y,
		"enable='" + window(e) + "'",
	}
	if style.FontFile != "" {
		opts = append(opts, "fontfile="+escapeFilterValue(style.FontFile))
	}
	if style.StrokeWidth > 0 {
		opts = append(opts, "borderw="+strconv.Itoa(style.StrokeWidth), "bordercolor="+style.StrokeColor)
	}
	return "drawtext=" + strings.Join(opts, ":")
}

// window enables an element on [start, end); between() would also match
// the first frame of the following element
func window(e render.Element) string {
	return fmt.Sprintf("gte(t,%s)*lt(t,%s)", formatFloat(e.Start), formatFloat(e.End()))
}

func overlayPosition(p *render.Position) (string, string) {
	if p == nil {
		return "(main_w-overlay_w)/2", "(main_h-overlay_h)/2"
	}
	x := axis(p.X, map[string]string{
		"left":   "0",
		"center": "(main_w-overlay_w)/2",
		"right":  "main_w-overlay_w",
	}, "(main_w-overlay_w)/2")
	y := axis(p.Y, map[string]string{
		"top":    "0",
		"center": "(main_h-overlay_h)/2",
		"bottom": "main_h-overlay_h",
	}, "(main_h-overlay_h)/2")
	return x, y
}

func captionX(value string) string {
	return axis(value, map[string]string{
		"left":   "40",
		"center": "(w-text_w)/2",
		"right":  "w-text_w-40",
	}, "(w-text_w)/2")
}

// captionY positions one wrapped line inside a block of the given height
func captionY(value string, block, offset int) string {
	switch strings.ToLower(value) {
	case "", "top":
		return strconv.Itoa(160 + offset)
	case "center":
		return fmt.Sprintf("(h-%d)/2+%d", block, offset)
	case "bottom":
		return fmt.Sprintf("h-%d-160+%d", block, offset)
	}
	if n, err := strconv.Atoi(value); err == nil {
		return strconv.Itoa(n + offset)
	}
	return strconv.Itoa(160 + offset)
}

func axis(value string, keywords map[string]string, fallback string) string {
	if expr, ok := keywords[strings.ToLower(value)]; ok {
		return expr
	}
	if n, err := strconv.Atoi(value); err == nil {
		return strconv.Itoa(n)
	}
	return fallback
}

func escapeFilterValue(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `,`, `\,`, `;`, `\;`, `[`, `\[`, `]`, `\]`)
	return r.Replace(value)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// containsFFmpegError checks if stderr output contains actual errors vs info
func containsFFmpegError(output string) bool {
	for _, indicator := range []string{
		"Error opening",
		"Invalid data",
		"No such file",
		"Permission denied",
		"Invalid argument",
	} {
		if strings.Contains(output, indicator) {
			return true
		}
	}
	return false
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
