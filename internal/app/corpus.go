package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"dialoguereel/internal/audio"
	"dialoguereel/internal/corpus"
	"dialoguereel/internal/segmenter"
	"dialoguereel/internal/storage"
	"dialoguereel/internal/transcript"
)

// Transcript and audio file extensions picked up by a corpus build
var (
	transcriptExtensions = []string{".srt", ".txt"}
	audioExtensions      = []string{".wav", ".mp3"}
)

// CorpusOptions selects the inputs and output of a corpus build
type CorpusOptions struct {
	TranscriptDir string
	AudioDir      string
	OutputDir     string
	Publish       bool
}

// EpisodeReport summarises one transcript/audio pair
type EpisodeReport struct {
	Episode    string `json:"episode"`
	Transcript string `json:"transcript"`
	Audio      string `json:"audio"`
	Records    int    `json:"records"`
	Accepted   int    `json:"accepted"`
	Rejected   int    `json:"rejected"`
}

// CorpusReport summarises a corpus build
type CorpusReport struct {
	OutputDir   string                 `json:"output_dir"`
	Accepted    int                    `json:"accepted"`
	Rejected    int                    `json:"rejected"`
	Episodes    []EpisodeReport        `json:"episodes"`
	Unmatched   []string               `json:"unmatched,omitempty"`
	Stats       corpus.Stats           `json:"stats"`
	Files       int                    `json:"files"`
	Publication *storage.PublishResult `json:"publication,omitempty"`
}

type taggedEpisode struct {
	report  EpisodeReport
	records []transcript.UtteranceRecord
}

// BuildCorpus turns annotated transcripts and their episode audio into a
// training corpus. Every transcript is tagged before any audio is cut, so a
// structural error aborts the build before anything is written.
func (app *Application) BuildCorpus(ctx context.Context, opts CorpusOptions) (*CorpusReport, error) {
	if opts.TranscriptDir == "" || opts.AudioDir == "" || opts.OutputDir == "" {
		return nil, fmt.Errorf("transcript, audio and output directories are required")
	}

	transcripts, err := listFiles(app.fs, opts.TranscriptDir, transcriptExtensions)
	if err != nil {
		return nil, err
	}
	audioFiles, err := listFiles(app.fs, opts.AudioDir, audioExtensions)
	if err != nil {
		return nil, err
	}

	pairs := transcript.MatchEpisodes(transcripts, audioFiles)
	report := &CorpusReport{OutputDir: opts.OutputDir}
	for _, tr := range transcripts {
		if _, ok := pairs[tr]; !ok {
			report.Unmatched = append(report.Unmatched, tr)
			app.zapLogger.Warn("no audio found for transcript", zap.String("transcript", tr))
		}
	}

	policy, err := app.config.GetCollisionPolicy()
	if err != nil {
		return nil, err
	}
	tagger := transcript.NewTaggerWithLogger(app.roster, policy, app.zapLogger)

	var episodes []taggedEpisode
	for _, tr := range transcripts {
		au, ok := pairs[tr]
		if !ok {
			continue
		}
		data, err := afero.ReadFile(app.fs, tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript %s: %w", tr, err)
		}
		records, err := tagger.Extract(string(data))
		if err != nil {
			return nil, fmt.Errorf("transcript %s: %w", tr, err)
		}
		episodes = append(episodes, taggedEpisode{
			report: EpisodeReport{
				Episode:    transcript.EpisodeCode(tr),
				Transcript: tr,
				Audio:      au,
				Records:    len(records),
			},
			records: records,
		})
	}

	seg := segmenter.NewSegmenterWithLogger(
		app.config.GetMinDuration(),
		app.config.GetMaxDuration(),
		app.config.GetCorpusWorkers(),
		app.zapLogger)
	ledger := corpus.NewLedgerWithLogger(app.zapLogger)

	for i := range episodes {
		ep := &episodes[i]
		if len(ep.records) == 0 {
			app.zapLogger.Info("transcript has no tagged utterances", zap.String("episode", ep.report.Episode))
			report.Episodes = append(report.Episodes, ep.report)
			continue
		}

		track, err := app.decodeAudio(ep.report.Audio)
		if err != nil {
			return nil, err
		}
		result, err := seg.Segment(ctx, track, ep.records, ep.report.Episode)
		if err != nil {
			return nil, fmt.Errorf("episode %s: %w", ep.report.Episode, err)
		}
		for _, unit := range result.Units {
			if _, err := ledger.AcceptNew(unit); err != nil {
				return nil, err
			}
		}

		ep.report.Accepted = len(result.Units)
		ep.report.Rejected = result.Rejected
		report.Accepted += len(result.Units)
		report.Rejected += result.Rejected
		report.Episodes = append(report.Episodes, ep.report)

		app.zapLogger.Info("episode segmented",
			zap.String("episode", ep.report.Episode),
			zap.Int("accepted", ep.report.Accepted),
			zap.Int("rejected", ep.report.Rejected))
	}

	writer := corpus.NewWriterWithLogger(app.fs, opts.OutputDir, app.config.GetTrainRatio(), app.zapLogger)
	manifest, err := writer.Write(ledger)
	if err != nil {
		return nil, err
	}
	report.Stats = ledger.Stats()
	report.Files = len(manifest.Files)

	if opts.Publish {
		published, err := app.publish(ctx, manifest)
		if err != nil {
			return nil, err
		}
		report.Publication = published
	}

	app.health.corpusBuilt()
	app.record("corpus_build", report)
	app.zapLogger.Info("corpus build complete",
		zap.String("output_dir", opts.OutputDir),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", report.Rejected),
		zap.Int("unmatched", len(report.Unmatched)))

	return report, nil
}

// CheckCorpus validates a corpus directory written by BuildCorpus
func (app *Application) CheckCorpus(dir string) (*corpus.CheckReport, error) {
	report, err := corpus.Check(app.fs, dir)
	if err != nil {
		return nil, err
	}
	app.zapLogger.Info("corpus checked",
		zap.String("dir", dir),
		zap.Int("entries", report.Entries),
		zap.Int("missing_audio", len(report.MissingAudio)))
	return report, nil
}

func (app *Application) publish(ctx context.Context, manifest *corpus.Manifest) (*storage.PublishResult, error) {
	if app.store == nil {
		return nil, errors.New("publishing requested but no object store is configured")
	}
	store, err := app.store(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object store: %w", err)
	}
	publisher := storage.NewPublisherWithLogger(store, app.fs, app.config.GetStorageOverwrite(), app.zapLogger)
	return publisher.Publish(ctx, manifest.Dir, app.config.GetStoragePrefix(), manifest.Files)
}

func (app *Application) decodeAudio(path string) (*audio.Track, error) {
	file, err := app.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio %s: %w", path, err)
	}
	defer file.Close()

	track, err := audio.Decode(file, audio.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("audio %s: %w", path, err)
	}
	return track, nil
}

// listFiles returns the files of dir with one of the extensions, sorted
func listFiles(fs afero.Fs, dir string, extensions []string) ([]string, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var out []string
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(info.Name()))
		for _, want := range extensions {
			if ext == want {
				out = append(out, filepath.Join(dir, info.Name()))
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
