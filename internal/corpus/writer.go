package corpus

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"dialoguereel/internal/audio"
	"dialoguereel/internal/dialogue"
)

// Corpus layout inside the output directory
const (
	WavsDir              = "wavs"
	MetadataFile         = "metadata.csv"
	DetailedMetadataFile = "detailed_metadata.json"
	DefaultTrainRatio    = 0.8
)

// ClipRecord is one clip in the detailed metadata document
type ClipRecord struct {
	Filename  string             `json:"filename"`
	Speaker   dialogue.SpeakerID `json:"speaker"`
	Text      string             `json:"text"`
	StartTime float64            `json:"start_time"`
	EndTime   float64            `json:"end_time"`
	Duration  float64            `json:"duration"`
	Episode   string             `json:"episode"`
}

// DetailedMetadata is the JSON companion of metadata.csv
type DetailedMetadata struct {
	TotalClips int                        `json:"total_clips"`
	Speakers   map[dialogue.SpeakerID]int `json:"speakers"`
	Episodes   map[string]int             `json:"episodes"`
	Clips      []ClipRecord               `json:"clips"`
}

// Manifest lists the files written for one corpus, relative to its directory
type Manifest struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// Writer lays a ledger out on a filesystem
type Writer struct {
	fs         afero.Fs
	dir        string
	trainRatio float64
	logger     *zap.Logger
}

// NewWriter creates a Writer rooted at dir
func NewWriter(fs afero.Fs, dir string) *Writer {
	return NewWriterWithLogger(fs, dir, DefaultTrainRatio, nil)
}

// NewWriterWithLogger creates a Writer with an explicit train ratio and logger
func NewWriterWithLogger(fs afero.Fs, dir string, trainRatio float64, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if trainRatio <= 0 || trainRatio > 1 {
		trainRatio = DefaultTrainRatio
	}
	return &Writer{
		fs:         fs,
		dir:        dir,
		trainRatio: trainRatio,
		logger:     logger,
	}
}

// Write emits every unit as wavs/{id}.wav followed by metadata.csv,
// detailed_metadata.json and the per-speaker train/val tables
func (w *Writer) Write(ledger *Ledger) (*Manifest, error) {
	// one snapshot for clips, rows and splits
	units := ledger.Units()
	entries := entriesFor(units)
	manifest := &Manifest{Dir: w.dir}

	if err := w.fs.MkdirAll(filepath.Join(w.dir, WavsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory: %w", err)
	}

	for i, unit := range units {
		rel := filepath.Join(WavsDir, entries[i].Filename)
		if err := audio.WriteWAVFile(w.fs, filepath.Join(w.dir, rel), unit.Clip); err != nil {
			return nil, fmt.Errorf("failed to write clip %s: %w", unit.ID, err)
		}
		manifest.Files = append(manifest.Files, rel)
	}

	if err := w.writeTable(MetadataFile, entries); err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, MetadataFile)

	if err := w.writeDetailed(units, entries); err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, DetailedMetadataFile)

	train, val, err := splitEntries(entries, w.trainRatio)
	if err != nil {
		return nil, err
	}
	for _, speaker := range SortedSpeakers(train) {
		trainName := fmt.Sprintf("train_%s.csv", speaker)
		valName := fmt.Sprintf("val_%s.csv", speaker)
		if err := w.writeTable(trainName, train[speaker]); err != nil {
			return nil, err
		}
		if err := w.writeTable(valName, val[speaker]); err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, trainName, valName)

		w.logger.Info("Speaker split written",
			zap.String("speaker", speaker.String()),
			zap.Int("train", len(train[speaker])),
			zap.Int("validation", len(val[speaker])))
	}

	w.logger.Info("Corpus written",
		zap.String("dir", w.dir),
		zap.Int("clips", len(units)),
		zap.Int("files", len(manifest.Files)))

	return manifest, nil
}

func (w *Writer) writeTable(name string, entries []Entry) error {
	file, err := w.fs.Create(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	if err := WriteMetadata(file, entries); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) writeDetailed(units []audio.Unit, entries []Entry) error {
	doc := DetailedMetadata{
		TotalClips: len(units),
		Speakers:   make(map[dialogue.SpeakerID]int),
		Episodes:   make(map[string]int),
		Clips:      make([]ClipRecord, len(units)),
	}
	for i, u := range units {
		doc.Speakers[u.Speaker]++
		doc.Episodes[u.Episode]++
		doc.Clips[i] = ClipRecord{
			Filename:  entries[i].Filename,
			Speaker:   u.Speaker,
			Text:      u.Text,
			StartTime: u.SourceStart.Seconds(),
			EndTime:   u.SourceEnd.Seconds(),
			Duration:  u.Duration().Seconds(),
			Episode:   u.Episode,
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal detailed metadata: %w", err)
	}
	if err := afero.WriteFile(w.fs, filepath.Join(w.dir, DetailedMetadataFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", DetailedMetadataFile, err)
	}
	return nil
}
