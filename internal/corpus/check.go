package corpus

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"dialoguereel/internal/dialogue"
)

// CheckReport summarises a corpus directory on disk
type CheckReport struct {
	Entries      int                        `json:"entries"`
	WavFiles     int                        `json:"wav_files"`
	BySpeaker    map[dialogue.SpeakerID]int `json:"by_speaker"`
	MissingAudio []string                   `json:"missing_audio,omitempty"`
}

// OK reports whether every metadata row has its audio file
func (r *CheckReport) OK() bool {
	return len(r.MissingAudio) == 0
}

// Check validates the layout of a corpus directory: the wavs directory must
// exist, metadata.csv must carry the expected header and at least one row,
// and every row's audio file is looked up.
func Check(fs afero.Fs, dir string) (*CheckReport, error) {
	wavsDir := filepath.Join(dir, WavsDir)
	if ok, err := afero.DirExists(fs, wavsDir); err != nil || !ok {
		return nil, fmt.Errorf("wav directory not found: %s", wavsDir)
	}

	file, err := fs.Open(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("metadata file not found: %w", err)
	}
	defer file.Close()

	entries, err := ReadMetadata(file)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("metadata has a header but no entries")
	}

	wavs, err := afero.Glob(fs, filepath.Join(wavsDir, "*.wav"))
	if err != nil {
		return nil, fmt.Errorf("failed to list wav files: %w", err)
	}

	report := &CheckReport{
		Entries:   len(entries),
		WavFiles:  len(wavs),
		BySpeaker: make(map[dialogue.SpeakerID]int),
	}
	for _, e := range entries {
		report.BySpeaker[e.Speaker]++
		if ok, _ := afero.Exists(fs, filepath.Join(wavsDir, e.Filename)); !ok {
			report.MissingAudio = append(report.MissingAudio, e.Filename)
		}
	}
	return report, nil
}
