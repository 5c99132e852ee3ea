package audio

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
	"github.com/spf13/afero"
)

// Container formats understood by Decode
const (
	FormatWAV = "wav"
	FormatMP3 = "mp3"
)

// FormatFromPath derives the container format from a file extension
func FormatFromPath(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Decode reads a whole wav or mp3 stream into a track
func Decode(r io.Reader, format string) (*Track, error) {
	var (
		streamer beep.StreamSeekCloser
		f        beep.Format
		err      error
	)

	switch strings.ToLower(format) {
	case FormatWAV:
		streamer, f, err = wav.Decode(r)
	case FormatMP3:
		rc, ok := r.(io.ReadCloser)
		if !ok {
			rc = io.NopCloser(r)
		}
		streamer, f, err = mp3.Decode(rc)
	default:
		return nil, fmt.Errorf("unsupported audio format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s audio: %w", format, err)
	}
	defer streamer.Close()

	buffer := beep.NewBuffer(f)
	buffer.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s samples: %w", format, err)
	}

	return &Track{buffer: buffer}, nil
}

// DecodeClip decodes an in-memory payload into a single clip
func DecodeClip(data []byte, format string) (Clip, error) {
	track, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return Clip{}, err
	}
	if track.Len() == 0 {
		return Clip{Format: track.Format()}, nil
	}
	return track.Slice(0, track.Len())
}

// EncodeWAV writes clip as a PCM wav stream
func EncodeWAV(w io.WriteSeeker, clip Clip) error {
	if err := clip.Validate(); err != nil {
		return fmt.Errorf("cannot encode clip: %w", err)
	}
	format := clip.Format
	if format.Precision == 0 {
		format.Precision = DefaultFormat.Precision
	}
	if err := wav.Encode(w, clip.Streamer(), format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	return nil
}

// WriteWAVFile encodes clip into path on fs, creating parent directories
func WriteWAVFile(fs afero.Fs, path string, clip Clip) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeWAV(file, clip); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WAVBytes encodes clip into an in-memory wav payload
func WAVBytes(clip Clip) ([]byte, error) {
	fs := afero.NewMemMapFs()
	if err := WriteWAVFile(fs, "/clip.wav", clip); err != nil {
		return nil, err
	}
	return afero.ReadFile(fs, "/clip.wav")
}
