package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
)

// Track is a fully decoded source recording. It is read-only after
// construction and safe to slice from several goroutines.
type Track struct {
	buffer *beep.Buffer
}

// NewTrack wraps an already decoded clip
func NewTrack(clip Clip) *Track {
	format := clip.Format
	if format.SampleRate <= 0 {
		format = DefaultFormat
	}
	buffer := beep.NewBuffer(format)
	buffer.Append(clip.Streamer())
	return &Track{buffer: buffer}
}

// Format returns the decoded format of the track
func (t *Track) Format() beep.Format {
	return t.buffer.Format()
}

// Len returns the track length in sample frames
func (t *Track) Len() int {
	return t.buffer.Len()
}

// Duration returns the track length as time
func (t *Track) Duration() time.Duration {
	return t.Format().SampleRate.D(t.Len())
}

// Slice copies the sample range [from, to) into a new clip
func (t *Track) Slice(from, to int) (Clip, error) {
	if from < 0 || to > t.Len() || from >= to {
		return Clip{}, fmt.Errorf("slice [%d, %d) outside track of %d samples", from, to, t.Len())
	}

	streamer := t.buffer.Streamer(from, to)
	samples := make([][2]float64, to-from)
	filled := 0
	for filled < len(samples) {
		n, ok := streamer.Stream(samples[filled:])
		filled += n
		if !ok {
			break
		}
	}

	return Clip{Format: t.Format(), Samples: samples[:filled]}, nil
}

// SampleIndex converts a time offset to a sample index, rounding half up
func SampleIndex(d time.Duration, rate beep.SampleRate) int {
	if d <= 0 || rate <= 0 {
		return 0
	}
	return int((d.Nanoseconds()*int64(rate) + int64(time.Second)/2) / int64(time.Second))
}
