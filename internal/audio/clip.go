package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
)

// DefaultFormat is used for clips built without a source format
var DefaultFormat = beep.Format{SampleRate: 22050, NumChannels: 1, Precision: 2}

// Clip is an owned run of decoded samples
type Clip struct {
	Format  beep.Format
	Samples [][2]float64
}

// Len returns the number of sample frames in the clip
func (c Clip) Len() int {
	return len(c.Samples)
}

// Duration is samples / sampleRate
func (c Clip) Duration() time.Duration {
	if c.Format.SampleRate <= 0 {
		return 0
	}
	return c.Format.SampleRate.D(len(c.Samples))
}

// Streamer returns a seekable streamer over the clip samples
func (c Clip) Streamer() beep.StreamSeeker {
	return &clipStreamer{samples: c.Samples}
}

// Validate checks that the clip can be encoded
func (c Clip) Validate() error {
	if c.Format.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.Format.SampleRate)
	}
	if c.Format.NumChannels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", c.Format.NumChannels)
	}
	return nil
}

type clipStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *clipStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := copy(samples, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *clipStreamer) Err() error { return nil }

func (s *clipStreamer) Len() int { return len(s.samples) }

func (s *clipStreamer) Position() int { return s.pos }

func (s *clipStreamer) Seek(p int) error {
	if p < 0 || p > len(s.samples) {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, len(s.samples))
	}
	s.pos = p
	return nil
}
