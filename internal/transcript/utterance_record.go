package transcript

import (
	"fmt"
	"strings"
	"time"

	"dialoguereel/internal/dialogue"
)

// UtteranceRecord is one tagged utterance with the bounds of its timestamp block
type UtteranceRecord struct {
	Speaker     dialogue.SpeakerID `json:"speaker"`
	Text        string             `json:"text"`
	SourceStart time.Duration      `json:"source_start"`
	SourceEnd   time.Duration      `json:"source_end"`
	Line        int                `json:"line"`
}

// Duration returns the length of the source interval
func (r UtteranceRecord) Duration() time.Duration {
	return r.SourceEnd - r.SourceStart
}

// Validate checks the record invariants
func (r UtteranceRecord) Validate() error {
	if r.Speaker == "" {
		return fmt.Errorf("speaker cannot be empty")
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if r.SourceStart < 0 {
		return fmt.Errorf("source start cannot be negative")
	}
	if r.SourceEnd <= r.SourceStart {
		return fmt.Errorf("source end (%v) must be after source start (%v)", r.SourceEnd, r.SourceStart)
	}
	return nil
}
