package audio

import (
	"time"

	"dialoguereel/internal/dialogue"
)

// Unit is one accepted training utterance: a speaker, its text and the
// clip cut from the source recording. ID is empty until the ledger assigns it.
type Unit struct {
	ID          string
	Speaker     dialogue.SpeakerID
	Text        string
	Clip        Clip
	Episode     string
	SourceStart time.Duration
	SourceEnd   time.Duration
}

// Duration is derived from the clip sample count
func (u Unit) Duration() time.Duration {
	return u.Clip.Duration()
}
