package dialogue

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SpeakerID identifies one voice in the closed speaker set. Values are lower case.
type SpeakerID string

func (s SpeakerID) String() string {
	return string(s)
}

// Roster is the closed set of speakers known at configuration time
type Roster struct {
	byKey map[string]SpeakerID
	order []SpeakerID
}

// NewRoster builds a roster from display or raw names. Duplicates collapse.
func NewRoster(names ...string) *Roster {
	r := &Roster{byKey: make(map[string]SpeakerID, len(names))}
	for _, name := range names {
		key := foldKey(name)
		if key == "" {
			continue
		}
		if _, exists := r.byKey[key]; exists {
			continue
		}
		id := SpeakerID(cases.Lower(language.Und).String(strings.TrimSpace(name)))
		r.byKey[key] = id
		r.order = append(r.order, id)
	}
	return r
}

// Normalize maps a name in any letter case onto its SpeakerID
func (r *Roster) Normalize(name string) (SpeakerID, bool) {
	if r == nil {
		return "", false
	}
	id, ok := r.byKey[foldKey(name)]
	return id, ok
}

// Contains reports whether id belongs to the roster
func (r *Roster) Contains(id SpeakerID) bool {
	_, ok := r.Normalize(string(id))
	return ok
}

// Speakers returns the roster in configuration order
func (r *Roster) Speakers() []SpeakerID {
	if r == nil {
		return nil
	}
	out := make([]SpeakerID, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of speakers
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// DisplayName returns the title-cased form used in logs and help output
func DisplayName(id SpeakerID) string {
	return cases.Title(language.Und).String(string(id))
}

func foldKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
