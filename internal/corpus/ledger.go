package corpus

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dialoguereel/internal/audio"
	"dialoguereel/internal/dialogue"
)

// Entry is one metadata row of the corpus
type Entry struct {
	Filename string             `json:"filename"`
	Speaker  dialogue.SpeakerID `json:"speaker"`
	Text     string             `json:"text"`
}

// Stats summarises ledger contents
type Stats struct {
	Total      int                        `json:"total"`
	BySpeaker  map[dialogue.SpeakerID]int `json:"by_speaker"`
	ByEpisode  map[string]int             `json:"by_episode"`
	TotalAudio float64                    `json:"total_audio_seconds"`
}

// Ledger accumulates accepted units in arrival order. Accept is safe for
// concurrent use; insertion order is the order in which Accept returns.
type Ledger struct {
	mu       sync.Mutex
	units    []audio.Unit
	ids      map[string]struct{}
	sequence map[dialogue.SpeakerID]int
	logger   *zap.Logger
}

// NewLedger creates an empty Ledger
func NewLedger() *Ledger {
	return NewLedgerWithLogger(nil)
}

// NewLedgerWithLogger creates an empty Ledger with logger
func NewLedgerWithLogger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		ids:      make(map[string]struct{}),
		sequence: make(map[dialogue.SpeakerID]int),
		logger:   logger,
	}
}

// FormatID builds the "{speaker}_{seq:04d}" identifier
func FormatID(speaker dialogue.SpeakerID, seq int) string {
	return fmt.Sprintf("%s_%04d", speaker, seq)
}

// NextID returns the next unused identifier for speaker without reserving it
func (l *Ledger) NextID(speaker dialogue.SpeakerID) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextIDLocked(speaker)
}

func (l *Ledger) nextIDLocked(speaker dialogue.SpeakerID) string {
	seq := l.sequence[speaker] + 1
	id := FormatID(speaker, seq)
	for {
		if _, taken := l.ids[id]; !taken {
			return id
		}
		seq++
		id = FormatID(speaker, seq)
	}
}

// Accept appends unit, which must carry an ID. A duplicate ID is a
// ValidationError and leaves the ledger unchanged.
func (l *Ledger) Accept(unit audio.Unit) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acceptLocked(unit)
}

func (l *Ledger) acceptLocked(unit audio.Unit) error {
	if unit.ID == "" {
		return dialogue.NewValidationError("audio unit", "id cannot be empty")
	}
	if _, exists := l.ids[unit.ID]; exists {
		return dialogue.NewValidationError(unit.ID, "duplicate unit id")
	}
	if unit.Speaker == "" {
		return dialogue.NewValidationError(unit.ID, "speaker cannot be empty")
	}

	l.ids[unit.ID] = struct{}{}
	if suffix, ok := strings.CutPrefix(unit.ID, string(unit.Speaker)+"_"); ok {
		if seq, err := strconv.Atoi(suffix); err == nil && seq > l.sequence[unit.Speaker] {
			l.sequence[unit.Speaker] = seq
		}
	}
	l.units = append(l.units, unit)

	l.logger.Debug("Unit accepted",
		zap.String("id", unit.ID),
		zap.String("speaker", unit.Speaker.String()),
		zap.Duration("duration", unit.Duration()))
	return nil
}

// AcceptNew assigns the next identifier for the unit's speaker and accepts it
func (l *Ledger) AcceptNew(unit audio.Unit) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	unit.ID = l.nextIDLocked(unit.Speaker)
	if err := l.acceptLocked(unit); err != nil {
		return "", err
	}
	return unit.ID, nil
}

// Len returns the number of accepted units
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.units)
}

// Units returns a copy of the accepted units in insertion order
func (l *Ledger) Units() []audio.Unit {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]audio.Unit, len(l.units))
	copy(out, l.units)
	return out
}

// Emit projects the ledger into metadata rows in insertion order. It has no
// side effects.
func (l *Ledger) Emit() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return entriesFor(l.units)
}

// Stats counts units per speaker and per episode
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := Stats{
		Total:     len(l.units),
		BySpeaker: make(map[dialogue.SpeakerID]int),
		ByEpisode: make(map[string]int),
	}
	for _, u := range l.units {
		stats.BySpeaker[u.Speaker]++
		if u.Episode != "" {
			stats.ByEpisode[u.Episode]++
		}
		stats.TotalAudio += u.Duration().Seconds()
	}
	return stats
}

// Split partitions each speaker's entries into training and validation rows.
// The first ratio share of a speaker's entries, in ledger order, goes to
// training. Speakers are returned sorted.
func (l *Ledger) Split(ratio float64) (map[dialogue.SpeakerID][]Entry, map[dialogue.SpeakerID][]Entry, error) {
	return splitEntries(l.Emit(), ratio)
}

func splitEntries(all []Entry, ratio float64) (map[dialogue.SpeakerID][]Entry, map[dialogue.SpeakerID][]Entry, error) {
	if ratio <= 0 || ratio > 1 {
		return nil, nil, fmt.Errorf("train ratio must be in (0, 1], got %v", ratio)
	}

	bySpeaker := make(map[dialogue.SpeakerID][]Entry)
	for _, e := range all {
		bySpeaker[e.Speaker] = append(bySpeaker[e.Speaker], e)
	}

	train := make(map[dialogue.SpeakerID][]Entry, len(bySpeaker))
	val := make(map[dialogue.SpeakerID][]Entry, len(bySpeaker))
	for speaker, entries := range bySpeaker {
		cut := int(float64(len(entries)) * ratio)
		train[speaker] = entries[:cut]
		val[speaker] = entries[cut:]
	}
	return train, val, nil
}

// SortedSpeakers returns the keys of m in lexical order
func SortedSpeakers(m map[dialogue.SpeakerID][]Entry) []dialogue.SpeakerID {
	out := make([]dialogue.SpeakerID, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func entriesFor(units []audio.Unit) []Entry {
	entries := make([]Entry, len(units))
	for i, u := range units {
		entries[i] = Entry{
			Filename: u.ID + ".wav",
			Speaker:  u.Speaker,
			Text:     u.Text,
		}
	}
	return entries
}
