package transcript

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dialoguereel/internal/dialogue"
)

// marker delimiters; the ASCII pair is what annotated subtitle files use
var markerDelimiters = [][2]string{
	{"⟦", "⟧"},
	{"[[", "]]"},
}

// Tagger extracts tagged utterances from an annotated transcript
type Tagger struct {
	roster *dialogue.Roster
	policy CollisionPolicy
	logger *zap.Logger
}

// NewTagger creates a Tagger for the given roster using the shared collision policy
func NewTagger(roster *dialogue.Roster) *Tagger {
	return NewTaggerWithLogger(roster, CollisionShared, nil)
}

// NewTaggerWithLogger creates a Tagger with an explicit collision policy and logger
func NewTaggerWithLogger(roster *dialogue.Roster, policy CollisionPolicy, logger *zap.Logger) *Tagger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = CollisionShared
	}
	return &Tagger{
		roster: roster,
		policy: policy,
		logger: logger,
	}
}

// Policy returns the configured collision policy
func (t *Tagger) Policy() CollisionPolicy {
	return t.policy
}

type block struct {
	firstLine int
	lines     []string
}

type marker struct {
	speaker string
	text    string
	line    int
}

// Extract parses transcript text into utterance records in document order.
// Untagged blocks are skipped. Any structural problem in a tagged block is a
// ValidationError naming the transcript line.
func (t *Tagger) Extract(text string) ([]UtteranceRecord, error) {
	var records []UtteranceRecord
	skipped := 0

	for _, b := range splitBlocks(text) {
		bodyStart, timeLine := locateTimeLine(b)

		body := strings.Join(b.lines[bodyStart:], "\n")
		markers, err := scanMarkers(body, b.firstLine+bodyStart)
		if err != nil {
			return nil, err
		}
		if len(markers) == 0 {
			skipped++
			t.logger.Debug("Skipping untagged block", zap.Int("line", b.firstLine))
			continue
		}

		if timeLine < 0 {
			return nil, dialogue.NewValidationError(lineItem(b.firstLine), "tagged block has no timestamp line")
		}
		start, end, err := ParseTimeRange(b.lines[timeLine])
		if err != nil {
			return nil, dialogue.NewValidationError(lineItem(b.firstLine+timeLine), "%v", err)
		}

		blockRecords, err := t.recordsForBlock(markers, start, end)
		if err != nil {
			return nil, err
		}
		records = append(records, blockRecords...)
	}

	t.logger.Info("Transcript extracted",
		zap.Int("records", len(records)),
		zap.Int("skipped_blocks", skipped),
		zap.String("collision_policy", string(t.policy)))

	return records, nil
}

func (t *Tagger) recordsForBlock(markers []marker, start, end time.Duration) ([]UtteranceRecord, error) {
	records := make([]UtteranceRecord, 0, len(markers))
	for _, m := range markers {
		speaker, ok := t.roster.Normalize(m.speaker)
		if !ok {
			return nil, dialogue.NewValidationError(lineItem(m.line), "unknown speaker %q", m.speaker)
		}
		records = append(records, UtteranceRecord{
			Speaker:     speaker,
			Text:        m.text,
			SourceStart: start,
			SourceEnd:   end,
			Line:        m.line,
		})
	}

	if len(records) < 2 {
		return records, nil
	}

	switch t.policy {
	case CollisionReject:
		return nil, dialogue.NewValidationError(lineItem(markers[0].line),
			"%d markers share one timestamp block", len(markers))
	case CollisionSplit:
		texts := make([]string, len(records))
		for i, r := range records {
			texts[i] = r.Text
		}
		for i, bounds := range splitInterval(start, end, texts) {
			records[i].SourceStart = bounds[0]
			records[i].SourceEnd = bounds[1]
		}
	default:
		t.logger.Debug("Markers share block interval",
			zap.Int("line", markers[0].line),
			zap.Int("markers", len(markers)))
	}

	return records, nil
}

// splitBlocks splits text on blank lines keeping 1-based starting line numbers
func splitBlocks(text string) []block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	var blocks []block
	var current *block
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			if current != nil {
				blocks = append(blocks, *current)
				current = nil
			}
			continue
		}
		if current == nil {
			current = &block{firstLine: i + 1}
		}
		current.lines = append(current.lines, line)
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}

// locateTimeLine returns the index of the first body line and of the
// timestamp line (-1 when the block has none)
func locateTimeLine(b block) (bodyStart, timeLine int) {
	idx := 0
	if _, err := strconv.Atoi(b.lines[0]); err == nil && len(b.lines) > 1 {
		idx = 1
	}
	if IsTimeRange(b.lines[idx]) {
		return idx + 1, idx
	}
	return 0, -1
}

// scanMarkers finds every bracketed "Speaker: text" span in body
func scanMarkers(body string, firstLine int) ([]marker, error) {
	var markers []marker
	pos := 0
	for {
		open, delim := nextOpener(body, pos)
		if open < 0 {
			break
		}
		line := firstLine + strings.Count(body[:open], "\n")

		contentStart := open + len(delim[0])
		closeRel := strings.Index(body[contentStart:], delim[1])
		if closeRel < 0 {
			return nil, dialogue.NewValidationError(lineItem(line), "unbalanced marker, missing %q", delim[1])
		}
		content := body[contentStart : contentStart+closeRel]
		pos = contentStart + closeRel + len(delim[1])

		speaker, text, found := strings.Cut(content, ":")
		if !found || strings.TrimSpace(speaker) == "" {
			return nil, dialogue.NewValidationError(lineItem(line), "marker %q has no speaker prefix", content)
		}
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			return nil, dialogue.NewValidationError(lineItem(line), "marker for %q has no text", strings.TrimSpace(speaker))
		}

		markers = append(markers, marker{
			speaker: strings.TrimSpace(speaker),
			text:    text,
			line:    line,
		})
	}
	return markers, nil
}

func nextOpener(body string, from int) (int, [2]string) {
	best := -1
	var bestDelim [2]string
	for _, d := range markerDelimiters {
		if i := strings.Index(body[from:], d[0]); i >= 0 && (best < 0 || from+i < best) {
			best = from + i
			bestDelim = d
		}
	}
	return best, bestDelim
}

func lineItem(line int) string {
	return fmt.Sprintf("transcript line %d", line)
}
