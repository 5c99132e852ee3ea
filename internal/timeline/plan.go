package timeline

import (
	"fmt"
	"time"

	"dialoguereel/internal/dialogue"
)

// Plan is the complete schedule for one render
type Plan struct {
	Elements []Element     `json:"elements"`
	Total    time.Duration `json:"total"`
}

// ByTrack returns the elements of one track in plan order
func (p Plan) ByTrack(track Track) []Element {
	var out []Element
	for _, e := range p.Elements {
		if e.Track == track {
			out = append(out, e)
		}
	}
	return out
}

// Overlays returns overlay elements grouped by speaker
func (p Plan) Overlays() map[dialogue.SpeakerID][]Element {
	out := make(map[dialogue.SpeakerID][]Element)
	for _, e := range p.ByTrack(TrackOverlay) {
		out[e.Speaker] = append(out[e.Speaker], e)
	}
	return out
}

// VoiceTotal sums the voice audio durations
func (p Plan) VoiceTotal() time.Duration {
	var total time.Duration
	for _, e := range p.ByTrack(TrackVoiceAudio) {
		total += e.Duration
	}
	return total
}

// Validate checks that voice audio is gap free from zero, that no speaker's
// overlays overlap, and that the background spans exactly the voice total
func (p Plan) Validate() error {
	var cursor time.Duration
	for i, e := range p.ByTrack(TrackVoiceAudio) {
		if e.Start != cursor {
			return fmt.Errorf("voice element %d starts at %v, expected %v", i, e.Start, cursor)
		}
		if e.Duration <= 0 {
			return fmt.Errorf("voice element %d has non-positive duration %v", i, e.Duration)
		}
		cursor = e.End()
	}
	if cursor != p.Total {
		return fmt.Errorf("voice total %v does not match plan total %v", cursor, p.Total)
	}

	for speaker, overlays := range p.Overlays() {
		for i := 1; i < len(overlays); i++ {
			if overlays[i].Start < overlays[i-1].End() {
				return fmt.Errorf("overlays for %s overlap at %v", speaker, overlays[i].Start)
			}
		}
	}

	for _, track := range []Track{TrackBackground, TrackBackgroundAudio} {
		elements := p.ByTrack(track)
		if p.Total == 0 {
			if len(elements) != 0 {
				return fmt.Errorf("empty plan carries %s elements", track)
			}
			continue
		}
		if len(elements) != 1 {
			return fmt.Errorf("expected one %s element, found %d", track, len(elements))
		}
		if elements[0].Start != 0 || elements[0].Duration != p.Total {
			return fmt.Errorf("%s spans [%v, %v), expected [0, %v)", track, elements[0].Start, elements[0].End(), p.Total)
		}
	}
	return nil
}

// CoalesceOverlays merges back-to-back overlays of the same speaker into one
// element spanning both. Visible timing is unchanged; other tracks are kept
// as they are.
func CoalesceOverlays(p Plan) Plan {
	out := Plan{Total: p.Total, Elements: make([]Element, 0, len(p.Elements))}
	last := -1
	for _, e := range p.Elements {
		if e.Track != TrackOverlay {
			out.Elements = append(out.Elements, e)
			continue
		}
		if last >= 0 && out.Elements[last].Speaker == e.Speaker && out.Elements[last].End() == e.Start {
			// earliest start, latest end
			out.Elements[last].Duration = e.End() - out.Elements[last].Start
			continue
		}
		out.Elements = append(out.Elements, e)
		last = len(out.Elements) - 1
	}
	return out
}
