package synth

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/iter"

	"dialoguereel/internal/dialogue"
)

var errNoSpeech = errors.New("synthesizer returned no speech")

// SynthesizeLines synthesizes every line with at most workers calls in
// flight and returns the results in line order. workers <= 1 runs the lines
// one at a time and stops at the first failure. In both modes the error
// returned belongs to the earliest failing line.
func SynthesizeLines(ctx context.Context, s Synthesizer, lines []dialogue.Line, workers int) ([]*Speech, error) {
	if workers <= 1 {
		out := make([]*Speech, len(lines))
		for i, line := range lines {
			speech, err := s.Synthesize(ctx, line.Text, line.Speaker)
			if err != nil {
				return nil, NewSynthesisError(line.Speaker, line.Text, err)
			}
			if speech == nil {
				return nil, NewSynthesisError(line.Speaker, line.Text, errNoSpeech)
			}
			out[i] = speech
		}
		return out, nil
	}

	type result struct {
		speech *Speech
		err    error
	}
	mapper := iter.Mapper[dialogue.Line, result]{MaxGoroutines: workers}
	results := mapper.Map(lines, func(line *dialogue.Line) result {
		speech, err := s.Synthesize(ctx, line.Text, line.Speaker)
		return result{speech: speech, err: err}
	})

	out := make([]*Speech, len(lines))
	for i, r := range results {
		if r.err != nil {
			return nil, NewSynthesisError(lines[i].Speaker, lines[i].Text, r.err)
		}
		if r.speech == nil {
			return nil, NewSynthesisError(lines[i].Speaker, lines[i].Text, errNoSpeech)
		}
		out[i] = r.speech
	}
	return out, nil
}
