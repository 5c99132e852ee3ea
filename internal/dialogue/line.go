package dialogue

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Line is one render-time dialogue line. It carries no timing: durations come
// from the synthesized audio.
type Line struct {
	Speaker SpeakerID `yaml:"speaker" json:"speaker"`
	Text    string    `yaml:"text" json:"text"`
}

// Validate checks the line against the roster
func (l Line) Validate(roster *Roster) error {
	if strings.TrimSpace(l.Text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if !roster.Contains(l.Speaker) {
		return fmt.Errorf("unknown speaker %q", l.Speaker)
	}
	return nil
}

// Script is a dialogue script file
type Script struct {
	Title string `yaml:"title"`
	Lines []Line `yaml:"lines"`
}

// LoadScript decodes a YAML dialogue script and normalises every speaker
// against roster. Any invalid line is a ValidationError naming its position.
func LoadScript(r io.Reader, roster *Roster) (*Script, error) {
	var script Script
	if err := yaml.NewDecoder(r).Decode(&script); err != nil {
		if err == io.EOF {
			return &Script{}, nil
		}
		return nil, fmt.Errorf("failed to decode dialogue script: %w", err)
	}

	for i := range script.Lines {
		line := &script.Lines[i]
		item := fmt.Sprintf("dialogue line %d", i+1)

		id, ok := roster.Normalize(string(line.Speaker))
		if !ok {
			return nil, NewValidationError(item, "unknown speaker %q", line.Speaker)
		}
		line.Speaker = id
		line.Text = strings.TrimSpace(line.Text)

		if err := line.Validate(roster); err != nil {
			return nil, NewValidationError(item, "%v", err)
		}
	}

	return &script, nil
}
