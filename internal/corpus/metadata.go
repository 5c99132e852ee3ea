package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"dialoguereel/internal/dialogue"
)

// MetadataHeader is the first row of every metadata table
var MetadataHeader = []string{"filename", "speaker", "text"}

// metadata tables are pipe-delimited so dialogue commas need no quoting
const metadataDelimiter = '|'

// WriteMetadata writes entries as a pipe-delimited table with header
func WriteMetadata(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	cw.Comma = metadataDelimiter

	if err := cw.Write(MetadataHeader); err != nil {
		return fmt.Errorf("failed to write metadata header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Filename, string(e.Speaker), e.Text}); err != nil {
			return fmt.Errorf("failed to write metadata row %s: %w", e.Filename, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMetadata parses a metadata table, checking the header and row shape
func ReadMetadata(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.Comma = metadataDelimiter
	cr.FieldsPerRecord = len(MetadataHeader)
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("metadata is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata header: %w", err)
	}
	for i, want := range MetadataHeader {
		if header[i] != want {
			return nil, fmt.Errorf("metadata header mismatch: expected %v, found %v", MetadataHeader, header)
		}
	}

	var entries []Entry
	for row := 2; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dialogue.NewValidationError(fmt.Sprintf("metadata row %d", row), "%v", err)
		}
		if record[0] == "" || record[1] == "" {
			return nil, dialogue.NewValidationError(fmt.Sprintf("metadata row %d", row), "filename and speaker are required")
		}
		entries = append(entries, Entry{
			Filename: record[0],
			Speaker:  dialogue.SpeakerID(record[1]),
			Text:     record[2],
		})
	}
	return entries, nil
}
