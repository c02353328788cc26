package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// LoadTranscript reads a JSON transcript. A missing file yields nil, nil.
func LoadTranscript(path string) ([]Message, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, err
	}
	for i, m := range msgs {
		if _, err := ParseRole(string(m.Role)); err != nil {
			return nil, &TranscriptError{Index: i, Err: err}
		}
	}
	return msgs, nil
}

// SaveTranscript writes msgs as indented JSON, replacing any existing file.
func SaveTranscript(path string, msgs []Message) error {
	b, err := json.MarshalIndent(msgs, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// TranscriptError reports an invalid entry in a transcript file.
type TranscriptError struct {
	Index int
	Err   error
}

func (e *TranscriptError) Error() string {
	return fmt.Sprintf("transcript entry %d: %v", e.Index, e.Err)
}

func (e *TranscriptError) Unwrap() error { return e.Err }
