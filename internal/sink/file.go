package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends submissions to a JSONL file, one object per line.
type FileSink struct {
	path   string
	redact bool
	mu     sync.Mutex
}

// NewFileSink creates a sink appending to path. With redact set, password
// fields are masked before writing.
func NewFileSink(path string, redact bool) *FileSink {
	return &FileSink{path: filepath.Clean(path), redact: redact}
}

// Path returns the output file.
func (s *FileSink) Path() string {
	return s.path
}

// Send implements Sink.
func (s *FileSink) Send(ctx context.Context, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.redact {
		sub.Form = sub.Form.Redacted()
	}

	line, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encoding submission: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("creating submissions directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304 -- path is cleaned in NewFileSink
	if err != nil {
		return fmt.Errorf("opening submissions file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing submission: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing submissions file: %w", err)
	}
	return nil
}
