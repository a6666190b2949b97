// Package sink delivers validated registrations to their destination.
//
// The form never talks to a network. A submission is handed to a Sink; the
// built-in sinks log it, append it to a JSONL file, or publish it on an
// in-process broker. Multi fans out to several sinks.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/regform/internal/registration"
)

// Kind names a configurable sink.
type Kind string

const (
	KindLog  Kind = "log"
	KindFile Kind = "file"
)

// ErrUnknownKind is returned by Build for an unrecognized sink kind.
var ErrUnknownKind = errors.New("unknown sink kind")

// Submission is one validated registration.
type Submission struct {
	ID          string            `json:"id"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Form        registration.Form `json:"form"`
}

// NewSubmission stamps form with a fresh ID and the current time.
func NewSubmission(form registration.Form) Submission {
	return Submission{
		ID:          uuid.NewString(),
		SubmittedAt: time.Now().UTC(),
		Form:        form,
	}
}

// Sink receives submissions.
type Sink interface {
	Send(ctx context.Context, sub Submission) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, sub Submission) error

// Send calls f.
func (f Func) Send(ctx context.Context, sub Submission) error {
	return f(ctx, sub)
}

// Multi delivers to every sink in order. All sinks are attempted; their
// errors are joined.
type Multi []Sink

// Send implements Sink.
func (m Multi) Send(ctx context.Context, sub Submission) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Send(ctx, sub); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options configures sinks created by Build.
type Options struct {
	FilePath        string
	RedactPasswords bool
}

// Build creates a Multi from configured kinds.
func Build(kinds []string, opts Options) (Multi, error) {
	var out Multi
	for _, k := range kinds {
		switch Kind(k) {
		case KindLog:
			out = append(out, NewLogSink())
		case KindFile:
			if opts.FilePath == "" {
				return nil, fmt.Errorf("file sink: file_path is required")
			}
			out = append(out, NewFileSink(opts.FilePath, opts.RedactPasswords))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
	}
	return out, nil
}
