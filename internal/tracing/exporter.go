package tracing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var errExporterClosed = errors.New("trace exporter is closed")

// lineExporter appends one JSON object per ended span.
type lineExporter struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

func newLineExporter(path string) (*lineExporter, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- path comes from the config file
	if err != nil {
		return nil, err
	}
	return &lineExporter{f: f, enc: json.NewEncoder(f)}, nil
}

// spanLine is the shape of one line in the traces file.
type spanLine struct {
	Trace      string         `json:"trace_id"`
	Span       string         `json:"span_id"`
	Parent     string         `json:"parent_span_id,omitempty"`
	Name       string         `json:"name"`
	Start      time.Time      `json:"start"`
	DurationUS int64          `json:"duration_us"`
	Error      string         `json:"error,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func (e *lineExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		if len(spans) == 0 {
			return nil
		}
		return errExporterClosed
	}
	for _, s := range spans {
		if err := e.enc.Encode(toLine(s)); err != nil {
			return fmt.Errorf("write span %s: %w", s.Name(), err)
		}
	}
	return nil
}

func (e *lineExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		return nil
	}
	err := e.f.Close()
	e.f, e.enc = nil, nil
	return err
}

func toLine(s sdktrace.ReadOnlySpan) spanLine {
	line := spanLine{
		Trace:      s.SpanContext().TraceID().String(),
		Span:       s.SpanContext().SpanID().String(),
		Name:       s.Name(),
		Start:      s.StartTime().UTC(),
		DurationUS: s.EndTime().Sub(s.StartTime()).Microseconds(),
	}
	if s.Parent().IsValid() {
		line.Parent = s.Parent().SpanID().String()
	}
	if st := s.Status(); st.Code == codes.Error {
		line.Error = st.Description
		if line.Error == "" {
			line.Error = "error"
		}
	}
	if attrs := s.Attributes(); len(attrs) > 0 {
		line.Attributes = make(map[string]any, len(attrs))
		for _, kv := range attrs {
			line.Attributes[string(kv.Key)] = kv.Value.AsInterface()
		}
	}
	return line
}
