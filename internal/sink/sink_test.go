package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/regform/internal/log"
	"github.com/zjrosen/regform/internal/pubsub"
	"github.com/zjrosen/regform/internal/registration"
	"github.com/zjrosen/regform/internal/tracing"
)

var testForm = registration.Form{Email: "user@test.com", Password: "pass12", RepeatPassword: "pass12"}

func readLines(t *testing.T, path string) []Submission {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var subs []Submission
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var sub Submission
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &sub))
		subs = append(subs, sub)
	}
	require.NoError(t, scanner.Err())
	return subs
}

func TestNewSubmission(t *testing.T) {
	a := NewSubmission(testForm)
	b := NewSubmission(testForm)

	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, testForm, a.Form)
	require.WithinDuration(t, time.Now(), a.SubmittedAt, time.Minute)
}

func TestFileSink_AppendsRedactedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "submissions.jsonl")
	s := NewFileSink(path, true)

	first := NewSubmission(testForm)
	second := NewSubmission(testForm.With(registration.FieldEmail, "other@test.com"))
	require.NoError(t, s.Send(context.Background(), first))
	require.NoError(t, s.Send(context.Background(), second))

	subs := readLines(t, path)
	require.Len(t, subs, 2)
	require.Equal(t, first.ID, subs[0].ID)
	require.Equal(t, "user@test.com", subs[0].Form.Email)
	require.Equal(t, "********", subs[0].Form.Password)
	require.Equal(t, "********", subs[0].Form.RepeatPassword)
	require.Equal(t, "other@test.com", subs[1].Form.Email)
}

func TestFileSink_Unredacted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.jsonl")
	s := NewFileSink(path, false)

	require.NoError(t, s.Send(context.Background(), NewSubmission(testForm)))

	subs := readLines(t, path)
	require.Len(t, subs, 1)
	require.Equal(t, testForm, subs[0].Form)
}

func TestFileSink_JSONKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.jsonl")
	require.NoError(t, NewFileSink(path, false).Send(context.Background(), NewSubmission(testForm)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &raw))
	require.Contains(t, raw, "id")
	require.Contains(t, raw, "submitted_at")
	form, ok := raw["form"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "pass12", form["repeatPassword"])
}

func TestFileSink_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.jsonl")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileSink(path, true).Send(ctx, NewSubmission(testForm))
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestLogSink_MasksPasswords(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf)
	t.Cleanup(log.Reset)

	sub := NewSubmission(testForm)
	require.NoError(t, NewLogSink().Send(context.Background(), sub))

	out := buf.String()
	require.Contains(t, out, "[sink] submission received")
	require.Contains(t, out, "id="+sub.ID)
	require.Contains(t, out, "email=user@test.com")
	require.NotContains(t, out, "pass12")
}

func TestBrokerSink_Publishes(t *testing.T) {
	broker := pubsub.NewBroker[Submission]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := broker.Subscribe(ctx)

	sub := NewSubmission(testForm)
	require.NoError(t, NewBrokerSink(broker).Send(context.Background(), sub))

	select {
	case event := <-ch:
		require.Equal(t, pubsub.SubmittedEvent, event.Type)
		require.Equal(t, sub, event.Payload)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestBrokerSink_NilBroker(t *testing.T) {
	require.NoError(t, NewBrokerSink(nil).Send(context.Background(), NewSubmission(testForm)))
}

func TestMulti_CallsAllAndJoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	var calls []string

	m := Multi{
		Func(func(context.Context, Submission) error { calls = append(calls, "a"); return errA }),
		nil,
		Func(func(context.Context, Submission) error { calls = append(calls, "b"); return nil }),
		Func(func(context.Context, Submission) error { calls = append(calls, "c"); return errC }),
	}

	err := m.Send(context.Background(), NewSubmission(testForm))
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errC)
	require.Equal(t, []string{"a", "b", "c"}, calls)

	require.NoError(t, Multi{}.Send(context.Background(), NewSubmission(testForm)))
}

func TestBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	tests := []struct {
		name    string
		kinds   []string
		opts    Options
		wantLen int
		wantErr string
	}{
		{name: "empty", kinds: nil, wantLen: 0},
		{name: "log", kinds: []string{"log"}, wantLen: 1},
		{name: "log and file", kinds: []string{"log", "file"}, opts: Options{FilePath: path}, wantLen: 2},
		{name: "file without path", kinds: []string{"file"}, wantErr: "file_path is required"},
		{name: "unknown", kinds: []string{"webhook"}, wantErr: `unknown sink kind: "webhook"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.kinds, tt.opts)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
		})
	}

	_, err := Build([]string{"nope"}, Options{})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestTraced_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	boom := errors.New("boom")
	s := Traced(Func(func(context.Context, Submission) error { return boom }), tp.Tracer("test"), "file")

	sub := NewSubmission(testForm)
	require.ErrorIs(t, s.Send(context.Background(), sub), boom)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, tracing.SpanSend, spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "file", attrs[tracing.AttrSinkKind])
	require.Equal(t, sub.ID, attrs[tracing.AttrSubmissionID])
	require.Len(t, spans[0].Events(), 1)
}

func TestTraced_NilTracerReturnsSink(t *testing.T) {
	s := NewLogSink()
	require.Equal(t, Sink(s), Traced(s, nil, "log"))
}
