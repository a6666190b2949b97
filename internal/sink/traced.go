package sink

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/regform/internal/tracing"
)

// Traced wraps s so each Send is recorded as a sink.send span.
func Traced(s Sink, tracer trace.Tracer, kind string) Sink {
	if tracer == nil {
		return s
	}
	return tracedSink{next: s, tracer: tracer, kind: kind}
}

type tracedSink struct {
	next   Sink
	tracer trace.Tracer
	kind   string
}

func (t tracedSink) Send(ctx context.Context, sub Submission) error {
	ctx, span := t.tracer.Start(ctx, tracing.SpanSend,
		trace.WithAttributes(
			attribute.String(tracing.AttrSinkKind, t.kind),
			attribute.String(tracing.AttrSubmissionID, sub.ID),
		))
	defer span.End()

	if err := t.next.Send(ctx, sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
