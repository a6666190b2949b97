package tracing

// Span names.
const (
	SpanBlur   = "form.blur"
	SpanSubmit = "form.submit"
	SpanSend   = "sink.send"
)

// Span attribute keys.
const (
	AttrField        = "form.field"
	AttrValid        = "form.valid"
	AttrErrorKind    = "form.error_kind"
	AttrRevalidated  = "form.revalidated"
	AttrSubmissionID = "submission.id"
	AttrSinkKind     = "sink.kind"
)
