package sink

import (
	"context"

	"github.com/zjrosen/regform/internal/log"
)

// LogSink writes each submission to the debug log. Passwords are masked.
type LogSink struct{}

// NewLogSink returns the default log-only sink.
func NewLogSink() LogSink {
	return LogSink{}
}

// Send implements Sink.
func (LogSink) Send(_ context.Context, sub Submission) error {
	form := sub.Form.Redacted()
	log.Info(log.CatSink, "submission received",
		"id", sub.ID,
		"email", form.Email,
		"password", form.Password,
		"repeatPassword", form.RepeatPassword)
	return nil
}
