// Package form holds the registration form's state and decides when it is
// validated.
//
// Typing only records values. Leaving a field (blur) validates it and any
// already-touched field that depends on it. Submitting validates everything
// and, when the form is valid, hands the values to a sink. Listeners receive
// a Snapshot after every state change; the view re-renders from it.
package form

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/regform/internal/log"
	"github.com/zjrosen/regform/internal/registration"
	"github.com/zjrosen/regform/internal/sink"
	"github.com/zjrosen/regform/internal/tracing"
	"github.com/zjrosen/regform/internal/validation"
)

var (
	// ErrUnknownField is returned by RegisterField for names outside the form.
	ErrUnknownField = registration.ErrUnknownField
	// ErrInvalid is returned by HandleSubmit when a field fails validation.
	ErrInvalid = errors.New("form is invalid")
)

// FieldStatus tracks whether a field has been validated and its outcome.
type FieldStatus int

const (
	Untouched FieldStatus = iota
	TouchedValid
	TouchedInvalid
)

func (s FieldStatus) String() string {
	switch s {
	case TouchedValid:
		return "valid"
	case TouchedInvalid:
		return "invalid"
	default:
		return "untouched"
	}
}

// Binding is what an input needs to participate in the form.
type Binding struct {
	Field    registration.Field
	Value    func() string
	OnChange func(value string)
	OnBlur   func(value string)
}

// Snapshot is the observable state after a change.
type Snapshot struct {
	Values      registration.Form
	Errors      validation.Errors
	Dirty       bool
	Valid       bool
	CanSubmit   bool
	BecameValid bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithDependentRevalidation toggles re-checking touched dependents on blur.
func WithDependentRevalidation(enabled bool) Option {
	return func(c *Controller) {
		c.dependentRevalidation = enabled
	}
}

// WithTracer records blur and submit spans on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithDefaults sets the initial values. Dirty is measured against them.
func WithDefaults(defaults registration.Form) Option {
	return func(c *Controller) {
		c.defaults = defaults
	}
}

// Controller owns one registration form. It is not safe for concurrent use.
type Controller struct {
	schema *validation.Schema
	sink   sink.Sink
	tracer trace.Tracer

	dependentRevalidation bool

	defaults  registration.Form
	values    registration.Form
	status    map[registration.Field]FieldStatus
	errors    validation.Errors
	valid     bool
	submitted int

	listeners map[int]func(Snapshot)
	nextID    int
}

// New creates a controller validating with schema and submitting to s.
func New(schema *validation.Schema, s sink.Sink, opts ...Option) *Controller {
	c := &Controller{
		schema:                schema,
		sink:                  s,
		tracer:                tracing.Noop(),
		dependentRevalidation: true,
		status:                make(map[registration.Field]FieldStatus),
		errors:                make(validation.Errors),
		listeners:             make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.values = c.defaults
	c.valid = schema.Validate(c.values).Valid()
	return c
}

// RegisterField returns the binding for the named field.
func (c *Controller) RegisterField(name string) (Binding, error) {
	field, err := registration.ParseField(name)
	if err != nil {
		return Binding{}, err
	}
	return Binding{
		Field:    field,
		Value:    func() string { return c.values.Value(field) },
		OnChange: func(v string) { c.HandleChange(field, v) },
		OnBlur:   func(v string) { c.HandleBlur(field, v) },
	}, nil
}

// HandleChange records a new value without validating it.
func (c *Controller) HandleChange(field registration.Field, value string) {
	if field.Index() < 0 || c.values.Value(field) == value {
		return
	}
	c.values = c.values.With(field, value)
	c.notify(c.valid)
}

// HandleBlur records value, validates field, and re-validates touched
// dependents of field.
func (c *Controller) HandleBlur(field registration.Field, value string) {
	if field.Index() < 0 {
		return
	}
	_, span := c.tracer.Start(context.Background(), tracing.SpanBlur,
		trace.WithAttributes(attribute.String(tracing.AttrField, string(field))))
	defer span.End()

	wasValid := c.valid
	c.values = c.values.With(field, value)
	c.check(field)
	if issue, ok := c.errors[field]; ok {
		span.SetAttributes(attribute.String(tracing.AttrErrorKind, issue.Kind.String()))
	}

	var revalidated []string
	if c.dependentRevalidation {
		for _, dep := range c.schema.Dependents(field) {
			if c.status[dep] == Untouched {
				continue
			}
			c.check(dep)
			revalidated = append(revalidated, string(dep))
		}
	}

	c.valid = c.schema.Validate(c.values).Valid()
	span.SetAttributes(
		attribute.Bool(tracing.AttrValid, c.valid),
		attribute.StringSlice(tracing.AttrRevalidated, revalidated),
	)

	log.Debug(log.CatForm, "field blurred",
		"field", field,
		"status", c.status[field],
		"revalidated", len(revalidated),
		"valid", c.valid)
	c.notify(wasValid)
}

// HandleSubmit validates every field and, if the form is valid, sends the
// values to the sink once.
func (c *Controller) HandleSubmit(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, tracing.SpanSubmit)
	defer span.End()

	wasValid := c.valid
	for _, field := range registration.Fields() {
		c.check(field)
	}
	c.valid = c.errors.Valid()
	span.SetAttributes(attribute.Bool(tracing.AttrValid, c.valid))

	if !c.valid {
		log.Debug(log.CatForm, "submit refused", "errors", len(c.errors))
		c.notify(wasValid)
		span.SetStatus(codes.Error, ErrInvalid.Error())
		return ErrInvalid
	}
	c.notify(wasValid)

	sub := sink.NewSubmission(c.values)
	span.SetAttributes(attribute.String(tracing.AttrSubmissionID, sub.ID))
	if err := c.sink.Send(ctx, sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatForm, "submit failed", err, "id", sub.ID)
		return fmt.Errorf("submitting registration: %w", err)
	}

	c.submitted++
	log.Info(log.CatForm, "form submitted", "id", sub.ID)
	return nil
}

// RefreshMessages re-renders the text of visible errors, for example after
// the schema's message table changed.
func (c *Controller) RefreshMessages() {
	for field, issue := range c.errors {
		issue.Message = c.schema.Message(field, issue.Kind)
		c.errors[field] = issue
	}
	c.notify(c.valid)
}

// IsDirty reports whether any value differs from its default.
func (c *Controller) IsDirty() bool {
	return c.values != c.defaults
}

// IsValid reports whole-form validity as of the last blur or submit.
func (c *Controller) IsValid() bool {
	return c.valid
}

// CanSubmit reports whether the submit control should be enabled.
func (c *Controller) CanSubmit() bool {
	return c.IsDirty() && c.valid
}

// Errors returns a copy of the visible errors.
func (c *Controller) Errors() validation.Errors {
	return c.errors.Clone()
}

// Error returns the visible error text for field.
func (c *Controller) Error(field registration.Field) string {
	return c.errors.Message(field)
}

// Status returns the validation status of field.
func (c *Controller) Status(field registration.Field) FieldStatus {
	return c.status[field]
}

// Values returns the current values.
func (c *Controller) Values() registration.Form {
	return c.values
}

// Submitted returns how many submissions the sink accepted.
func (c *Controller) Submitted() int {
	return c.submitted
}

// Snapshot returns the current observable state.
func (c *Controller) Snapshot() Snapshot {
	return c.snapshot(c.valid)
}

// Subscribe registers fn to be called after every state change.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

func (c *Controller) check(field registration.Field) {
	if issue, failed := c.schema.ValidateField(c.values, field); failed {
		c.errors[field] = issue
		c.status[field] = TouchedInvalid
		return
	}
	delete(c.errors, field)
	c.status[field] = TouchedValid
}

func (c *Controller) snapshot(wasValid bool) Snapshot {
	return Snapshot{
		Values:      c.values,
		Errors:      c.errors.Clone(),
		Dirty:       c.IsDirty(),
		Valid:       c.valid,
		CanSubmit:   c.CanSubmit(),
		BecameValid: !wasValid && c.valid,
	}
}

func (c *Controller) notify(wasValid bool) {
	if len(c.listeners) == 0 {
		return
	}
	snap := c.snapshot(wasValid)
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			fn(snap)
		}
	}
}
