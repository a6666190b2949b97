package form

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/regform/internal/registration"
	"github.com/zjrosen/regform/internal/sink"
	"github.com/zjrosen/regform/internal/tracing"
	"github.com/zjrosen/regform/internal/validation"
)

// recordingSink captures every submission it receives.
type recordingSink struct {
	got []sink.Submission
	err error
}

func (r *recordingSink) Send(_ context.Context, sub sink.Submission) error {
	r.got = append(r.got, sub)
	return r.err
}

func newController(t *testing.T, opts ...Option) (*Controller, *recordingSink) {
	t.Helper()
	rec := &recordingSink{}
	return New(validation.New(validation.DefaultMessages()), rec, opts...), rec
}

func fill(c *Controller, form registration.Form) {
	for _, f := range registration.Fields() {
		c.HandleChange(f, form.Value(f))
		c.HandleBlur(f, form.Value(f))
	}
}

func TestController_InitialState(t *testing.T) {
	c, _ := newController(t)

	require.False(t, c.IsDirty())
	require.False(t, c.IsValid())
	require.False(t, c.CanSubmit())
	require.Empty(t, c.Errors())
	require.Equal(t, registration.Form{}, c.Values())
	for _, f := range registration.Fields() {
		require.Equal(t, Untouched, c.Status(f))
	}
}

func TestController_RegisterField(t *testing.T) {
	c, _ := newController(t)

	b, err := c.RegisterField("email")
	require.NoError(t, err)
	require.Equal(t, registration.FieldEmail, b.Field)

	b.OnChange("a@b")
	require.Equal(t, "a@b", b.Value())
	require.Empty(t, c.Error(registration.FieldEmail), "change must not validate")

	b.OnBlur("a@b")
	require.Equal(t, TouchedInvalid, c.Status(registration.FieldEmail))
	require.Equal(t, "Invalid email. Use the format: yourAddress@mail.com", c.Error(registration.FieldEmail))

	_, err = c.RegisterField("username")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestController_ChangeDoesNotValidate(t *testing.T) {
	c, _ := newController(t)
	valid := registration.Form{Email: "a@b.co", Password: "abc", RepeatPassword: "abc"}
	for _, f := range registration.Fields() {
		c.HandleChange(f, valid.Value(f))
	}

	require.True(t, c.IsDirty())
	require.False(t, c.IsValid())
	require.False(t, c.CanSubmit())
	require.Empty(t, c.Errors())
}

func TestController_RequiredOnSubmit(t *testing.T) {
	required := map[registration.Field]string{
		registration.FieldEmail:          "Email is required",
		registration.FieldPassword:       "Password is required",
		registration.FieldRepeatPassword: "Repeat your password",
	}
	full := registration.Form{Email: "a@b.co", Password: "abc", RepeatPassword: "abc"}

	// Every subset of fields left empty.
	for mask := 1; mask < 1<<3; mask++ {
		c, rec := newController(t)
		form := full
		var empty []registration.Field
		for i, f := range registration.Fields() {
			if mask&(1<<i) != 0 {
				form = form.With(f, "")
				empty = append(empty, f)
			}
		}
		for _, f := range registration.Fields() {
			c.HandleChange(f, form.Value(f))
		}

		err := c.HandleSubmit(context.Background())
		require.ErrorIs(t, err, ErrInvalid, "mask %03b", mask)
		require.False(t, c.IsValid())
		require.Empty(t, rec.got)

		for _, f := range empty {
			require.Equal(t, required[f], c.Error(f), "mask %03b field %s", mask, f)
			require.Equal(t, TouchedInvalid, c.Status(f))
		}
	}
}

func TestController_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		field registration.Field
		form  registration.Form
		want  registration.ErrorKind // 0 means no error
	}{
		{name: "email ok", field: registration.FieldEmail, form: registration.Form{Email: "a@b.co"}},
		{name: "email format", field: registration.FieldEmail, form: registration.Form{Email: "bad"}, want: registration.KindFormat},
		{name: "password too short", field: registration.FieldPassword, form: registration.Form{Password: "ab"}, want: registration.KindTooShort},
		{name: "password too long", field: registration.FieldPassword, form: registration.Form{Password: "abcdefghi"}, want: registration.KindTooLong},
		{name: "password min", field: registration.FieldPassword, form: registration.Form{Password: "abc"}},
		{name: "password max", field: registration.FieldPassword, form: registration.Form{Password: "abcdefgh"}},
		{name: "mismatch", field: registration.FieldRepeatPassword, form: registration.Form{Password: "secret1", RepeatPassword: "secret2"}, want: registration.KindMismatch},
		{name: "match", field: registration.FieldRepeatPassword, form: registration.Form{Password: "secret1", RepeatPassword: "secret1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newController(t)
			for _, f := range registration.Fields() {
				c.HandleChange(f, tt.form.Value(f))
			}
			c.HandleBlur(tt.field, tt.form.Value(tt.field))

			errs := c.Errors()
			if tt.want == 0 {
				require.NotContains(t, errs, tt.field)
				require.Equal(t, TouchedValid, c.Status(tt.field))
				return
			}
			require.Equal(t, tt.want, errs[tt.field].Kind)
			require.Equal(t, TouchedInvalid, c.Status(tt.field))
		})
	}
}

func TestController_MismatchClearsOnFix(t *testing.T) {
	c, _ := newController(t)
	c.HandleBlur(registration.FieldPassword, "secret1")
	c.HandleBlur(registration.FieldRepeatPassword, "secret2")
	require.Equal(t, "Passwords must match", c.Error(registration.FieldRepeatPassword))

	c.HandleBlur(registration.FieldRepeatPassword, "secret1")
	require.Empty(t, c.Error(registration.FieldRepeatPassword))
	require.Equal(t, TouchedValid, c.Status(registration.FieldRepeatPassword))
}

func TestController_DependentRevalidation(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		c, _ := newController(t, WithDependentRevalidation(enabled))
		fill(c, registration.Form{Email: "a@b.co", Password: "abc", RepeatPassword: "abc"})
		require.True(t, c.IsValid())

		c.HandleChange(registration.FieldPassword, "abcd")
		c.HandleBlur(registration.FieldPassword, "abcd")

		// Whole-form validity always sees the mismatch.
		require.False(t, c.IsValid())
		if enabled {
			require.Equal(t, registration.KindMismatch, c.Errors()[registration.FieldRepeatPassword].Kind)
			require.Equal(t, TouchedInvalid, c.Status(registration.FieldRepeatPassword))
		} else {
			require.Empty(t, c.Error(registration.FieldRepeatPassword))
			require.Equal(t, TouchedValid, c.Status(registration.FieldRepeatPassword))
		}
	}
}

func TestController_DependentRevalidationSkipsUntouched(t *testing.T) {
	c, _ := newController(t)
	c.HandleChange(registration.FieldRepeatPassword, "zzz")
	c.HandleBlur(registration.FieldPassword, "abc")

	require.Equal(t, Untouched, c.Status(registration.FieldRepeatPassword))
	require.Empty(t, c.Error(registration.FieldRepeatPassword))
}

func TestController_SubmitDisabledWhenUntouched(t *testing.T) {
	defaults := registration.Form{Email: "a@b.co", Password: "abc", RepeatPassword: "abc"}
	c, _ := newController(t, WithDefaults(defaults))

	require.True(t, c.IsValid())
	require.False(t, c.IsDirty())
	require.False(t, c.CanSubmit())
	require.Equal(t, defaults, c.Values())

	c.HandleChange(registration.FieldEmail, "b@b.co")
	c.HandleBlur(registration.FieldEmail, "b@b.co")
	require.True(t, c.CanSubmit())

	// Reverting to defaults clears dirty.
	c.HandleChange(registration.FieldEmail, "a@b.co")
	require.False(t, c.IsDirty())
	require.False(t, c.CanSubmit())
}

func TestController_SubmitDisabledWhileInvalid(t *testing.T) {
	c, _ := newController(t)
	fill(c, registration.Form{Email: "a@b.co", Password: "abc", RepeatPassword: "abd"})

	require.True(t, c.IsDirty())
	require.False(t, c.IsValid())
	require.False(t, c.CanSubmit())
}

func TestController_EndToEnd(t *testing.T) {
	c, rec := newController(t)

	var snaps []Snapshot
	unsubscribe := c.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })
	defer unsubscribe()

	want := registration.Form{Email: "user@test.com", Password: "pass12", RepeatPassword: "pass12"}
	fill(c, want)

	require.True(t, c.IsValid())
	require.True(t, c.CanSubmit())
	require.NotEmpty(t, snaps)

	last := snaps[len(snaps)-1]
	require.True(t, last.BecameValid)
	require.True(t, last.CanSubmit)
	for _, s := range snaps[:len(snaps)-1] {
		require.False(t, s.BecameValid)
	}

	require.NoError(t, c.HandleSubmit(context.Background()))
	require.Len(t, rec.got, 1)
	if diff := cmp.Diff(want, rec.got[0].Form); diff != "" {
		t.Fatalf("submitted form mismatch (-want +got):\n%s", diff)
	}
	require.NotEmpty(t, rec.got[0].ID)
	require.Equal(t, 1, c.Submitted())
}

func TestController_SubmitInvalidHasNoSideEffect(t *testing.T) {
	c, rec := newController(t)
	c.HandleChange(registration.FieldEmail, "bad")

	err := c.HandleSubmit(context.Background())
	require.ErrorIs(t, err, ErrInvalid)
	require.Empty(t, rec.got)
	require.Equal(t, 0, c.Submitted())
	require.Equal(t, "bad", c.Values().Email)
	require.Len(t, c.Errors(), 3)
}

func TestController_SinkErrorKeepsState(t *testing.T) {
	c, rec := newController(t)
	rec.err = errors.New("disk full")
	form := registration.Form{Email: "user@test.com", Password: "pass12", RepeatPassword: "pass12"}
	fill(c, form)

	err := c.HandleSubmit(context.Background())
	require.ErrorIs(t, err, rec.err)
	require.ErrorContains(t, err, "submitting registration")
	require.Len(t, rec.got, 1)
	require.Equal(t, form, c.Values())
	require.True(t, c.CanSubmit())
	require.Equal(t, 0, c.Submitted())
}

func TestController_SubscribeAndUnsubscribe(t *testing.T) {
	c, _ := newController(t)

	var a, b int
	unsubA := c.Subscribe(func(Snapshot) { a++ })
	c.Subscribe(func(Snapshot) { b++ })

	c.HandleChange(registration.FieldEmail, "x")
	c.HandleChange(registration.FieldEmail, "x") // unchanged value, no notification
	require.Equal(t, 1, a)
	require.Equal(t, 1, b)

	unsubA()
	c.HandleBlur(registration.FieldEmail, "x")
	require.Equal(t, 1, a)
	require.Equal(t, 2, b)
}

func TestController_SnapshotErrorsAreCopies(t *testing.T) {
	c, _ := newController(t)
	c.HandleBlur(registration.FieldEmail, "")

	snap := c.Snapshot()
	delete(snap.Errors, registration.FieldEmail)
	require.NotEmpty(t, c.Error(registration.FieldEmail))

	errs := c.Errors()
	errs[registration.FieldPassword] = validation.Issue{}
	require.Empty(t, c.Error(registration.FieldPassword))
}

func TestController_RefreshMessages(t *testing.T) {
	schema := validation.New(validation.DefaultMessages())
	c := New(schema, &recordingSink{})
	c.HandleBlur(registration.FieldEmail, "bad")
	require.False(t, c.IsValid())

	msgs := validation.DefaultMessages()
	msgs.Kinds[registration.KindFormat] = "Неверный email"
	schema.SetMessages(msgs)
	c.RefreshMessages()

	require.Equal(t, "Неверный email", c.Error(registration.FieldEmail))
	require.Equal(t, TouchedInvalid, c.Status(registration.FieldEmail))
	require.False(t, c.IsValid())
}

func TestController_UnknownFieldIgnored(t *testing.T) {
	c, _ := newController(t)
	c.HandleChange("username", "x")
	c.HandleBlur("username", "x")
	require.False(t, c.IsDirty())
	require.Empty(t, c.Errors())
}

func TestController_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c, _ := newController(t, WithTracer(tp.Tracer("test")))
	c.HandleBlur(registration.FieldEmail, "bad")
	require.ErrorIs(t, c.HandleSubmit(context.Background()), ErrInvalid)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, tracing.SpanBlur, spans[0].Name())
	require.Equal(t, tracing.SpanSubmit, spans[1].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "email", attrs[tracing.AttrField])
	require.Equal(t, "format", attrs[tracing.AttrErrorKind])
	require.Equal(t, "false", attrs[tracing.AttrValid])
}

func TestFieldStatus_String(t *testing.T) {
	require.Equal(t, "untouched", Untouched.String())
	require.Equal(t, "valid", TouchedValid.String())
	require.Equal(t, "invalid", TouchedInvalid.String())
}
