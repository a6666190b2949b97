package registration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseField(t *testing.T) {
	for _, f := range Fields() {
		got, err := ParseField(string(f))
		require.NoError(t, err)
		require.Equal(t, f, got)
	}

	_, err := ParseField("username")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownField))
	require.Contains(t, err.Error(), `"username"`)
}

func TestFields_DisplayOrder(t *testing.T) {
	require.Equal(t, []Field{FieldEmail, FieldPassword, FieldRepeatPassword}, Fields())
	require.Equal(t, 0, FieldEmail.Index())
	require.Equal(t, 2, FieldRepeatPassword.Index())
	require.Equal(t, -1, Field("nope").Index())
}

func TestForm_ValueWith(t *testing.T) {
	var f Form
	f = f.With(FieldEmail, "a@b.co")
	f = f.With(FieldPassword, "abc")
	f = f.With(FieldRepeatPassword, "abd")

	require.Equal(t, Form{Email: "a@b.co", Password: "abc", RepeatPassword: "abd"}, f)
	require.Equal(t, "abc", f.Value(FieldPassword))
	require.Equal(t, "", f.Value(Field("nope")))
	require.Equal(t, f, f.With(Field("nope"), "x"), "unknown field leaves form unchanged")
}

func TestForm_WithDoesNotMutateReceiver(t *testing.T) {
	orig := Form{Email: "x@y.zz"}
	_ = orig.With(FieldEmail, "changed@y.zz")
	require.Equal(t, "x@y.zz", orig.Email)
}

func TestForm_Redacted(t *testing.T) {
	f := Form{Email: "user@test.com", Password: "pass12"}
	r := f.Redacted()
	require.Equal(t, "user@test.com", r.Email)
	require.Equal(t, "********", r.Password)
	require.Equal(t, "", r.RepeatPassword, "empty secrets stay empty")
	require.Equal(t, "pass12", f.Password)
}

func TestErrorKind_StringRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseErrorKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
	}
	require.Equal(t, "unknown", ErrorKind(0).String())

	_, err := ParseErrorKind("bogus")
	require.Error(t, err)
}
