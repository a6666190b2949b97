// Package registration defines the registration form data model.
package registration

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned when a field name is not one of the form's fields.
var ErrUnknownField = errors.New("unknown field")

// Field names one input slot of the registration form.
// Values match the JSON keys of the submitted payload.
type Field string

const (
	FieldEmail          Field = "email"
	FieldPassword       Field = "password"
	FieldRepeatPassword Field = "repeatPassword"
)

// Fields returns all fields in display order.
func Fields() []Field {
	return []Field{FieldEmail, FieldPassword, FieldRepeatPassword}
}

// ParseField converts a name into a Field.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldEmail, FieldPassword, FieldRepeatPassword:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Index returns the display position of the field, or -1 if unknown.
func (f Field) Index() int {
	for i, field := range Fields() {
		if field == f {
			return i
		}
	}
	return -1
}

// Masked reports whether the field holds a secret that should not be echoed.
func (f Field) Masked() bool {
	return f == FieldPassword || f == FieldRepeatPassword
}

// Form is the registration payload.
type Form struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
}

// Value returns the value of the given field. Unknown fields read as empty.
func (f Form) Value(field Field) string {
	switch field {
	case FieldEmail:
		return f.Email
	case FieldPassword:
		return f.Password
	case FieldRepeatPassword:
		return f.RepeatPassword
	}
	return ""
}

// With returns a copy of the form with field set to value.
// Unknown fields leave the copy unchanged.
func (f Form) With(field Field, value string) Form {
	switch field {
	case FieldEmail:
		f.Email = value
	case FieldPassword:
		f.Password = value
	case FieldRepeatPassword:
		f.RepeatPassword = value
	}
	return f
}

// Redacted returns a copy with secret fields replaced by a fixed mask.
// Empty secrets stay empty so a missing value remains visible.
func (f Form) Redacted() Form {
	for _, field := range Fields() {
		if field.Masked() && f.Value(field) != "" {
			f = f.With(field, "********")
		}
	}
	return f
}

// ErrorKind classifies a validation failure.
type ErrorKind int

const (
	// KindRequired means the field is empty.
	KindRequired ErrorKind = iota + 1
	// KindFormat means the value does not match the expected pattern.
	KindFormat
	// KindTooShort means the value is shorter than the minimum length.
	KindTooShort
	// KindTooLong means the value is longer than the maximum length.
	KindTooLong
	// KindMismatch means the value differs from the field it must repeat.
	KindMismatch
)

// Kinds returns every error kind.
func Kinds() []ErrorKind {
	return []ErrorKind{KindRequired, KindFormat, KindTooShort, KindTooLong, KindMismatch}
}

// String returns the stable name of the kind, also used as its config key.
func (k ErrorKind) String() string {
	switch k {
	case KindRequired:
		return "required"
	case KindFormat:
		return "format"
	case KindTooShort:
		return "too_short"
	case KindTooLong:
		return "too_long"
	case KindMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// ParseErrorKind converts a config key into an ErrorKind.
func ParseErrorKind(s string) (ErrorKind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown error kind %q", s)
}
