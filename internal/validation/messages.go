package validation

import (
	"maps"
	"strconv"
	"strings"

	"github.com/zjrosen/regform/internal/registration"
)

// Messages maps error kinds to display text.
//
// Field overrides win over kind defaults, which win over DefaultMessages.
// Text may contain {min} and {max}, replaced with the schema's password bounds.
type Messages struct {
	Kinds  map[registration.ErrorKind]string
	Fields map[registration.Field]map[registration.ErrorKind]string
}

// DefaultMessages returns the built-in English messages.
func DefaultMessages() Messages {
	return Messages{
		Kinds: map[registration.ErrorKind]string{
			registration.KindRequired: "This field is required",
			registration.KindFormat:   "Invalid email. Use the format: yourAddress@mail.com",
			registration.KindTooShort: "Invalid password. Password must be at least {min} characters",
			registration.KindTooLong:  "Invalid password. Password must be at most {max} characters",
			registration.KindMismatch: "Passwords must match",
		},
		Fields: map[registration.Field]map[registration.ErrorKind]string{
			registration.FieldEmail:          {registration.KindRequired: "Email is required"},
			registration.FieldPassword:       {registration.KindRequired: "Password is required"},
			registration.FieldRepeatPassword: {registration.KindRequired: "Repeat your password"},
		},
	}
}

// lookup returns the raw text for a field and kind, or "" if none is set.
func (m Messages) lookup(field registration.Field, kind registration.ErrorKind) string {
	if byKind, ok := m.Fields[field]; ok {
		if msg := byKind[kind]; msg != "" {
			return msg
		}
	}
	return m.Kinds[kind]
}

// clone returns a deep copy so callers cannot mutate a schema's table.
func (m Messages) clone() Messages {
	out := Messages{
		Kinds:  maps.Clone(m.Kinds),
		Fields: make(map[registration.Field]map[registration.ErrorKind]string, len(m.Fields)),
	}
	for f, byKind := range m.Fields {
		out.Fields[f] = maps.Clone(byKind)
	}
	return out
}

func expand(msg string, minLen, maxLen int) string {
	if !strings.Contains(msg, "{") {
		return msg
	}
	r := strings.NewReplacer("{min}", strconv.Itoa(minLen), "{max}", strconv.Itoa(maxLen))
	return r.Replace(msg)
}
