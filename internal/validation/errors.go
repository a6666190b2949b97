package validation

import (
	"maps"
	"slices"

	"github.com/zjrosen/regform/internal/registration"
)

// Errors maps a field to its issue. A missing key means the field is valid.
type Errors map[registration.Field]Issue

// Valid reports whether there are no issues.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Message returns the display text for field, or "" if the field is valid.
func (e Errors) Message(field registration.Field) string {
	return e[field].Message
}

// Fields returns the failing fields in display order.
func (e Errors) Fields() []registration.Field {
	fields := slices.Collect(maps.Keys(e))
	slices.SortFunc(fields, func(a, b registration.Field) int {
		return a.Index() - b.Index()
	})
	return fields
}

// Clone returns a copy of e. A nil map clones to an empty one.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	maps.Copy(out, e)
	return out
}

// Messages returns field name to message, the shape the view and JSON output use.
func (e Errors) Messages() map[string]string {
	out := make(map[string]string, len(e))
	for f, issue := range e {
		out[string(f)] = issue.Message
	}
	return out
}
