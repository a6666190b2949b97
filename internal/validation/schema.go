// Package validation implements the registration form's rule table.
//
// Each field owns an ordered list of rules. Rules are evaluated top to bottom
// and the first failing rule produces the field's issue. A rule can reference
// another field (repeatPassword references password); Dependents exposes that
// relationship so callers know which fields to re-check after an edit.
//
// Predicates are go-playground/validator tags evaluated against single values:
//
//	required      non-empty
//	regemail      local@domain.tld pattern
//	min=N, max=N  rune count bounds
//	eqcsfield     equal to the referenced field's value
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/zjrosen/regform/internal/registration"
)

const (
	// DefaultPasswordMin is the shortest accepted password.
	DefaultPasswordMin = 3
	// DefaultPasswordMax is the longest accepted password.
	DefaultPasswordMax = 8

	tagEmail = "regemail"
)

// EmailPattern is the accepted email shape.
var EmailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+\.[A-Za-z]{2,}$`)

// Rule is one predicate in a field's rule list.
type Rule struct {
	Kind registration.ErrorKind
	Tag  string             // validator tag
	Ref  registration.Field // compared field for cross-field rules
}

// Issue is a failed rule for a field.
type Issue struct {
	Field   registration.Field
	Kind    registration.ErrorKind
	Message string
}

// Option configures a Schema.
type Option func(*Schema)

// WithPasswordBounds overrides the accepted password length range.
func WithPasswordBounds(minLen, maxLen int) Option {
	return func(s *Schema) {
		s.minLen = minLen
		s.maxLen = maxLen
	}
}

// Schema evaluates the rule table. It is safe for concurrent use.
type Schema struct {
	validate *validator.Validate
	rules    map[registration.Field][]Rule
	minLen   int
	maxLen   int

	mu       sync.RWMutex
	messages Messages
}

// New builds the registration schema with the given messages.
func New(messages Messages, opts ...Option) *Schema {
	s := &Schema{
		validate: validator.New(),
		minLen:   DefaultPasswordMin,
		maxLen:   DefaultPasswordMax,
		messages: messages.clone(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mustRegister(s.validate, tagEmail, func(fl validator.FieldLevel) bool {
		return EmailPattern.MatchString(fl.Field().String())
	})

	s.rules = map[registration.Field][]Rule{
		registration.FieldEmail: {
			{Kind: registration.KindRequired, Tag: "required"},
			{Kind: registration.KindFormat, Tag: tagEmail},
		},
		registration.FieldPassword: {
			{Kind: registration.KindRequired, Tag: "required"},
			{Kind: registration.KindTooShort, Tag: "min=" + strconv.Itoa(s.minLen)},
			{Kind: registration.KindTooLong, Tag: "max=" + strconv.Itoa(s.maxLen)},
		},
		registration.FieldRepeatPassword: {
			{Kind: registration.KindRequired, Tag: "required"},
			{Kind: registration.KindMismatch, Tag: "eqcsfield", Ref: registration.FieldPassword},
		},
	}
	return s
}

// Validate checks every field and returns the failures.
func (s *Schema) Validate(form registration.Form) Errors {
	errs := make(Errors)
	for _, field := range registration.Fields() {
		if issue, failed := s.ValidateField(form, field); failed {
			errs[field] = issue
		}
	}
	return errs
}

// ValidateField checks a single field. It returns the first failing rule's
// issue and true, or false when the field passes.
func (s *Schema) ValidateField(form registration.Form, field registration.Field) (Issue, bool) {
	for _, rule := range s.rules[field] {
		if s.passes(form, field, rule) {
			continue
		}
		return Issue{Field: field, Kind: rule.Kind, Message: s.Message(field, rule.Kind)}, true
	}
	return Issue{}, false
}

func (s *Schema) passes(form registration.Form, field registration.Field, rule Rule) bool {
	value := form.Value(field)
	if rule.Ref != "" {
		return s.validate.VarWithValue(value, form.Value(rule.Ref), rule.Tag) == nil
	}
	return s.validate.Var(value, rule.Tag) == nil
}

// Dependents returns the fields whose rules reference field, in display order.
func (s *Schema) Dependents(field registration.Field) []registration.Field {
	var deps []registration.Field
	for _, f := range registration.Fields() {
		for _, rule := range s.rules[f] {
			if rule.Ref == field {
				deps = append(deps, f)
				break
			}
		}
	}
	return deps
}

// Rules returns a copy of the rule list for field.
func (s *Schema) Rules(field registration.Field) []Rule {
	return slices.Clone(s.rules[field])
}

// PasswordBounds returns the accepted password length range.
func (s *Schema) PasswordBounds() (minLen, maxLen int) {
	return s.minLen, s.maxLen
}

// Message returns the display text for a field and kind.
func (s *Schema) Message(field registration.Field, kind registration.ErrorKind) string {
	s.mu.RLock()
	msg := s.messages.lookup(field, kind)
	s.mu.RUnlock()
	if msg == "" {
		msg = DefaultMessages().lookup(field, kind)
	}
	return expand(msg, s.minLen, s.maxLen)
}

// SetMessages replaces the message table. Rules are unchanged.
func (s *Schema) SetMessages(messages Messages) {
	s.mu.Lock()
	s.messages = messages.clone()
	s.mu.Unlock()
}

// mustRegister panics when a custom tag cannot be registered. Tags are
// fixed at compile time, so a failure is a programming error.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: registering %q: %v", tag, err))
	}
}
