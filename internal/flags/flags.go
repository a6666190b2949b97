// Package flags provides feature flag support for form behaviors.
// Flags are read-only after initialization. Known flags have defaults;
// unknown flags read as disabled.
package flags

import (
	"maps"

	"github.com/zjrosen/regform/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagDependentRevalidation re-checks already-touched dependent fields
	// when a field they reference is blurred.
	FlagDependentRevalidation = "dependent-revalidation"

	// FlagFocusSubmitOnValid moves focus to the submit button when the form
	// becomes valid.
	FlagFocusSubmitOnValid = "focus-submit-on-valid"
)

// Defaults returns the built-in flag values.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagDependentRevalidation: true,
		FlagFocusSubmitOnValid:    true,
	}
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from Defaults overridden by the config map.
func New(overrides map[string]bool) *Registry {
	flags := Defaults()
	maps.Copy(flags, overrides)
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags and on a nil registry.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags.
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
