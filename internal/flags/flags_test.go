package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "default dependent revalidation is on",
			registry: New(nil),
			flag:     FlagDependentRevalidation,
			expected: true,
		},
		{
			name:     "default focus submit is on",
			registry: New(map[string]bool{}),
			flag:     FlagFocusSubmitOnValid,
			expected: true,
		},
		{
			name:     "override disables a default",
			registry: New(map[string]bool{FlagDependentRevalidation: false}),
			flag:     FlagDependentRevalidation,
			expected: false,
		},
		{
			name:     "extra flag set to true returns true",
			registry: New(map[string]bool{"feature-a": true}),
			flag:     "feature-a",
			expected: true,
		},
		{
			name:     "unknown flag returns false",
			registry: New(map[string]bool{"feature-a": true}),
			flag:     "unknown-flag",
			expected: false,
		},
		{
			name:     "nil registry returns false",
			registry: nil,
			flag:     FlagFocusSubmitOnValid,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_All(t *testing.T) {
	r := New(map[string]bool{FlagFocusSubmitOnValid: false, "extra": true})
	require.Equal(t, map[string]bool{
		FlagDependentRevalidation: true,
		FlagFocusSubmitOnValid:    false,
		"extra":                   true,
	}, r.All())

	var nilRegistry *Registry
	require.Equal(t, map[string]bool{}, nilRegistry.All())
}

func TestRegistry_All_ReturnsDefensiveCopy(t *testing.T) {
	r := New(nil)

	copied := r.All()
	copied[FlagDependentRevalidation] = false
	copied["new-flag"] = true

	require.True(t, r.Enabled(FlagDependentRevalidation), "registry should not be affected by copy mutation")
	require.False(t, r.Enabled("new-flag"))
}

func TestNew_DoesNotAliasOverrides(t *testing.T) {
	overrides := map[string]bool{FlagFocusSubmitOnValid: false}
	r := New(overrides)
	overrides[FlagFocusSubmitOnValid] = true
	require.False(t, r.Enabled(FlagFocusSubmitOnValid))
}

func TestDefaults_FreshMap(t *testing.T) {
	d := Defaults()
	d[FlagDependentRevalidation] = false
	require.True(t, Defaults()[FlagDependentRevalidation])
}
