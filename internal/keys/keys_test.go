package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestFormKeyMap_KeyAssignments(t *testing.T) {
	km := DefaultFormKeyMap()

	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{name: "Next uses tab and down", binding: km.Next, expected: []string{"tab", "down"}},
		{name: "Prev uses shift+tab and up", binding: km.Prev, expected: []string{"shift+tab", "up"}},
		{name: "Confirm uses enter", binding: km.Confirm, expected: []string{"enter"}},
		{name: "Submit uses ctrl+s", binding: km.Submit, expected: []string{"ctrl+s"}},
		{name: "Help uses f1", binding: km.Help, expected: []string{"f1"}},
		{name: "Quit uses esc and ctrl+c", binding: km.Quit, expected: []string{"esc", "ctrl+c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
			require.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestFormKeyMap_Matches(t *testing.T) {
	km := DefaultFormKeyMap()

	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyTab}, km.Next))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyShiftTab}, km.Prev))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEnter}, km.Confirm))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlS}, km.Submit))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEsc}, km.Quit))
	require.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, km.Quit),
		"q must stay typeable in inputs")
	require.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")}, km.Help),
		"? must stay typeable in inputs")
}

func TestFormKeyMap_Help(t *testing.T) {
	km := DefaultFormKeyMap()
	require.Len(t, km.ShortHelp(), 3)

	var total int
	for _, group := range km.FullHelp() {
		total += len(group)
	}
	require.Equal(t, 6, total)
}

func TestResetForTesting(t *testing.T) {
	Form.Submit.SetKeys("ctrl+x")
	ResetForTesting()
	require.Equal(t, []string{"ctrl+s"}, Form.Submit.Keys())
}
