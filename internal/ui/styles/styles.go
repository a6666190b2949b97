// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"} // Main/primary text
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text, footers
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#777777"} // Input placeholders

	// Semantic color names - Border
	BorderDefaultColor        = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Unfocused borders
	BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Focused field

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"} // Valid fields, submitted
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"} // Validation errors

	// Button colors
	ButtonTextColor           = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ButtonPrimaryBgColor      = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	ButtonPrimaryFocusBgColor = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	ButtonDisabledTextColor   = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#666666"}
	ButtonDisabledBgColor     = lipgloss.AdaptiveColor{Light: "#2D2D2D", Dark: "#2D2D2D"}
)

var baseButtonStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true)

// PrimaryButtonStyle renders an enabled, unfocused button.
func PrimaryButtonStyle() lipgloss.Style {
	return baseButtonStyle.
		Foreground(ButtonTextColor).
		Background(ButtonPrimaryBgColor)
}

// PrimaryButtonFocusedStyle renders an enabled, focused button.
func PrimaryButtonFocusedStyle() lipgloss.Style {
	return baseButtonStyle.
		Foreground(ButtonTextColor).
		Background(ButtonPrimaryFocusBgColor).
		Underline(true).
		UnderlineSpaces(true)
}

// DisabledButtonStyle renders a button that cannot be pressed.
func DisabledButtonStyle() lipgloss.Style {
	return baseButtonStyle.
		Bold(false).
		Foreground(ButtonDisabledTextColor).
		Background(ButtonDisabledBgColor)
}

// ErrorTextStyle renders inline validation messages.
func ErrorTextStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(StatusErrorColor)
}

// SuccessTextStyle renders confirmations.
func SuccessTextStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(StatusSuccessColor)
}

// MutedTextStyle renders hints and help.
func MutedTextStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(TextMutedColor)
}

// ApplyTheme applies custom theme colors from configuration.
// Empty strings are ignored, keeping the default values.
// - highlight: BorderHighlightFocusColor and the focused button
// - subtle: TextMutedColor + BorderDefaultColor (hints, help text, borders)
// - errorColor: StatusErrorColor (validation messages)
// - success: StatusSuccessColor (valid fields, submitted status)
func ApplyTheme(highlight, subtle, errorColor, success string) {
	if highlight != "" {
		BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: highlight, Dark: highlight}
		ButtonPrimaryFocusBgColor = lipgloss.AdaptiveColor{Light: highlight, Dark: highlight}
	}
	if subtle != "" {
		TextMutedColor = lipgloss.AdaptiveColor{Light: subtle, Dark: subtle}
		BorderDefaultColor = lipgloss.AdaptiveColor{Light: subtle, Dark: subtle}
	}
	if errorColor != "" {
		StatusErrorColor = lipgloss.AdaptiveColor{Light: errorColor, Dark: errorColor}
	}
	if success != "" {
		StatusSuccessColor = lipgloss.AdaptiveColor{Light: success, Dark: success}
	}
}
