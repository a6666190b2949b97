// Package regform renders the registration form and routes input to a
// form.Controller.
//
// The view owns focus and the text inputs; the controller owns values and
// validation. Moving focus off a field is the blur event. When the form
// becomes valid on a blur, focus jumps to the submit button.
package regform

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/regform/internal/form"
	"github.com/zjrosen/regform/internal/keys"
	"github.com/zjrosen/regform/internal/log"
	"github.com/zjrosen/regform/internal/registration"
	"github.com/zjrosen/regform/internal/ui/styles"
)

// SubmittedMsg is sent after the sink accepted the form.
type SubmittedMsg struct {
	Form registration.Form
}

// SubmitFailedMsg is sent when the sink rejected a valid form.
type SubmitFailedMsg struct {
	Err error
}

// Config holds display settings.
type Config struct {
	SubmitLabel        string
	Width              int
	Labels             map[registration.Field]string
	Placeholders       map[registration.Field]string
	FocusSubmitOnValid bool
}

// observer records controller snapshots. It is shared by copies of Model.
type observer struct {
	last        form.Snapshot
	becameValid bool
}

// Model is the form view state.
type Model struct {
	ctrl     *form.Controller
	cfg      Config
	obs      *observer
	inputs   []textinput.Model
	bindings []form.Binding
	focus    int // index into inputs; len(inputs) is the submit button
	zoneID   string
	status   string
}

// New builds the view for ctrl. Focus starts on the first field.
func New(ctrl *form.Controller, cfg Config) Model {
	m := Model{
		ctrl:   ctrl,
		cfg:    cfg,
		obs:    &observer{last: ctrl.Snapshot()},
		zoneID: zone.NewPrefix(),
	}
	obs := m.obs
	ctrl.Subscribe(func(s form.Snapshot) {
		obs.last = s
		if s.BecameValid {
			obs.becameValid = true
		}
	})

	for _, field := range registration.Fields() {
		b, err := ctrl.RegisterField(string(field))
		if err != nil {
			// Fields() only yields known names.
			panic(err)
		}
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = cfg.Placeholders[field]
		ti.SetValue(b.Value())
		ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextPlaceholderColor)
		if field.Masked() {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		ti.Width = max(m.innerWidth()-2, 1)
		m.inputs = append(m.inputs, ti)
		m.bindings = append(m.bindings, b)
	}
	m.inputs[0].Focus()
	return m
}

// Init returns the cursor blink command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Controller returns the underlying controller.
func (m Model) Controller() *form.Controller {
	return m.ctrl
}

// Focused returns the focused field, or "" when the submit button has focus.
func (m Model) Focused() registration.Field {
	if m.onButton() {
		return ""
	}
	return m.bindings[m.focus].Field
}

// SubmitFocused reports whether the submit button has focus.
func (m Model) SubmitFocused() bool {
	return m.onButton()
}

// SetWidth resizes the form.
func (m Model) SetWidth(w int) Model {
	m.cfg.Width = w
	for i := range m.inputs {
		m.inputs[i].Width = max(m.innerWidth()-2, 1)
	}
	return m
}

// SetLabels replaces labels and placeholders, for example after a config reload.
func (m Model) SetLabels(labels, placeholders map[registration.Field]string, submitLabel string) Model {
	m.cfg.Labels = labels
	m.cfg.Placeholders = placeholders
	m.cfg.SubmitLabel = submitLabel
	for i, b := range m.bindings {
		m.inputs[i].Placeholder = placeholders[b.Field]
	}
	return m
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
			return m.handleClick(msg)
		}
		return m, nil
	}

	if m.onButton() {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Form.Next):
		return m.moveFocus(m.wrap(m.focus + 1))

	case key.Matches(msg, keys.Form.Prev):
		return m.moveFocus(m.wrap(m.focus - 1))

	case key.Matches(msg, keys.Form.Confirm):
		if m.onButton() {
			return m.submit()
		}
		return m.moveFocus(m.focus + 1)

	case key.Matches(msg, keys.Form.Submit):
		if m.onButton() {
			return m.submit()
		}
		// The field keeps focus unless the submit goes through.
		m.blurFocused()
		next, cmd, sent := m.trySubmit()
		if sent {
			return next, cmd
		}
		return next, tea.Batch(cmd, next.inputs[next.focus].Focus())
	}

	if m.onButton() {
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	b := m.bindings[m.focus]
	if v := m.inputs[m.focus].Value(); v != b.Value() {
		b.OnChange(v)
	}
	return m, cmd
}

func (m Model) handleClick(msg tea.MouseMsg) (Model, tea.Cmd) {
	if z := zone.Get(m.buttonZone()); z != nil && z.InBounds(msg) {
		if !m.onButton() {
			m.blurFocused()
		}
		m.focus = len(m.inputs)
		return m.submit()
	}
	for i := range m.inputs {
		if z := zone.Get(m.fieldZone(i)); z != nil && z.InBounds(msg) {
			return m.moveFocus(i)
		}
	}
	return m, nil
}

// moveFocus blurs the focused field (validating it) and focuses target.
// A blur that makes the form valid redirects focus to the submit button.
func (m Model) moveFocus(target int) (Model, tea.Cmd) {
	if target == m.focus {
		return m, nil
	}
	if !m.onButton() {
		m.blurFocused()
	}
	if m.obs.becameValid && m.cfg.FocusSubmitOnValid {
		target = len(m.inputs)
	}
	m.obs.becameValid = false

	m.focus = target
	if m.onButton() {
		return m, nil
	}
	return m, m.inputs[m.focus].Focus()
}

func (m Model) blurFocused() {
	m.inputs[m.focus].Blur()
	m.bindings[m.focus].OnBlur(m.inputs[m.focus].Value())
}

func (m Model) submit() (Model, tea.Cmd) {
	next, cmd, _ := m.trySubmit()
	return next, cmd
}

// trySubmit reports whether the sink accepted the submission.
func (m Model) trySubmit() (Model, tea.Cmd, bool) {
	m.obs.becameValid = false
	if !m.ctrl.CanSubmit() {
		log.Debug(log.CatUI, "submit ignored", "dirty", m.ctrl.IsDirty(), "valid", m.ctrl.IsValid())
		return m, nil, false
	}

	err := m.ctrl.HandleSubmit(context.Background())
	switch {
	case err == nil:
		values := m.ctrl.Values()
		return m, func() tea.Msg { return SubmittedMsg{Form: values} }, true
	case errors.Is(err, form.ErrInvalid):
		return m, nil, false
	default:
		m.status = err.Error()
		return m, func() tea.Msg { return SubmitFailedMsg{Err: err} }, false
	}
}

func (m Model) onButton() bool {
	return m.focus >= len(m.inputs)
}

func (m Model) wrap(i int) int {
	n := len(m.inputs) + 1
	return ((i % n) + n) % n
}

func (m Model) innerWidth() int {
	return max(m.cfg.Width-2, 1)
}

func (m Model) fieldZone(i int) string {
	return m.zoneID + "field-" + string(m.bindings[i].Field)
}

func (m Model) buttonZone() string {
	return m.zoneID + "submit"
}

// View renders the fields, their errors, and the submit button.
func (m Model) View() string {
	snap := m.obs.last
	var sections []string

	for i, b := range m.bindings {
		focused := i == m.focus
		status := m.ctrl.Status(b.Field)

		var borderColor lipgloss.TerminalColor = styles.BorderHighlightFocusColor
		highlight := focused
		if status == form.TouchedInvalid {
			borderColor = styles.StatusErrorColor
			highlight = true
		}

		hint := ""
		if status == form.TouchedValid {
			hint = "✓"
		}
		box := styles.RenderFormSection(
			[]string{" " + m.inputs[i].View()},
			m.cfg.Labels[b.Field], hint, m.cfg.Width, highlight, borderColor)
		sections = append(sections, zone.Mark(m.fieldZone(i), box))

		if msg := snap.Errors.Message(b.Field); msg != "" {
			wrapped := wordwrap.String(msg, m.innerWidth())
			sections = append(sections, styles.ErrorTextStyle().PaddingLeft(1).Render(wrapped))
		}
	}

	sections = append(sections, "", m.renderButton(snap.CanSubmit))
	if m.status != "" {
		sections = append(sections, styles.ErrorTextStyle().Render(wordwrap.String(m.status, m.cfg.Width)))
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderButton(enabled bool) string {
	label := m.cfg.SubmitLabel
	if label == "" {
		label = "Submit"
	}

	var style lipgloss.Style
	switch {
	case !enabled:
		style = styles.DisabledButtonStyle()
	case m.onButton():
		style = styles.PrimaryButtonFocusedStyle()
	default:
		style = styles.PrimaryButtonStyle()
	}

	button := zone.Mark(m.buttonZone(), style.Render(label))
	return lipgloss.PlaceHorizontal(m.cfg.Width, lipgloss.Center, button)
}
