// Package app contains the root application model.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/regform/internal/config"
	"github.com/zjrosen/regform/internal/flags"
	"github.com/zjrosen/regform/internal/form"
	"github.com/zjrosen/regform/internal/keys"
	"github.com/zjrosen/regform/internal/log"
	"github.com/zjrosen/regform/internal/pubsub"
	"github.com/zjrosen/regform/internal/registration"
	"github.com/zjrosen/regform/internal/sink"
	"github.com/zjrosen/regform/internal/ui/regform"
	"github.com/zjrosen/regform/internal/ui/styles"
	"github.com/zjrosen/regform/internal/validation"
	"github.com/zjrosen/regform/internal/watcher"
)

// ConfigReloadedMsg carries a config that was re-read and validated after
// the file changed on disk.
type ConfigReloadedMsg struct {
	Config config.Config
}

// ConfigReloadFailedMsg is sent when the changed config could not be used.
// The running config stays in effect.
type ConfigReloadFailedMsg struct {
	Err error
}

// Services holds the collaborators shared by every form instance.
type Services struct {
	Config     config.Config
	ConfigPath string
	Schema     *validation.Schema
	Sink       sink.Sink
	Tracer     trace.Tracer
	Flags      *flags.Registry

	// Submissions receives an event per accepted submission. Optional.
	Submissions *pubsub.Broker[sink.Submission]
}

// Model is the root application state.
type Model struct {
	services Services
	form     regform.Model
	help     help.Model

	width  int
	height int

	status    string
	statusErr bool
	received  int

	debugMode   bool
	lastLog     string
	logListener *log.LogListener

	listenCtx    context.Context
	listenCancel context.CancelFunc
	submissions  *pubsub.ContinuousListener[sink.Submission]

	// Config watcher for hot reload
	watcherHandle *watcher.Watcher
	changes       <-chan struct{}
}

// New creates the application model and mounts the first form.
// debugMode shows the latest log entry under the form.
func New(services Services, debugMode bool) Model {
	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		services:     services,
		help:         help.New(),
		debugMode:    debugMode,
		listenCtx:    ctx,
		listenCancel: cancel,
	}

	if services.Submissions != nil {
		m.submissions = pubsub.NewContinuousListener(ctx, services.Submissions)
	}
	if debugMode {
		m.logListener = log.NewListener(ctx)
	}

	if services.Config.WatchConfig && services.ConfigPath != "" {
		w, err := watcher.New(watcher.DefaultConfig(services.ConfigPath))
		if err == nil {
			ch, err := w.Start()
			if err == nil {
				m.watcherHandle = w
				m.changes = ch
			} else {
				log.Warn(log.CatWatcher, "config watcher disabled", "error", err)
				_ = w.Stop()
			}
		}
		// The form works without hot reload.
	}

	m.form = m.newForm()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.form.Init()}
	if m.submissions != nil {
		cmds = append(cmds, m.submissions.Listen())
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.listenCtx, m.changes, m.services.ConfigPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.form = m.form.SetWidth(m.formWidth())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Form.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Form.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case regform.SubmittedMsg:
		log.Info(log.CatForm, "registration submitted", "email", msg.Form.Email)
		if m.submissions == nil {
			m.setStatus("Submitted "+msg.Form.Email, false)
		}
		// A submitted form is discarded; the next registration starts clean.
		m.form = m.newForm()
		return m, m.form.Init()

	case regform.SubmitFailedMsg:
		log.ErrorErr(log.CatSink, "submission failed", msg.Err)
		m.setStatus("Submit failed", true)
		return m, nil

	case pubsub.Event[sink.Submission]:
		if msg.Type == pubsub.SubmittedEvent {
			m.received++
			m.setStatus(fmt.Sprintf("Submitted %s (%d this session)", shortID(msg.Payload.ID), m.received), false)
		}
		return m, m.submissions.Listen()

	case pubsub.Event[string]:
		m.lastLog = strings.TrimSpace(msg.Payload)
		return m, m.logListener.Listen()

	case ConfigReloadedMsg:
		m = m.applyConfig(msg.Config)
		return m, waitForChange(m.listenCtx, m.changes, m.services.ConfigPath)

	case ConfigReloadFailedMsg:
		log.Warn(log.CatConfig, "config reload rejected", "error", msg.Err)
		m.setStatus("Config not reloaded: "+msg.Err.Error(), true)
		return m, waitForChange(m.listenCtx, m.changes, m.services.ConfigPath)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	cfg := m.services.Config
	width := m.formWidth()

	body := lipgloss.NewStyle().Padding(0, 1).Render(m.form.View())
	panel := styles.Panel(body, cfg.UI.Title, width+4, styles.BorderHighlightFocusColor)

	lines := []string{panel}
	if m.status != "" {
		style := styles.SuccessTextStyle()
		if m.statusErr {
			style = styles.ErrorTextStyle()
		}
		lines = append(lines, style.Width(width+4).Render(m.status))
	}
	lines = append(lines, m.help.View(keys.Form))
	if m.debugMode && m.lastLog != "" {
		lines = append(lines, styles.MutedTextStyle().MaxWidth(max(m.width, width+4)).Render(m.lastLog))
	}

	view := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if m.width > 0 && m.height > 0 {
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
	}
	return zone.Scan(view)
}

// Form returns the mounted form view.
func (m Model) Form() regform.Model {
	return m.form
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// Config returns the config currently in effect.
func (m Model) Config() config.Config {
	return m.services.Config
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.listenCancel != nil {
		m.listenCancel()
	}
	if m.watcherHandle != nil {
		if err := m.watcherHandle.Stop(); err != nil {
			return err
		}
	}
	return nil
}

func (m Model) newForm() regform.Model {
	ctrl := form.New(m.services.Schema, m.services.Sink,
		form.WithDependentRevalidation(m.services.Flags.Enabled(flags.FlagDependentRevalidation)),
		form.WithTracer(m.services.Tracer),
	)
	ui := m.services.Config.UI
	return regform.New(ctrl, regform.Config{
		SubmitLabel:        ui.SubmitLabel,
		Width:              m.formWidth(),
		Labels:             labels(ui),
		Placeholders:       placeholders(ui),
		FocusSubmitOnValid: m.services.Flags.Enabled(flags.FlagFocusSubmitOnValid),
	})
}

// applyConfig swaps messages, labels and theme. The live form keeps its
// values; its error text is rebuilt from the new messages.
func (m Model) applyConfig(cfg config.Config) Model {
	msgs, err := cfg.Messages.ToValidation()
	if err != nil {
		log.Warn(log.CatConfig, "config reload rejected", "error", err)
		m.setStatus("Config not reloaded: "+err.Error(), true)
		return m
	}

	m.services.Schema.SetMessages(msgs)
	m.form.Controller().RefreshMessages()
	styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Subtle, cfg.Theme.Error, cfg.Theme.Success)

	// Password bounds, sinks and flags are fixed for the process lifetime.
	cfg.Password = m.services.Config.Password
	cfg.Sink = m.services.Config.Sink
	cfg.Flags = m.services.Config.Flags
	m.services.Config = cfg

	m.form = m.form.SetLabels(labels(cfg.UI), placeholders(cfg.UI), cfg.UI.SubmitLabel)
	m.form = m.form.SetWidth(m.formWidth())

	log.Info(log.CatConfig, "config reloaded", "path", m.services.ConfigPath)
	m.setStatus("Config reloaded", false)
	return m
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// formWidth is the configured width, shrunk to fit the window.
func (m Model) formWidth() int {
	w := m.services.Config.UI.Width
	if m.width > 0 && w > m.width-4 {
		w = m.width - 4
	}
	return max(w, config.MinWidth)
}

// waitForChange blocks until the watcher signals, then re-reads the config.
func waitForChange(ctx context.Context, changes <-chan struct{}, path string) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
		}

		cfg, err := config.Load(path)
		if err == nil {
			err = config.Validate(cfg)
		}
		if err != nil {
			return ConfigReloadFailedMsg{Err: err}
		}
		return ConfigReloadedMsg{Config: cfg}
	}
}

func labels(ui config.UIConfig) map[registration.Field]string {
	out := make(map[registration.Field]string, 3)
	for _, f := range registration.Fields() {
		out[f] = ui.Label(f)
	}
	return out
}

func placeholders(ui config.UIConfig) map[registration.Field]string {
	out := make(map[registration.Field]string, 3)
	for _, f := range registration.Fields() {
		out[f] = ui.Placeholder(f)
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
