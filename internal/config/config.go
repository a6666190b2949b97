// Package config provides configuration types, defaults, and loading for regform.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjrosen/regform/internal/flags"
	"github.com/zjrosen/regform/internal/log"
	"github.com/zjrosen/regform/internal/registration"
	"github.com/zjrosen/regform/internal/sink"
	"github.com/zjrosen/regform/internal/tracing"
	"github.com/zjrosen/regform/internal/validation"
)

const (
	// DefaultConfigPath is where a config is created when none is found.
	DefaultConfigPath = ".regform/config.yaml"

	// MinWidth is the narrowest form the layout supports.
	MinWidth = 30
)

// Config holds all configuration options for regform.
type Config struct {
	Messages    MessagesConfig  `mapstructure:"messages"`
	UI          UIConfig        `mapstructure:"ui"`
	Theme       ThemeConfig     `mapstructure:"theme"`
	Password    PasswordConfig  `mapstructure:"password"`
	Sink        SinkConfig      `mapstructure:"sink"`
	Tracing     tracing.Config  `mapstructure:"tracing"`
	Flags       map[string]bool `mapstructure:"flags"`
	WatchConfig bool            `mapstructure:"watch_config"`
}

// MessagesConfig holds the validation message text per error kind.
// {min} and {max} are replaced with the password bounds.
type MessagesConfig struct {
	Required string `mapstructure:"required" yaml:"required"`
	Format   string `mapstructure:"format" yaml:"format"`
	TooShort string `mapstructure:"too_short" yaml:"too_short"`
	TooLong  string `mapstructure:"too_long" yaml:"too_long"`
	Mismatch string `mapstructure:"mismatch" yaml:"mismatch"`

	// Fields overrides messages for a single field, keyed by field name then
	// error kind, e.g. fields.email.required.
	Fields map[string]map[string]string `mapstructure:"fields" yaml:"fields,omitempty"`
}

// UIConfig holds user interface text and layout.
type UIConfig struct {
	Title       string `mapstructure:"title"`
	SubmitLabel string `mapstructure:"submit_label"`
	Width       int    `mapstructure:"width"`

	EmailLabel                string `mapstructure:"email_label"`
	EmailPlaceholder          string `mapstructure:"email_placeholder"`
	PasswordLabel             string `mapstructure:"password_label"`
	PasswordPlaceholder       string `mapstructure:"password_placeholder"`
	RepeatPasswordLabel       string `mapstructure:"repeat_password_label"`
	RepeatPasswordPlaceholder string `mapstructure:"repeat_password_placeholder"`
}

// Label returns the configured label for field.
func (u UIConfig) Label(field registration.Field) string {
	switch field {
	case registration.FieldEmail:
		return u.EmailLabel
	case registration.FieldPassword:
		return u.PasswordLabel
	case registration.FieldRepeatPassword:
		return u.RepeatPasswordLabel
	}
	return string(field)
}

// Placeholder returns the configured placeholder for field.
func (u UIConfig) Placeholder(field registration.Field) string {
	switch field {
	case registration.FieldEmail:
		return u.EmailPlaceholder
	case registration.FieldPassword:
		return u.PasswordPlaceholder
	case registration.FieldRepeatPassword:
		return u.RepeatPasswordPlaceholder
	}
	return ""
}

// ThemeConfig holds color overrides as hex strings.
type ThemeConfig struct {
	Highlight string `mapstructure:"highlight"`
	Subtle    string `mapstructure:"subtle"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

// PasswordConfig holds the accepted password length range, in characters.
type PasswordConfig struct {
	MinLength int `mapstructure:"min_length"`
	MaxLength int `mapstructure:"max_length"`
}

// SinkConfig selects where submissions go.
type SinkConfig struct {
	// Kinds lists sinks to fan out to: "log", "file".
	Kinds []string `mapstructure:"kinds"`

	// FilePath is the JSONL output for the "file" sink.
	FilePath string `mapstructure:"file_path"`

	// RedactPasswords masks password fields in file output.
	RedactPasswords bool `mapstructure:"redact_passwords"`
}

// Options converts the config into sink build options.
func (s SinkConfig) Options() sink.Options {
	return sink.Options{FilePath: s.FilePath, RedactPasswords: s.RedactPasswords}
}

// DefaultSubmissionsPath returns ~/.config/regform/submissions.jsonl, or ""
// when the home directory is unavailable.
func DefaultSubmissionsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "regform", "submissions.jsonl")
}

// DefaultTracesFilePath returns ~/.config/regform/traces/traces.jsonl, or ""
// when the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "regform", "traces", "traces.jsonl")
}

// DefaultMessagesConfig returns the built-in message text.
func DefaultMessagesConfig() MessagesConfig {
	d := validation.DefaultMessages()
	out := MessagesConfig{
		Required: d.Kinds[registration.KindRequired],
		Format:   d.Kinds[registration.KindFormat],
		TooShort: d.Kinds[registration.KindTooShort],
		TooLong:  d.Kinds[registration.KindTooLong],
		Mismatch: d.Kinds[registration.KindMismatch],
		Fields:   make(map[string]map[string]string, len(d.Fields)),
	}
	for field, byKind := range d.Fields {
		m := make(map[string]string, len(byKind))
		for kind, msg := range byKind {
			m[kind.String()] = msg
		}
		out.Fields[string(field)] = m
	}
	return out
}

// Defaults returns the default configuration.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = DefaultTracesFilePath()
	return Config{
		Messages: DefaultMessagesConfig(),
		UI: UIConfig{
			Title:                     "Registration",
			SubmitLabel:               "Submit",
			Width:                     50,
			EmailLabel:                "Email",
			EmailPlaceholder:          "Enter email",
			PasswordLabel:             "Password",
			PasswordPlaceholder:       "Enter password",
			RepeatPasswordLabel:       "Repeat password",
			RepeatPasswordPlaceholder: "Repeat password",
		},
		Theme: ThemeConfig{
			Highlight: "#54A0FF",
			Subtle:    "#696969",
			Error:     "#FF8787",
			Success:   "#73F59F",
		},
		Password: PasswordConfig{
			MinLength: validation.DefaultPasswordMin,
			MaxLength: validation.DefaultPasswordMax,
		},
		Sink: SinkConfig{
			Kinds:           []string{string(sink.KindLog)},
			FilePath:        DefaultSubmissionsPath(),
			RedactPasswords: true,
		},
		Tracing:     tr,
		Flags:       flags.Defaults(),
		WatchConfig: true,
	}
}

// SetDefaults registers Defaults on v so missing keys fall back to them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("messages.required", d.Messages.Required)
	v.SetDefault("messages.format", d.Messages.Format)
	v.SetDefault("messages.too_short", d.Messages.TooShort)
	v.SetDefault("messages.too_long", d.Messages.TooLong)
	v.SetDefault("messages.mismatch", d.Messages.Mismatch)
	v.SetDefault("messages.fields", d.Messages.Fields)

	v.SetDefault("ui.title", d.UI.Title)
	v.SetDefault("ui.submit_label", d.UI.SubmitLabel)
	v.SetDefault("ui.width", d.UI.Width)
	v.SetDefault("ui.email_label", d.UI.EmailLabel)
	v.SetDefault("ui.email_placeholder", d.UI.EmailPlaceholder)
	v.SetDefault("ui.password_label", d.UI.PasswordLabel)
	v.SetDefault("ui.password_placeholder", d.UI.PasswordPlaceholder)
	v.SetDefault("ui.repeat_password_label", d.UI.RepeatPasswordLabel)
	v.SetDefault("ui.repeat_password_placeholder", d.UI.RepeatPasswordPlaceholder)

	v.SetDefault("theme.highlight", d.Theme.Highlight)
	v.SetDefault("theme.subtle", d.Theme.Subtle)
	v.SetDefault("theme.error", d.Theme.Error)
	v.SetDefault("theme.success", d.Theme.Success)

	v.SetDefault("password.min_length", d.Password.MinLength)
	v.SetDefault("password.max_length", d.Password.MaxLength)

	v.SetDefault("sink.kinds", d.Sink.Kinds)
	v.SetDefault("sink.file_path", d.Sink.FilePath)
	v.SetDefault("sink.redact_passwords", d.Sink.RedactPasswords)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)

	v.SetDefault("flags", d.Flags)
	v.SetDefault("watch_config", d.WatchConfig)
}

// Load reads the config file at path on top of Defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// ToValidation converts the message config into a validation message table.
// Field names are matched case-insensitively since viper lowercases keys.
func (m MessagesConfig) ToValidation() (validation.Messages, error) {
	out := validation.Messages{
		Kinds: map[registration.ErrorKind]string{
			registration.KindRequired: m.Required,
			registration.KindFormat:   m.Format,
			registration.KindTooShort: m.TooShort,
			registration.KindTooLong:  m.TooLong,
			registration.KindMismatch: m.Mismatch,
		},
		Fields: make(map[registration.Field]map[registration.ErrorKind]string),
	}
	for name, byKind := range m.Fields {
		field, err := lookupField(name)
		if err != nil {
			return validation.Messages{}, fmt.Errorf("messages.fields: %w", err)
		}
		overrides := make(map[registration.ErrorKind]string, len(byKind))
		for key, msg := range byKind {
			kind, err := registration.ParseErrorKind(key)
			if err != nil {
				return validation.Messages{}, fmt.Errorf("messages.fields.%s: %w", name, err)
			}
			overrides[kind] = msg
		}
		out.Fields[field] = overrides
	}
	return out, nil
}

func lookupField(name string) (registration.Field, error) {
	for _, f := range registration.Fields() {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return registration.ParseField(name)
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if err := ValidateMessages(cfg.Messages); err != nil {
		return err
	}
	if err := ValidateUI(cfg.UI); err != nil {
		return err
	}
	if err := ValidatePassword(cfg.Password); err != nil {
		return err
	}
	if err := ValidateSink(cfg.Sink); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateMessages rejects empty message text.
func ValidateMessages(m MessagesConfig) error {
	for _, kind := range registration.Kinds() {
		if strings.TrimSpace(m.text(kind)) == "" {
			return fmt.Errorf("messages.%s must not be empty", kind)
		}
	}
	_, err := m.ToValidation()
	return err
}

func (m MessagesConfig) text(kind registration.ErrorKind) string {
	switch kind {
	case registration.KindRequired:
		return m.Required
	case registration.KindFormat:
		return m.Format
	case registration.KindTooShort:
		return m.TooShort
	case registration.KindTooLong:
		return m.TooLong
	case registration.KindMismatch:
		return m.Mismatch
	}
	return ""
}

// ValidateUI checks layout settings.
func ValidateUI(ui UIConfig) error {
	if ui.Width < MinWidth {
		return fmt.Errorf("ui.width must be at least %d, got %d", MinWidth, ui.Width)
	}
	return nil
}

// ValidatePassword checks the length bounds.
func ValidatePassword(p PasswordConfig) error {
	if p.MinLength < 1 {
		return fmt.Errorf("password.min_length must be at least 1, got %d", p.MinLength)
	}
	if p.MaxLength < p.MinLength {
		return fmt.Errorf("password.max_length (%d) must not be less than password.min_length (%d)", p.MaxLength, p.MinLength)
	}
	return nil
}

// ValidateSink checks sink kinds and their required settings.
func ValidateSink(s SinkConfig) error {
	seen := make(map[string]bool, len(s.Kinds))
	for _, kind := range s.Kinds {
		if seen[kind] {
			return fmt.Errorf("sink.kinds: %q listed more than once", kind)
		}
		seen[kind] = true
		switch sink.Kind(kind) {
		case sink.KindLog:
		case sink.KindFile:
			if s.FilePath == "" {
				return fmt.Errorf("sink.file_path is required when sink.kinds contains \"file\"")
			}
		default:
			return fmt.Errorf("sink.kinds: unknown sink %q (valid: \"log\", \"file\")", kind)
		}
	}
	return nil
}

// ValidateTracing checks the tracing section.
func ValidateTracing(tr tracing.Config) error {
	return tr.Validate()
}

// WriteDefaultConfig creates a config file with default values and comments.
// An existing file is left untouched.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := writeAtomic(configPath, []byte(DefaultConfigTemplate())); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return err
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# regform configuration

# Validation messages. {min} and {max} expand to the password bounds.
messages:
  required: "This field is required"
  format: "Invalid email. Use the format: yourAddress@mail.com"
  too_short: "Invalid password. Password must be at least {min} characters"
  too_long: "Invalid password. Password must be at most {max} characters"
  mismatch: "Passwords must match"
  # Per-field overrides, keyed by field then kind.
  fields:
    email:
      required: "Email is required"
    password:
      required: "Password is required"
    repeatPassword:
      required: "Repeat your password"

# Form text and layout
ui:
  title: "Registration"
  submit_label: "Submit"
  width: 50                 # Minimum 30
  email_label: "Email"
  email_placeholder: "Enter email"
  password_label: "Password"
  password_placeholder: "Enter password"
  repeat_password_label: "Repeat password"
  repeat_password_placeholder: "Repeat password"

# Colors (hex)
theme:
  highlight: "#54A0FF"
  subtle: "#696969"
  error: "#FF8787"
  success: "#73F59F"

# Accepted password length, in characters
password:
  min_length: 3
  max_length: 8

# Where submissions go: "log" writes to the debug log, "file" appends JSONL
sink:
  kinds: [log]
  # file_path: ~/.config/regform/submissions.jsonl
  redact_passwords: true

# OpenTelemetry tracing
tracing:
  enabled: false
  exporter: file            # "none", "file", "stdout", or "otlp"
  # file_path: ~/.config/regform/traces/traces.jsonl
  # otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Feature flags
flags:
  dependent-revalidation: true   # Re-check repeat password when password changes
  focus-submit-on-valid: true    # Jump to submit once the form is valid

# Reload messages and labels when this file changes
watch_config: true
`
}
