package cmd

import (
	"fmt"
	"maps"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/regform/internal/config"
	"github.com/zjrosen/regform/internal/registration"
)

var messageField string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default config file",
	Long: `Write the default config file with comments.

The path defaults to .regform/config.yaml. An existing file is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configSetMessageCmd = &cobra.Command{
	Use:   "set-message <kind> <text>",
	Short: "Change a validation message in the config file",
	Long: `Change a validation message and save it to the loaded config file.

Kinds: required, format, too_short, too_long, mismatch.
With --field the message only applies to that field. A running form
picks up the change when watch_config is on.

Examples:
  regform config set-message mismatch "Passwords differ"
  regform config set-message required "Email please" --field email`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		messages, err := setMessage(cfg.Messages, args[0], messageField, args[1])
		if err != nil {
			return err
		}
		path := configFilePath()
		if err := config.SaveMessages(path, messages); err != nil {
			return fmt.Errorf("saving messages: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", path)
		return nil
	},
}

func init() {
	configSetMessageCmd.Flags().StringVarP(&messageField, "field", "f", "",
		"only change the message for this field (email, password, repeatPassword)")
	configCmd.AddCommand(configInitCmd, configSetMessageCmd)
	rootCmd.AddCommand(configCmd)
}

// setMessage returns a copy of m with the message for kind replaced, either
// globally or for one field.
func setMessage(m config.MessagesConfig, kindName, fieldName, text string) (config.MessagesConfig, error) {
	kind, err := registration.ParseErrorKind(kindName)
	if err != nil {
		return m, err
	}

	if fieldName != "" {
		field, err := registration.ParseField(fieldName)
		if err != nil {
			return m, err
		}
		// Viper lowercases keys; store under the canonical field name.
		fields := make(map[string]map[string]string, len(m.Fields)+1)
		for name, byKind := range m.Fields {
			key := canonicalField(name)
			if fields[key] == nil {
				fields[key] = make(map[string]string, len(byKind))
			}
			maps.Copy(fields[key], byKind)
		}
		if fields[string(field)] == nil {
			fields[string(field)] = make(map[string]string)
		}
		fields[string(field)][kind.String()] = text
		m.Fields = fields
	} else {
		switch kind {
		case registration.KindRequired:
			m.Required = text
		case registration.KindFormat:
			m.Format = text
		case registration.KindTooShort:
			m.TooShort = text
		case registration.KindTooLong:
			m.TooLong = text
		case registration.KindMismatch:
			m.Mismatch = text
		}
	}

	if err := config.ValidateMessages(m); err != nil {
		return m, err
	}
	return m, nil
}

func canonicalField(name string) string {
	for _, f := range registration.Fields() {
		if strings.EqualFold(string(f), name) {
			return string(f)
		}
	}
	return name
}
