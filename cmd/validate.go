package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/regform/internal/config"
	"github.com/zjrosen/regform/internal/registration"
	"github.com/zjrosen/regform/internal/validation"
)

// errFormInvalid makes the validate command exit non-zero.
var errFormInvalid = errors.New("form is invalid")

var (
	validateEmail    string
	validatePassword string
	validateRepeat   string
	validateJSON     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate registration values without the form",
	Long: `Run the validation rules against the given values and print the result.

Exits with status 1 when any field is invalid. Messages come from the
loaded config.

Examples:
  regform validate --email user@test.com --password pass12 --repeat-password pass12
  regform validate --email bad --json | jq '.errors.email'`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		form := registration.Form{
			Email:          validateEmail,
			Password:       validatePassword,
			RepeatPassword: validateRepeat,
		}
		return runValidate(cmd.OutOrStdout(), cfg, form, validateJSON)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateEmail, "email", "", "email address")
	validateCmd.Flags().StringVar(&validatePassword, "password", "", "password")
	validateCmd.Flags().StringVar(&validateRepeat, "repeat-password", "", "password confirmation")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(validateCmd)
}

type validationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// runValidate checks the config the same way the form does before validating.
func runValidate(w io.Writer, c config.Config, form registration.Form, asJSON bool) error {
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	schema, err := newSchema(c)
	if err != nil {
		return err
	}
	return writeValidation(w, schema, form, asJSON)
}

// writeValidation prints one "field: message" line per failing field, or
// "ok". Returns errFormInvalid when any field fails.
func writeValidation(w io.Writer, schema *validation.Schema, form registration.Form, asJSON bool) error {
	errs := schema.Validate(form)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(validationResult{Valid: errs.Valid(), Errors: errs.Messages()}); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		for _, field := range errs.Fields() {
			if _, err := fmt.Fprintf(w, "%s: %s\n", field, errs.Message(field)); err != nil {
				return fmt.Errorf("writing result: %w", err)
			}
		}
		if errs.Valid() {
			if _, err := fmt.Fprintln(w, "ok"); err != nil {
				return fmt.Errorf("writing result: %w", err)
			}
		}
	}

	if !errs.Valid() {
		return errFormInvalid
	}
	return nil
}
