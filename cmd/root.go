package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/regform/internal/app"
	"github.com/zjrosen/regform/internal/config"
	"github.com/zjrosen/regform/internal/flags"
	"github.com/zjrosen/regform/internal/log"
	"github.com/zjrosen/regform/internal/pubsub"
	"github.com/zjrosen/regform/internal/sink"
	"github.com/zjrosen/regform/internal/tracing"
	"github.com/zjrosen/regform/internal/ui/styles"
	"github.com/zjrosen/regform/internal/validation"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "regform",
	Short:   "A terminal registration form",
	Long:    `A terminal registration form with email, password and password confirmation, inline validation and a pluggable submission sink.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/regform/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write a debug log (also enabled by REGFORM_DEBUG)")
	rootCmd.Flags().Bool("no-watch", false,
		"do not reload messages when the config file changes")
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .regform/config.yaml (current directory)
		// 2. ~/.config/regform/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "regform"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .regform/config.yaml
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(config.DefaultConfigPath); writeErr == nil {
				viper.SetConfigFile(config.DefaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, _ []string) error {
	debug, cleanup, err := initLogging(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		cfg.WatchConfig = false
	}

	styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Subtle, cfg.Theme.Error, cfg.Theme.Success)

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatTrace, "Failed to flush traces", err)
		}
	}()

	broker := pubsub.NewBroker[sink.Submission]()
	defer broker.Close()

	services, err := buildServices(cfg, configFilePath(), provider.Tracer(), broker)
	if err != nil {
		return err
	}
	log.Info(log.CatConfig, "Starting regform", "config", services.ConfigPath, "sinks", cfg.Sink.Kinds, "tracing", provider.Enabled())

	zone.NewGlobal()
	model := app.New(services, debug)
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// initLogging enables the debug log when --debug or REGFORM_DEBUG is set.
// REGFORM_LOG overrides the log path.
func initLogging(cmd *cobra.Command) (bool, func(), error) {
	debug, _ := cmd.Flags().GetBool("debug")
	if !debug && os.Getenv("REGFORM_DEBUG") == "" {
		return false, func() {}, nil
	}

	path := os.Getenv("REGFORM_LOG")
	if path == "" {
		path = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(path, "regform")
	if err != nil {
		return false, nil, fmt.Errorf("initializing debug log: %w", err)
	}
	return true, cleanup, nil
}

// configFilePath is the file the app watches and saves to.
func configFilePath() string {
	if path := viper.ConfigFileUsed(); path != "" {
		return path
	}
	// No config file was loaded, default to .regform/config.yaml
	return config.DefaultConfigPath
}

// newSchema builds the validation schema from the messages and password bounds.
func newSchema(c config.Config) (*validation.Schema, error) {
	msgs, err := c.Messages.ToValidation()
	if err != nil {
		return nil, fmt.Errorf("invalid messages: %w", err)
	}
	return validation.New(msgs,
		validation.WithPasswordBounds(c.Password.MinLength, c.Password.MaxLength),
	), nil
}

// buildServices wires the schema, the traced sinks and the submission broker.
// The broker sink is always last so the app only hears about submissions the
// configured sinks have already seen.
func buildServices(c config.Config, configPath string, tracer trace.Tracer, broker *pubsub.Broker[sink.Submission]) (app.Services, error) {
	schema, err := newSchema(c)
	if err != nil {
		return app.Services{}, err
	}

	configured, err := sink.Build(c.Sink.Kinds, c.Sink.Options())
	if err != nil {
		return app.Services{}, fmt.Errorf("building sinks: %w", err)
	}

	fanout := make(sink.Multi, 0, len(configured)+1)
	for i, s := range configured {
		fanout = append(fanout, sink.Traced(s, tracer, c.Sink.Kinds[i]))
	}
	if broker != nil {
		fanout = append(fanout, sink.Traced(sink.NewBrokerSink(broker), tracer, "broker"))
	}

	return app.Services{
		Config:      c,
		ConfigPath:  configPath,
		Schema:      schema,
		Sink:        fanout,
		Tracer:      tracer,
		Flags:       flags.New(c.Flags),
		Submissions: broker,
	}, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
