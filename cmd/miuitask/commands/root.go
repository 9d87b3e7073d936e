// Package commands implements the CLI commands for miuitask.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/miuitask/internal/config"
	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/internal/logging"
	"github.com/thoreinstein/miuitask/internal/paths"
)

// skipConfigAnnotation marks commands that must not load (and thereby
// rewrite) the configuration file.
const skipConfigAnnotation = "miuitask/skip-config"

// rootFlag holds the value of the --root flag.
var rootFlag string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// openLogFile is the file opened for --log-file. closeLogFile releases it.
var openLogFile *os.File

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "",
		"installation root holding the data directory (default: executable directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("miuitask version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

var rootCmd = &cobra.Command{
	Use:   "miuitask",
	Short: "Manage the miuitask configuration file",
	Long: `miuitask keeps the configuration of the community task runner: the
accounts it signs in with, the tasks enabled for each account, captcha
provider settings and push notification settings.

The file lives in <root>/data/config.yaml, or config.json if that file
already exists. Set MIUITASK_CONFIG_PATH to use another path. A missing
file is created with defaults on first run, and a valid file is rewritten
in canonical form each time it is loaded.`,
	Example: `  # Show where the configuration lives
  miuitask config path

  # Print the configuration with secrets masked
  miuitask config show

  # List accounts and their enabled tasks
  miuitask account list

  See Also: miuitask config validate`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		if skipsConfig(cmd) {
			return nil
		}
		return openConfig(cmd)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeLogFile()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("conflicting flags"), "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("MIUITASK_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 1
				case "2":
					v = 2
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	handlers := []slog.Handler{
		logging.NewFormatHandler(cmd.ErrOrStderr(), logging.Format(logFormat), level),
	}

	if err := closeLogFile(); err != nil {
		return err
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		openLogFile = f
		// File output uses JSON format
		handlers = append(handlers, logging.NewFormatHandler(f, logging.FormatJSON, level))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	cmd.SetContext(logging.NewContext(commandContext(cmd), logger))
	return nil
}

// closeLogFile closes the --log-file handle, if one is open. Later records
// go to stderr only.
func closeLogFile() error {
	if openLogFile == nil {
		return nil
	}
	f := openLogFile
	openLogFile = nil
	slog.SetDefault(slog.New(logging.NewFormatHandler(os.Stderr, logging.Format(logFormat), slog.LevelError)))
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing log file %s", f.Name())
	}
	return nil
}

// openConfig loads the configuration and stores the Manager in the
// command context.
func openConfig(cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	m, err := config.Open(installRoot(), config.WithLogger(logging.FromContext(ctx)))
	if err != nil {
		return errors.NewConfigError(err)
	}

	cmd.SetContext(config.NewContext(ctx, m))
	return nil
}

// manager returns the Manager opened by the root command.
func manager(cmd *cobra.Command) (*config.Manager, error) {
	m, ok := config.FromContext(commandContext(cmd))
	if !ok {
		return nil, errors.NewSystemError(errors.New("configuration not loaded"), "")
	}
	return m, nil
}

// installRoot returns --root, or the executable's directory.
func installRoot() string {
	if rootFlag != "" {
		return rootFlag
	}
	return paths.DefaultRoot()
}

func skipsConfig(cmd *cobra.Command) bool {
	if cmd.Name() == "help" || cmd.Name() == "version" {
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the root command. The log file is closed even when the
// command fails and PersistentPostRunE does not run.
func Execute() error {
	defer closeLogFile()
	return rootCmd.Execute()
}
