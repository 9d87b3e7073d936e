package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/miuitask/internal/config"
	"github.com/thoreinstein/miuitask/internal/editor"
	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/internal/logging"
	"github.com/thoreinstein/miuitask/internal/paths"
	"github.com/thoreinstein/miuitask/internal/validator"
	"github.com/thoreinstein/miuitask/pkg/fileutil"
)

// Output formats accepted by config show.
const (
	outputYAML = "yaml"
	outputJSON = "json"
	outputTOML = "toml"
)

var (
	showOutput string
	showReveal bool
	getReveal  bool

	validateJSON bool
)

func init() {
	configShowCmd.Flags().StringVarP(&showOutput, "output", "o", outputYAML, "output format: yaml, json, toml")
	configShowCmd.Flags().BoolVar(&showReveal, "reveal", false, "print passwords, cookies and keys unmasked")
	configGetCmd.Flags().BoolVar(&getReveal, "reveal", false, "print secret values unmasked")
	configValidateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the report as JSON")

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the configuration file",
	Long: `Inspect and edit the configuration file.

Loading the configuration creates it with defaults if it is missing and
rewrites it in canonical form if it is valid. Use 'miuitask config validate'
to check a file without touching it.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	Long: `Print the resolved configuration path, its format and the data directory.

The format is json when <root>/data/config.json exists, yaml otherwise.`,
	Example: `  miuitask config path
  MIUITASK_CONFIG_PATH=/etc/miuitask.yaml miuitask config path`,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	Args:        cobra.NoArgs,
	RunE:        runConfigPath,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration",
	Long: `Print the loaded configuration with every default filled in.

Passwords, cookie values, API keys and push tokens are masked unless
--reveal is given.`,
	Example: `  # Print as YAML
  miuitask config show

  # Print as TOML with secrets
  miuitask config show -o toml --reveal

See Also: miuitask config get`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print one configuration value",
	Long: `Print one configuration value selected by a GJSON path over the JSON
form of the configuration. Scalars are printed bare, objects and arrays as JSON.`,
	Example: `  # First account's uid
  miuitask config get accounts.0.uid

  # Every uid
  miuitask config get accounts.#.uid

  # Push provider
  miuitask config get ONEPUSH.notifier`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a configuration file without rewriting it",
	Long: `Parse and validate a configuration file, then lint it for problems such
as duplicate uids or passwords that are not MD5 digests.

Without an argument the resolved configuration path is checked. The format
follows the file extension (.json, .yaml, .yml), falling back to the
resolved format. The file is never modified.`,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	Args:        cobra.MaximumNArgs(1),
	RunE:        runConfigValidate,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the configuration file in an editor",
	Long: `Open the configuration file in $EDITOR (or $VISUAL, nano, vi) and
validate it once the editor exits.

A missing file is created with defaults first. The edited file is not
rewritten; the next command that loads it does that.`,
	Example: `  miuitask config edit
  EDITOR="code --wait" miuitask config edit`,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	Args:        cobra.NoArgs,
	RunE:        runConfigEdit,
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	loc, err := paths.Resolve(installRoot())
	if err != nil {
		return errors.NewSystemError(err, "check that the installation root is writable")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "path:   %s\n", loc.Path)
	fmt.Fprintf(w, "format: %s\n", loc.Format)
	fmt.Fprintf(w, "data:   %s\n", loc.DataDir)
	if loc.Overridden {
		fmt.Fprintf(w, "(path set by %s)\n", paths.EnvConfigPath)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	m, err := manager(cmd)
	if err != nil {
		return err
	}

	cfg := m.Snapshot()
	if !showReveal {
		cfg = config.Redacted(cfg)
	}

	data, err := encodeConfig(cfg, showOutput)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// encodeConfig renders cfg as yaml, json or toml.
func encodeConfig(cfg *config.Config, output string) ([]byte, error) {
	switch strings.ToLower(output) {
	case outputYAML, "yml":
		return config.Marshal(cfg, paths.FormatYAML)
	case outputJSON:
		return config.Marshal(cfg, paths.FormatJSON)
	case outputTOML:
		return toTOML(cfg)
	default:
		return nil, errors.NewUserError(
			errors.Newf("unknown output format %q", output),
			"use one of: yaml, json, toml")
	}
}

// toTOML converts through the YAML form so numbers keep their integer type.
func toTOML(cfg *config.Config) ([]byte, error) {
	yamlData, err := config.Marshal(cfg, paths.FormatYAML)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(yamlData, &tree); err != nil {
		return nil, errors.Wrap(err, "unmarshaling yaml")
	}
	out, err := toml.Marshal(tree)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling toml")
	}
	return out, nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	m, err := manager(cmd)
	if err != nil {
		return err
	}

	cfg := m.Snapshot()
	if !getReveal {
		cfg = config.Redacted(cfg)
	}

	data, err := config.Marshal(cfg, paths.FormatJSON)
	if err != nil {
		return err
	}

	result := gjson.GetBytes(data, args[0])
	if !result.Exists() {
		return errors.NewUserError(
			errors.Wrapf(errors.ErrNotFound, "no value at %q", args[0]),
			"Run: miuitask config show -o json")
	}

	w := cmd.OutOrStdout()
	switch result.Type {
	case gjson.JSON:
		fmt.Fprintln(w, result.Raw)
	default:
		fmt.Fprintln(w, result.String())
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	var (
		path   string
		format paths.Format
	)
	if len(args) == 1 {
		path = args[0]
		format = formatForFile(path, paths.FormatYAML)
	} else {
		loc, err := paths.Resolve(installRoot())
		if err != nil {
			return errors.NewSystemError(err, "check that the installation root is writable")
		}
		path, format = loc.Path, loc.Format
	}

	if !fileutil.IsRegularFile(path) {
		return errors.NewUserError(
			errors.Wrapf(errors.ErrNotFound, "%s", path),
			"run any miuitask command to create the default file")
	}

	return checkAndReport(cmd, path, format, validateJSON)
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	logger := logging.FromContext(ctx)

	loc, err := paths.Resolve(installRoot())
	if err != nil {
		return errors.NewSystemError(err, "check that the installation root is writable")
	}

	if !fileutil.IsRegularFile(loc.Path) {
		if _, err := config.Open(installRoot(), config.WithLogger(logger)); err != nil {
			return errors.NewConfigError(err)
		}
	}

	logger.Debug("launching editor", "path", loc.Path)
	fmt.Fprintf(cmd.ErrOrStderr(), "Location: %s\n", loc.Path)

	ed := &editor.Editor{
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
	if err := ed.Open(ctx, loc.Path); err != nil {
		return errors.NewSystemError(err, "")
	}

	return checkAndReport(cmd, loc.Path, loc.Format, false)
}

// checkAndReport checks the file at path and prints the report. Decode
// failures surface as config errors, lint findings as user errors.
// Warnings alone do not fail.
func checkAndReport(cmd *cobra.Command, path string, format paths.Format, asJSON bool) error {
	result := validator.CheckFile(path, format)

	reportFormat := validator.FormatText
	if asJSON {
		reportFormat = validator.FormatJSON
	}
	if err := validator.NewReporter(cmd.OutOrStdout(), reportFormat).Report(result); err != nil {
		return errors.NewSystemError(err, "")
	}

	switch {
	case result.Err != nil && errors.Is(result.Err, errors.ErrRead):
		return errors.NewSystemError(result.Err, "check the file permissions")
	case result.Err != nil:
		return errors.NewConfigError(result.Err)
	case result.HasErrors():
		return errors.NewUserError(
			errors.Newf("%s: %d problem(s) found", path, len(result.Errors())),
			"fix the listed fields")
	}
	return nil
}

// formatForFile picks the format from the file extension.
func formatForFile(path string, fallback paths.Format) paths.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return paths.FormatJSON
	case ".yaml", ".yml":
		return paths.FormatYAML
	default:
		return fallback
	}
}
