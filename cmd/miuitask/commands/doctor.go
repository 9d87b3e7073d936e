package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/miuitask/internal/doctor"
	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/internal/logging"
	"github.com/thoreinstein/miuitask/internal/paths"
	"github.com/thoreinstein/miuitask/internal/platform"
)

var (
	doctorJSON bool
	doctorAll  bool
	doctorFix  bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorAll, "all", false,
		"show every check including passed ones")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false,
		"repair fixable issues such as loose file permissions")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration issues",
	Long: `Run diagnostic checks on the configuration file and runtime platform.

The file is checked for existence, permissions and content without being
loaded, so a broken file is reported rather than rewritten.

Output modes (mutually exclusive):
  (default)   Show errors and warnings
  --all       Show all checks including passed ones
  --quiet     No output, exit code only
  --json      Machine-readable JSON output

Exit codes:
  0 - No errors or warnings
  1 - Warnings present, no errors
  2 - Errors present`,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	Args:        cobra.NoArgs,
	PreRunE:     validateDoctorFlags,
	RunE:        runDoctor,
}

// validateDoctorFlags ensures output flags are mutually exclusive.
func validateDoctorFlags(_ *cobra.Command, _ []string) error {
	count := 0
	for _, set := range []bool{doctorJSON, doctorAll, quiet} {
		if set {
			count++
		}
	}
	if count > 1 {
		return errors.NewUserError(
			errors.New("flags --json, --quiet, and --all are mutually exclusive"), "")
	}
	return nil
}

// errDoctorWarnings is a sentinel error for exit code 1.
var errDoctorWarnings = errors.New("warnings found")

// errDoctorErrors is a sentinel error for exit code 2.
var errDoctorErrors = errors.New("errors found")

func runDoctor(cmd *cobra.Command, _ []string) error {
	logger := logging.FromContext(commandContext(cmd))

	loc, err := paths.Resolve(installRoot())
	if err != nil {
		return errors.NewSystemError(err, "check that the installation root is writable")
	}

	runner := doctor.NewRunner()
	runner.AddCheck(doctor.NewConfigFileCheck(loc))
	runner.AddCheck(doctor.NewPermissionCheck(loc.Path))
	runner.AddCheck(doctor.NewContentCheck(loc))
	runner.AddCheck(doctor.NewPlatformCheck(platform.NewDetector(), loc))

	report := runner.Run()

	if doctorFix {
		fixes := runner.Fix()
		for _, f := range fixes {
			logger.Debug("doctor fix", "path", f.Path, "fixed", f.Fixed, "description", f.Description)
		}
		if len(fixes) > 0 {
			report = runner.Run()
			report.Fixes = fixes
		}
	}

	if err := outputDoctorReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if report.HasErrors() {
		return errors.NewExitError(errDoctorErrors, errors.ExitSystem)
	}
	if report.HasWarnings() {
		return errors.NewExitError(errDoctorWarnings, errors.ExitUser)
	}
	return nil
}

func outputDoctorReport(w io.Writer, report *doctor.DoctorReport) error {
	if quiet {
		return nil
	}
	if doctorJSON {
		return outputDoctorJSON(w, report)
	}
	outputDoctorText(w, report)
	return nil
}

func outputDoctorJSON(w io.Writer, report *doctor.DoctorReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "encoding JSON")
	}
	return nil
}

func outputDoctorText(w io.Writer, report *doctor.DoctorReport) {
	for _, f := range report.Fixes {
		icon := color.GreenString("✓")
		if !f.Fixed {
			icon = color.RedString("✗")
		}
		fmt.Fprintf(w, "%s fixed %s: %s\n", icon, f.Path, f.Description)
	}

	hasOutput := len(report.Fixes) > 0
	for _, result := range report.Results {
		problem := result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning
		if !doctorAll && !problem {
			continue
		}

		hasOutput = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)

		if result.FixHint != "" && (problem || doctorAll) {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
	}

	if hasOutput {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return color.GreenString("✓")
	case doctor.SeverityInfo:
		return color.CyanString("ℹ")
	case doctor.SeverityWarning:
		return color.YellowString("⚠")
	case doctor.SeverityError:
		return color.RedString("✗")
	default:
		return "?"
	}
}
