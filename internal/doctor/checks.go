package doctor

import (
	"fmt"
	"os"
	"runtime"

	"github.com/thoreinstein/miuitask/internal/paths"
	"github.com/thoreinstein/miuitask/internal/validator"
)

// ConfigFileCheck verifies that the configuration file exists and is readable.
type ConfigFileCheck struct {
	loc paths.Location
}

var _ Check = (*ConfigFileCheck)(nil)

// NewConfigFileCheck creates a check for the file at loc.
func NewConfigFileCheck(loc paths.Location) *ConfigFileCheck {
	return &ConfigFileCheck{loc: loc}
}

// Name returns the unique identifier for this check.
func (c *ConfigFileCheck) Name() string {
	return "config-file"
}

// Category returns the grouping for this check.
func (c *ConfigFileCheck) Category() string {
	return "config"
}

// Run executes the check.
func (c *ConfigFileCheck) Run() *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details: map[string]any{
			"path":       c.loc.Path,
			"format":     string(c.loc.Format),
			"overridden": c.loc.Overridden,
		},
	}

	info, err := os.Stat(c.loc.Path)
	switch {
	case os.IsNotExist(err):
		result.Status = SeverityInfo
		result.Message = "configuration file not created yet"
		result.FixHint = "run any miuitask command to create it with defaults"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot stat file: %v", err)
		return result
	case !info.Mode().IsRegular():
		result.Status = SeverityError
		result.Message = "path exists but is not a regular file"
		result.FixHint = "remove or rename " + c.loc.Path
		return result
	}

	f, err := os.Open(c.loc.Path)
	if err != nil {
		result.Status = SeverityError
		result.Message = "file is not readable"
		result.FixHint = fmt.Sprintf("chmod %o %s", securePerm, c.loc.Path)
		return result
	}
	f.Close()

	result.Status = SeverityPass
	result.Message = c.loc.Path
	return result
}

// PermissionCheck reports configuration files readable or writable by
// anyone but the owner.
type PermissionCheck struct {
	PermissionFixer

	path string
}

var (
	_ Check = (*PermissionCheck)(nil)
	_ Fixer = (*PermissionCheck)(nil)
)

// NewPermissionCheck creates a permission check for the file at path.
func NewPermissionCheck(path string) *PermissionCheck {
	return &PermissionCheck{path: path}
}

// Name returns the unique identifier for this check.
func (c *PermissionCheck) Name() string {
	return "config-permissions"
}

// Category returns the grouping for this check.
func (c *PermissionCheck) Category() string {
	return "filesystem"
}

// pathIssue represents a single path or permission problem.
type pathIssue struct {
	Path        string
	Problem     string
	Severity    Severity
	Permissions string
	Fixable     bool
}

// Run executes the permission check.
func (c *PermissionCheck) Run() *CheckResult {
	c.setIssues(nil)

	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
	}

	// Windows does not carry Unix permission bits.
	if runtime.GOOS == "windows" {
		result.Status = SeverityPass
		result.Message = "permissions not checked on windows"
		return result
	}

	info, err := os.Stat(c.path)
	if os.IsNotExist(err) {
		result.Status = SeverityPass
		result.Message = "no file to check"
		return result
	}
	if err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot stat file: %v", err)
		return result
	}

	issues := checkFilePermissions(c.path, info.Mode())
	c.setIssues(issues)

	if len(issues) == 0 {
		result.Status = SeverityPass
		result.Message = "file is private to its owner (" + formatPermissions(info.Mode()) + ")"
		return result
	}

	problems := make([]string, 0, len(issues))
	for _, issue := range issues {
		problems = append(problems, issue.Problem)
		if issue.Severity > result.Status {
			result.Status = issue.Severity
		}
	}
	result.Message = fmt.Sprintf("%d permission issue(s) found", len(issues))
	result.Details = map[string]any{
		"path":        c.path,
		"permissions": formatPermissions(info.Mode()),
		"problems":    problems,
	}
	result.Fixable = c.CanFix()
	result.FixHint = fmt.Sprintf("run 'miuitask doctor --fix' or chmod %o %s", securePerm, c.path)
	return result
}

// checkFilePermissions reports group and other permission bits. The file
// holds password digests and session cookies.
func checkFilePermissions(path string, mode os.FileMode) []pathIssue {
	var issues []pathIssue
	perm := mode.Perm()

	if perm&0o002 != 0 {
		issues = append(issues, pathIssue{
			Path:        path,
			Problem:     "file is world-writable",
			Severity:    SeverityError,
			Permissions: formatPermissions(mode),
			Fixable:     true,
		})
	}

	if perm&0o077&^0o002 != 0 {
		issues = append(issues, pathIssue{
			Path:        path,
			Problem:     "file is accessible by group or others and may expose credentials",
			Severity:    SeverityWarning,
			Permissions: formatPermissions(mode),
			Fixable:     true,
		})
	}

	return issues
}

// formatPermissions returns an octal representation of file permissions.
func formatPermissions(mode os.FileMode) string {
	return fmt.Sprintf("%04o", mode.Perm())
}

// ContentCheck parses, validates and lints the configuration file.
type ContentCheck struct {
	loc paths.Location
}

var _ Check = (*ContentCheck)(nil)

// NewContentCheck creates a content check for the file at loc.
func NewContentCheck(loc paths.Location) *ContentCheck {
	return &ContentCheck{loc: loc}
}

// Name returns the unique identifier for this check.
func (c *ContentCheck) Name() string {
	return "config-content"
}

// Category returns the grouping for this check.
func (c *ContentCheck) Category() string {
	return "config"
}

// Run executes the content check. A missing file passes; ConfigFileCheck
// reports it.
func (c *ContentCheck) Run() *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
	}

	if _, err := os.Stat(c.loc.Path); os.IsNotExist(err) {
		result.Status = SeverityPass
		result.Message = "defaults will be used"
		return result
	}

	v := validator.CheckFile(c.loc.Path, c.loc.Format)

	issues := make([]string, 0, len(v.Issues))
	for _, issue := range v.Issues {
		issues = append(issues, issue.Error())
	}
	result.Details = map[string]any{
		"accounts": v.Accounts,
		"issues":   issues,
	}

	switch {
	case v.HasErrors():
		result.Status = SeverityError
		result.Message = fmt.Sprintf("%d error(s) found", len(v.Errors()))
		result.FixHint = "Run: miuitask config validate"
	case v.HasWarnings():
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("%d warning(s) found", len(v.Warnings()))
		result.FixHint = "Run: miuitask config validate"
	default:
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("%d account(s) configured", v.Accounts)
	}
	return result
}
