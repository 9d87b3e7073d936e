package doctor

import (
	"fmt"
	"os"

	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/pkg/fileutil"
)

// Fixer is an optional interface that checks can implement to support auto-remediation.
// Checks that implement Fixer can fix issues they detect when the --fix flag is used.
type Fixer interface {
	// CanFix returns true if this check has fixable issues.
	// Must be called after Run() to check if there are issues that can be fixed.
	CanFix() bool

	// Fix attempts to remediate the issues found by Run().
	Fix() []FixResult
}

// FixResult describes the outcome of an attempted fix operation.
type FixResult struct {
	// Path is the file that was targeted for fixing.
	Path string `json:"path"`

	// Fixed indicates whether the fix was successfully applied.
	Fixed bool `json:"fixed"`

	// Description explains what was fixed or why it couldn't be fixed.
	Description string `json:"description"`

	// Error contains the error if the fix failed.
	Error error `json:"-"`
}

// securePerm is the target permission for the configuration file, which
// holds password digests and session cookies.
const securePerm = fileutil.DefaultFilePerm

// PermissionFixer tightens configuration file permissions.
// It is embedded in PermissionCheck to provide fix capability.
type PermissionFixer struct {
	issues []pathIssue
}

// CanFix returns true if there are any fixable permission issues.
func (f *PermissionFixer) CanFix() bool {
	return f.CountFixable() > 0
}

// Fix attempts to fix all fixable permission issues.
func (f *PermissionFixer) Fix() []FixResult {
	results := make([]FixResult, 0, f.CountFixable())
	for _, issue := range f.issues {
		if !issue.Fixable {
			continue
		}
		results = append(results, f.fixIssue(issue))
	}
	return results
}

func (f *PermissionFixer) fixIssue(issue pathIssue) FixResult {
	result := FixResult{
		Path: issue.Path,
	}

	if err := os.Chmod(issue.Path, securePerm); err != nil {
		result.Description = fmt.Sprintf("failed to chmod %04o: %v", securePerm, err)
		result.Error = errors.Wrapf(err, "chmod %04o %s", securePerm, issue.Path)
		return result
	}

	result.Fixed = true
	result.Description = fmt.Sprintf("chmod %04o", securePerm)
	return result
}

// setIssues stores the issues found by the check for later fixing.
func (f *PermissionFixer) setIssues(issues []pathIssue) {
	f.issues = issues
}

// CountFixable returns the number of fixable issues.
func (f *PermissionFixer) CountFixable() int {
	count := 0
	for _, issue := range f.issues {
		if issue.Fixable {
			count++
		}
	}
	return count
}
