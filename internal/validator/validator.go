package validator

import (
	"strings"

	"github.com/thoreinstein/miuitask/internal/config"
	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/internal/paths"
	"github.com/thoreinstein/miuitask/pkg/fileutil"
)

// Severity represents the impact of a validation issue.
type Severity int

const (
	// SeverityError indicates the file would be rejected or misbehave.
	SeverityError Severity = iota
	// SeverityWarning indicates content that is accepted but lost or suspicious.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return errors.Newf("unknown severity %q", text)
	}
	return nil
}

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity `json:"severity"`
	// Field is a path such as accounts[0].uid; empty for file-level problems.
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (i Issue) Error() string {
	var sb strings.Builder
	sb.WriteString(i.Severity.String())
	sb.WriteString(": ")
	if i.Field != "" {
		sb.WriteString(i.Field)
		sb.WriteString(": ")
	}
	sb.WriteString(i.Message)
	return sb.String()
}

// Result aggregates the issues found in one configuration file.
type Result struct {
	Path     string       `json:"path"`
	Format   paths.Format `json:"format"`
	Accounts int          `json:"accounts"`
	Issues   []Issue      `json:"issues"`

	// Err is the parse, validation or read error, if any.
	Err error `json:"-"`
}

// HasErrors returns true if any issue has SeverityError.
func (r *Result) HasErrors() bool {
	return len(r.filter(SeverityError)) > 0
}

// HasWarnings returns true if any issue has SeverityWarning.
func (r *Result) HasWarnings() bool {
	return len(r.filter(SeverityWarning)) > 0
}

// AddError adds an error issue to the result.
func (r *Result) AddError(field, message string) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityError, Field: field, Message: message})
}

// AddWarning adds a warning issue to the result.
func (r *Result) AddWarning(field, message string) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityWarning, Field: field, Message: message})
}

// Errors returns a slice of all issues with SeverityError.
func (r *Result) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns a slice of all issues with SeverityWarning.
func (r *Result) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Result) filter(s Severity) []Issue {
	if r == nil {
		return nil
	}
	var res []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			res = append(res, i)
		}
	}
	return res
}

// CheckFile reads and checks the file at path. It never writes.
func CheckFile(path string, format paths.Format) *Result {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		r := &Result{Path: path, Format: format}
		r.Err = errors.Mark(errors.Wrapf(err, "reading %s", path), errors.ErrRead)
		r.AddError("", err.Error())
		return r
	}
	r := Check(data, format)
	r.Path = path
	return r
}

// Check parses, validates and lints a configuration document.
//
// Parse and schema failures become errors, as do problems reported by
// config.Validate. Keys that match no field and passwords written in plain
// text become warnings.
func Check(data []byte, format paths.Format) *Result {
	r := &Result{Format: format}

	res, err := config.Decode(data, format)
	if err != nil {
		r.Err = err
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				r.AddError(p.Field, p.Err.Error())
			}
		} else {
			r.AddError("", err.Error())
		}
		return r
	}

	r.Accounts = len(res.Config.Accounts)
	for _, key := range res.Unknown {
		r.AddWarning(key, "unknown key, dropped on rewrite")
	}
	for _, field := range res.Hashed {
		r.AddWarning(field, config.ErrPasswordNotDigest.Error()+", hashed on rewrite")
	}
	for _, lintErr := range config.Validate(res.Config) {
		var ferr *config.FieldError
		if errors.As(lintErr, &ferr) {
			r.AddError(ferr.Field, ferr.Err.Error())
			continue
		}
		r.AddError("", lintErr.Error())
	}
	return r
}
