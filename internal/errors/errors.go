package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid input, configuration, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, permissions, etc.).
	ExitSystem = 2
)

// Sentinel errors for configuration handling. Concrete errors are tagged with
// one of these via Mark, so the original message survives while errors.Is
// still reports the kind.
var (
	// ErrParse indicates the configuration file is not valid JSON or YAML.
	ErrParse = crdb.New("malformed configuration file")

	// ErrValidation indicates the parsed document does not satisfy the schema.
	ErrValidation = crdb.New("invalid configuration")

	// ErrRead indicates the configuration file exists but could not be read.
	ErrRead = crdb.New("cannot read configuration file")

	// ErrCreate indicates the default configuration file could not be created.
	ErrCreate = crdb.New("cannot create configuration file")

	// ErrWrite indicates the configuration could not be serialized or persisted.
	ErrWrite = crdb.New("cannot write configuration file")

	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = crdb.New("resource not found")
)

// Thin re-exports so callers need a single errors import.
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	Is           = crdb.Is
	As           = crdb.As
	Mark         = crdb.Mark
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	FlattenHints = crdb.FlattenHints
)

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
// If err is nil, the returned ExitError will have a nil Err field.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// NewConfigError converts a configuration load failure into an ExitError.
// Parse and validation failures are user errors; I/O failures are system errors.
func NewConfigError(err error) *ExitError {
	code := ExitUser
	if Is(err, ErrRead) || Is(err, ErrCreate) || Is(err, ErrWrite) {
		code = ExitSystem
	}
	return &ExitError{
		Err:        err,
		Code:       code,
		Suggestion: "Run: miuitask config validate",
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}
