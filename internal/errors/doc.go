// Package errors provides error handling conventions for miuitask.
//
// It wraps github.com/cockroachdb/errors, defines the sentinel error kinds
// used by configuration loading and saving, and an ExitError type for CLI
// exit code handling.
//
// # Error Kinds
//
// Configuration failures are tagged with one sentinel each, so callers can
// branch with [Is] without losing the detailed message:
//
//	if errors.Is(err, errors.ErrParse) {
//	    // file syntax is broken
//	}
//
// Load-time kinds ([ErrParse], [ErrValidation], [ErrRead], [ErrCreate]) are
// fatal to the load call. [ErrWrite] is reported by best-effort persistence.
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, configuration, etc.)
//   - ExitSystem (2): System-related error (I/O, permissions, etc.)
package errors
