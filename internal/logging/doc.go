// Package logging provides structured logging for miuitask using slog.
//
// Text output goes through a colorized, TTY-aware [Handler]; JSON output uses
// the standard library handler. Both paths mask attribute values whose keys
// look like credentials (password, cookies, api keys, tokens), so account
// secrets never reach a terminal or a log file in clear text.
//
//	logger := logging.New(logging.Config{
//		Level:  slog.LevelInfo,
//		Format: logging.FormatText,
//	})
//	logger.Info("configuration loaded", "path", loc.Path)
//
// Use [ForTest] in tests and [NewDiscard] for quiet mode. A logger travels
// with a command through [NewContext] and [FromContext].
package logging
