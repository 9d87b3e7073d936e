// Package validator checks a configuration document without loading it
// into a Manager and reports the outcome.
//
// # Core Concepts
//
//   - [Severity]: Distinguishes between blocking errors and non-blocking warnings.
//   - [Issue]: Represents a single problem with its field path.
//   - [Result]: Aggregates the issues found in one file.
//   - [Reporter]: Writes a Result as colored text or JSON.
//
// # Basic Usage
//
//	result := validator.CheckFile(path, paths.FormatYAML)
//	_ = validator.NewReporter(os.Stdout, validator.FormatText).Report(result)
//	if result.HasErrors() {
//		// the file would be rejected by config.Open
//	}
package validator
