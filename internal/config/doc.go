// Package config loads, validates and persists the miuitask configuration.
//
// The configuration lives in <root>/data/config.yaml, or config.json when
// that file already exists; MIUITASK_CONFIG_PATH overrides the path. It holds
// the global preference block, the list of accounts and the ONEPUSH
// notification settings.
//
// # Loading
//
// Create one Manager at process start and hand it to consumers through a
// context:
//
//	m, err := config.Open(paths.DefaultRoot(), config.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	ctx = config.NewContext(ctx, m)
//
// Open creates a missing file with defaults. An existing file is parsed,
// checked against an embedded JSON Schema and decoded on top of defaults, so
// missing keys keep their default values. Passwords, the empty one included,
// are stored as uppercase MD5 digests and raw cookie strings become mappings.
// Free-form sections such as ONEPUSH.params are held as [Mapping] values and
// keep the key order of the file. After a successful load the file is
// rewritten in canonical form.
//
// Errors carry one of the kinds from internal/errors:
//
//	if errors.Is(err, errors.ErrParse) {
//	    // not valid JSON or YAML
//	}
//
// # Writing
//
// [Manager.Save] persists a Config atomically and returns the error;
// [Manager.Write] logs it and reports success as a bool. A symlinked path
// is written through to its target.
//
// # Validation
//
// [Validate] lints a decoded Config for problems the schema cannot express,
// such as duplicate uids. It never blocks loading.
package config
