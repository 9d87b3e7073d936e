package config

import (
	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/internal/paths"
	"github.com/thoreinstein/miuitask/pkg/fileutil"
)

// Result is the outcome of decoding a configuration document.
type Result struct {
	// Config is the decoded configuration.
	Config *Config
	// Unknown lists keys that matched no field. They are dropped on rewrite.
	Unknown []string
	// Hashed lists the password fields that held plain text. They are
	// stored as digests and written back that way.
	Hashed []string
}

// Unmarshal parses, validates and decodes a configuration document.
// Syntax errors are marked errors.ErrParse; schema and decode errors are
// marked errors.ErrValidation.
func Unmarshal(data []byte, format paths.Format) (*Config, error) {
	res, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// Decode is Unmarshal that also reports unknown keys and plain-text
// passwords.
func Decode(data []byte, format paths.Format) (*Result, error) {
	tree, err := parseTree(data, format)
	if err != nil {
		return nil, err
	}

	if err := validateTree(plainValue(tree)); err != nil {
		return nil, err
	}

	root, ok := tree.(*Mapping)
	if !ok {
		return nil, validationError(&FieldError{Field: "(root)", Err: errors.Newf("expected a mapping, got %T", tree)})
	}

	return decodeTree(root)
}

// Marshal renders cfg in the given format. Nil mappings are written as
// empty mappings and a nil account list as an empty list.
func Marshal(cfg *Config, format paths.Format) ([]byte, error) {
	if cfg == nil {
		return nil, errors.Mark(errors.New("config is nil"), errors.ErrWrite)
	}

	out := cfg.normalized()

	var (
		data []byte
		err  error
	)
	switch format {
	case paths.FormatJSON:
		data, err = fileutil.EncodeJSON(out)
	case paths.FormatYAML:
		data, err = fileutil.EncodeYAML(out)
	default:
		err = errors.Newf("unsupported format %q", format)
	}
	if err != nil {
		return nil, errors.Mark(err, errors.ErrWrite)
	}
	return data, nil
}
