package config

import (
	_ "embed"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/thoreinstein/miuitask/internal/errors"
)

//go:embed config.schema.json
var schemaSource string

const schemaURL = "config.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// loadSchema compiles the embedded schema on first use.
func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			schemaErr = errors.Wrap(err, "adding configuration schema")
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = errors.Wrap(schemaErr, "compiling configuration schema")
		}
	})
	return compiledSchema, schemaErr
}

// validateTree checks the parsed document against the structural schema.
func validateTree(tree any) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	err = schema.Validate(tree)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return errors.Mark(errors.Wrap(err, "validating configuration"), errors.ErrValidation)
	}

	var problems []*FieldError
	collectLeaves(verr, &problems)
	return validationError(problems...)
}

// collectLeaves flattens the validator's cause tree into one FieldError per
// failing leaf.
func collectLeaves(e *jsonschema.ValidationError, out *[]*FieldError) {
	if len(e.Causes) == 0 {
		*out = append(*out, &FieldError{
			Field: fieldPath(e.InstanceLocation),
			Err:   errors.New(e.Message),
		})
		return
	}
	for _, c := range e.Causes {
		collectLeaves(c, out)
	}
}

// fieldPath converts a JSON pointer such as /accounts/0/uid to accounts[0].uid.
func fieldPath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return "(root)"
	}

	var b strings.Builder
	for _, tok := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")
		if _, err := strconv.Atoi(tok); err == nil {
			b.WriteString("[" + tok + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(tok)
	}
	return b.String()
}
