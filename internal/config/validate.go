package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/thoreinstein/miuitask/internal/errors"
)

// Lint findings.
var (
	// ErrEmptyUID indicates an account without an identifier.
	ErrEmptyUID = errors.New("uid is empty")

	// ErrDuplicateUID indicates two accounts share an identifier.
	ErrDuplicateUID = errors.New("duplicate uid")

	// ErrPasswordNotDigest indicates a password written in plain text. Decode
	// lists such fields in Result.Hashed.
	ErrPasswordNotDigest = errors.New("password is not an MD5 digest")

	// ErrInvalidURL indicates a provider URL that is not absolute http(s).
	ErrInvalidURL = errors.New("not an absolute http(s) URL")

	// ErrParamType indicates a recognized push parameter with the wrong type.
	ErrParamType = errors.New("wrong parameter type")
)

// FieldError attaches a field path such as accounts[0].uid to an error.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError collects every problem found in a document.
type ValidationError struct {
	Problems []*FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error()
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("%d problems: %s", len(e.Problems), strings.Join(msgs, "; "))
}

// validationError wraps problems in a ValidationError marked errors.ErrValidation.
func validationError(problems ...*FieldError) error {
	return errors.Mark(&ValidationError{Problems: problems}, errors.ErrValidation)
}

// Validate reports semantic problems in a decoded configuration.
// Returns nil if valid, or a slice of *FieldError. It never modifies cfg.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	seen := make(map[string]int, len(cfg.Accounts))
	for i, a := range cfg.Accounts {
		field := fmt.Sprintf("accounts[%d]", i)

		if a.UID == "" {
			errs = append(errs, &FieldError{Field: field + ".uid", Err: ErrEmptyUID})
		} else if first, ok := seen[a.UID]; ok {
			errs = append(errs, &FieldError{
				Field: field + ".uid",
				Err:   errors.Wrapf(ErrDuplicateUID, "%s also used by accounts[%d]", a.UID, first),
			})
		} else {
			seen[a.UID] = i
		}
	}

	urls := []struct {
		field string
		value string
	}{
		{"preference.geetest_url", cfg.Preference.GeetestURL},
		{"preference.ttocr.createTask_url", cfg.Preference.OCR.CreateTaskURL},
		{"preference.ttocr.getTaskResult_url", cfg.Preference.OCR.GetTaskResultURL},
	}
	for _, u := range urls {
		if err := validateURL(u.value); err != nil {
			errs = append(errs, &FieldError{Field: u.field, Err: err})
		}
	}

	for _, key := range []string{ParamTitle, ParamToken, ParamUserID} {
		if v, ok := cfg.Push.Params.Get(key); ok {
			if _, isString := v.(string); !isString {
				errs = append(errs, &FieldError{
					Field: "ONEPUSH.params." + key,
					Err:   errors.Wrapf(ErrParamType, "expected string, got %T", v),
				})
			}
		}
	}
	if v, ok := cfg.Push.Params.Get(ParamMarkdown); ok {
		if _, isBool := v.(bool); !isBool {
			errs = append(errs, &FieldError{
				Field: "ONEPUSH.params." + ParamMarkdown,
				Err:   errors.Wrapf(ErrParamType, "expected boolean, got %T", v),
			})
		}
	}

	return errs
}

// validateURL accepts empty values, which mean "not configured".
func validateURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(ErrInvalidURL, err.Error())
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
