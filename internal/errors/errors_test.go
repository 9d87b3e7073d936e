package errors

import (
	"fmt"
	"testing"
)

func TestExitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "with underlying error",
			err:  NewExitError(ErrNotFound, ExitUser),
			want: "resource not found",
		},
		{
			name: "with wrapped error",
			err:  NewExitError(Wrap(ErrValidation, "loading config"), ExitUser),
			want: "loading config: invalid configuration",
		},
		{
			name: "nil underlying error",
			err:  NewExitError(nil, ExitUser),
			want: "exit code 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ExitError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	tests := []struct {
		name       string
		err        *ExitError
		wantTarget error
		wantIs     bool
	}{
		{
			name:       "unwrap to sentinel error",
			err:        NewExitError(ErrNotFound, ExitUser),
			wantTarget: ErrNotFound,
			wantIs:     true,
		},
		{
			name:       "unwrap through fmt wrapping",
			err:        NewExitError(fmt.Errorf("reading: %w", ErrParse), ExitUser),
			wantTarget: ErrParse,
			wantIs:     true,
		},
		{
			name:       "no match for different sentinel",
			err:        NewExitError(ErrNotFound, ExitUser),
			wantTarget: ErrValidation,
			wantIs:     false,
		},
		{
			name:       "nil underlying error",
			err:        NewExitError(nil, ExitUser),
			wantTarget: ErrNotFound,
			wantIs:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.wantTarget); got != tt.wantIs {
				t.Errorf("Is() = %v, want %v", got, tt.wantIs)
			}
		})
	}
}

func TestMark_PreservesMessageAndKind(t *testing.T) {
	cause := New("yaml: line 3: did not find expected key")
	err := Mark(Wrapf(cause, "parsing %s", "/tmp/config.yaml"), ErrParse)

	if !Is(err, ErrParse) {
		t.Fatal("marked error should match ErrParse")
	}
	if Is(err, ErrValidation) {
		t.Error("marked error should not match ErrValidation")
	}
	want := "parsing /tmp/config.yaml: yaml: line 3: did not find expected key"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewConfigError_Codes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"parse failure", Mark(New("bad syntax"), ErrParse), ExitUser},
		{"validation failure", Mark(New("uid: expected string"), ErrValidation), ExitUser},
		{"read failure", Mark(New("permission denied"), ErrRead), ExitSystem},
		{"create failure", Mark(New("is a directory"), ErrCreate), ExitSystem},
		{"unclassified", New("something else"), ExitUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewConfigError(tt.err)
			if e.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", e.Code, tt.wantCode)
			}
			if e.Suggestion != "Run: miuitask config validate" {
				t.Errorf("Suggestion = %q", e.Suggestion)
			}
			if !Is(e, tt.err) {
				t.Error("ExitError should unwrap to the original error")
			}
		})
	}
}

func TestExitError_As(t *testing.T) {
	wrapped := fmt.Errorf("command failed: %w", NewSystemError(ErrWrite, "check permissions"))

	var exitErr *ExitError
	if !As(wrapped, &exitErr) {
		t.Fatal("As() should find ExitError")
	}
	if exitErr.Code != ExitSystem {
		t.Errorf("Code = %d, want %d", exitErr.Code, ExitSystem)
	}
	if exitErr.Suggestion != "check permissions" {
		t.Errorf("Suggestion = %q, want %q", exitErr.Suggestion, "check permissions")
	}
}

func TestNewUserError(t *testing.T) {
	e := NewUserError(New("user error"), "check input")
	if e.Code != ExitUser {
		t.Errorf("Code = %d, want %d", e.Code, ExitUser)
	}
	if e.Suggestion != "check input" {
		t.Errorf("Suggestion = %q, want 'check input'", e.Suggestion)
	}
}

func TestWithHint(t *testing.T) {
	err := WithHintf(ErrParse, "check the syntax of %s", "config.json")
	if got := FlattenHints(err); got != "check the syntax of config.json" {
		t.Errorf("FlattenHints() = %q", got)
	}
}
