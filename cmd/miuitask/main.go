// Package main is the entry point for the miuitask CLI.
package main

import (
	"fmt"
	"os"

	"github.com/thoreinstein/miuitask/cmd/miuitask/commands"
	"github.com/thoreinstein/miuitask/internal/errors"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	for _, hint := range errors.FlattenHints(err) {
		fmt.Fprintln(os.Stderr, "Hint:", hint)
	}

	code := errors.ExitSystem
	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		if exitErr.Suggestion != "" {
			fmt.Fprintln(os.Stderr, exitErr.Suggestion)
		}
	}
	os.Exit(code)
}
