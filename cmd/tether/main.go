// Package main provides the tether CLI, an entity manager for humans and
// LLM agents over pluggable issue-tracking backends.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/tether/pkg/types"
)

// Exit codes by error kind, so scripting callers can branch on the
// failure category.
const (
	exitSuccess     = 0
	exitValidation  = 1
	exitNotFound    = 2
	exitDuplicate   = 3
	exitUnavailable = 4
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error onto its exit code. Unrecognized errors count
// as validation/usage failures.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrNotFound):
		return exitNotFound
	case errors.Is(err, types.ErrDuplicateLink):
		return exitDuplicate
	case errors.Is(err, types.ErrBackendUnavailable):
		return exitUnavailable
	default:
		return exitValidation
	}
}
