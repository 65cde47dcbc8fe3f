package cmd

import "github.com/nodetool-ai/nodetool-sdk/errors"

// Process exit codes
const (
	ExitOK    = 0
	ExitStale = 1 // check found out-of-date output
	ExitError = 2 // invalid flags or configuration, unwritable output
	ExitFatal = 3 // nothing could be generated, e.g. core package not found
)

// ExitCode maps an error returned by a command to the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrStale):
		return ExitStale
	case errors.IsFatal(err):
		return ExitFatal
	}
	return ExitError
}
