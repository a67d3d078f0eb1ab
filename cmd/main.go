package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/playsheet/internal/shared"
)

// Process exit codes, one per run-level failure category.
const (
	exitOK = iota
	exitFailure
	exitConfig
	exitAuth
	exitLoad
	exitWrite
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	runner := NewRunner(RunnerOpts{Logger: logger})
	err := runner.app().Run(ctx, os.Args)
	stop()

	code := exitCode(err)
	switch {
	case err == nil:
	case code == exitOK:
		logger.Warn("import cancelled", "error", err)
	default:
		logger.Error("application error", "op", shared.Operation(err), "error", err)
	}
	os.Exit(code)
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, shared.ErrCancelled):
		return exitOK
	case errors.Is(err, shared.ErrConfig):
		return exitConfig
	case errors.Is(err, shared.ErrAuth):
		return exitAuth
	case errors.Is(err, shared.ErrLoad):
		return exitLoad
	case errors.Is(err, shared.ErrWrite):
		return exitWrite
	default:
		return exitFailure
	}
}
