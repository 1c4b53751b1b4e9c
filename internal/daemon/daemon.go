// Package daemon supervises the external signal-cli subprocess.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
)

// Command builds the daemon invocation for the given account. The daemon
// must run in TCP mode for the line client to attach to it.
func Command(phoneNumber string) string {
	return fmt.Sprintf("signal-cli -u %s daemon --tcp", phoneNumber)
}

// WithDaemon starts command under the shell, runs fn, and terminates and
// reaps the subprocess on every exit path: normal return, error, or
// cancellation. The subprocess's output is discarded; its death is not
// monitored here and surfaces as connection failures in the line client.
func WithDaemon(ctx context.Context, command string, logger *slog.Logger, fn func(context.Context) error) error {
	cmd := exec.Command("sh", "-c", command)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting daemon %q: %w", command, err)
	}
	logger.Info("Started daemon process", "command", command, "pid", cmd.Process.Pid)

	defer func() {
		if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
			logger.Debug("Daemon already exited", "error", err)
		}
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			logger.Warn("Failed to reap daemon process", "error", err)
			return
		}
		logger.Info("Daemon process terminated", "pid", cmd.Process.Pid)
	}()

	return fn(ctx)
}
