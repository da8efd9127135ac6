//go:build !windows

package bootstrap

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/psm-app/psm/internal/logger"
)

// Exec replaces the current process with the given command via execve.
//
// On success it never returns: the server inherits this process's PID, so
// container signal handling and the final exit code attach to the server
// rather than to a wrapper. No orchestrator code runs after the handoff.
func Exec(argv []string) error {
	if len(argv) == 0 {
		return ErrNoCommand
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("failed to resolve command %q: %w", argv[0], err)
	}

	logger.Info("Handing off to server process", "command", path, "args", argv[1:])

	if err := syscall.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("failed to exec %q: %w", path, err)
	}

	// Unreachable: Exec only returns on error.
	return nil
}
