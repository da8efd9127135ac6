//go:build windows

package bootstrap

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/psm-app/psm/internal/logger"
)

// Exec approximates process replacement on platforms without execve: it
// spawns the command as a child, forwards termination signals to it, and
// exits with the child's exit code once it terminates. On success it never
// returns.
func Exec(argv []string) error {
	if len(argv) == 0 {
		return ErrNoCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	logger.Info("Handing off to server process", "command", argv[0], "args", argv[1:])

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %q: %w", argv[0], err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			_ = cmd.Process.Signal(sig)
		}
	}()

	err := cmd.Wait()
	signal.Stop(sigChan)

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("server process failed: %w", err)
	}

	os.Exit(0)
	return nil
}
