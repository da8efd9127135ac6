package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// CommandStep builds a Step that runs an external command, inheriting the
// orchestrator's stdout and stderr. The command's exit code survives error
// wrapping, so ExitCode can propagate it as the process exit code.
func CommandStep(name string, argv ...string) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context) error {
			if len(argv) == 0 {
				return fmt.Errorf("empty command")
			}

			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			cmd.Env = os.Environ()

			if err := cmd.Run(); err != nil {
				return fmt.Errorf("%s: %w", argv[0], err)
			}
			return nil
		},
	}
}
