package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Environment passed to extensions, so they read the same configuration as pmc.
const (
	EnvConfigFile = "PMC_CONFIG_FILE"
	EnvEnvFile    = "PMC_ENV_FILE"
)

// RunExtension attempts to find and execute an external pmc-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "pmc-" + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvConfigFile+"="+*configFile,
		EnvEnvFile+"="+*envFile,
	)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
