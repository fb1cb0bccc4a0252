package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/etnz/pit/config"
)

// EnvConfigFile passes the -config flag to extensions, the other global
// flags travel as the config package environment variables.
const EnvConfigFile = "PIT_CONFIG"

// RunExtension attempts to find and execute an external pit-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "pit-" + subcommand

	// Look for the external command in PATH
	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = extensionEnv()

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}

// extensionEnv passes the resolved global settings as environment variables.
func extensionEnv() []string {
	env := append(os.Environ(), EnvConfigFile+"="+*configFile)
	cfg, err := loadConfig()
	if err != nil {
		return env
	}
	return append(env,
		config.EnvDatabasePath+"="+cfg.Database.Path,
		config.EnvBaseCurrency+"="+cfg.BaseCurrency,
		config.EnvLogLevel+"="+cfg.Log.Level,
	)
}
