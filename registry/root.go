// Package registry assembles the `registry` binary's cobra commands,
// grounded on the teacher's own registry package (registry/root.go,
// registry/registry.go): a RootCmd carrying a --version flag plus a
// serve subcommand. The teacher's garbage-collect command and its
// TLS/ACME/H2C listener machinery have no counterpart here — none of
// spec.md's operations retain blobs that need sweeping, and TLS
// termination is left to a reverse proxy in front of this server.
package registry

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Palladinium/quartermaster/version"
)

var showVersion bool

func init() {
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(GenConfigCmd)
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")
}

// RootCmd is the main command for the `registry` binary.
var RootCmd = &cobra.Command{
	Use:   "registry",
	Short: "`registry` serves a cargo-compatible alternative package registry",
	Long:  "`registry` serves a cargo-compatible alternative package registry.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			version.PrintVersion()
			return
		}
		// nolint:errcheck
		cmd.Usage()
	},
}

// resolveConfigurationPath follows the teacher's precedence: a
// positional argument first, then the environment, and an error if
// neither is set.
func resolveConfigurationPath(args []string) (string, error) {
	var configurationPath string

	if len(args) > 0 {
		configurationPath = args[0]
	} else if os.Getenv("QUARTERMASTER_CONFIGURATION_PATH") != "" {
		configurationPath = os.Getenv("QUARTERMASTER_CONFIGURATION_PATH")
	}

	if configurationPath == "" {
		return "", fmt.Errorf("configuration path unspecified")
	}

	return configurationPath, nil
}
