// Command registry runs the quartermaster alternative-registry server,
// mirroring the teacher's cmd/registry/main.go: a thin wrapper that
// hands off to the registry package's cobra RootCmd.
package main

import (
	"os"

	"github.com/Palladinium/quartermaster/registry"
)

func main() {
	if err := registry.RootCmd.Execute(); err != nil {
		// cobra has already printed err to stderr.
		os.Exit(1)
	}
}
