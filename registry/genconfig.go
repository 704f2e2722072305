package registry

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// defaultConfigTemplate is written verbatim by GenConfigCmd. Comments
// describe each field's default the way the teacher's own
// docs/configuration.md documents config.yml, since the Configuration
// struct carries no yaml comments of its own.
const defaultConfigTemplate = `version: "0.1"

# Ambient logging. level is one of panic, fatal, error, warn, info, debug, trace.
# formatter is "text" or "json".
log:
  level: info
  formatter: text

server:
  # rooturl is prefixed onto every dl/api URL advertised in index/config.json.
  # "crates" is appended to it as-is to form dl, so it must end in a slash.
  rooturl: "http://localhost:8000/"
  # bind lists listen addresses; only the first is currently used.
  bind:
    - ":8000"

crates:
  # maxpublishsize caps the framed publish upload body, in bytes.
  maxpublishsize: 104857600

# auth.type is one of "none", "token", "tokenfile", "tokenlist".
auth:
  type: none
  token:
    tokenhash: ""
  tokenfile:
    tokenfile: ""
  tokenlist:
    tokens: []

# storage.type is one of "local", "s3".
storage:
  type: local
  local:
    rootdirectory: /var/lib/quartermaster
  s3:
    bucket: ""
    region: ""
    regionendpoint: ""
    forcepathstyle: false
    secure: true
    accesskey: ""
    secretkey: ""
`

// GenConfigCmd writes a commented default configuration file, mirroring
// the teacher's own documented config.yml rather than leaving operators
// to reconstruct the schema from Configuration's source.
var GenConfigCmd = &cobra.Command{
	Use:   "genconfig <path>",
	Short: "`genconfig` writes a default configuration file",
	Long:  "`genconfig` writes a commented default config.yml to the given path, refusing to overwrite an existing file.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "usage: registry genconfig <path>")
			os.Exit(1)
		}

		path := args[0]
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "refusing to overwrite existing file %q\n", path)
			os.Exit(1)
		}

		if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "writing %q: %v\n", path, err)
			os.Exit(1)
		}
	},
}
