package version

import (
	"fmt"
	"io"
	"os"
)

// FprintVersion writes "<cmd> <package> <version>" followed by a newline.
func FprintVersion(w io.Writer) {
	fmt.Fprintln(w, os.Args[0], Package(), Version())
}

// PrintVersion writes the version line to stdout.
func PrintVersion() {
	FprintVersion(os.Stdout)
}
