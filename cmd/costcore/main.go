// Command costcore validates project cost sheets and freezes them into
// versioned cost snapshots.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/costcore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands already reported their ExitErrors; print what cobra raised itself.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
