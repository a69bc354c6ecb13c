// Command prodsys drives and inspects the entity fetch-state cache.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/prodsys/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
