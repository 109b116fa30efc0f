// Command polcheck checks privacy policies against utility policies.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/polcheck/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands print their own errors; ExitError only carries the code.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
