// Command crush runs structured row pipelines.
package main

import (
	"os"

	"github.com/roach88/crush/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
