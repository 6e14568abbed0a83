// Command devdash is a terminal developer dashboard backed by an AI service.
package main

import (
	"os"

	"github.com/buker/devdash/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
