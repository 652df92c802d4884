package main

import (
	"os"

	"github.com/branchd-dev/adminconsole/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
