package main

import (
	"os"

	"github.com/mizuki-t/facerender/internal/cli"
)

var version = "devel" // injected via ldflags

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
