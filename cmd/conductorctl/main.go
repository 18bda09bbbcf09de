package main

import (
	"os"

	"conductorctl/internal/cli"
	"conductorctl/internal/logging"
)

// version is injected via ldflags at build time.
var version = "dev"

func main() {
	logging.ConfigureRuntime("conductorctl")
	if err := cli.Execute(version); err != nil {
		// cobra already printed the error; just exit non-zero.
		os.Exit(1)
	}
}
