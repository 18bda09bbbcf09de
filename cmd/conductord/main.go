// conductord is a development stand-in for the conductor runtime. It
// honors the contract conductorctl launches against: setup path as the
// only argument, admin port announced on stdout, framed admin channel,
// clean exit on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"conductorctl/internal/conductor"
	"conductorctl/internal/logging"
)

func main() {
	port := flag.Int("port", 0, "admin port to bind (0: ephemeral, overrides the setup config)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: conductord [--port N] SETUP_PATH")
		os.Exit(2)
	}
	logging.ConfigureRuntime("conductord")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Top-level entry point: the one place a failure may abort the process.
	srv, err := conductor.Start(conductor.Options{SetupPath: flag.Arg(0), Port: *port})
	if err != nil {
		fmt.Fprintf(os.Stderr, "conductord: %v\n", err)
		os.Exit(1)
	}

	<-ctx.Done()
	srv.Shutdown()
}
