package main

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/rpc"
)

// serviceCmd groups the JSON-RPC-over-stdio surface. "start" blocks,
// serving requests on stdin/stdout until EOF or ctrl-C; "stop" is a no-op
// placeholder since the stdio server is a foreground pipe, not a
// background daemon (see internal/rpc/stdio.go).
var serviceCmd = &cobra.Command{
	Use:     "service",
	GroupID: "ops",
	Short:   "Run the JSON-RPC-over-stdio tool server",
}

var serviceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Serve one JSON-RPC request per stdin line until EOF",
	RunE: func(cmd *cobra.Command, args []string) error {
		lock := flock.New(resolvedDBPath() + ".service.lock")
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("memlayer: acquiring service lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("memlayer: another service instance is already running against this store")
		}
		defer func() { _ = lock.Unlock() }()

		eng, err := openEngines(rootCtx)
		if err != nil {
			return err
		}
		defer eng.Close()

		srv := rpc.New(eng.store, eng.ingest, eng.retrieve, eng.graph, eng.govern)
		return rpc.ServeStdio(rootCtx, srv, os.Stdin, os.Stdout)
	},
}

var serviceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "No-op: the stdio server exits when its stdin closes",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(os.Stderr, "memlayer: service has no background process; close the start command's stdin to stop it")
		return nil
	},
}

func init() {
	serviceCmd.AddCommand(serviceStartCmd, serviceStopCmd)
	rootCmd.AddCommand(serviceCmd)
}
