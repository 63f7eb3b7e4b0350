// Command memlayer is the CLI surface over the lifecycle-aware memory
// engine core: init, event/episode/promote/link ingestion, search/expand
// retrieval, deprecate/forget/gc governance, doctor, and service
// start|stop.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
