// Command computeplane replays blocks of coordination layer operations
// against a local store.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
