// Command primebench counts primes in [1, N] with every concurrency
// strategy and reports the totals.
package main

import (
	"os"

	"github.com/NetPo4ki/primescope/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
