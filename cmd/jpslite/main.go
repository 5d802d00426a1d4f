// # cmd/jpslite/main.go
// jpslite converts txt trajectory files into the sqlite format consumed by
// the JuPedSim visualizer.
package main

import (
	"os"

	"jpslite/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
