// Command room8ctl inspects and updates the household from a terminal,
// reading the same backend as the room8 server.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
