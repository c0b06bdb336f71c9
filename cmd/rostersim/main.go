// Command rostersim churns a lock-free roster with concurrent writers and
// readers, then checks that nothing was lost or duplicated.
//
//	rostersim --writers 8 --readers 8 --contacts 10000 --metrics stdout
//	rostersim --config sim.yaml --json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rostersim:", err)
		os.Exit(1)
	}
}
