// Command advisorctl runs the advisory pipeline from the terminal: resolve a
// customer, rank a candidate file, screen text for compliance, or compose a
// draft. It talks to the same data service as the API but keeps no state.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
