package main

import (
	"fmt"
	"os"
)

// Exit codes: 0 on success, 1 when --fail-on trips, 2 for usage and
// processing errors.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
