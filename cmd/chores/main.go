// Package main provides the chores binary: a command line household chore
// tracker and the REST backend it can talk to.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
