// Package main is the entry point for the attemptgen CLI.
package main

import (
	"fmt"
	"os"

	"github.com/TFMV/attemptgen/logger"
)

func main() {
	err := newRootCommand().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
