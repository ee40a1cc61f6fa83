// Package main provides the entry point for the uiground CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/uiground/cmd/uiground/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
