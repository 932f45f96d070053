// Package main implements the tinypy binary.
package main

import (
	"os"

	"github.com/GriffinCanCode/tinypy/cmd/tinypy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
