package main

import (
	"os"

	"finplan/cmd/finplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
