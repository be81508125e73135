package main

import (
	"fmt"
	"os"

	"github.com/TimurManjosov/goexperiments/cmd/experiments/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
