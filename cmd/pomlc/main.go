package main

import (
	"os"

	"github.com/poml-lang/poml/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
