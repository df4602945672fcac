package main

import (
	"os"

	"github.com/manebot/manebot/cmd/manebot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
