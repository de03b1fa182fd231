package main

import (
	"os"

	"trivia-frenzy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
