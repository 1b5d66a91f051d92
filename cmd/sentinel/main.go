package main

import (
	"os"

	"github.com/triage-ai/sentinel/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
