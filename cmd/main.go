package main

import (
	"os"

	"github.com/btuckerc/jeopardy-sub005/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
