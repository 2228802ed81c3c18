package main

import (
	"os"

	"github.com/i-ky/basset/cmd/basset/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
