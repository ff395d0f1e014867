package main

import (
	"os"

	"github.com/arloliu/pksave/cmd/pksave/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
