package main

import (
	"os"

	"github.com/casefind/casefind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
