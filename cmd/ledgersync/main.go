package main

import (
	"os"

	"github.com/MrJamesThe3rd/ledgersync/cmd/ledgersync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
