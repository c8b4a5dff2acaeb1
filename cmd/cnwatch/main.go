package main

import (
	"os"

	"github.com/seaward/cnwatch/cmd/cnwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
