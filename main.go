package main

import (
	"os"

	"github.com/gaoych/bean-analyze/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
