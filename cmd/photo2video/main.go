package main

import (
	"os"

	"github.com/ivlev/photo2video/cmd/photo2video/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
