package main

import (
	"os"

	"github.com/vzahanych/weather-rag-app/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
