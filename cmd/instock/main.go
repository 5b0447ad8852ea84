package main

import (
	"os"

	"github.com/wonny/instock/cmd/instock/commands"
)

// main is the entry point for the instock CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/instock [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
