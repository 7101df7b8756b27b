// Package main is the entry point for the askdb CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/leapstack-labs/askdb/internal/cli"
)

func main() {
	// Optional .env for ASKDB_* / OPENAI_API_KEY; absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
