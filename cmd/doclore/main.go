package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/doclore/doclore/internal/cli"
)

func main() {
	// A .env in the working directory may carry OPENAI_API_KEY;
	// absence is not an error.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
