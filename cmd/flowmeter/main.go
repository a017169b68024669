// Command flowmeter runs one bulk-transfer measurement experiment and
// writes the sampled metric streams to the output directory.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file can provide defaults such as FLOWMETER_OUTPUT_DIR. Its
	// absence is not an error.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
