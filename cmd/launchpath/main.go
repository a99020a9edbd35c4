// Command launchpath selects implementations for a program from a
// directory of feed files and renders the outcome.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
