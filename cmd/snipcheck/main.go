package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hollis/snipcheck/internal/cmd"
	"github.com/hollis/snipcheck/internal/extractor"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// Malformed input gets a distinct exit code so CI pipelines can
		// tell a broken document apart from failing snippets.
		var extractErr *extractor.Error
		if errors.As(err, &extractErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
