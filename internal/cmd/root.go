package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for snipcheck
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snipcheck",
		Short: "Verify code examples in markdown documentation",
		Long: `Snipcheck extracts annotated code snippets from markdown documents,
evaluates each one in an isolated JavaScript sandbox, and compares the
captured result against the expected output declared in the snippet's
trailing comment annotation.

Annotations:
  // => <literal>              the snippet's completion value
  // throws <Kind>[: message]  the snippet throws this error
  // logs: <text>              the snippet logs this console line`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewVerifyCommand())
	cmd.AddCommand(NewExtractCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
