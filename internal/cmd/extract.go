package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hollis/snipcheck/internal/extractor"
	"github.com/hollis/snipcheck/internal/models"
)

// NewExtractCommand creates the extract command
func NewExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <document.md>...",
		Short: "List the snippets a document would verify, without evaluating them",
		Long: `Extract parses the given markdown documents and lists every code
snippet found, with its location, section, and parsed annotation. Blocks
without an annotation are listed as illustrative-only.

Use "-" as the document path to read from standard input.

This is useful for checking annotation syntax before a full verify run:
a malformed annotation fails extraction the same way verify does.

Examples:
  snipcheck extract guide.md
  snipcheck extract docs/*.md --languages js,ts`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExtract,
	}

	cmd.Flags().StringSlice("languages", nil, "Fence info strings accepted as snippets (default: \"\", js, javascript)")

	return cmd
}

// runExtract implements the extract command logic
func runExtract(cmd *cobra.Command, args []string) error {
	languages, _ := cmd.Flags().GetStringSlice("languages")
	ext := extractor.New(languages)

	out := cmd.OutOrStdout()
	for _, path := range args {
		doc, err := extractDocument(ext, path)
		if err != nil {
			return err
		}
		printDocument(out, doc)
	}
	return nil
}

// printDocument renders one document's snippet listing.
func printDocument(out io.Writer, doc *models.Document) {
	if doc.Title != "" {
		fmt.Fprintf(out, "%s: %s\n", doc.Path, doc.Title)
	} else {
		fmt.Fprintf(out, "%s\n", doc.Path)
	}

	snippets := doc.Snippets()
	if len(snippets) == 0 {
		fmt.Fprintf(out, "  no snippets\n")
		return
	}

	for _, section := range doc.Sections {
		for _, s := range section.Snippets {
			location := s.Ref()
			if section.Title != "" {
				location = fmt.Sprintf("%s (%s)", location, section.Title)
			}
			if s.Verifiable() {
				fmt.Fprintf(out, "  %s: %s\n", location, s.Expectation.Describe())
			} else {
				fmt.Fprintf(out, "  %s: illustrative-only\n", location)
			}
		}
	}

	verifiable := len(doc.VerifiableSnippets())
	fmt.Fprintf(out, "  %d snippet(s), %d verifiable\n", len(snippets), verifiable)
}
