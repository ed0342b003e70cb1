package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hollis/snipcheck/internal/config"
	"github.com/hollis/snipcheck/internal/display"
	"github.com/hollis/snipcheck/internal/evaluator"
	"github.com/hollis/snipcheck/internal/extractor"
	"github.com/hollis/snipcheck/internal/history"
	"github.com/hollis/snipcheck/internal/logger"
	"github.com/hollis/snipcheck/internal/models"
	"github.com/hollis/snipcheck/internal/report"
	"github.com/hollis/snipcheck/internal/runner"
)

// verifyOptions carries the merged settings for one verify invocation.
type verifyOptions struct {
	cfg       *config.Config
	format    string
	output    string
	noHistory bool
}

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <document.md>...",
		Short: "Verify the annotated snippets in one or more documents",
		Long: `Verify extracts annotated code snippets from the given markdown
documents, evaluates them in parallel in isolated sandboxes, and reports
whether each result matches its annotation.

Use "-" as the document path to read from standard input.

Configuration is loaded from .snipcheck/config.yaml if present.
CLI flags override configuration file settings; the SNIPCHECK_TIMEOUT
environment variable overrides the config file timeout.

Examples:
  snipcheck verify guide.md
  snipcheck verify docs/*.md --max-concurrency 4
  cat guide.md | snipcheck verify -
  snipcheck verify guide.md --format jsonl
  snipcheck verify guide.md --output report.jsonl --no-history
  snipcheck verify guide.md --timeout 500ms --verbose

Exit code: 0 if all verified snippets pass, 1 if any fail,
2 on malformed input (extraction failure)`,
		Args: cobra.MinimumNArgs(1),
		RunE: runVerify,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .snipcheck/config.yaml)")
	cmd.Flags().String("timeout", "", "Per-snippet execution bound (e.g. 500ms, 2s)")
	cmd.Flags().Int("max-concurrency", 0, "Maximum parallel evaluations (0 = hardware parallelism)")
	cmd.Flags().String("format", "text", "Report format: text or jsonl")
	cmd.Flags().String("output", "", "Also write the JSONL report to this file (atomic write)")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().Bool("verbose", false, "Show per-snippet evaluation progress")

	return cmd
}

// runVerify implements the verify command logic
func runVerify(cmd *cobra.Command, args []string) error {
	opts, err := mergeVerifyFlags(cmd)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logLevel := opts.cfg.LogLevel
	if verbose {
		logLevel = "debug"
	}
	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), logLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return verifyDocuments(ctx, args, opts, log, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// mergeVerifyFlags loads the config file and applies flag overrides.
func mergeVerifyFlags(cmd *cobra.Command) (verifyOptions, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return verifyOptions{}, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return verifyOptions{}, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var timeoutPtr *time.Duration
	if cmd.Flags().Changed("timeout") {
		timeoutStr, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return verifyOptions{}, fmt.Errorf("invalid timeout format %q: %w", timeoutStr, err)
		}
		timeoutPtr = &timeout
	}

	var concurrencyPtr *int
	if cmd.Flags().Changed("max-concurrency") {
		conc, _ := cmd.Flags().GetInt("max-concurrency")
		concurrencyPtr = &conc
	}

	var historyPtr *bool
	noHistory, _ := cmd.Flags().GetBool("no-history")
	if noHistory {
		enabled := false
		historyPtr = &enabled
	}

	cfg.MergeWithFlags(timeoutPtr, concurrencyPtr, nil, historyPtr)
	if err := cfg.Validate(); err != nil {
		return verifyOptions{}, fmt.Errorf("invalid configuration: %w", err)
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "jsonl" {
		return verifyOptions{}, fmt.Errorf("invalid format %q: must be text or jsonl", format)
	}
	output, _ := cmd.Flags().GetString("output")

	return verifyOptions{
		cfg:       cfg,
		format:    format,
		output:    output,
		noHistory: noHistory,
	}, nil
}

// verifyDocuments runs the extract-evaluate-compare pipeline over every
// document and writes the reports. Output destinations are injectable for
// testing.
func verifyDocuments(ctx context.Context, paths []string, opts verifyOptions, log *logger.ConsoleLogger, out, errOut io.Writer) error {
	ext := extractor.New(opts.cfg.Languages)
	eval := evaluator.New(opts.cfg.Timeout)
	run := runner.New(eval, opts.cfg.MaxConcurrency, log)
	log.Debugf("per-snippet timeout %s, max concurrency %d", eval.Timeout(), opts.cfg.MaxConcurrency)

	// Extract everything first: a malformed document aborts the run before
	// any evaluation starts.
	var docs []*models.Document
	for _, path := range paths {
		doc, err := extractDocument(ext, path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	useColor := report.UseColor(out)
	var progress *display.ProgressIndicator
	if opts.format == "text" && len(docs) > 1 {
		progress = display.NewProgressIndicator(errOut, len(docs))
		progress.Start()
	}

	var summaries []models.RunSummary
	for _, doc := range docs {
		if progress != nil {
			progress.Step(doc.Path)
		}

		if len(doc.VerifiableSnippets()) == 0 && len(doc.Snippets()) > 0 {
			display.Warning{
				Title:      "Document has no annotated snippets",
				Files:      []string{doc.Path},
				Suggestion: "Add '// =>', '// throws' or '// logs:' annotations to fenced code blocks",
			}.Display(errOut)
		}

		summaries = append(summaries, run.Verify(ctx, doc))
	}
	if progress != nil {
		progress.Complete()
	}

	switch opts.format {
	case "jsonl":
		for _, summary := range summaries {
			if err := report.WriteJSONL(out, summary); err != nil {
				return err
			}
		}
	default:
		for _, summary := range summaries {
			report.WriteText(out, summary, useColor)
		}
		report.WriteSummary(out, summaries, useColor)
	}

	// Report-file and history failures degrade to warnings: the verdict has
	// already been printed and the exit code must reflect it alone.
	if opts.output != "" {
		if err := report.WriteFile(opts.output, summaries); err != nil {
			log.Warnf("failed to write report file: %v", err)
		}
	}

	recordHistory(opts, summaries, log)

	var failed int
	partial := false
	for _, summary := range summaries {
		failed += summary.Failed
		partial = partial || summary.Partial
	}
	if partial {
		return fmt.Errorf("verification canceled: results are partial")
	}
	if failed > 0 {
		return fmt.Errorf("verification failed: %d snippet(s) failed", failed)
	}
	return nil
}

// extractDocument reads one document, with "-" selecting standard input.
func extractDocument(ext *extractor.Extractor, path string) (*models.Document, error) {
	if path == "-" {
		return ext.Extract("<stdin>", os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	return ext.Extract(path, f)
}

// recordHistory persists the run summaries. History failures degrade to a
// logged warning: the verification verdict has already been reported.
// Recording runs on its own context so a canceled run (the one case that
// produces a partial summary) still lands in the database.
func recordHistory(opts verifyOptions, summaries []models.RunSummary, log *logger.ConsoleLogger) {
	if opts.noHistory || !opts.cfg.History.Enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := history.NewStore(opts.cfg.History.DBPath)
	if err != nil {
		log.Warnf("history disabled: %v", err)
		return
	}
	defer store.Close()

	for _, summary := range summaries {
		if _, err := store.SaveRun(ctx, summary); err != nil {
			log.Warnf("failed to record run for %s: %v", summary.DocumentPath, err)
		}
	}
	if err := store.Prune(ctx, opts.cfg.History.KeepRuns); err != nil {
		log.Warnf("failed to prune history: %v", err)
	}
}
