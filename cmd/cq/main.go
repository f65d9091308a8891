// Command cq is the CLI entry point over cq/runtime: "cq minimize" and
// "cq evaluate". Flag handling uses flag.StringVar/BoolVar, a custom
// flag.Usage, positional-argument fallback, and a -verbose switch that
// wires cq/annotations.OutputFormatter for a colorized trace.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/cqlang/cq-engine/cq/annotations"
	"github.com/cqlang/cq-engine/cq/cqerr"
	"github.com/cqlang/cq-engine/cq/runtime"
)

func main() {
	var verbose bool
	var scanCachePath string

	fs := flag.NewFlagSet("cq", flag.ExitOnError)
	fs.BoolVar(&verbose, "verbose", false, "show minimizer/query annotations")
	fs.StringVar(&scanCachePath, "scan-cache", "", "optional on-disk path for a badger-backed scan cache")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <minimize|evaluate> [options] <args...>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "A conjunctive-query core minimizer and pipelined evaluator.\n\n")
		fmt.Fprintf(os.Stderr, "Subcommands:\n")
		fmt.Fprintf(os.Stderr, "  minimize <inputPath> <outputPath>\n")
		fmt.Fprintf(os.Stderr, "      Read a CQ and write its homomorphism-minimized core.\n")
		fmt.Fprintf(os.Stderr, "  evaluate <databaseDir> <queryPath> <outputPath>\n")
		fmt.Fprintf(os.Stderr, "      Plan and run a CQ against a schema.txt/files/*.csv database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if len(os.Args) < 2 {
		fs.Usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	fs.Parse(os.Args[2:])

	opts := runtime.Options{ScanCachePath: scanCachePath}
	if verbose {
		formatter := annotations.NewOutputFormatter(os.Stderr)
		opts.Handler = annotations.Handler(formatter.Handle)
	}

	var err error
	switch sub {
	case "minimize":
		err = runMinimize(fs.Args(), opts)
	case "evaluate":
		err = runEvaluate(fs.Args(), opts, verbose)
	case "-h", "--help", "help":
		fs.Usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown subcommand %q\n\n", os.Args[0], sub)
		fs.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(exitCode(err))
	}
}

func runMinimize(args []string, opts runtime.Options) error {
	if len(args) != 2 {
		return fmt.Errorf("minimize: expected <inputPath> <outputPath>, got %d argument(s)", len(args))
	}
	if err := runtime.Minimize(args[0], args[1], opts); err != nil {
		return err
	}
	fmt.Println(color.GreenString("wrote minimized query to %s", args[1]))
	return nil
}

func runEvaluate(args []string, opts runtime.Options, verbose bool) error {
	if len(args) != 3 {
		return fmt.Errorf("evaluate: expected <databaseDir> <queryPath> <outputPath>, got %d argument(s)", len(args))
	}
	databaseDir, queryPath, outputPath := args[0], args[1], args[2]

	if verbose {
		if err := printPreview(databaseDir, queryPath, opts); err != nil {
			fmt.Fprintln(os.Stderr, color.YellowString("preview skipped: %v", err))
		}
	}

	start := time.Now()
	if err := runtime.Evaluate(databaseDir, queryPath, outputPath, opts); err != nil {
		return err
	}
	fmt.Println(color.GreenString("wrote results to %s (%s)", outputPath, time.Since(start).Round(time.Millisecond)))
	return nil
}

// printPreview renders the first rows of the result as a markdown
// table via tablewriter, ahead of the flat file cmd/cq ultimately
// writes: NewTable with a markdown renderer and AlignNone columns,
// Header then Append per row.
func printPreview(databaseDir, queryPath string, opts runtime.Options) error {
	const previewLimit = 20

	headers, rows, err := runtime.Preview(databaseDir, queryPath, opts, previewLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "(no rows)")
		return nil
	}

	var b strings.Builder
	alignment := make([]tw.Align, len(rows[0]))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(&b,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	if len(headers) == len(rows[0]) {
		table.Header(headers)
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	b.WriteString(fmt.Sprintf("\n_%d row(s) (preview truncated at %d)_\n", len(rows), previewLimit))
	fmt.Fprint(os.Stderr, b.String())
	return nil
}

// exitCode maps a cqerr taxonomy kind to a distinct non-zero process
// exit status (§6: "non-zero on malformed input, missing files, type
// mismatch, or unsupported query structure").
func exitCode(err error) int {
	switch {
	case errors.Is(err, cqerr.ErrMalformedInput):
		return 10
	case errors.Is(err, cqerr.ErrCatalog):
		return 11
	case errors.Is(err, cqerr.ErrIO):
		return 12
	case errors.Is(err, cqerr.ErrTupleShape):
		return 13
	case errors.Is(err, cqerr.ErrTypeMismatch):
		return 14
	case errors.Is(err, cqerr.ErrPlannerInvariant):
		return 15
	default:
		return 1
	}
}
