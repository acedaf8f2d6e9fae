package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ncosentino/needlr/internal/cli"
)

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to a needlr.yaml config file (defaults to ./needlr.yaml when present)")
		moduleFlag  = flag.String("module", "", "Module path recorded in the manifest (defaults to go.mod module)")
		outFlag     = flag.String("out", "", "Manifest output path (defaults to stdout)")
		formatFlag  = flag.String("format", "", "Manifest format: json or yaml (default json)")
		graphFlag   = flag.String("graph", "", "Write a Graphviz dot rendering of the dependency graph to this path")
		verboseFlag = flag.Bool("verbose", false, "Enable verbose output and debug logging")
		quietFlag   = flag.Bool("quiet", false, "Only show errors")
		cleanFlag   = flag.Bool("clean", false, "Delete previously written needlr outputs and exit")
		helpFlag    = flag.Bool("help", false, "Show help information")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [directory-paths...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "needlr registration manifest synthesizer\n")
		fmt.Fprintf(os.Stderr, "Analyzes Go packages for needlr:: markers and emits a dependency registration manifest.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nArguments:\n")
		fmt.Fprintf(os.Stderr, "  directory-paths    Directories to analyze (default ./...)\n")
		fmt.Fprintf(os.Stderr, "                     Supports Go-style patterns like './...' for recursive scanning\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s ./...                                  # Analyze everything, manifest to stdout\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --out needlr.manifest.json ./...       # Write the manifest to a file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --format yaml ./internal/...           # YAML manifest for part of the tree\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --graph needlr.graph.dot ./...         # Also render the dependency graph\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --module github.com/myorg/myapp ./...  # Explicit module path\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --clean                                # Remove written outputs\n", os.Args[0])
	}

	flag.Parse()

	if *helpFlag {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := cli.LoadConfig(*configFlag)
	if err != nil {
		cli.NewDiagnosticReporter(*verboseFlag, *quietFlag).ReportError(err)
		os.Exit(2)
	}

	// Flags beat file and environment values.
	if *moduleFlag != "" {
		cfg.Module = *moduleFlag
	}
	if *outFlag != "" {
		cfg.Output = *outFlag
	}
	if *formatFlag != "" {
		cfg.Format = *formatFlag
	}
	if *graphFlag != "" {
		cfg.Graph = *graphFlag
	}
	if *verboseFlag {
		cfg.Verbose = true
	}
	if *quietFlag {
		cfg.Quiet = true
	}
	if args := flag.Args(); len(args) > 0 {
		cfg.Directories = args
	}

	runner := cli.NewRunner(cfg)

	if *cleanFlag {
		removed, err := cli.NewCleaner().Clean(cfg)
		if err != nil {
			runner.Reporter().ReportError(err)
			os.Exit(1)
		}
		if !cfg.Quiet {
			for _, path := range removed {
				fmt.Fprintf(os.Stderr, "removed %s\n", path)
			}
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx, cfg)
	if err != nil {
		runner.Reporter().ReportError(err)
		os.Exit(2)
	}
	if result.Diagnostics.HasErrors() {
		os.Exit(1)
	}
}
