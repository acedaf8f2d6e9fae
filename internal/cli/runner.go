package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/engine"
	"github.com/ncosentino/needlr/internal/errors"
	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/lifetime"
	"github.com/ncosentino/needlr/internal/models"
	"github.com/ncosentino/needlr/internal/reader"
	"github.com/ncosentino/needlr/internal/report"
	"github.com/ncosentino/needlr/internal/validate"
)

// Runner coordinates a full analysis run: scan, load, analyze, write.
type Runner struct {
	scanner        *DirectoryScanner
	moduleResolver *ModuleResolver
	reader         *reader.Reader
	reporter       *DiagnosticReporter
	logger         zerolog.Logger
}

// NewRunner creates a runner for one CLI invocation
func NewRunner(cfg Config) *Runner {
	level := zerolog.WarnLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	if cfg.Quiet {
		level = zerolog.ErrorLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	return &Runner{
		scanner:        NewDirectoryScanner(),
		moduleResolver: NewModuleResolver(),
		reader:         reader.New(),
		reporter:       NewDiagnosticReporter(cfg.Verbose, cfg.Quiet),
		logger:         logger,
	}
}

// Run executes one analysis per the config. It returns an error only for
// host failures; analysis findings are reported as diagnostics and surface
// in the process exit code via Diagnostics.HasErrors on the result.
func (r *Runner) Run(ctx context.Context, cfg Config) (*engine.Result, error) {
	overrides, err := cfg.LifetimeOverrides()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.SeverityPolicy()
	if err != nil {
		return nil, err
	}

	dirs, err := r.scanner.ScanDirectories(cfg.Directories)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, errors.NewConfigurationError("no Go packages found in the configured directories", nil)
	}

	module, err := r.moduleResolver.ResolveModulePath(cfg.Module, dirs[0])
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("module", module).Int("dirs", len(dirs)).Msg("analysis starting")

	universe, loadDiags, err := r.loadUniverse(ctx, dirs)
	if err != nil {
		r.reporter.ReportDiagnostics(loadDiags)
		return nil, err
	}
	if keep := cfg.PackageFilter(module); keep != nil {
		before := universe.Len()
		universe = universe.Filter(keep)
		r.logger.Debug().Int("kept", universe.Len()).Int("loaded", before).Msg("include filters applied")
	}

	result, err := engine.Run(ctx, universe, engine.Config{
		Module:    module,
		Overrides: overrides,
		Severity:  policy,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}
	result.Diagnostics = append(loadDiags, result.Diagnostics...)

	if err := r.writeManifest(cfg, result.Manifest); err != nil {
		return nil, err
	}
	if cfg.Graph != "" {
		if err := r.writeGraph(ctx, cfg, universe, overrides); err != nil {
			return nil, err
		}
	}

	r.reporter.ReportDiagnostics(result.Diagnostics)
	if cfg.Verbose && !cfg.Quiet {
		classified := classifier.New().Classify(universe)
		if err := report.WriteSummary(os.Stderr, result.Manifest, classified); err != nil {
			return nil, errors.NewReportError("stderr", err)
		}
	}
	r.reporter.Summary(len(result.Manifest.Registrations), result.Diagnostics)
	return result, nil
}

// loadUniverse reads every scanned directory into a single fact universe.
// Directories under the same module root load as one go/packages call so
// cross-package references resolve.
func (r *Runner) loadUniverse(ctx context.Context, dirs []string) (*models.Universe, models.Diagnostics, error) {
	patterns := make([]string, len(dirs))
	for i, dir := range dirs {
		patterns[i] = dir
	}
	return r.reader.ReadPackages(ctx, filepath.Dir(dirs[0]), patterns)
}

func (r *Runner) writeManifest(cfg Config, manifest *models.Manifest) error {
	write := func(w io.Writer) error {
		if cfg.Format == "yaml" {
			return manifest.WriteYAML(w)
		}
		return manifest.WriteJSON(w)
	}

	if cfg.Output == "" {
		if err := write(os.Stdout); err != nil {
			return errors.NewManifestWriteError("stdout", err)
		}
		return nil
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return errors.NewManifestWriteError(cfg.Output, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return errors.NewManifestWriteError(cfg.Output, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewManifestWriteError(cfg.Output, err)
	}
	r.logger.Debug().Str("path", cfg.Output).Msg("manifest written")
	return nil
}

// writeGraph re-derives the graph for rendering. The pipeline does not
// expose its internal graph, so the report rebuilds it from the same
// universe; determinism makes the two identical.
func (r *Runner) writeGraph(ctx context.Context, cfg Config, universe *models.Universe, overrides []lifetime.Override) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	classified := classifier.New().Classify(universe)
	lifetime.NewResolver(overrides...).Apply(classified, universe)
	g, _ := graph.Build(classified, universe)
	validated := validate.Run(g, nil)

	f, err := os.Create(cfg.Graph)
	if err != nil {
		return errors.NewReportError(cfg.Graph, err)
	}
	defer f.Close()

	if err := report.WriteDOT(f, g, validated); err != nil {
		return errors.NewReportError(cfg.Graph, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewReportError(cfg.Graph, err)
	}
	r.logger.Debug().Str("path", cfg.Graph).Msg("dependency graph written")
	return nil
}

// Reporter exposes the reporter for the command layer
func (r *Runner) Reporter() *DiagnosticReporter {
	return r.reporter
}
