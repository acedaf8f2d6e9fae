package reader

import (
	"context"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"

	"github.com/ncosentino/needlr/internal/errors"
	"github.com/ncosentino/needlr/internal/markers"
	"github.com/ncosentino/needlr/internal/models"
)

func loadFailureDiags(msg string) models.Diagnostics {
	return models.Diagnostics{{
		Severity: models.SeverityError,
		Code:     models.CodeUniverseLoadFailure,
		Message:  msg,
	}}
}

// Reader turns Go source into a universe of TypeFacts. Extraction is pure:
// the reader never mutates its inputs and contradictory or malformed
// markers become diagnostics on the result, not failures.
type Reader struct {
	markers *markers.Parser
}

// New creates a declaration reader
func New() *Reader {
	return &Reader{
		markers: markers.NewParser(),
	}
}

// loadMode is everything extraction needs: syntax for marker comments,
// type information for implements checks and constructor signatures.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedDeps

// ReadPackages loads the type universe for the given package patterns
// (./... style) rooted at dir. Inability to load the universe at all is
// fatal and yields no partial universe.
func (r *Reader) ReadPackages(ctx context.Context, dir string, patterns []string) (*models.Universe, models.Diagnostics, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    loadMode,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, loadFailureDiags(err.Error()), errors.NewUniverseLoadError("failed to load type universe", err)
	}
	if len(pkgs) == 0 {
		msg := fmt.Sprintf("no packages matched %v", patterns)
		return nil, loadFailureDiags(msg), errors.NewUniverseLoadError(msg, nil)
	}

	var loadErrs []packages.Error
	for _, pkg := range pkgs {
		loadErrs = append(loadErrs, pkg.Errors...)
	}
	if len(loadErrs) > 0 {
		var diags models.Diagnostics
		for _, le := range loadErrs {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     models.CodeUniverseLoadFailure,
				Message:  le.Msg,
				Subject:  le.Pos,
			})
		}
		return nil, diags, errors.NewUniverseLoadError("failed to load type universe", loadErrs[0])
	}

	// Deterministic package order regardless of load order.
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	ex := newExtractor(r.markers)
	for _, pkg := range pkgs {
		ex.addPackage(pkg.Fset, pkg.Types, pkg.TypesInfo, pkg.Syntax)
	}
	facts, diags := ex.finish()
	return models.NewUniverse(facts), diags, nil
}

// ParseSource parses a single source string into a universe. Intended for
// tests and in-memory analysis.
func (r *Reader) ParseSource(filename, source string) (*models.Universe, models.Diagnostics, error) {
	return r.ParseSources(map[string]string{filename: source})
}

// ParseSources parses a set of named source strings forming one package
func (r *Reader) ParseSources(sources map[string]string) (*models.Universe, models.Diagnostics, error) {
	fset := token.NewFileSet()

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var files []*ast.File
	for _, name := range names {
		file, err := parser.ParseFile(fset, name, sources[name], parser.ParseComments)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse source %s: %w", name, err)
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no sources provided")
	}

	info := &types.Info{
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
		Types: make(map[ast.Expr]types.TypeAndValue),
	}
	conf := types.Config{Importer: importer.Default()}
	typesPkg, err := conf.Check(files[0].Name.Name, fset, files, info)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to type-check source: %w", err)
	}

	ex := newExtractor(r.markers)
	ex.addPackage(fset, typesPkg, info, files)
	facts, diags := ex.finish()
	return models.NewUniverse(facts), diags, nil
}
