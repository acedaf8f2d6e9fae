package reader

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"github.com/ncosentino/needlr/internal/markers"
	"github.com/ncosentino/needlr/internal/models"
)

// extractor accumulates TypeFacts across packages, then runs the
// cross-package implements pass once every declaration is known.
type entry struct {
	fact  *models.TypeFact
	named *types.Named
	iface *types.Interface // non-nil for contracts
}

type extractor struct {
	markers *markers.Parser
	entries []*entry
	nested  []*entry // appended after package-level entries so they never shadow them
	diags   models.Diagnostics
}

func newExtractor(parser *markers.Parser) *extractor {
	return &extractor{markers: parser}
}

// addPackage extracts every package-level type declaration plus its
// constructors and markers from one type-checked package.
func (ex *extractor) addPackage(fset *token.FileSet, typesPkg *types.Package, info *types.Info, files []*ast.File) {
	pkgPath := typesPkg.Path()

	typeDocs := make(map[string][]string)
	typeLocs := make(map[string]markers.SourceLocation)

	for _, file := range files {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					doc := ts.Doc
					if doc == nil {
						doc = d.Doc
					}
					typeDocs[ts.Name.Name] = commentLines(doc)
					typeLocs[ts.Name.Name] = location(fset, ts.Pos())
				}
			case *ast.FuncDecl:
				if d.Body != nil {
					ex.collectNested(fset, pkgPath, info, d)
				}
			}
		}
	}

	// Scope names are sorted, which keeps per-package extraction order
	// independent of file order.
	byName := make(map[string]*entry)
	scope := typesPkg.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}

		fact := &models.TypeFact{
			Package:  pkgPath,
			Name:     name,
			Exported: tn.Exported(),
			Generic:  named.TypeParams().Len() > 0,
		}

		var iface *types.Interface
		switch u := named.Underlying().(type) {
		case *types.Struct:
			fact.Kind = models.KindConcrete
		case *types.Interface:
			fact.Kind = models.KindContract
			iface = u
			for i := 0; i < u.NumMethods(); i++ {
				fact.Methods = append(fact.Methods, u.Method(i).Name())
			}
			sort.Strings(fact.Methods)
		default:
			fact.Kind = models.KindValue
		}

		fact.Markers = ex.parseMarkerSet(typeDocs[name], name, typeLocs[name], pkgPath)

		e := &entry{fact: fact, named: named, iface: iface}
		byName[name] = e
		ex.entries = append(ex.entries, e)
	}

	// Constructors are discovered from the AST so declaration order and
	// doc markers are preserved.
	for _, file := range files {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv != nil {
				continue
			}
			fn, ok := info.Defs[fd.Name].(*types.Func)
			if !ok {
				continue
			}

			loc := location(fset, fd.Pos())
			ctorMarked, injectKeys := ex.parseCtorMarkers(commentLines(fd.Doc), fd.Name.Name, loc)

			targetName, ctor := ex.constructorFor(fn, typesPkg)
			if ctor == nil {
				continue
			}
			if !ctorMarked && fd.Name.Name != "New"+targetName {
				continue
			}

			for key, paramName := range injectKeys {
				for i := range ctor.Params {
					if ctor.Params[i].Name == paramName {
						ctor.Params[i].Ref.Key = key
					}
				}
			}

			if e, ok := byName[targetName]; ok {
				e.fact.Constructors = append(e.fact.Constructors, *ctor)
			}
		}
	}
}

// collectNested records types declared inside function bodies. They are
// part of the universe so diagnostics can name them, but always excluded.
func (ex *extractor) collectNested(fset *token.FileSet, pkgPath string, info *types.Info, fd *ast.FuncDecl) {
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		fact := &models.TypeFact{
			Package:  pkgPath,
			Name:     ts.Name.Name,
			Exported: ts.Name.IsExported(),
			Nested:   true,
		}
		if tn, ok := info.Defs[ts.Name].(*types.TypeName); ok {
			if named, ok := tn.Type().(*types.Named); ok {
				switch named.Underlying().(type) {
				case *types.Struct:
					fact.Kind = models.KindConcrete
				case *types.Interface:
					fact.Kind = models.KindContract
				default:
					fact.Kind = models.KindValue
				}
			}
		}
		ex.nested = append(ex.nested, &entry{fact: fact})
		return true
	})
}

// constructorFor checks whether fn is a usable constructor shape: a
// non-generic package-level function returning T, *T or (T|*T, error) for a
// named type T declared in the same package.
func (ex *extractor) constructorFor(fn *types.Func, typesPkg *types.Package) (string, *models.ConstructorFact) {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.TypeParams().Len() > 0 {
		return "", nil
	}

	results := sig.Results()
	if results.Len() < 1 || results.Len() > 2 {
		return "", nil
	}

	target := derefNamed(results.At(0).Type())
	if target == nil || target.Obj().Pkg() != typesPkg {
		return "", nil
	}
	if _, isIface := target.Underlying().(*types.Interface); isIface {
		return "", nil
	}

	returnsError := false
	if results.Len() == 2 {
		if !types.Identical(results.At(1).Type(), types.Universe.Lookup("error").Type()) {
			return "", nil
		}
		returnsError = true
	}

	ctor := &models.ConstructorFact{
		Name:         fn.Name(),
		ReturnsError: returnsError,
	}
	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		name := p.Name()
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		ctor.Params = append(ctor.Params, models.ParamFact{
			Name: name,
			Ref:  typeRefOf(p.Type()),
		})
	}
	return target.Obj().Name(), ctor
}

// finish runs the implements pass and returns the collected facts
func (ex *extractor) finish() ([]*models.TypeFact, models.Diagnostics) {
	for _, e := range ex.entries {
		if e.fact.Kind != models.KindConcrete || e.named == nil {
			continue
		}
		ptr := types.NewPointer(e.named)
		for _, contract := range ex.entries {
			if contract.iface == nil || contract.fact.Generic {
				continue
			}
			if types.Implements(ptr, contract.iface) || types.Implements(e.named, contract.iface) {
				e.fact.Interfaces = append(e.fact.Interfaces, models.InterfaceRef{
					Qualified: contract.fact.QualifiedName(),
				})
			}
		}
	}

	facts := make([]*models.TypeFact, 0, len(ex.entries)+len(ex.nested))
	for _, e := range ex.entries {
		facts = append(facts, e.fact)
	}
	for _, e := range ex.nested {
		facts = append(facts, e.fact)
	}
	return facts, ex.diags
}

// parseMarkerSet turns a doc comment block into the tagged-variant marker
// set on a TypeFact. Malformed markers become diagnostics and are dropped.
func (ex *extractor) parseMarkerSet(lines []string, target string, loc markers.SourceLocation, pkgPath string) models.MarkerSet {
	var set models.MarkerSet
	for i, line := range lines {
		lineLoc := loc
		lineLoc.Line = loc.Line + i
		m, err := ex.markers.Parse(line, target, lineLoc)
		if err != nil {
			if err != markers.ErrNotMarker {
				ex.diags = append(ex.diags, models.Diagnostic{
					Severity: models.SeverityWarning,
					Code:     models.CodeUnknownMarker,
					Message:  err.Error(),
					Subject:  pkgPath + "." + target,
				})
			}
			continue
		}

		switch m.Kind {
		case markers.SingletonMarker:
			set.Lifetimes = append(set.Lifetimes, models.LifetimeSingleton)
		case markers.ScopedMarker:
			set.Lifetimes = append(set.Lifetimes, models.LifetimeScoped)
		case markers.TransientMarker:
			set.Lifetimes = append(set.Lifetimes, models.LifetimeTransient)
		case markers.ExcludeMarker:
			set.Excluded = true
		case markers.DecoratorMarker:
			set.Decorators = append(set.Decorators, models.WrapMarker{
				Interface: qualifyName(m.Positional[0], pkgPath),
				Order:     m.GetInt("Order", 0),
			})
		case markers.InterceptorMarker:
			set.Interceptors = append(set.Interceptors, models.WrapMarker{
				Interface: qualifyName(m.Positional[0], pkgPath),
				Order:     m.GetInt("Order", 0),
				Methods:   m.GetStringSlice("Methods"),
			})
		case markers.KeyedMarker:
			set.Keys = append(set.Keys, m.Positional[0])
		case markers.RegisterMarker:
			for _, name := range m.GetStringSlice("Interfaces") {
				set.RegisterAs = append(set.RegisterAs, qualifyName(name, pkgPath))
			}
		}
	}
	return set
}

// parseCtorMarkers extracts ctor and inject markers from a function's doc
// comment. Returns whether the function is explicitly marked a constructor
// and a key -> parameter-name binding for keyed injection.
func (ex *extractor) parseCtorMarkers(lines []string, target string, loc markers.SourceLocation) (bool, map[string]string) {
	ctorMarked := false
	injectKeys := make(map[string]string)
	for i, line := range lines {
		lineLoc := loc
		lineLoc.Line = loc.Line + i
		m, err := ex.markers.Parse(line, target, lineLoc)
		if err != nil {
			if err != markers.ErrNotMarker {
				ex.diags = append(ex.diags, models.Diagnostic{
					Severity: models.SeverityWarning,
					Code:     models.CodeUnknownMarker,
					Message:  err.Error(),
					Subject:  target,
				})
			}
			continue
		}
		switch m.Kind {
		case markers.CtorMarker:
			ctorMarked = true
		case markers.InjectMarker:
			injectKeys[m.GetString("Key")] = m.Positional[0]
		}
	}
	return ctorMarked, injectKeys
}

// typeRefOf converts a parameter type into a dependency reference.
// Pointers deref to their element; a slice of a named interface is a
// fan-out reference requesting every provider.
func typeRefOf(t types.Type) models.TypeRef {
	switch tt := t.(type) {
	case *types.Pointer:
		return typeRefOf(tt.Elem())
	case *types.Slice:
		if named, ok := tt.Elem().(*types.Named); ok {
			if _, isIface := named.Underlying().(*types.Interface); isIface {
				return models.TypeRef{Qualified: qualifiedOf(named), FanOut: true}
			}
		}
		return models.TypeRef{Qualified: t.String()}
	case *types.Named:
		return models.TypeRef{Qualified: qualifiedOf(tt)}
	default:
		return models.TypeRef{Qualified: t.String()}
	}
}

func derefNamed(t types.Type) *types.Named {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, _ := t.(*types.Named)
	return named
}

func qualifiedOf(named *types.Named) string {
	obj := named.Obj()
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

// qualifyName resolves a bare marker argument against the declaring
// package; fully qualified names pass through unchanged.
func qualifyName(name, pkgPath string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return pkgPath + "." + name
}

func commentLines(doc *ast.CommentGroup) []string {
	if doc == nil {
		return nil
	}
	lines := make([]string, 0, len(doc.List))
	for _, c := range doc.List {
		lines = append(lines, c.Text)
	}
	return lines
}

func location(fset *token.FileSet, pos token.Pos) markers.SourceLocation {
	p := fset.Position(pos)
	return markers.SourceLocation{File: p.Filename, Line: p.Line, Column: p.Column}
}
