package decorate

import (
	"fmt"
	"sort"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/models"
)

// Result holds the wrapping artifacts derived from the classified
// universe: decorator chains and per-method interceptor forwarding plans.
// Both read the classification output and never mutate it.
type Result struct {
	Decorators   []models.DecoratorApplication
	Interceptors []models.InterceptorApplication
	Diagnostics  models.Diagnostics
}

type wrap struct {
	typeName string
	order    int
	methods  map[string]bool // nil matches every method
}

// Resolve collects every decorator and interceptor declaration from the
// eligible types, groups them by target interface and linearizes the
// wrapping order: explicit order ascending, with declared name as the
// deterministic tie-break. Lower order wraps innermost.
func Resolve(res *classifier.Result, u *models.Universe) *Result {
	out := &Result{}

	decorators := make(map[string][]wrap)
	interceptors := make(map[string][]wrap)

	for _, injectable := range res.Injectables {
		name := injectable.QualifiedName()
		for _, d := range injectable.Fact.Markers.Decorators {
			if !validTarget(u, d.Interface, name, "decorator", out) {
				continue
			}
			decorators[d.Interface] = append(decorators[d.Interface], wrap{typeName: name, order: d.Order})
		}
		for _, i := range injectable.Fact.Markers.Interceptors {
			if !validTarget(u, i.Interface, name, "interceptor", out) {
				continue
			}
			w := wrap{typeName: name, order: i.Order}
			if len(i.Methods) > 0 {
				w.methods = make(map[string]bool, len(i.Methods))
				for _, m := range i.Methods {
					w.methods[m] = true
				}
			}
			interceptors[i.Interface] = append(interceptors[i.Interface], w)
		}
	}

	// A type wrapping interface I must never also provide I; the wrapped
	// instance would otherwise feed back into itself.
	providerOf := make(map[string]map[string]bool)
	for _, injectable := range res.Injectables {
		for _, iface := range injectable.Interfaces {
			if providerOf[iface.Qualified] == nil {
				providerOf[iface.Qualified] = make(map[string]bool)
			}
			providerOf[iface.Qualified][injectable.QualifiedName()] = true
		}
	}
	for _, iface := range sortedKeys(decorators) {
		for _, w := range decorators[iface] {
			if providerOf[iface][w.typeName] {
				out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
					Severity: models.SeverityError,
					Code:     models.CodeDecoratorSelfProvide,
					Message:  fmt.Sprintf("%s decorates %s but is also registered as its provider", w.typeName, iface),
					Subject:  w.typeName,
				})
			}
		}
	}

	for _, iface := range sortedKeys(decorators) {
		wraps := decorators[iface]
		sortWraps(wraps)
		for _, w := range wraps {
			out.Decorators = append(out.Decorators, models.DecoratorApplication{
				Interface: iface,
				Decorator: w.typeName,
				Order:     w.order,
			})
		}
	}

	// Every method of every intercepted interface gets a forwarding plan,
	// even when no interceptor matches the method, so the synthesized
	// proxy never silently drops a call.
	for _, iface := range sortedKeys(interceptors) {
		wraps := interceptors[iface]
		sortWraps(wraps)

		contract, ok := u.Lookup(iface)
		if !ok {
			continue
		}
		for _, method := range contract.Methods {
			app := models.InterceptorApplication{
				Interface:    iface,
				Method:       method,
				Interceptors: []string{},
			}
			for _, w := range wraps {
				if w.methods == nil || w.methods[method] {
					app.Interceptors = append(app.Interceptors, w.typeName)
				}
			}
			out.Interceptors = append(out.Interceptors, app)
		}
	}

	return out
}

func validTarget(u *models.Universe, iface, declarer, role string, out *Result) bool {
	target, ok := u.Lookup(iface)
	if !ok || target.Kind != models.KindContract {
		out.Diagnostics = append(out.Diagnostics, models.Diagnostic{
			Severity: models.SeverityWarning,
			Code:     models.CodeUnknownMarker,
			Message:  fmt.Sprintf("%s marker on %s targets %s, which is not a known interface", role, declarer, iface),
			Subject:  declarer,
		})
		return false
	}
	return true
}

func sortWraps(wraps []wrap) {
	sort.SliceStable(wraps, func(i, j int) bool {
		if wraps[i].order != wraps[j].order {
			return wraps[i].order < wraps[j].order
		}
		return wraps[i].typeName < wraps[j].typeName
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
