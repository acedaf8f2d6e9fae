package classifier

import (
	"fmt"

	"github.com/ncosentino/needlr/internal/models"
)

// Rejection records why one classified type was found ineligible
type Rejection struct {
	Type   string
	Reason models.IneligibilityReason
}

// Result is the outcome of classifying a universe. Injectables are in
// universe order; lifetimes are zero-valued until the lifetime resolver
// runs.
type Result struct {
	Injectables []*models.InjectableType
	Rejections  []Rejection
	Plugins     []string // plugin-discoverable qualified names, universe order
	Diagnostics models.Diagnostics

	byName map[string]*models.InjectableType
}

// Lookup finds an injectable by qualified name
func (r *Result) Lookup(qualified string) (*models.InjectableType, bool) {
	t, ok := r.byName[qualified]
	return t, ok
}

// RejectionFor returns the rejection reason for a type, if any
func (r *Result) RejectionFor(qualified string) (models.IneligibilityReason, bool) {
	for _, rej := range r.Rejections {
		if rej.Type == qualified {
			return rej.Reason, true
		}
	}
	return 0, false
}

// Classifier applies the eligibility rules to a universe of TypeFacts
type Classifier struct{}

// New creates a classifier
func New() *Classifier {
	return &Classifier{}
}

// Classify evaluates every fact in the universe. Auto-registration
// eligibility and plugin discoverability are independent predicates: a
// type can satisfy either, both, or neither.
func (c *Classifier) Classify(u *models.Universe) *Result {
	res := &Result{byName: make(map[string]*models.InjectableType)}

	excludedContracts := collectExcludedContracts(u)

	// First pass: structural eligibility, ignoring constructors. The
	// constructor requirement needs the candidate set itself, so it runs
	// as a fixed point afterwards.
	var candidates []*models.TypeFact
	for _, fact := range u.Facts() {
		if isPluginDiscoverable(fact) {
			res.Plugins = append(res.Plugins, fact.QualifiedName())
		}

		if fact.Kind == models.KindContract {
			continue
		}

		reason, eligible := structuralEligibility(fact)
		if !eligible {
			res.Rejections = append(res.Rejections, Rejection{Type: fact.QualifiedName(), Reason: reason})
			continue
		}

		if fact.Markers.Excluded {
			res.Rejections = append(res.Rejections, Rejection{Type: fact.QualifiedName(), Reason: models.ReasonExcluded})
			continue
		}
		if contract := inheritsExclusion(fact, excludedContracts); contract != "" {
			res.Rejections = append(res.Rejections, Rejection{Type: fact.QualifiedName(), Reason: models.ReasonExcludedByContract})
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Severity: models.SeverityInfo,
				Code:     models.CodeExcludedByContract,
				Message:  fmt.Sprintf("%s is excluded because it implements excluded contract %s", fact.QualifiedName(), contract),
				Subject:  fact.QualifiedName(),
			})
			continue
		}

		candidates = append(candidates, fact)
	}

	// Constructor fixed point: a type stays eligible only while it has a
	// satisfying constructor against the surviving candidate set. Removing
	// one type can invalidate another's only constructor, so iterate until
	// stable.
	inSet := make(map[string]bool, len(candidates))
	for _, fact := range candidates {
		inSet[fact.QualifiedName()] = true
	}
	for {
		removed := false
		for _, fact := range candidates {
			name := fact.QualifiedName()
			if !inSet[name] {
				continue
			}
			if SelectConstructor(fact, u, inSet) == nil {
				inSet[name] = false
				removed = true
				res.Rejections = append(res.Rejections, Rejection{Type: name, Reason: models.ReasonNoUsableConstructor})
				res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
					Severity: models.SeverityWarning,
					Code:     models.CodeNoUsableConstructor,
					Message:  fmt.Sprintf("%s has no constructor whose parameters are all resolvable", name),
					Subject:  name,
				})
			}
		}
		if !removed {
			break
		}
	}

	for _, fact := range candidates {
		if !inSet[fact.QualifiedName()] {
			continue
		}
		injectable := &models.InjectableType{
			Fact:               fact,
			Constructor:        SelectConstructor(fact, u, inSet),
			PluginDiscoverable: isPluginDiscoverable(fact),
		}
		injectable.Interfaces = c.finalInterfaces(fact, res)
		res.Injectables = append(res.Injectables, injectable)
		res.byName[fact.QualifiedName()] = injectable
	}

	return res
}

// structuralEligibility applies the marker-independent rules
func structuralEligibility(fact *models.TypeFact) (models.IneligibilityReason, bool) {
	switch {
	case fact.Nested:
		return models.ReasonNestedType, false
	case fact.Generic:
		return models.ReasonGenericDefinition, false
	case !fact.Exported:
		return models.ReasonNotExported, false
	case fact.Kind == models.KindValue:
		return models.ReasonValueSemantics, false
	case fact.Kind != models.KindConcrete:
		return models.ReasonNotConcrete, false
	}
	return 0, true
}

// isPluginDiscoverable reports whether a type is instantiable through a
// zero-argument path. Exclusion markers do not apply here: the
// plugin-loading collaborator is a separate consumer from the container.
func isPluginDiscoverable(fact *models.TypeFact) bool {
	if fact.Kind == models.KindContract || fact.Generic || fact.Nested || !fact.Exported {
		return false
	}
	for _, ctor := range fact.Constructors {
		if len(ctor.Params) == 0 {
			return true
		}
	}
	return false
}

// SelectConstructor picks the best usable constructor for a fact: among
// constructors whose every parameter is resolvable against the eligible
// set, the one with the most parameters wins, with declaration order
// breaking ties. A zero-argument constructor is always usable.
func SelectConstructor(fact *models.TypeFact, u *models.Universe, eligible map[string]bool) *models.ConstructorFact {
	var best *models.ConstructorFact
	for i := range fact.Constructors {
		ctor := &fact.Constructors[i]
		if !allParamsResolvable(ctor, u, eligible) {
			continue
		}
		if best == nil || len(ctor.Params) > len(best.Params) {
			best = ctor
		}
	}
	return best
}

func allParamsResolvable(ctor *models.ConstructorFact, u *models.Universe, eligible map[string]bool) bool {
	for _, p := range ctor.Params {
		if !resolvable(p.Ref, u, eligible) {
			return false
		}
	}
	return true
}

// resolvable reports whether a dependency reference could be satisfied:
// either an eligible type by exact identity, or an interface with at least
// one eligible provider. Fan-out references are always satisfiable (an
// empty collection is a valid resolution). Key matching and ambiguity are
// graph-stage concerns, not eligibility concerns.
func resolvable(ref models.TypeRef, u *models.Universe, eligible map[string]bool) bool {
	if ref.FanOut {
		return true
	}
	target, ok := u.Lookup(ref.Qualified)
	if !ok {
		return false
	}
	if target.Kind == models.KindContract {
		for _, impl := range u.Implementers(ref.Qualified) {
			if eligible[impl.QualifiedName()] {
				return true
			}
		}
		return false
	}
	return eligible[ref.Qualified]
}

// finalInterfaces computes the interface set a type registers under:
// the explicit register override when present, otherwise every implemented
// in-universe interface; minus any interface the type decorates or
// intercepts, expanded per keyed-slot tag.
func (c *Classifier) finalInterfaces(fact *models.TypeFact, res *Result) []models.InterfaceRef {
	implemented := make(map[string]bool, len(fact.Interfaces))
	for _, iface := range fact.Interfaces {
		implemented[iface.Qualified] = true
	}

	wrapped := make(map[string]bool)
	for _, d := range fact.Markers.Decorators {
		wrapped[d.Interface] = true
	}
	for _, i := range fact.Markers.Interceptors {
		wrapped[i.Interface] = true
	}

	var names []string
	if len(fact.Markers.RegisterAs) > 0 {
		for _, name := range fact.Markers.RegisterAs {
			if !implemented[name] {
				res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
					Severity: models.SeverityWarning,
					Code:     models.CodeUnknownMarker,
					Message:  fmt.Sprintf("register override names %s, which %s does not implement", name, fact.QualifiedName()),
					Subject:  fact.QualifiedName(),
				})
				continue
			}
			if wrapped[name] {
				res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
					Severity: models.SeverityWarning,
					Code:     models.CodeDecoratorSelfProvide,
					Message:  fmt.Sprintf("%s decorates %s and cannot also be registered as its provider", fact.QualifiedName(), name),
					Subject:  fact.QualifiedName(),
				})
				continue
			}
			names = append(names, name)
		}
	} else {
		for _, iface := range fact.Interfaces {
			if wrapped[iface.Qualified] {
				continue
			}
			names = append(names, iface.Qualified)
		}
	}

	var out []models.InterfaceRef
	for _, name := range names {
		if len(fact.Markers.Keys) == 0 {
			out = append(out, models.InterfaceRef{Qualified: name})
			continue
		}
		for _, key := range fact.Markers.Keys {
			out = append(out, models.InterfaceRef{Qualified: name, Key: key})
		}
	}
	return out
}

func collectExcludedContracts(u *models.Universe) map[string]bool {
	out := make(map[string]bool)
	for _, fact := range u.Facts() {
		if fact.Kind == models.KindContract && fact.Markers.Excluded {
			out[fact.QualifiedName()] = true
		}
	}
	return out
}

func inheritsExclusion(fact *models.TypeFact, excluded map[string]bool) string {
	for _, iface := range fact.Interfaces {
		if excluded[iface.Qualified] {
			return iface.Qualified
		}
	}
	return ""
}
