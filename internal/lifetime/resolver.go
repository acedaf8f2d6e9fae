package lifetime

import (
	"fmt"
	"path"
	"strings"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/models"
)

// Override maps a qualified-name pattern to a lifetime. Overrides are an
// external caller's policy ("treat everything under repo/workers as
// transient") and sit between explicit markers and the default.
type Override struct {
	Pattern  string
	Lifetime models.Lifetime
}

// Matches reports whether the override applies to a qualified name.
// Patterns support the scanner's trailing /... form for package subtrees
// and path.Match globs; anything else is an exact match.
func (o Override) Matches(qualified string) bool {
	if strings.HasSuffix(o.Pattern, "/...") {
		return strings.HasPrefix(qualified, strings.TrimSuffix(o.Pattern, "/..."))
	}
	if matched, err := path.Match(o.Pattern, qualified); err == nil && matched {
		return true
	}
	return o.Pattern == qualified
}

// Resolver computes each eligible type's lifetime. Precedence, highest
// first: explicit per-type marker, caller-supplied override, then the
// singleton default.
type Resolver struct {
	overrides []Override
}

// NewResolver creates a lifetime resolver with the given caller overrides
func NewResolver(overrides ...Override) *Resolver {
	return &Resolver{overrides: overrides}
}

// Resolve determines the lifetime for a single fact. A fact carrying two
// incompatible lifetime markers keeps the first declared one and yields a
// configuration diagnostic.
func (r *Resolver) Resolve(fact *models.TypeFact) (models.Lifetime, *models.Diagnostic) {
	if len(fact.Markers.Lifetimes) > 0 {
		first := fact.Markers.Lifetimes[0]
		for _, lt := range fact.Markers.Lifetimes[1:] {
			if lt != first {
				return first, &models.Diagnostic{
					Severity: models.SeverityError,
					Code:     models.CodeConflictingLifetimes,
					Message: fmt.Sprintf("%s declares both %s and %s lifetimes; using %s",
						fact.QualifiedName(), first, lt, first),
					Subject: fact.QualifiedName(),
				}
			}
		}
		return first, nil
	}

	for _, o := range r.overrides {
		if o.Matches(fact.QualifiedName()) {
			return o.Lifetime, nil
		}
	}

	return models.LifetimeSingleton, nil
}

// Apply resolves lifetimes across the whole universe, assigning the
// result to every injectable in the classification result. Conflicting
// markers are a configuration defect of the declaration itself, so they
// are reported even on types that failed classification.
func (r *Resolver) Apply(res *classifier.Result, u *models.Universe) models.Diagnostics {
	var diags models.Diagnostics
	for _, fact := range u.Facts() {
		lt, diag := r.Resolve(fact)
		if diag != nil {
			diags = append(diags, *diag)
		}
		if injectable, ok := res.Lookup(fact.QualifiedName()); ok {
			injectable.Lifetime = lt
		}
	}
	return diags
}
