package models

// InjectableType is a TypeFact that passed classification. It carries the
// resolved lifetime, the chosen constructor and the final interface set it
// will be registered under. One instance exists per eligible type per run
// and it is never mutated after classification and lifetime resolution.
type InjectableType struct {
	Fact        *TypeFact
	Lifetime    Lifetime
	Constructor *ConstructorFact // chosen "best" constructor, nil only for zero-field value construction
	Interfaces  []InterfaceRef   // final registration set

	// PluginDiscoverable marks types instantiable through a zero-argument
	// path. Evaluated independently of auto-registration eligibility; a
	// type can be either, both, or neither.
	PluginDiscoverable bool
}

// QualifiedName returns the package-qualified name of the underlying type
func (t *InjectableType) QualifiedName() string {
	return t.Fact.QualifiedName()
}

// IneligibilityReason explains why a classified type was rejected.
type IneligibilityReason int

const (
	ReasonNotConcrete IneligibilityReason = iota
	ReasonNotExported
	ReasonGenericDefinition
	ReasonNestedType
	ReasonValueSemantics
	ReasonExcluded
	ReasonExcludedByContract
	ReasonNoUsableConstructor
)

// String returns the string representation of the reason
func (r IneligibilityReason) String() string {
	switch r {
	case ReasonNotConcrete:
		return "not a concrete type"
	case ReasonNotExported:
		return "not exported"
	case ReasonGenericDefinition:
		return "generic type definition"
	case ReasonNestedType:
		return "nested type"
	case ReasonValueSemantics:
		return "value-semantics type"
	case ReasonExcluded:
		return "marked excluded"
	case ReasonExcludedByContract:
		return "implements an excluded contract"
	case ReasonNoUsableConstructor:
		return "no usable constructor"
	default:
		return "unknown"
	}
}
