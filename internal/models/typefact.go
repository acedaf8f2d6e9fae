package models

// TypeKind classifies what shape of declaration a TypeFact describes.
type TypeKind int

const (
	// KindConcrete is a named type whose underlying type is a struct.
	KindConcrete TypeKind = iota

	// KindContract is an interface type. Contracts are service identities,
	// never registrations.
	KindContract

	// KindValue is a named type with value semantics (underlying basic,
	// map, slice, array, chan or func). Excluded from auto-registration
	// but may still be plugin-discoverable.
	KindValue
)

// String returns the string representation of the type kind
func (k TypeKind) String() string {
	switch k {
	case KindConcrete:
		return "concrete"
	case KindContract:
		return "contract"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// TypeRef is a reference to another type as seen from a constructor
// parameter. FanOut marks slice-of-interface parameters that request every
// provider of the interface rather than a single one.
type TypeRef struct {
	Qualified string // qualified name of the referenced type
	FanOut    bool   // []I parameter requesting all providers of I
	Key       string // keyed-slot tag, empty for unkeyed
}

// ParamFact describes one constructor parameter.
type ParamFact struct {
	Name string
	Ref  TypeRef
}

// ConstructorFact describes one candidate constructor for a type: a
// package-level function returning the type, optionally with an error.
type ConstructorFact struct {
	Name         string      // function name, e.g. NewUserService
	Params       []ParamFact // ordered parameters
	ReturnsError bool        // constructor also returns an error
}

// InterfaceRef names an interface a type is registered under, with an
// optional keyed-slot tag.
type InterfaceRef struct {
	Qualified string
	Key       string
}

// WrapMarker is a decorator or interceptor declaration: the target
// interface and the explicit wrapping order. Lower order wraps closer to
// the decorated implementation. Methods narrows an interceptor to specific
// methods; empty means every method.
type WrapMarker struct {
	Interface string
	Order     int
	Methods   []string
}

// MarkerSet holds the declarative markers attached to a type, already
// parsed and schema-checked.
type MarkerSet struct {
	Lifetimes    []Lifetime   // every lifetime marker seen; more than one is a configuration defect
	Excluded     bool         // exclusion marker present
	Decorators   []WrapMarker // decorator-for declarations
	Interceptors []WrapMarker // interceptor-for declarations
	Keys         []string     // keyed-slot tags for this provider
	RegisterAs   []string     // explicit interface-registration override
}

// IsEmpty reports whether no markers are attached
func (m MarkerSet) IsEmpty() bool {
	return len(m.Lifetimes) == 0 && !m.Excluded && len(m.Decorators) == 0 &&
		len(m.Interceptors) == 0 && len(m.Keys) == 0 && len(m.RegisterAs) == 0
}

// TypeFact is the immutable record of structural facts about one declared
// type. It is produced once by the declaration reader and never mutated by
// later pipeline stages.
type TypeFact struct {
	Package      string // declaring package import path
	Name         string // type name within the package
	Exported     bool
	Kind         TypeKind
	Generic      bool // generic type definition (open generic)
	Nested       bool // declared inside a function body
	Interfaces   []InterfaceRef    // interfaces implemented (concrete types)
	Methods      []string          // method names (contract types)
	Constructors []ConstructorFact // candidate constructors, declaration order
	Markers      MarkerSet
}

// QualifiedName returns the package-qualified name of the type
func (f *TypeFact) QualifiedName() string {
	if f.Package == "" {
		return f.Name
	}
	return f.Package + "." + f.Name
}
