package markers

import (
	"fmt"
	"strconv"
)

// ParamSpec defines the specification for a named marker parameter
type ParamSpec struct {
	Required  bool
	Validator func(string) error
}

// Schema defines the accepted shape of one marker kind
type Schema struct {
	Kind          Kind
	Description   string
	MinPositional int
	MaxPositional int
	Parameters    map[string]ParamSpec
	Examples      []string
}

// Registry holds the schema for every supported marker kind
type Registry struct {
	schemas map[Kind]Schema
}

// NewRegistry creates a registry pre-populated with the built-in schemas
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[Kind]Schema)}
	for _, s := range builtinSchemas() {
		r.schemas[s.Kind] = s
	}
	return r
}

// Get returns the schema for a marker kind
func (r *Registry) Get(kind Kind) (Schema, bool) {
	s, ok := r.schemas[kind]
	return s, ok
}

// Validate checks a parsed marker against its schema
func (r *Registry) Validate(m *ParsedMarker) error {
	schema, ok := r.schemas[m.Kind]
	if !ok {
		return &MarkerError{Kind: m.Kind, Location: m.Location, Message: "no schema registered for marker kind"}
	}

	if len(m.Positional) < schema.MinPositional {
		return &MarkerError{
			Kind:     m.Kind,
			Location: m.Location,
			Message:  fmt.Sprintf("expects at least %d positional argument(s), got %d", schema.MinPositional, len(m.Positional)),
			Examples: schema.Examples,
		}
	}
	if len(m.Positional) > schema.MaxPositional {
		return &MarkerError{
			Kind:     m.Kind,
			Location: m.Location,
			Message:  fmt.Sprintf("expects at most %d positional argument(s), got %d", schema.MaxPositional, len(m.Positional)),
			Examples: schema.Examples,
		}
	}

	for name, value := range m.Parameters {
		spec, known := schema.Parameters[name]
		if !known {
			return &MarkerError{
				Kind:     m.Kind,
				Location: m.Location,
				Message:  fmt.Sprintf("unknown parameter %q", name),
				Examples: schema.Examples,
			}
		}
		if spec.Validator != nil {
			if err := spec.Validator(value); err != nil {
				return &MarkerError{
					Kind:     m.Kind,
					Location: m.Location,
					Message:  fmt.Sprintf("parameter %q: %v", name, err),
					Examples: schema.Examples,
				}
			}
		}
	}

	for name, spec := range schema.Parameters {
		if spec.Required {
			if _, ok := m.Parameters[name]; !ok {
				return &MarkerError{
					Kind:     m.Kind,
					Location: m.Location,
					Message:  fmt.Sprintf("missing required parameter %q", name),
					Examples: schema.Examples,
				}
			}
		}
	}

	return nil
}

func intValidator(v string) error {
	if _, err := strconv.Atoi(v); err != nil {
		return fmt.Errorf("must be an integer, got %q", v)
	}
	return nil
}

func nonEmptyValidator(v string) error {
	if v == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func builtinSchemas() []Schema {
	bare := func(kind Kind, desc string, examples ...string) Schema {
		return Schema{Kind: kind, Description: desc, Examples: examples}
	}

	return []Schema{
		bare(SingletonMarker, "one instance process-wide", "//needlr::singleton"),
		bare(ScopedMarker, "one instance per scope", "//needlr::scoped"),
		bare(TransientMarker, "new instance per request", "//needlr::transient"),
		bare(ExcludeMarker, "exclude from auto-registration", "//needlr::exclude"),
		{
			Kind:          DecoratorMarker,
			Description:   "declare the type a decorator for an interface",
			MinPositional: 1,
			MaxPositional: 1,
			Parameters: map[string]ParamSpec{
				"Order": {Validator: intValidator},
			},
			Examples: []string{"//needlr::decorator NotificationService -Order=1"},
		},
		{
			Kind:          InterceptorMarker,
			Description:   "declare the type an interceptor for an interface",
			MinPositional: 1,
			MaxPositional: 1,
			Parameters: map[string]ParamSpec{
				"Order":   {Validator: intValidator},
				"Methods": {Validator: nonEmptyValidator},
			},
			Examples: []string{"//needlr::interceptor NotificationService -Order=2 -Methods=Send"},
		},
		{
			Kind:          KeyedMarker,
			Description:   "register interface slots under a named key",
			MinPositional: 1,
			MaxPositional: 1,
			Examples:      []string{"//needlr::keyed primary"},
		},
		{
			Kind:        RegisterMarker,
			Description: "override which interfaces the type registers under",
			Parameters: map[string]ParamSpec{
				"Interfaces": {Required: true, Validator: nonEmptyValidator},
			},
			Examples: []string{"//needlr::register -Interfaces=Reader,Writer"},
		},
		bare(CtorMarker, "mark a function as a constructor", "//needlr::ctor"),
		{
			Kind:          InjectMarker,
			Description:   "bind a constructor parameter to a keyed provider",
			MinPositional: 1,
			MaxPositional: 1,
			Parameters: map[string]ParamSpec{
				"Key": {Required: true, Validator: nonEmptyValidator},
			},
			Examples: []string{"//needlr::inject store -Key=primary"},
		},
	}
}
