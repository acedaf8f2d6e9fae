package markers

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind represents the kind of declarative marker
type Kind int

const (
	SingletonMarker Kind = iota
	ScopedMarker
	TransientMarker
	ExcludeMarker
	DecoratorMarker
	InterceptorMarker
	KeyedMarker
	RegisterMarker
	CtorMarker
	InjectMarker
)

// String returns the string representation of the marker kind
func (k Kind) String() string {
	switch k {
	case SingletonMarker:
		return "singleton"
	case ScopedMarker:
		return "scoped"
	case TransientMarker:
		return "transient"
	case ExcludeMarker:
		return "exclude"
	case DecoratorMarker:
		return "decorator"
	case InterceptorMarker:
		return "interceptor"
	case KeyedMarker:
		return "keyed"
	case RegisterMarker:
		return "register"
	case CtorMarker:
		return "ctor"
	case InjectMarker:
		return "inject"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a marker Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "singleton":
		return SingletonMarker, nil
	case "scoped":
		return ScopedMarker, nil
	case "transient":
		return TransientMarker, nil
	case "exclude":
		return ExcludeMarker, nil
	case "decorator":
		return DecoratorMarker, nil
	case "interceptor":
		return InterceptorMarker, nil
	case "keyed":
		return KeyedMarker, nil
	case "register":
		return RegisterMarker, nil
	case "ctor":
		return CtorMarker, nil
	case "inject":
		return InjectMarker, nil
	default:
		return 0, fmt.Errorf("unknown marker kind: %s", s)
	}
}

// SourceLocation represents where a marker appears in source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// String returns a formatted location
func (l SourceLocation) String() string {
	if l.File == "" {
		return "unknown location"
	}
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ParsedMarker represents a fully parsed marker with validated parameters
type ParsedMarker struct {
	Kind       Kind
	Target     string // declared name the marker is attached to
	Positional []string
	Parameters map[string]string
	Location   SourceLocation
	Raw        string
}

// GetString returns a named parameter value with optional default
func (m *ParsedMarker) GetString(name string, defaultValue ...string) string {
	if v, ok := m.Parameters[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetInt returns a named parameter converted to int with optional default
func (m *ParsedMarker) GetInt(name string, defaultValue ...int) int {
	if v, ok := m.Parameters[name]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetStringSlice returns a comma-separated named parameter as a slice
func (m *ParsedMarker) GetStringSlice(name string) []string {
	v, ok := m.Parameters[name]
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// HasParameter checks whether a named parameter was supplied
func (m *ParsedMarker) HasParameter(name string) bool {
	_, ok := m.Parameters[name]
	return ok
}
