package models

import (
	"fmt"
	"strings"
)

// Severity is the reporting level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity parses a severity name as written in config files
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	default:
		return SeverityError, fmt.Errorf("unknown severity %q (expected error, warning or info)", s)
	}
}

// Diagnostic codes. The numeric band groups them by pipeline stage.
const (
	CodeConflictingLifetimes = "NDL001" // two incompatible lifetime markers on one type
	CodeNoUsableConstructor  = "NDL002" // no constructor with resolvable parameters
	CodeExcludedByContract   = "NDL003" // exclusion inherited from an implemented contract
	CodeUnknownMarker        = "NDL004" // marker failed schema validation
	CodeUnresolvedDependency = "NDL101" // constructor parameter with no provider
	CodeAmbiguousProviders   = "NDL102" // multiple unkeyed providers for a single-target parameter
	CodeDependencyCycle      = "NDL201" // directed cycle in the dependency graph
	CodeCaptiveDependency    = "NDL202" // longer-lived consumer captures shorter-lived target
	CodeDecoratorSelfProvide = "NDL301" // decorator for an interface also registered as its provider
	CodeUniverseLoadFailure  = "NDL401" // type universe could not be read at all
)

// Diagnostic is one reportable defect or note produced during a run. All
// non-fatal defects are collected and returned alongside the manifest,
// never thrown mid-pipeline.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`
	Subject  string   `json:"subject,omitempty" yaml:"subject,omitempty"` // offending type's qualified name
	Path     []string `json:"path,omitempty" yaml:"path,omitempty"`       // edge path for graph defects
}

// String renders the diagnostic in a compiler-style single line
func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %s", d.Severity, d.Code, d.Message)
	if d.Subject != "" {
		fmt.Fprintf(&sb, " (%s)", d.Subject)
	}
	if len(d.Path) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(d.Path, " -> "))
	}
	return sb.String()
}

// Diagnostics is an ordered collection of diagnostics for one run.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic has error severity
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ByCode returns all diagnostics with the given code, in order
func (ds Diagnostics) ByCode(code string) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// SeverityPolicy maps diagnostic codes to caller-chosen severities. Graph
// defects default to errors but the caller may soften them; the policy
// never changes which diagnostics are produced, only how they are ranked.
type SeverityPolicy map[string]Severity

// Apply returns the diagnostic with its severity adjusted per the policy
func (p SeverityPolicy) Apply(d Diagnostic) Diagnostic {
	if p == nil {
		return d
	}
	if sev, ok := p[d.Code]; ok {
		d.Severity = sev
	}
	return d
}
