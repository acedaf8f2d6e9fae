package models

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// PlannedArg is one resolved constructor argument in a resolution plan.
type PlannedArg struct {
	Param  string   `json:"param" yaml:"param"`
	Kind   string   `json:"kind" yaml:"kind"` // "type", "keyed" or "fanout"
	Target string   `json:"target,omitempty" yaml:"target,omitempty"`
	Key    string   `json:"key,omitempty" yaml:"key,omitempty"`
	FanOut []string `json:"fanOut,omitempty" yaml:"fanOut,omitempty"`
}

// ResolutionPlan tells the runtime container how to build one instance
// without any further discovery.
type ResolutionPlan struct {
	Constructor  string       `json:"constructor" yaml:"constructor"`
	Args         []PlannedArg `json:"args,omitempty" yaml:"args,omitempty"`
	ReturnsError bool         `json:"returnsError,omitempty" yaml:"returnsError,omitempty"`
}

// KeyedSlot is a named variant of an interface registration.
type KeyedSlot struct {
	Interface string `json:"interface" yaml:"interface"`
	Key       string `json:"key" yaml:"key"`
}

// Registration is one manifest entry: what to instantiate, under which
// interfaces, with what lifetime and how.
type Registration struct {
	Implementation string         `json:"implementation" yaml:"implementation"`
	Interfaces     []string       `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Lifetime       Lifetime       `json:"lifetime" yaml:"lifetime"`
	Plan           ResolutionPlan `json:"plan" yaml:"plan"`
	KeyedSlots     []KeyedSlot    `json:"keyedSlots,omitempty" yaml:"keyedSlots,omitempty"`
}

// DecoratorApplication is one resolved decorator wrap: the decorator is
// applied to the interface at the given position, innermost first.
type DecoratorApplication struct {
	Interface string `json:"interface" yaml:"interface"`
	Decorator string `json:"decorator" yaml:"decorator"`
	Order     int    `json:"order" yaml:"order"`
}

// InterceptorApplication is the forwarding plan for one method of one
// intercepted interface. Interceptors lists the wrappers in application
// order; an empty list still yields a plan so the synthesized proxy never
// silently drops a call.
type InterceptorApplication struct {
	Interface    string   `json:"interface" yaml:"interface"`
	Method       string   `json:"method" yaml:"method"`
	Interceptors []string `json:"interceptors" yaml:"interceptors"`
}

// Manifest is the deterministic output of one analysis run. Entries are
// grouped by declaring package and sorted by qualified name so re-running
// the engine on an unchanged universe produces byte-identical output.
type Manifest struct {
	Module        string                   `json:"module,omitempty" yaml:"module,omitempty"`
	UniverseHash  string                   `json:"universeHash,omitempty" yaml:"universeHash,omitempty"`
	Registrations []Registration           `json:"registrations" yaml:"registrations"`
	Decorators    []DecoratorApplication   `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Interceptors  []InterceptorApplication `json:"interceptors,omitempty" yaml:"interceptors,omitempty"`
	Plugins       []string                 `json:"plugins,omitempty" yaml:"plugins,omitempty"` // plugin-discoverable types
}

// WriteJSON writes the manifest as indented JSON
func (m *Manifest) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// WriteYAML writes the manifest as YAML
func (m *Manifest) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

// Lookup finds a registration by implementation qualified name
func (m *Manifest) Lookup(implementation string) (Registration, bool) {
	for _, r := range m.Registrations {
		if r.Implementation == implementation {
			return r, true
		}
	}
	return Registration{}, false
}

// ProvidersOf returns the implementations registered under the named
// interface, in manifest order
func (m *Manifest) ProvidersOf(iface string) []string {
	var out []string
	for _, r := range m.Registrations {
		for _, i := range r.Interfaces {
			if i == iface {
				out = append(out, r.Implementation)
				break
			}
		}
	}
	return out
}
