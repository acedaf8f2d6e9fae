package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Universe is the closed set of type declarations one analysis run reasons
// about. Order is the declaration order supplied by the host; the lookup
// indexes are derived once at construction and the universe is read-only
// afterwards.
type Universe struct {
	facts  []*TypeFact
	byName map[string]*TypeFact
	impls  map[string][]*TypeFact // interface qualified name -> implementing facts
}

// NewUniverse builds a universe from an ordered fact list. A later fact
// with the same qualified name as an earlier one is ignored.
func NewUniverse(facts []*TypeFact) *Universe {
	u := &Universe{
		byName: make(map[string]*TypeFact, len(facts)),
		impls:  make(map[string][]*TypeFact),
	}
	for _, f := range facts {
		name := f.QualifiedName()
		if _, seen := u.byName[name]; seen {
			continue
		}
		u.facts = append(u.facts, f)
		u.byName[name] = f
	}
	for _, f := range u.facts {
		for _, iface := range f.Interfaces {
			u.impls[iface.Qualified] = append(u.impls[iface.Qualified], f)
		}
	}
	return u
}

// Facts returns the facts in declaration order
func (u *Universe) Facts() []*TypeFact {
	return u.facts
}

// Len returns the number of facts in the universe
func (u *Universe) Len() int {
	return len(u.facts)
}

// Lookup finds a fact by qualified name
func (u *Universe) Lookup(qualified string) (*TypeFact, bool) {
	f, ok := u.byName[qualified]
	return f, ok
}

// Implementers returns the facts implementing the named interface, in
// declaration order
func (u *Universe) Implementers(iface string) []*TypeFact {
	return u.impls[iface]
}

// Filter returns a new universe containing only the facts the keep
// predicate accepts, in the original declaration order. Dropping a fact
// that others depend on is allowed; the gap surfaces later as an
// unresolved-dependency diagnostic.
func (u *Universe) Filter(keep func(*TypeFact) bool) *Universe {
	kept := make([]*TypeFact, 0, len(u.facts))
	for _, f := range u.facts {
		if keep(f) {
			kept = append(kept, f)
		}
	}
	return NewUniverse(kept)
}

// Hash returns a stable digest of the universe's declaration set. Two
// universes with identical declarations hash identically regardless of
// supply order, so the digest can key a manifest cache.
func (u *Universe) Hash() string {
	lines := make([]string, 0, len(u.facts))
	for _, f := range u.facts {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s|%s|%t|%t|%t", f.QualifiedName(), f.Kind, f.Generic, f.Nested, f.Markers.Excluded)
		for _, lt := range f.Markers.Lifetimes {
			fmt.Fprintf(&sb, "|lt=%s", lt)
		}
		for _, d := range f.Markers.Decorators {
			fmt.Fprintf(&sb, "|dec=%s@%d", d.Interface, d.Order)
		}
		for _, i := range f.Markers.Interceptors {
			fmt.Fprintf(&sb, "|int=%s@%d", i.Interface, i.Order)
			for _, m := range i.Methods {
				fmt.Fprintf(&sb, "/%s", m)
			}
		}
		for _, k := range f.Markers.Keys {
			fmt.Fprintf(&sb, "|key=%s", k)
		}
		for _, r := range f.Markers.RegisterAs {
			fmt.Fprintf(&sb, "|as=%s", r)
		}
		for _, iface := range f.Interfaces {
			fmt.Fprintf(&sb, "|impl=%s/%s", iface.Qualified, iface.Key)
		}
		for _, m := range f.Methods {
			fmt.Fprintf(&sb, "|m=%s", m)
		}
		for _, c := range f.Constructors {
			fmt.Fprintf(&sb, "|ctor=%s:%t(", c.Name, c.ReturnsError)
			for _, p := range c.Params {
				fmt.Fprintf(&sb, "%s:%s/%s/%t,", p.Name, p.Ref.Qualified, p.Ref.Key, p.Ref.FanOut)
			}
			sb.WriteString(")")
		}
		lines = append(lines, sb.String())
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
