package graph

import (
	"fmt"
	"sort"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/models"
)

// EdgeKind classifies how a constructor parameter was resolved.
type EdgeKind int

const (
	// EdgeType is a single-target edge resolved by exact type identity or
	// by the unique unkeyed provider of an interface.
	EdgeType EdgeKind = iota

	// EdgeKeyed is a single-target edge resolved through a keyed slot.
	EdgeKeyed

	// EdgeFanOut requests every provider of an interface. An empty target
	// list is a valid resolution.
	EdgeFanOut

	// EdgeUnresolved has no satisfying provider. Reported, not fatal: the
	// consumer is omitted from the manifest and a runtime container may
	// still supply the dependency externally.
	EdgeUnresolved

	// EdgeAmbiguous has multiple unkeyed providers for a single-target
	// parameter. Reported as an ambiguity rather than silently picking one.
	EdgeAmbiguous
)

// String returns the string representation of the edge kind
func (k EdgeKind) String() string {
	switch k {
	case EdgeType:
		return "type"
	case EdgeKeyed:
		return "keyed"
	case EdgeFanOut:
		return "fanout"
	case EdgeUnresolved:
		return "unresolved"
	case EdgeAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Edge is one resolved (or unresolvable) constructor-parameter dependency.
// Node identities are arena indexes, never pointers, so cycles in the
// type graph cannot become cycles in memory.
type Edge struct {
	Consumer  int // node index of the consuming type
	Param     int // parameter position in the chosen constructor
	ParamName string
	Requested string // qualified name the parameter asked for
	Kind      EdgeKind
	Target    int    // node index for single-target kinds, -1 otherwise
	Key       string // keyed-slot tag for EdgeKeyed
	FanOut    []int  // node indexes for EdgeFanOut
}

// Graph is the directed dependency graph over the eligible types of one
// run. Nodes are stored in an arena in classification order; edges refer
// to nodes by index.
type Graph struct {
	Nodes []*models.InjectableType
	Edges []Edge

	index  map[string]int
	outBy  [][]int // node index -> indexes into Edges
	gapped map[int]bool
}

// NodeIndex returns the arena index for a qualified name
func (g *Graph) NodeIndex(qualified string) (int, bool) {
	i, ok := g.index[qualified]
	return i, ok
}

// OutEdges returns the indexes of the edges leaving a node
func (g *Graph) OutEdges(node int) []int {
	return g.outBy[node]
}

// Gapped reports whether a node has at least one unresolved or ambiguous
// edge. Gapped types are omitted from the manifest.
func (g *Graph) Gapped(node int) bool {
	return g.gapped[node]
}

// Build constructs the dependency graph for the classified universe.
// Resolution gaps and ambiguities become diagnostics; they never abort
// the build.
func Build(res *classifier.Result, u *models.Universe) (*Graph, models.Diagnostics) {
	g := &Graph{
		Nodes:  res.Injectables,
		index:  make(map[string]int, len(res.Injectables)),
		gapped: make(map[int]bool),
	}
	for i, n := range g.Nodes {
		g.index[n.QualifiedName()] = i
	}
	g.outBy = make([][]int, len(g.Nodes))

	// (interface, key) -> providers in classification order
	type slot struct {
		iface string
		key   string
	}
	providers := make(map[slot][]int)
	for i, n := range g.Nodes {
		for _, iface := range n.Interfaces {
			s := slot{iface: iface.Qualified, key: iface.Key}
			providers[s] = append(providers[s], i)
		}
	}

	var diags models.Diagnostics
	for consumer, n := range g.Nodes {
		if n.Constructor == nil {
			continue
		}
		for paramIdx, param := range n.Constructor.Params {
			edge := Edge{
				Consumer:  consumer,
				Param:     paramIdx,
				ParamName: param.Name,
				Requested: param.Ref.Qualified,
				Target:    -1,
				Key:       param.Ref.Key,
			}

			switch {
			case param.Ref.FanOut:
				edge.Kind = EdgeFanOut
				// A fan-out collects every provider of the interface
				// across all keyed slots; collection assembly is the
				// container's concern, membership is ours.
				seen := make(map[int]bool)
				for s, nodes := range providers {
					if s.iface != param.Ref.Qualified {
						continue
					}
					for _, idx := range nodes {
						if !seen[idx] {
							seen[idx] = true
							edge.FanOut = append(edge.FanOut, idx)
						}
					}
				}
				sort.Ints(edge.FanOut)

			case param.Ref.Key != "":
				matches := providers[slot{iface: param.Ref.Qualified, key: param.Ref.Key}]
				switch len(matches) {
				case 1:
					edge.Kind = EdgeKeyed
					edge.Target = matches[0]
				case 0:
					edge.Kind = EdgeUnresolved
					g.gapped[consumer] = true
					diags = append(diags, models.Diagnostic{
						Severity: models.SeverityWarning,
						Code:     models.CodeUnresolvedDependency,
						Message: fmt.Sprintf("%s parameter %q wants %s under key %q but no provider registers that slot",
							n.QualifiedName(), param.Name, param.Ref.Qualified, param.Ref.Key),
						Subject: n.QualifiedName(),
					})
				default:
					edge.Kind = EdgeAmbiguous
					g.gapped[consumer] = true
					diags = append(diags, ambiguityDiagnostic(g, n, param.Name, param.Ref.Qualified, matches))
				}

			default:
				target, inUniverse := u.Lookup(param.Ref.Qualified)
				if inUniverse && target.Kind != models.KindContract {
					// Exact type identity.
					if idx, ok := g.index[param.Ref.Qualified]; ok {
						edge.Kind = EdgeType
						edge.Target = idx
						break
					}
				}
				matches := providers[slot{iface: param.Ref.Qualified}]
				switch len(matches) {
				case 1:
					edge.Kind = EdgeType
					edge.Target = matches[0]
				case 0:
					edge.Kind = EdgeUnresolved
					g.gapped[consumer] = true
					diags = append(diags, models.Diagnostic{
						Severity: models.SeverityWarning,
						Code:     models.CodeUnresolvedDependency,
						Message: fmt.Sprintf("%s parameter %q has no eligible provider for %s",
							n.QualifiedName(), param.Name, param.Ref.Qualified),
						Subject: n.QualifiedName(),
					})
				default:
					edge.Kind = EdgeAmbiguous
					g.gapped[consumer] = true
					diags = append(diags, ambiguityDiagnostic(g, n, param.Name, param.Ref.Qualified, matches))
				}
			}

			g.outBy[consumer] = append(g.outBy[consumer], len(g.Edges))
			g.Edges = append(g.Edges, edge)
		}
	}

	return g, diags
}

func ambiguityDiagnostic(g *Graph, consumer *models.InjectableType, param, requested string, matches []int) models.Diagnostic {
	names := make([]string, len(matches))
	for i, idx := range matches {
		names[i] = g.Nodes[idx].QualifiedName()
	}
	return models.Diagnostic{
		Severity: models.SeverityWarning,
		Code:     models.CodeAmbiguousProviders,
		Message: fmt.Sprintf("%s parameter %q requests %s but %d providers match; key the providers or use a collection parameter",
			consumer.QualifiedName(), param, requested, len(matches)),
		Subject: consumer.QualifiedName(),
		Path:    names,
	}
}
