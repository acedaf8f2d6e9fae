package synth

import (
	"sort"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/decorate"
	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/models"
	"github.com/ncosentino/needlr/internal/validate"
)

// Synthesize emits the registration manifest from the pipeline's derived
// artifacts. Synthesis is mechanical: every decision was already made
// upstream, this stage only orders, filters and serializes it. Types on a
// cycle and types with resolution gaps are omitted; the manifest must be
// byte-identical across runs over an unchanged universe, so every list is
// explicitly ordered.
func Synthesize(module string, res *classifier.Result, g *graph.Graph, v *validate.Result, d *decorate.Result, universeHash string) *models.Manifest {
	m := &models.Manifest{
		Module:        module,
		UniverseHash:  universeHash,
		Registrations: []models.Registration{},
	}

	included := make(map[string]bool)
	for i, node := range g.Nodes {
		if v.CycleMembers[i] || g.Gapped(i) {
			continue
		}
		included[node.QualifiedName()] = true
		m.Registrations = append(m.Registrations, buildRegistration(node, i, g))
	}

	// Grouped by declaring package, then sorted by qualified name, so the
	// serialized plan is diff-friendly.
	sort.SliceStable(m.Registrations, func(i, j int) bool {
		a, b := m.Registrations[i], m.Registrations[j]
		ap, bp := g.Nodes[mustIndex(g, a.Implementation)].Fact.Package, g.Nodes[mustIndex(g, b.Implementation)].Fact.Package
		if ap != bp {
			return ap < bp
		}
		return a.Implementation < b.Implementation
	})

	// Wrapping artifacts only reference types that made it into the
	// manifest; a decorator dropped for a cycle or gap must not be
	// applied at runtime.
	for _, app := range d.Decorators {
		if included[app.Decorator] {
			m.Decorators = append(m.Decorators, app)
		}
	}
	for _, app := range d.Interceptors {
		kept := models.InterceptorApplication{
			Interface:    app.Interface,
			Method:       app.Method,
			Interceptors: []string{},
		}
		for _, name := range app.Interceptors {
			if included[name] {
				kept.Interceptors = append(kept.Interceptors, name)
			}
		}
		m.Interceptors = append(m.Interceptors, kept)
	}

	m.Plugins = append(m.Plugins, res.Plugins...)
	sort.Strings(m.Plugins)

	return m
}

func buildRegistration(node *models.InjectableType, nodeIdx int, g *graph.Graph) models.Registration {
	reg := models.Registration{
		Implementation: node.QualifiedName(),
		Lifetime:       node.Lifetime,
	}

	seen := make(map[string]bool)
	for _, iface := range node.Interfaces {
		if iface.Key != "" {
			reg.KeyedSlots = append(reg.KeyedSlots, models.KeyedSlot{Interface: iface.Qualified, Key: iface.Key})
			continue
		}
		if !seen[iface.Qualified] {
			seen[iface.Qualified] = true
			reg.Interfaces = append(reg.Interfaces, iface.Qualified)
		}
	}
	sort.Strings(reg.Interfaces)
	sort.Slice(reg.KeyedSlots, func(i, j int) bool {
		a, b := reg.KeyedSlots[i], reg.KeyedSlots[j]
		if a.Interface != b.Interface {
			return a.Interface < b.Interface
		}
		return a.Key < b.Key
	})

	if node.Constructor != nil {
		reg.Plan.Constructor = node.Constructor.Name
		reg.Plan.ReturnsError = node.Constructor.ReturnsError
		for _, edgeIdx := range g.OutEdges(nodeIdx) {
			edge := g.Edges[edgeIdx]
			arg := models.PlannedArg{
				Param: edge.ParamName,
				Kind:  edge.Kind.String(),
				Key:   edge.Key,
			}
			if edge.Target >= 0 {
				arg.Target = g.Nodes[edge.Target].QualifiedName()
			}
			for _, idx := range edge.FanOut {
				arg.FanOut = append(arg.FanOut, g.Nodes[idx].QualifiedName())
			}
			sort.Strings(arg.FanOut)
			reg.Plan.Args = append(reg.Plan.Args, arg)
		}
	}

	return reg
}

func mustIndex(g *graph.Graph, qualified string) int {
	idx, _ := g.NodeIndex(qualified)
	return idx
}
