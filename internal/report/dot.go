package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/models"
	"github.com/ncosentino/needlr/internal/validate"
)

// lifetime fill colors, muted so the warning colors below stand out
var lifetimeColors = map[models.Lifetime]string{
	models.LifetimeSingleton: "#d0e8ff",
	models.LifetimeScoped:    "#d8f5d0",
	models.LifetimeTransient: "#f5f0d0",
}

// WriteDOT renders the dependency graph in Graphviz dot format. Nodes are
// shaded by lifetime; cycle members and gapped types are outlined in red.
// Output is ordered by qualified name so renders are stable.
func WriteDOT(w io.Writer, g *graph.Graph, v *validate.Result) error {
	if _, err := fmt.Fprintln(w, "digraph needlr {"); err != nil {
		return err
	}
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=filled, fontname=\"monospace\"];")

	order := make([]int, len(g.Nodes))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return g.Nodes[order[a]].QualifiedName() < g.Nodes[order[b]].QualifiedName()
	})

	for _, idx := range order {
		node := g.Nodes[idx]
		attrs := fmt.Sprintf("fillcolor=%q, label=%q", lifetimeColors[node.Lifetime], node.QualifiedName())
		if v != nil && v.CycleMembers[idx] {
			attrs += ", color=red, penwidth=2"
		} else if g.Gapped(idx) {
			attrs += ", color=red, style=\"filled,dashed\""
		}
		fmt.Fprintf(w, "  %q [%s];\n", node.QualifiedName(), attrs)
	}

	for _, idx := range order {
		consumer := g.Nodes[idx]
		for _, edgeIdx := range g.OutEdges(idx) {
			edge := g.Edges[edgeIdx]
			switch edge.Kind {
			case graph.EdgeType, graph.EdgeKeyed:
				label := edge.ParamName
				if edge.Key != "" {
					label = fmt.Sprintf("%s [%s]", edge.ParamName, edge.Key)
				}
				fmt.Fprintf(w, "  %q -> %q [label=%q];\n",
					consumer.QualifiedName(), g.Nodes[edge.Target].QualifiedName(), label)
			case graph.EdgeFanOut:
				for _, target := range edge.FanOut {
					fmt.Fprintf(w, "  %q -> %q [label=%q, style=dotted];\n",
						consumer.QualifiedName(), g.Nodes[target].QualifiedName(), edge.ParamName)
				}
			case graph.EdgeUnresolved, graph.EdgeAmbiguous:
				ghost := fmt.Sprintf("%s?", edge.Requested)
				fmt.Fprintf(w, "  %q [color=red, style=dashed, fillcolor=white];\n", ghost)
				fmt.Fprintf(w, "  %q -> %q [label=%q, color=red, style=dashed];\n",
					consumer.QualifiedName(), ghost, edge.ParamName)
			}
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
