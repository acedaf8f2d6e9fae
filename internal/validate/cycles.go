package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/models"
)

// detectCycles runs a depth-first traversal with an explicit recursion
// stack. Every back-edge to a node still on the stack closes a cycle; each
// distinct cycle is reported exactly once regardless of where the
// traversal entered it, and every member is collected for exclusion.
func detectCycles(g *graph.Graph) (map[int]bool, models.Diagnostics) {
	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)

	state := make([]int, len(g.Nodes))
	stack := make([]int, 0, len(g.Nodes))
	members := make(map[int]bool)
	seen := make(map[string]bool)
	var diags models.Diagnostics

	var visit func(node int)
	visit = func(node int) {
		state[node] = onStack
		stack = append(stack, node)

		for _, edgeIdx := range g.OutEdges(node) {
			edge := g.Edges[edgeIdx]
			for _, target := range edgeTargets(edge) {
				switch state[target] {
				case unvisited:
					visit(target)
				case onStack:
					cycle := extractCycle(stack, target)
					key := canonicalKey(g, cycle)
					if !seen[key] {
						seen[key] = true
						diags = append(diags, cycleDiagnostic(g, cycle))
					}
					for _, member := range cycle {
						members[member] = true
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[node] = done
	}

	for node := range g.Nodes {
		if state[node] == unvisited {
			visit(node)
		}
	}

	return members, diags
}

// edgeTargets returns the node indexes an edge points at. Unresolved and
// ambiguous edges point nowhere and cannot participate in a cycle.
func edgeTargets(edge graph.Edge) []int {
	switch edge.Kind {
	case graph.EdgeType, graph.EdgeKeyed:
		return []int{edge.Target}
	case graph.EdgeFanOut:
		return edge.FanOut
	default:
		return nil
	}
}

// extractCycle slices the current DFS stack from the back-edge target to
// the top, which is exactly the cycle path
func extractCycle(stack []int, target int) []int {
	for i, node := range stack {
		if node == target {
			cycle := make([]int, len(stack)-i)
			copy(cycle, stack[i:])
			return cycle
		}
	}
	return nil
}

// canonicalKey rotates the cycle so its smallest member comes first,
// making the same cycle hash identically whichever node the DFS saw first
func canonicalKey(g *graph.Graph, cycle []int) string {
	if len(cycle) == 0 {
		return ""
	}
	smallest := 0
	for i := 1; i < len(cycle); i++ {
		if g.Nodes[cycle[i]].QualifiedName() < g.Nodes[cycle[smallest]].QualifiedName() {
			smallest = i
		}
	}
	names := make([]string, 0, len(cycle))
	for i := 0; i < len(cycle); i++ {
		names = append(names, g.Nodes[cycle[(smallest+i)%len(cycle)]].QualifiedName())
	}
	return strings.Join(names, "->")
}

func cycleDiagnostic(g *graph.Graph, cycle []int) models.Diagnostic {
	path := make([]string, 0, len(cycle)+1)
	for _, node := range cycle {
		path = append(path, g.Nodes[node].QualifiedName())
	}
	path = append(path, g.Nodes[cycle[0]].QualifiedName())

	sorted := make([]string, len(cycle))
	for i, node := range cycle {
		sorted[i] = g.Nodes[node].QualifiedName()
	}
	sort.Strings(sorted)

	return models.Diagnostic{
		Severity: models.SeverityError,
		Code:     models.CodeDependencyCycle,
		Message:  fmt.Sprintf("dependency cycle of %d type(s): %s", len(cycle), strings.Join(path, " -> ")),
		Subject:  sorted[0],
		Path:     path,
	}
}
