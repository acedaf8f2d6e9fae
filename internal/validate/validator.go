package validate

import (
	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/models"
)

// Result is the derived artifact of graph validation. The graph itself is
// never mutated; cycle members are reported so the synthesizer can exclude
// them from the manifest.
type Result struct {
	CycleMembers map[int]bool
	Diagnostics  models.Diagnostics
}

// Run executes the two independent validation passes over the same graph:
// cycle detection and captive-dependency detection. The severity policy
// only reranks diagnostics; it never suppresses them, and cycle members
// stay excluded from the manifest even when a caller softens the cycle
// severity.
func Run(g *graph.Graph, policy models.SeverityPolicy) *Result {
	members, cycleDiags := detectCycles(g)
	captiveDiags := detectCaptives(g)

	res := &Result{CycleMembers: members}
	for _, d := range cycleDiags {
		res.Diagnostics = append(res.Diagnostics, policy.Apply(d))
	}
	for _, d := range captiveDiags {
		res.Diagnostics = append(res.Diagnostics, policy.Apply(d))
	}
	return res
}
