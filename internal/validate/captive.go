package validate

import (
	"fmt"

	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/models"
)

// detectCaptives scans every edge for lifetime mismatches: a consumer
// strictly longer-lived than its target captures it beyond its intended
// scope. Exactly one diagnostic is produced per offending edge; equal
// lifetimes and shorter-lived consumers are never flagged.
func detectCaptives(g *graph.Graph) models.Diagnostics {
	var diags models.Diagnostics
	for _, edge := range g.Edges {
		consumer := g.Nodes[edge.Consumer]
		for _, target := range edgeTargets(edge) {
			targetType := g.Nodes[target]
			if !consumer.Lifetime.Outlives(targetType.Lifetime) {
				continue
			}
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     models.CodeCaptiveDependency,
				Message: fmt.Sprintf("%s (%s) captures %s (%s): the %s instance outlives its intended scope",
					consumer.QualifiedName(), consumer.Lifetime,
					targetType.QualifiedName(), targetType.Lifetime,
					targetType.Lifetime),
				Subject: consumer.QualifiedName(),
				Path:    []string{consumer.QualifiedName(), targetType.QualifiedName()},
			})
		}
	}
	return diags
}
