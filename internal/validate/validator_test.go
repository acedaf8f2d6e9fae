package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/lifetime"
	"github.com/ncosentino/needlr/internal/models"
)

func concrete(name string, deps ...string) *models.TypeFact {
	ctor := models.ConstructorFact{Name: "New" + name}
	for _, dep := range deps {
		ctor.Params = append(ctor.Params, models.ParamFact{
			Name: "p" + dep,
			Ref:  models.TypeRef{Qualified: "app." + dep},
		})
	}
	return &models.TypeFact{
		Package:      "app",
		Name:         name,
		Exported:     true,
		Kind:         models.KindConcrete,
		Constructors: []models.ConstructorFact{ctor},
	}
}

func build(t *testing.T, facts ...*models.TypeFact) *graph.Graph {
	t.Helper()
	u := models.NewUniverse(facts)
	res := classifier.New().Classify(u)
	lifetime.NewResolver().Apply(res, u)
	g, _ := graph.Build(res, u)
	return g
}

func memberNames(g *graph.Graph, members map[int]bool) []string {
	var names []string
	for idx, in := range members {
		if in {
			names = append(names, g.Nodes[idx].QualifiedName())
		}
	}
	return names
}

func TestRun_DetectsCycle(t *testing.T) {
	g := build(t,
		concrete("A", "B"),
		concrete("B", "C"),
		concrete("C", "A"),
		concrete("Standalone"),
	)

	res := Run(g, nil)

	cycles := res.Diagnostics.ByCode(models.CodeDependencyCycle)
	require.Len(t, cycles, 1, "one cycle reported once regardless of entry point")
	assert.Equal(t, models.SeverityError, cycles[0].Severity)
	assert.Equal(t, "app.A", cycles[0].Subject, "subject is the lexically smallest member")
	assert.Len(t, cycles[0].Path, 4, "path closes back on the first member")
	assert.Equal(t, cycles[0].Path[0], cycles[0].Path[len(cycles[0].Path)-1])

	assert.ElementsMatch(t, []string{"app.A", "app.B", "app.C"}, memberNames(g, res.CycleMembers))
}

func TestRun_SelfCycle(t *testing.T) {
	g := build(t, concrete("Loop", "Loop"))

	res := Run(g, nil)

	require.Len(t, res.Diagnostics.ByCode(models.CodeDependencyCycle), 1)
	assert.ElementsMatch(t, []string{"app.Loop"}, memberNames(g, res.CycleMembers))
}

func TestRun_TwoDistinctCycles(t *testing.T) {
	g := build(t,
		concrete("A", "B"),
		concrete("B", "A"),
		concrete("X", "Y"),
		concrete("Y", "X"),
	)

	res := Run(g, nil)

	assert.Len(t, res.Diagnostics.ByCode(models.CodeDependencyCycle), 2)
	assert.ElementsMatch(t,
		[]string{"app.A", "app.B", "app.X", "app.Y"},
		memberNames(g, res.CycleMembers))
}

func TestRun_NoCycleInAcyclicGraph(t *testing.T) {
	g := build(t,
		concrete("A", "B", "C"),
		concrete("B", "C"),
		concrete("C"),
	)

	res := Run(g, nil)

	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, res.CycleMembers)
}

func TestRun_CaptiveDependency(t *testing.T) {
	singleton := concrete("Server", "Session")
	singleton.Markers.Lifetimes = []models.Lifetime{models.LifetimeSingleton}
	scoped := concrete("Session")
	scoped.Markers.Lifetimes = []models.Lifetime{models.LifetimeScoped}

	g := build(t, singleton, scoped)

	res := Run(g, nil)

	captives := res.Diagnostics.ByCode(models.CodeCaptiveDependency)
	require.Len(t, captives, 1)
	assert.Equal(t, models.SeverityError, captives[0].Severity)
	assert.Equal(t, "app.Server", captives[0].Subject)
	assert.Equal(t, []string{"app.Server", "app.Session"}, captives[0].Path)
}

func TestRun_NoCaptiveForEqualOrShorterConsumer(t *testing.T) {
	scoped := concrete("Handler", "Repo", "Clock")
	scoped.Markers.Lifetimes = []models.Lifetime{models.LifetimeScoped}
	repo := concrete("Repo")
	repo.Markers.Lifetimes = []models.Lifetime{models.LifetimeScoped}
	clock := concrete("Clock")
	clock.Markers.Lifetimes = []models.Lifetime{models.LifetimeSingleton}

	g := build(t, scoped, repo, clock)

	res := Run(g, nil)
	assert.Empty(t, res.Diagnostics.ByCode(models.CodeCaptiveDependency))
}

func TestRun_PolicySoftensButMembersStayExcluded(t *testing.T) {
	g := build(t,
		concrete("A", "B"),
		concrete("B", "A"),
	)

	policy := models.SeverityPolicy{models.CodeDependencyCycle: models.SeverityWarning}
	res := Run(g, policy)

	cycles := res.Diagnostics.ByCode(models.CodeDependencyCycle)
	require.Len(t, cycles, 1)
	assert.Equal(t, models.SeverityWarning, cycles[0].Severity)

	assert.ElementsMatch(t, []string{"app.A", "app.B"}, memberNames(g, res.CycleMembers),
		"softening the severity never readmits cycle members")
}
