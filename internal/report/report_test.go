package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/lifetime"
	"github.com/ncosentino/needlr/internal/models"
	"github.com/ncosentino/needlr/internal/validate"
)

func concrete(name string, ctors ...models.ConstructorFact) *models.TypeFact {
	return &models.TypeFact{
		Package:      "app",
		Name:         name,
		Exported:     true,
		Kind:         models.KindConcrete,
		Constructors: ctors,
	}
}

func derive(t *testing.T, facts ...*models.TypeFact) (*classifier.Result, *graph.Graph, *validate.Result) {
	t.Helper()
	u := models.NewUniverse(facts)
	res := classifier.New().Classify(u)
	require.Empty(t, lifetime.NewResolver().Apply(res, u))
	g, _ := graph.Build(res, u)
	return res, g, validate.Run(g, nil)
}

func TestWriteDOT(t *testing.T) {
	dep := concrete("Repo", models.ConstructorFact{Name: "NewRepo"})
	svc := concrete("Service", models.ConstructorFact{
		Name:   "NewService",
		Params: []models.ParamFact{{Name: "repo", Ref: models.TypeRef{Qualified: "app.Repo"}}},
	})
	_, g, v := derive(t, dep, svc)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, g, v))

	out := buf.String()
	assert.Contains(t, out, "digraph needlr {")
	assert.Contains(t, out, `"app.Repo"`)
	assert.Contains(t, out, `"app.Service" -> "app.Repo" [label="repo"];`)
	assert.Contains(t, out, "rankdir=LR")
}

func TestWriteDOT_CycleAndGapHighlighting(t *testing.T) {
	a := concrete("A", models.ConstructorFact{
		Name:   "NewA",
		Params: []models.ParamFact{{Name: "b", Ref: models.TypeRef{Qualified: "app.B"}}},
	})
	b := concrete("B", models.ConstructorFact{
		Name:   "NewB",
		Params: []models.ParamFact{{Name: "a", Ref: models.TypeRef{Qualified: "app.A"}}},
	})

	_, g, v := derive(t, a, b)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, g, v))

	assert.Contains(t, buf.String(), "color=red, penwidth=2")
}

func TestWriteDOT_Deterministic(t *testing.T) {
	build := func() string {
		dep := concrete("Repo", models.ConstructorFact{Name: "NewRepo"})
		svc := concrete("Service", models.ConstructorFact{
			Name:   "NewService",
			Params: []models.ParamFact{{Name: "repo", Ref: models.TypeRef{Qualified: "app.Repo"}}},
		})
		_, g, v := derive(t, dep, svc)
		var buf bytes.Buffer
		require.NoError(t, WriteDOT(&buf, g, v))
		return buf.String()
	}

	assert.Equal(t, build(), build())
}

func TestWriteSummary(t *testing.T) {
	manifest := &models.Manifest{
		Module:       "example.com/app",
		UniverseHash: "0123456789abcdef0123456789abcdef",
		Registrations: []models.Registration{
			{Implementation: "app.Repo", Lifetime: models.LifetimeSingleton},
			{Implementation: "app.Session", Lifetime: models.LifetimeScoped},
		},
		Decorators: []models.DecoratorApplication{
			{Interface: "app.Notifier", Decorator: "app.Logging", Order: 1},
		},
		Plugins: []string{"app.Repo"},
	}
	res := &classifier.Result{
		Rejections: []classifier.Rejection{
			{Type: "app.pair", Reason: models.ReasonNotExported},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, manifest, res))

	out := buf.String()
	assert.Contains(t, out, "module example.com/app")
	assert.Contains(t, out, "universe 0123456789ab")
	assert.Contains(t, out, "registrations: 2")
	assert.Contains(t, out, "app.Logging wraps app.Notifier (order 1)")
	assert.Contains(t, out, "plugin-discoverable: 1")
	assert.Contains(t, out, "not injectable: 1")
	assert.Contains(t, out, "app.pair")
}
