package synth

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/decorate"
	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/lifetime"
	"github.com/ncosentino/needlr/internal/models"
	"github.com/ncosentino/needlr/internal/validate"
)

func concrete(pkg, name string, ctors ...models.ConstructorFact) *models.TypeFact {
	return &models.TypeFact{
		Package:      pkg,
		Name:         name,
		Exported:     true,
		Kind:         models.KindConcrete,
		Constructors: ctors,
	}
}

func contract(pkg, name string, methods ...string) *models.TypeFact {
	return &models.TypeFact{
		Package:  pkg,
		Name:     name,
		Exported: true,
		Kind:     models.KindContract,
		Methods:  methods,
	}
}

func synthesize(t *testing.T, facts ...*models.TypeFact) *models.Manifest {
	t.Helper()
	u := models.NewUniverse(facts)
	res := classifier.New().Classify(u)
	lifetime.NewResolver().Apply(res, u)
	g, _ := graph.Build(res, u)
	v := validate.Run(g, nil)
	d := decorate.Resolve(res, u)
	return Synthesize("example.com/app", res, g, v, d, u.Hash())
}

func TestSynthesize_OrderingAndPlans(t *testing.T) {
	repo := concrete("app/storage", "Repo", models.ConstructorFact{Name: "NewRepo"})
	svc := concrete("app/api", "Service", models.ConstructorFact{
		Name: "NewService",
		Params: []models.ParamFact{
			{Name: "repo", Ref: models.TypeRef{Qualified: "app/storage.Repo"}},
		},
		ReturnsError: true,
	})

	m := synthesize(t, svc, repo)

	assert.Equal(t, "example.com/app", m.Module)
	assert.NotEmpty(t, m.UniverseHash)

	require.Len(t, m.Registrations, 2)
	assert.Equal(t, "app/api.Service", m.Registrations[0].Implementation,
		"registrations group by package then sort by qualified name")
	assert.Equal(t, "app/storage.Repo", m.Registrations[1].Implementation)

	plan := m.Registrations[0].Plan
	assert.Equal(t, "NewService", plan.Constructor)
	assert.True(t, plan.ReturnsError)
	require.Len(t, plan.Args, 1)
	assert.Equal(t, "repo", plan.Args[0].Param)
	assert.Equal(t, "type", plan.Args[0].Kind)
	assert.Equal(t, "app/storage.Repo", plan.Args[0].Target)
}

func TestSynthesize_ExcludesCycleMembers(t *testing.T) {
	a := concrete("app", "A", models.ConstructorFact{
		Name:   "NewA",
		Params: []models.ParamFact{{Name: "b", Ref: models.TypeRef{Qualified: "app.B"}}},
	})
	b := concrete("app", "B", models.ConstructorFact{
		Name:   "NewB",
		Params: []models.ParamFact{{Name: "a", Ref: models.TypeRef{Qualified: "app.A"}}},
	})
	ok := concrete("app", "Standalone", models.ConstructorFact{Name: "NewStandalone"})

	m := synthesize(t, a, b, ok)

	require.Len(t, m.Registrations, 1)
	assert.Equal(t, "app.Standalone", m.Registrations[0].Implementation)
}

func TestSynthesize_ExcludesGappedTypes(t *testing.T) {
	notifier := contract("app", "Notifier", "Send")
	email := concrete("app", "EmailSender", models.ConstructorFact{Name: "NewEmailSender"})
	email.Interfaces = []models.InterfaceRef{{Qualified: "app.Notifier"}}
	sms := concrete("app", "SMSSender", models.ConstructorFact{Name: "NewSMSSender"})
	sms.Interfaces = []models.InterfaceRef{{Qualified: "app.Notifier"}}
	gapped := concrete("app", "Service", models.ConstructorFact{
		Name:   "NewService",
		Params: []models.ParamFact{{Name: "n", Ref: models.TypeRef{Qualified: "app.Notifier"}}},
	})

	m := synthesize(t, notifier, email, sms, gapped)

	_, found := m.Lookup("app.Service")
	assert.False(t, found, "ambiguous consumers stay out of the manifest")

	_, found = m.Lookup("app.EmailSender")
	assert.True(t, found)
}

func TestSynthesize_KeyedSlots(t *testing.T) {
	store := contract("app", "Store", "Get")
	redis := concrete("app", "RedisStore", models.ConstructorFact{Name: "NewRedisStore"})
	redis.Interfaces = []models.InterfaceRef{{Qualified: "app.Store"}}
	redis.Markers.Keys = []string{"replica", "primary"}

	m := synthesize(t, store, redis)

	reg, found := m.Lookup("app.RedisStore")
	require.True(t, found)
	assert.Empty(t, reg.Interfaces)
	assert.Equal(t, []models.KeyedSlot{
		{Interface: "app.Store", Key: "primary"},
		{Interface: "app.Store", Key: "replica"},
	}, reg.KeyedSlots, "keyed slots sort by interface then key")
}

func TestSynthesize_GappedDecoratorNotApplied(t *testing.T) {
	notifier := contract("app", "Notifier", "Send")
	store := contract("app", "Store", "Get")

	// The decorator's store parameter is ambiguous, which gaps the
	// decorator itself. It keeps its graph node but must be neither
	// registered nor applied.
	decorator := concrete("app", "LoggingNotifier", models.ConstructorFact{
		Name:   "NewLoggingNotifier",
		Params: []models.ParamFact{{Name: "store", Ref: models.TypeRef{Qualified: "app.Store"}}},
	})
	decorator.Interfaces = []models.InterfaceRef{{Qualified: "app.Notifier"}}
	decorator.Markers.Decorators = []models.WrapMarker{{Interface: "app.Notifier", Order: 0}}

	redis := concrete("app", "RedisStore", models.ConstructorFact{Name: "NewRedisStore"})
	redis.Interfaces = []models.InterfaceRef{{Qualified: "app.Store"}}
	mem := concrete("app", "MemoryStore", models.ConstructorFact{Name: "NewMemoryStore"})
	mem.Interfaces = []models.InterfaceRef{{Qualified: "app.Store"}}

	provider := concrete("app", "EmailSender", models.ConstructorFact{Name: "NewEmailSender"})
	provider.Interfaces = []models.InterfaceRef{{Qualified: "app.Notifier"}}

	m := synthesize(t, notifier, store, decorator, redis, mem, provider)

	_, found := m.Lookup("app.LoggingNotifier")
	assert.False(t, found)
	assert.Empty(t, m.Decorators)
}

func TestSynthesize_DeterministicSerialization(t *testing.T) {
	build := func() *models.Manifest {
		repo := concrete("app/storage", "Repo", models.ConstructorFact{Name: "NewRepo"})
		svc := concrete("app/api", "Service", models.ConstructorFact{
			Name: "NewService",
			Params: []models.ParamFact{
				{Name: "repo", Ref: models.TypeRef{Qualified: "app/storage.Repo"}},
			},
		})
		return synthesize(t, svc, repo)
	}

	var first, second bytes.Buffer
	require.NoError(t, build().WriteJSON(&first))
	require.NoError(t, build().WriteJSON(&second))
	assert.Equal(t, first.String(), second.String(), "byte-identical output for identical universes")

	var y1, y2 bytes.Buffer
	require.NoError(t, build().WriteYAML(&y1))
	require.NoError(t, build().WriteYAML(&y2))
	assert.Equal(t, y1.String(), y2.String())
}

func TestSynthesize_PluginsListed(t *testing.T) {
	tool := concrete("app", "Tool", models.ConstructorFact{Name: "NewTool"})
	tool.Markers.Excluded = true

	m := synthesize(t, tool)

	assert.Empty(t, m.Registrations)
	assert.Equal(t, []string{"app.Tool"}, m.Plugins)
}
