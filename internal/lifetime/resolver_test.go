package lifetime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/models"
)

func fact(name string, lifetimes ...models.Lifetime) *models.TypeFact {
	f := &models.TypeFact{Package: "app/svc", Name: name, Exported: true, Kind: models.KindConcrete}
	f.Markers.Lifetimes = lifetimes
	return f
}

func TestResolve_MarkerWins(t *testing.T) {
	r := NewResolver(Override{Pattern: "app/svc/...", Lifetime: models.LifetimeTransient})

	lt, diag := r.Resolve(fact("Service", models.LifetimeScoped))
	require.Nil(t, diag)
	assert.Equal(t, models.LifetimeScoped, lt)
}

func TestResolve_DefaultIsSingleton(t *testing.T) {
	lt, diag := NewResolver().Resolve(fact("Service"))
	require.Nil(t, diag)
	assert.Equal(t, models.LifetimeSingleton, lt)
}

func TestResolve_ConflictingMarkers(t *testing.T) {
	lt, diag := NewResolver().Resolve(fact("Service", models.LifetimeScoped, models.LifetimeTransient))

	assert.Equal(t, models.LifetimeScoped, lt, "first declared marker wins")
	require.NotNil(t, diag)
	assert.Equal(t, models.CodeConflictingLifetimes, diag.Code)
	assert.Equal(t, models.SeverityError, diag.Severity)
	assert.Equal(t, "app/svc.Service", diag.Subject)
}

func TestResolve_RepeatedIdenticalMarkersAreFine(t *testing.T) {
	lt, diag := NewResolver().Resolve(fact("Service", models.LifetimeScoped, models.LifetimeScoped))
	assert.Nil(t, diag)
	assert.Equal(t, models.LifetimeScoped, lt)
}

func TestResolve_OverridesInOrder(t *testing.T) {
	r := NewResolver(
		Override{Pattern: "app/svc.Worker", Lifetime: models.LifetimeTransient},
		Override{Pattern: "app/svc/...", Lifetime: models.LifetimeScoped},
	)

	lt, _ := r.Resolve(fact("Worker"))
	assert.Equal(t, models.LifetimeTransient, lt, "first matching override wins")

	lt, _ = r.Resolve(fact("Service"))
	assert.Equal(t, models.LifetimeScoped, lt)
}

func TestApply_AssignsLifetimes(t *testing.T) {
	f := fact("Service", models.LifetimeScoped)
	f.Constructors = []models.ConstructorFact{{Name: "NewService"}}
	u := models.NewUniverse([]*models.TypeFact{f})
	res := classifier.New().Classify(u)

	diags := NewResolver().Apply(res, u)

	assert.Empty(t, diags)
	injectable, ok := res.Lookup("app/svc.Service")
	require.True(t, ok)
	assert.Equal(t, models.LifetimeScoped, injectable.Lifetime)
}

func TestApply_ConflictReportedOnRejectedType(t *testing.T) {
	// The conflicting markers are a defect of the declaration itself, so
	// the diagnostic must survive the type failing classification.
	f := fact("Broken", models.LifetimeScoped, models.LifetimeTransient)
	f.Markers.Excluded = true
	u := models.NewUniverse([]*models.TypeFact{f})
	res := classifier.New().Classify(u)
	require.Empty(t, res.Injectables)

	diags := NewResolver().Apply(res, u)

	require.Len(t, diags, 1)
	assert.Equal(t, models.CodeConflictingLifetimes, diags[0].Code)
	assert.Equal(t, "app/svc.Broken", diags[0].Subject)
}

func TestApply_ConflictSurvivesMissingConstructor(t *testing.T) {
	f := fact("Unbuildable", models.LifetimeSingleton, models.LifetimeTransient)
	u := models.NewUniverse([]*models.TypeFact{f})
	res := classifier.New().Classify(u)
	_, rejected := res.RejectionFor("app/svc.Unbuildable")
	require.True(t, rejected)

	diags := NewResolver().Apply(res, u)

	require.Len(t, diags, 1)
	assert.Equal(t, models.CodeConflictingLifetimes, diags[0].Code)
}

func TestOverride_Matches(t *testing.T) {
	tests := []struct {
		pattern   string
		qualified string
		want      bool
	}{
		{"app/svc.Service", "app/svc.Service", true},
		{"app/svc.Service", "app/svc.Worker", false},
		{"app/svc/...", "app/svc/workers.Pool", true},
		{"app/svc/...", "app/other.Pool", false},
		{"app/svc.*", "app/svc.Worker", true},
		{"*.Worker", "app2.Worker", true},
	}
	for _, tt := range tests {
		o := Override{Pattern: tt.pattern}
		assert.Equal(t, tt.want, o.Matches(tt.qualified), "%s vs %s", tt.pattern, tt.qualified)
	}
}
