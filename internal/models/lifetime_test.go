package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifetime_Outlives(t *testing.T) {
	tests := []struct {
		name     string
		consumer Lifetime
		target   Lifetime
		captive  bool
	}{
		{"singleton over scoped", LifetimeSingleton, LifetimeScoped, true},
		{"singleton over transient", LifetimeSingleton, LifetimeTransient, true},
		{"scoped over transient", LifetimeScoped, LifetimeTransient, true},
		{"same lifetime", LifetimeScoped, LifetimeScoped, false},
		{"scoped under singleton", LifetimeScoped, LifetimeSingleton, false},
		{"transient under scoped", LifetimeTransient, LifetimeScoped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.captive, tt.consumer.Outlives(tt.target))
		})
	}
}

func TestParseLifetime(t *testing.T) {
	for s, want := range map[string]Lifetime{
		"singleton": LifetimeSingleton,
		"Scoped":    LifetimeScoped,
		"transient": LifetimeTransient,
	} {
		got, err := ParseLifetime(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLifetime("pooled")
	assert.Error(t, err)
}

func TestParseSeverity(t *testing.T) {
	for s, want := range map[string]Severity{
		"error":   SeverityError,
		"Warning": SeverityWarning,
		"warn":    SeverityWarning,
		" info ":  SeverityInfo,
	} {
		got, err := ParseSeverity(s)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", s)
	}

	_, err := ParseSeverity("fatal")
	assert.Error(t, err)
}

func TestSeverityPolicy_Apply(t *testing.T) {
	policy := SeverityPolicy{CodeCaptiveDependency: SeverityWarning}

	softened := policy.Apply(Diagnostic{Severity: SeverityError, Code: CodeCaptiveDependency})
	assert.Equal(t, SeverityWarning, softened.Severity)

	untouched := policy.Apply(Diagnostic{Severity: SeverityError, Code: CodeDependencyCycle})
	assert.Equal(t, SeverityError, untouched.Severity)

	var nilPolicy SeverityPolicy
	same := nilPolicy.Apply(Diagnostic{Severity: SeverityInfo, Code: CodeExcludedByContract})
	assert.Equal(t, SeverityInfo, same.Severity)
}
