package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncosentino/needlr/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"./..."}, cfg.Directories)
	assert.Equal(t, "json", cfg.Format)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_ExplicitFileMustExist(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "needlr.yaml", `
directories:
  - ./internal/...
  - ./cmd
module: example.com/app
format: yaml
output: out/manifest.yaml
graph: out/graph.dot
include:
  - example.com/plugins/...
include_defining: false
overrides:
  - pattern: example.com/app/workers/...
    lifetime: transient
severity:
  NDL202: warning
verbose: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"./internal/...", "./cmd"}, cfg.Directories)
	assert.Equal(t, "example.com/app", cfg.Module)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "out/manifest.yaml", cfg.Output)
	assert.Equal(t, "out/graph.dot", cfg.Graph)
	assert.Equal(t, []string{"example.com/plugins/..."}, cfg.Include)
	assert.False(t, cfg.IncludeDefining)
	assert.True(t, cfg.Verbose)

	overrides, err := cfg.LifetimeOverrides()
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, models.LifetimeTransient, overrides[0].Lifetime)
	assert.True(t, overrides[0].Matches("example.com/app/workers.Pool"))

	policy, err := cfg.SeverityPolicy()
	require.NoError(t, err)
	assert.Equal(t, models.SeverityWarning, policy[models.CodeCaptiveDependency])
}

func TestLoadConfig_RejectsBadFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "needlr.yaml", "format: xml\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestLoadConfig_RejectsVerboseQuiet(t *testing.T) {
	path := writeFile(t, t.TempDir(), "needlr.yaml", "verbose: true\nquiet: true\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_PackageFilter(t *testing.T) {
	fact := func(pkg string) *models.TypeFact {
		return &models.TypeFact{Package: pkg, Name: "T"}
	}

	t.Run("no filtering by default", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Nil(t, cfg.PackageFilter("example.com/app"))
	})

	t.Run("include patterns restrict external packages", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Include = []string{"example.com/plugins/..."}

		keep := cfg.PackageFilter("example.com/app")
		require.NotNil(t, keep)
		assert.True(t, keep(fact("example.com/plugins/mail")))
		assert.True(t, keep(fact("example.com/app/internal/svc")))
		assert.False(t, keep(fact("example.com/other")))
	})

	t.Run("defining module can be excluded", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.IncludeDefining = false

		keep := cfg.PackageFilter("example.com/app")
		require.NotNil(t, keep)
		assert.False(t, keep(fact("example.com/app")))
		assert.False(t, keep(fact("example.com/app/internal/svc")))
		assert.True(t, keep(fact("example.com/plugins/mail")))
	})

	t.Run("glob pattern", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Include = []string{"example.com/ext-*"}

		keep := cfg.PackageFilter("example.com/app")
		require.NotNil(t, keep)
		assert.True(t, keep(fact("example.com/ext-mail")))
		assert.False(t, keep(fact("example.com/extra/mail")))
	})
}

func TestConfig_BadOverrideLifetime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Overrides = []OverrideConfig{{Pattern: "app/...", Lifetime: "pooled"}}

	_, err := cfg.LifetimeOverrides()
	assert.Error(t, err)
}

func TestConfig_BadSeverityName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Severity = map[string]string{"NDL201": "fatal"}

	_, err := cfg.SeverityPolicy()
	assert.Error(t, err)
}
