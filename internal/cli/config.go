package cli

import (
	stderrors "errors"
	"fmt"
	"path"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ncosentino/needlr/internal/errors"
	"github.com/ncosentino/needlr/internal/lifetime"
	"github.com/ncosentino/needlr/internal/models"
)

// OverrideConfig is one lifetime override as written in the config file
type OverrideConfig struct {
	Pattern  string `mapstructure:"pattern"`
	Lifetime string `mapstructure:"lifetime"`
}

// Config holds the configuration for a needlr run. Values come from the
// config file, NEEDLR_* environment variables and command-line flags, in
// ascending precedence.
type Config struct {
	// Directories to analyze. Entries may use the Go "./..." form.
	Directories []string `mapstructure:"directories"`

	// Module is the module path recorded in the manifest. When empty it
	// is resolved from the nearest go.mod.
	Module string `mapstructure:"module"`

	// Output is the manifest file path. Empty writes to stdout.
	Output string `mapstructure:"output"`

	// Format selects the manifest encoding, "json" or "yaml".
	Format string `mapstructure:"format"`

	// Graph, when set, writes a Graphviz dot rendering of the dependency
	// graph to this path.
	Graph string `mapstructure:"graph"`

	// Include restricts the universe to packages matching these import
	// path patterns (exact, trailing /... or glob). Empty means no
	// restriction.
	Include []string `mapstructure:"include"`

	// IncludeDefining controls whether the analyzed module's own packages
	// enter the universe when include patterns are configured.
	IncludeDefining bool `mapstructure:"include_defining"`

	// Overrides remap resolved lifetimes by qualified-name pattern.
	Overrides []OverrideConfig `mapstructure:"overrides"`

	// Severity remaps diagnostic codes, e.g. NDL202: warning.
	Severity map[string]string `mapstructure:"severity"`

	Verbose bool `mapstructure:"verbose"`
	Quiet   bool `mapstructure:"quiet"`
}

// DefaultConfig returns a config with the built-in defaults applied
func DefaultConfig() Config {
	return Config{
		Directories:     []string{"./..."},
		Format:          "json",
		IncludeDefining: true,
	}
}

// LoadConfig reads the optional needlr.yaml config file and NEEDLR_*
// environment variables. A missing config file is not an error; a malformed
// one is. An .env file in the working directory is loaded first so it can
// supply the environment variables.
func LoadConfig(path string) (Config, error) {
	// Missing .env is the common case and fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("NEEDLR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	v.SetDefault("directories", cfg.Directories)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("include_defining", cfg.IncludeDefining)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("needlr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return cfg, errors.NewConfigurationError("failed to read config file", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.NewConfigurationError("failed to parse config file", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Format {
	case "json", "yaml":
	default:
		return errors.NewConfigurationError(
			fmt.Sprintf("unknown manifest format %q", c.Format), nil).
			WithSuggestion("use \"json\" or \"yaml\"")
	}
	if c.Verbose && c.Quiet {
		return errors.NewConfigurationError("verbose and quiet are mutually exclusive", nil)
	}
	return nil
}

// PackageFilter returns the universe filter implied by the include
// configuration, or nil when every scanned package enters the universe.
// Patterns take the same forms as lifetime override patterns: exact path,
// trailing /... for a subtree, or a glob.
func (c Config) PackageFilter(module string) func(*models.TypeFact) bool {
	if len(c.Include) == 0 && c.IncludeDefining {
		return nil
	}
	return func(f *models.TypeFact) bool {
		if f.Package == module || strings.HasPrefix(f.Package, module+"/") {
			return c.IncludeDefining
		}
		if len(c.Include) == 0 {
			return true
		}
		for _, pattern := range c.Include {
			if matchPackage(pattern, f.Package) {
				return true
			}
		}
		return false
	}
}

func matchPackage(pattern, pkg string) bool {
	if strings.HasSuffix(pattern, "/...") {
		prefix := strings.TrimSuffix(pattern, "/...")
		return pkg == prefix || strings.HasPrefix(pkg, prefix+"/")
	}
	if matched, err := path.Match(pattern, pkg); err == nil && matched {
		return true
	}
	return pkg == pattern
}

// LifetimeOverrides converts the configured overrides to resolver form
func (c Config) LifetimeOverrides() ([]lifetime.Override, error) {
	var out []lifetime.Override
	for _, o := range c.Overrides {
		lt, err := models.ParseLifetime(o.Lifetime)
		if err != nil {
			return nil, errors.NewConfigurationError(
				fmt.Sprintf("override %q: %v", o.Pattern, err), err)
		}
		out = append(out, lifetime.Override{Pattern: o.Pattern, Lifetime: lt})
	}
	return out, nil
}

// SeverityPolicy converts the configured severity remappings to policy form
func (c Config) SeverityPolicy() (models.SeverityPolicy, error) {
	if len(c.Severity) == 0 {
		return nil, nil
	}
	policy := make(models.SeverityPolicy, len(c.Severity))
	for code, name := range c.Severity {
		sev, err := models.ParseSeverity(name)
		if err != nil {
			return nil, errors.NewConfigurationError(
				fmt.Sprintf("severity for %s: %v", code, err), err)
		}
		policy[code] = sev
	}
	return policy, nil
}
