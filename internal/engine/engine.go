package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/decorate"
	"github.com/ncosentino/needlr/internal/graph"
	"github.com/ncosentino/needlr/internal/lifetime"
	"github.com/ncosentino/needlr/internal/models"
	"github.com/ncosentino/needlr/internal/synth"
	"github.com/ncosentino/needlr/internal/validate"
)

// Config controls a single analysis run. The zero value is usable: no
// lifetime overrides, default severities, no caching.
type Config struct {
	// Module names the analyzed module in the emitted manifest.
	Module string

	// Overrides remap resolved lifetimes by qualified-name pattern,
	// applied in declaration order after markers.
	Overrides []lifetime.Override

	// Severity remaps diagnostic codes. Softening a cycle to a warning
	// changes reporting only, the members stay out of the manifest.
	Severity models.SeverityPolicy

	// Cache, when set, memoizes results by universe hash across runs.
	Cache *ManifestCache

	Logger zerolog.Logger
}

// Result is the outcome of one pipeline run over a universe.
type Result struct {
	RunID       string
	Manifest    *models.Manifest
	Diagnostics models.Diagnostics
	CacheHit    bool
}

// Run executes the analysis pipeline over a loaded universe. The pipeline is
// a pure function of the universe and the config: it mutates nothing it is
// given and touches no global state, so the same inputs always produce the
// same manifest and the same diagnostics in the same order.
//
// Cancellation is honored between stages. A stage that has started runs to
// completion; the partial work is discarded and ctx.Err is returned.
func Run(ctx context.Context, u *models.Universe, cfg Config) (*Result, error) {
	runID := uuid.NewString()
	log := cfg.Logger.With().Str("run_id", runID).Logger()

	hash := u.Hash()
	if cfg.Cache != nil {
		if manifest, diags, ok := cfg.Cache.Get(hash); ok {
			log.Debug().Str("universe_hash", hash).Msg("manifest cache hit")
			return &Result{RunID: runID, Manifest: manifest, Diagnostics: diags, CacheHit: true}, nil
		}
	}

	log.Debug().Int("types", u.Len()).Str("universe_hash", hash).Msg("pipeline started")

	// Stage order is fixed and diagnostics are aggregated in that order,
	// so reports are stable run to run.
	var diags models.Diagnostics

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	classified := classifier.New().Classify(u)
	diags = append(diags, classified.Diagnostics...)
	log.Debug().Int("injectable", len(classified.Injectables)).Int("rejected", len(classified.Rejections)).Msg("classification complete")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	diags = append(diags, lifetime.NewResolver(cfg.Overrides...).Apply(classified, u)...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, graphDiags := graph.Build(classified, u)
	diags = append(diags, graphDiags...)
	log.Debug().Int("nodes", len(g.Nodes)).Int("edges", len(g.Edges)).Msg("dependency graph built")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	validated := validate.Run(g, cfg.Severity)
	diags = append(diags, validated.Diagnostics...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wrapped := decorate.Resolve(classified, u)
	diags = append(diags, wrapped.Diagnostics...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	manifest := synth.Synthesize(cfg.Module, classified, g, validated, wrapped, hash)

	for i := range diags {
		diags[i] = cfg.Severity.Apply(diags[i])
	}

	if cfg.Cache != nil {
		cfg.Cache.Set(hash, manifest, diags)
	}

	log.Debug().Int("registrations", len(manifest.Registrations)).Int("diagnostics", len(diags)).Msg("pipeline finished")
	return &Result{RunID: runID, Manifest: manifest, Diagnostics: diags}, nil
}
