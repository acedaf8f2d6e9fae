package cli

import (
	"fmt"
	"os"

	"github.com/ncosentino/needlr/internal/errors"
)

// generated output names recognized by --clean when no explicit paths are
// configured
var defaultArtifacts = []string{
	"needlr.manifest.json",
	"needlr.manifest.yaml",
	"needlr.graph.dot",
}

// Cleaner removes previously written needlr outputs
type Cleaner struct{}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean removes the outputs a run with this config would produce, plus the
// default artifact names in the working directory. Missing files are not
// errors; every removal failure is collected so one locked file does not
// hide the rest.
func (c *Cleaner) Clean(cfg Config) ([]string, error) {
	targets := make([]string, 0, len(defaultArtifacts)+2)
	if cfg.Output != "" {
		targets = append(targets, cfg.Output)
	}
	if cfg.Graph != "" {
		targets = append(targets, cfg.Graph)
	}
	targets = append(targets, defaultArtifacts...)

	var removed []string
	failures := errors.NewMultipleErrors()
	seen := make(map[string]bool)

	for _, target := range targets {
		if seen[target] {
			continue
		}
		seen[target] = true

		if _, err := os.Stat(target); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			failures.Add(fmt.Errorf("failed to check %s: %w", target, err))
			continue
		}
		if err := os.Remove(target); err != nil {
			failures.Add(fmt.Errorf("failed to remove %s: %w", target, err))
			continue
		}
		removed = append(removed, target)
	}

	return removed, failures.ErrorOrNil()
}
