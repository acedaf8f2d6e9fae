package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/ncosentino/needlr/internal/errors"
)

// ModuleResolver determines the module path recorded in the manifest
type ModuleResolver struct{}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{}
}

// ResolveModulePath returns the explicit path when given, otherwise reads
// it from the nearest go.mod at or above startDir.
func (r *ModuleResolver) ResolveModulePath(explicit, startDir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	goModPath, err := r.findGoMod(startDir)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(goModPath)
	if err != nil {
		return "", errors.NewModuleResolutionError("failed to read go.mod", err).WithPath(goModPath)
	}

	f, err := modfile.ParseLax(goModPath, data, nil)
	if err != nil {
		return "", errors.NewModuleResolutionError("failed to parse go.mod", err).WithPath(goModPath)
	}
	if f.Module == nil || f.Module.Mod.Path == "" {
		return "", errors.NewModuleResolutionError("go.mod has no module directive", nil).WithPath(goModPath)
	}
	return f.Module.Mod.Path, nil
}

func (r *ModuleResolver) findGoMod(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.NewModuleResolutionError(
			fmt.Sprintf("cannot resolve directory %q", startDir), err)
	}

	for {
		candidate := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.NewModuleResolutionError("no go.mod found", nil).WithPath(startDir)
		}
		dir = parent
	}
}
